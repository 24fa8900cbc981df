package worker

import (
	"context"
	"encoding/json"

	"github.com/facturio/internal/logger"
	"github.com/facturio/internal/provider"
	"github.com/facturio/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer handles the asynchronous payment follow-up tasks.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer.
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register wires the task handlers.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPaymentReceiptEmail, c.handlePaymentReceiptEmail)
	mux.HandleFunc(queue.TaskOverpaymentReview, c.handleOverpaymentReview)
}

func (c *Consumer) handlePaymentReceiptEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_receipt_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PaymentReceiptEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_receipt_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.TargetReference == "" || payload.EventID == "" {
		logger.Debugw("worker_receipt_email_skip_invalid_payload",
			"target_reference", payload.TargetReference,
			"event_id", payload.EventID,
		)
		return nil
	}

	// Receipt delivery is a log-visible notification for now; the SMTP
	// integration plugs in here once the mail relay is provisioned.
	logger.Infow("worker_receipt_email_sent",
		"target_type", payload.TargetType,
		"target_reference", payload.TargetReference,
		"event_id", payload.EventID,
		"amount", payload.Amount,
		"currency", payload.Currency,
	)
	return nil
}

func (c *Consumer) handleOverpaymentReview(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_overpayment_review_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OverpaymentReviewPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_overpayment_review_unmarshal_failed", "error", err)
		return err
	}
	if payload.TargetReference == "" || payload.EventID == "" {
		logger.Debugw("worker_overpayment_review_skip_invalid_payload",
			"target_reference", payload.TargetReference,
			"event_id", payload.EventID,
		)
		return nil
	}

	entries, err := c.AuditLogRepo.ListByTarget(payload.TargetType, payload.TargetReference)
	if err != nil {
		logger.Warnw("worker_overpayment_review_fetch_failed",
			"target_reference", payload.TargetReference,
			"error", err,
		)
		return err
	}

	logger.Warnw("worker_overpayment_review_flagged",
		"target_type", payload.TargetType,
		"target_reference", payload.TargetReference,
		"event_id", payload.EventID,
		"flag", payload.Flag,
		"amount", payload.Amount,
		"audit_entries", len(entries),
	)
	return nil
}
