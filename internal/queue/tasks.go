package queue

import (
	"encoding/json"

	"github.com/facturio/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPaymentReceiptEmail notifies the client after a settled payment.
	TaskPaymentReceiptEmail = constants.TaskPaymentReceiptEmail
	// TaskOverpaymentReview asks an operator to review a flagged transition.
	TaskOverpaymentReview = constants.TaskOverpaymentReview
)

// PaymentReceiptEmailPayload carries the settled document details.
type PaymentReceiptEmailPayload struct {
	TargetType      string `json:"target_type"`
	TargetReference string `json:"target_reference"`
	EventID         string `json:"event_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

// OverpaymentReviewPayload points an operator at a flagged audit entry.
type OverpaymentReviewPayload struct {
	TargetType      string `json:"target_type"`
	TargetReference string `json:"target_reference"`
	EventID         string `json:"event_id"`
	Flag            string `json:"flag"`
	Amount          string `json:"amount"`
}

// NewPaymentReceiptEmailTask builds a receipt email task.
func NewPaymentReceiptEmailTask(payload PaymentReceiptEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentReceiptEmail, body), nil
}

// NewOverpaymentReviewTask builds an overpayment review task.
func NewOverpaymentReviewTask(payload OverpaymentReviewPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverpaymentReview, body), nil
}
