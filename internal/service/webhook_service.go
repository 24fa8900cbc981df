package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/facturio/internal/config"
	"github.com/facturio/internal/constants"
	"github.com/facturio/internal/logger"
	"github.com/facturio/internal/models"
	"github.com/facturio/internal/payment/cinetpay"
	"github.com/facturio/internal/queue"
	"github.com/facturio/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Webhook processing outcomes returned to the endpoint.
const (
	WebhookOutcomeApplied   = "applied"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeIgnored   = "ignored"
)

// Number of attempts against optimistic-lock conflicts before giving up.
const reconcileMaxAttempts = 3

var errReconcileConflict = errors.New("reconcile version conflict")

// WebhookResult is the processed outcome of one gateway delivery.
type WebhookResult struct {
	Outcome string
	Reason  string
	Event   *PaymentEvent
}

// WebhookService authenticates, normalizes, deduplicates and reconciles
// gateway notifications. The ledger reservation and the document mutation
// share one transaction so a rolled-back attempt leaves no trace and the
// gateway retry can start clean.
type WebhookService struct {
	cfg         *config.Config
	invoiceRepo repository.InvoiceRepository
	quoteRepo   repository.QuoteRepository
	eventRepo   repository.ProcessedEventRepository
	auditRepo   repository.PaymentAuditLogRepository
	queueClient *queue.Client
}

// NewWebhookService creates the webhook processing service.
func NewWebhookService(cfg *config.Config, invoiceRepo repository.InvoiceRepository, quoteRepo repository.QuoteRepository, eventRepo repository.ProcessedEventRepository, auditRepo repository.PaymentAuditLogRepository, queueClient *queue.Client) *WebhookService {
	return &WebhookService{
		cfg:         cfg,
		invoiceRepo: invoiceRepo,
		quoteRepo:   quoteRepo,
		eventRepo:   eventRepo,
		auditRepo:   auditRepo,
		queueClient: queueClient,
	}
}

// documentState is the reconciliation view over invoices and quotes.
type documentState struct {
	ID        uint
	UserID    uint
	Reference string
	Status    string
	Currency  string
	AmountDue models.Money
	Version   uint
}

// HandleWebhook runs the full intake pipeline on one raw delivery.
// The rawBody must be the exact bytes read from the wire; the signature is
// checked before any parsing.
func (s *WebhookService) HandleWebhook(rawBody []byte, providedSignature string) (*WebhookResult, error) {
	secret := ""
	if s.cfg != nil {
		secret = s.cfg.Cinetpay.SecretKey
	}
	if !cinetpay.VerifySignature(rawBody, providedSignature, secret) {
		logger.Warnw("webhook_signature_rejected", "body_bytes", len(rawBody))
		return nil, ErrSignatureInvalid
	}

	event, err := NormalizePaymentEvent(rawBody, time.Now())
	if err != nil {
		logger.Warnw("webhook_normalize_rejected", "error", err)
		return nil, err
	}

	log := webhookLogger(
		"provider_event_id", event.ProviderEventID,
		"reference", event.Reference,
		"document_type", event.DocumentType,
		"event_status", event.Status,
		"amount", event.Amount.String(),
		"currency", event.Currency,
	)
	log.Infow("webhook_event_received")

	result := &WebhookResult{Event: event}
	var decision *transitionDecision
	var previousStatus string

	for attempt := 1; attempt <= reconcileMaxAttempts; attempt++ {
		decision = nil
		previousStatus = ""
		txErr := models.DB.Transaction(func(tx *gorm.DB) error {
			eventRepo := s.eventRepo.WithTx(tx)
			now := time.Now()

			fresh, err := eventRepo.InsertIfAbsent(event.ProviderEventID, now)
			if err != nil {
				return fmt.Errorf("%w: ledger reserve: %v", ErrStorageUnavailable, err)
			}
			if !fresh {
				// The row keeps the first delivery's outcome; the
				// duplicate disposition is only reported to the caller.
				result.Outcome = WebhookOutcomeDuplicate
				result.Reason = constants.LedgerOutcomeIgnoredDuplicate
				return nil
			}

			doc, err := s.loadDocument(tx, event)
			if err != nil {
				return fmt.Errorf("%w: document fetch: %v", ErrStorageUnavailable, err)
			}
			if doc == nil {
				if err := eventRepo.MarkOutcome(event.ProviderEventID, constants.LedgerOutcomeRejected, "not_found", now); err != nil {
					return fmt.Errorf("%w: ledger outcome: %v", ErrStorageUnavailable, err)
				}
				result.Outcome = WebhookOutcomeIgnored
				result.Reason = "not_found"
				return nil
			}
			previousStatus = doc.Status

			d, derr := computeTransition(doc.Status, doc.AmountDue, event.Currency, doc.Currency, event)
			if derr != nil {
				reason := "invalid_transition"
				if errors.Is(derr, ErrAlreadyFinal) {
					reason = "already_final"
				}
				if err := eventRepo.MarkOutcome(event.ProviderEventID, constants.LedgerOutcomeRejected, reason, now); err != nil {
					return fmt.Errorf("%w: ledger outcome: %v", ErrStorageUnavailable, err)
				}
				result.Outcome = WebhookOutcomeIgnored
				result.Reason = reason
				return nil
			}
			decision = d

			if d.Mutate {
				ok, err := s.persistTransition(tx, event.DocumentType, doc, d, now)
				if err != nil {
					return fmt.Errorf("%w: document update: %v", ErrStorageUnavailable, err)
				}
				if !ok {
					// Another writer bumped the version; rerun against
					// the fresh state.
					return errReconcileConflict
				}
			}

			entry := &models.PaymentAuditLog{
				TargetType:      event.DocumentType,
				TargetReference: doc.Reference,
				PreviousStatus:  doc.Status,
				NewStatus:       d.NewStatus,
				EventID:         event.ProviderEventID,
				Amount:          event.Amount,
				AmountDueAfter:  d.AmountDueAfter,
				Flag:            d.Flag,
				Payload:         event.PayloadMap(),
				AppliedAt:       now,
			}
			if err := s.auditRepo.WithTx(tx).Create(entry); err != nil {
				return fmt.Errorf("%w: audit append: %v", ErrStorageUnavailable, err)
			}

			if err := eventRepo.MarkOutcome(event.ProviderEventID, constants.LedgerOutcomeApplied, d.Reason, now); err != nil {
				return fmt.Errorf("%w: ledger outcome: %v", ErrStorageUnavailable, err)
			}
			result.Outcome = WebhookOutcomeApplied
			result.Reason = d.Reason
			return nil
		})
		if txErr == nil {
			break
		}
		if errors.Is(txErr, errReconcileConflict) {
			log.Infow("webhook_reconcile_retry", "attempt", attempt)
			if attempt == reconcileMaxAttempts {
				log.Errorw("webhook_reconcile_conflict_exhausted", "attempts", attempt)
				return nil, fmt.Errorf("%w: version conflict after %d attempts", ErrStorageUnavailable, attempt)
			}
			continue
		}
		log.Errorw("webhook_reconcile_failed", "error", txErr)
		return nil, txErr
	}

	switch result.Outcome {
	case WebhookOutcomeDuplicate:
		log.Infow("webhook_event_duplicate")
	case WebhookOutcomeIgnored:
		log.Warnw("webhook_event_ignored", "reason", result.Reason)
	case WebhookOutcomeApplied:
		log.Infow("webhook_event_applied",
			"previous_status", previousStatus,
			"new_status", decision.NewStatus,
			"amount_due_after", decision.AmountDueAfter.String(),
			"flag", decision.Flag,
			"reason", decision.Reason,
		)
		s.enqueueFollowUps(event, decision, log)
	}
	return result, nil
}

func (s *WebhookService) loadDocument(tx *gorm.DB, event *PaymentEvent) (*documentState, error) {
	if event.DocumentType == constants.DocumentTypeQuote {
		quote, err := s.quoteRepo.WithTx(tx).GetByReference(event.Reference)
		if err != nil || quote == nil {
			return nil, err
		}
		return &documentState{
			ID:        quote.ID,
			UserID:    quote.UserID,
			Reference: quote.Reference,
			Status:    quote.Status,
			Currency:  quote.Currency,
			AmountDue: quote.AmountDue,
			Version:   quote.Version,
		}, nil
	}
	invoice, err := s.invoiceRepo.WithTx(tx).GetByReference(event.Reference)
	if err != nil || invoice == nil {
		return nil, err
	}
	return &documentState{
		ID:        invoice.ID,
		UserID:    invoice.UserID,
		Reference: invoice.Reference,
		Status:    invoice.Status,
		Currency:  invoice.Currency,
		AmountDue: invoice.AmountDue,
		Version:   invoice.Version,
	}, nil
}

func (s *WebhookService) persistTransition(tx *gorm.DB, documentType string, doc *documentState, d *transitionDecision, now time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     d.NewStatus,
		"amount_due": d.AmountDueAfter,
		"updated_at": now,
	}
	if d.SetPaidAt {
		updates["paid_at"] = now
	}
	if d.SetCancelledAt {
		updates["cancelled_at"] = now
	}
	if documentType == constants.DocumentTypeQuote {
		return s.quoteRepo.WithTx(tx).UpdateStatusChecked(doc.ID, doc.Version, updates)
	}
	return s.invoiceRepo.WithTx(tx).UpdateStatusChecked(doc.ID, doc.Version, updates)
}

// enqueueFollowUps schedules side effects after the transaction committed.
// Enqueue failures are logged, never propagated: the reconciliation already
// happened and the gateway must not retry it.
func (s *WebhookService) enqueueFollowUps(event *PaymentEvent, d *transitionDecision, log *zap.SugaredLogger) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	if d.SetPaidAt {
		err := s.queueClient.EnqueuePaymentReceiptEmail(queue.PaymentReceiptEmailPayload{
			TargetType:      event.DocumentType,
			TargetReference: event.Reference,
			EventID:         event.ProviderEventID,
			Amount:          event.Amount.String(),
			Currency:        event.Currency,
		})
		if err != nil {
			log.Warnw("webhook_enqueue_receipt_email_failed", "error", err)
		}
	}
	if d.Flag != "" {
		err := s.queueClient.EnqueueOverpaymentReview(queue.OverpaymentReviewPayload{
			TargetType:      event.DocumentType,
			TargetReference: event.Reference,
			EventID:         event.ProviderEventID,
			Flag:            d.Flag,
			Amount:          event.Amount.String(),
		})
		if err != nil {
			log.Warnw("webhook_enqueue_review_failed", "error", err)
		}
	}
}

func webhookLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}
