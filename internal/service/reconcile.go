package service

import (
	"fmt"
	"strings"

	"github.com/facturio/internal/constants"
	"github.com/facturio/internal/models"

	"github.com/shopspring/decimal"
)

// transitionDecision is the outcome of running one event against the
// document state machine. Mutate=false means the document row stays as-is
// but the attempt is still audited.
type transitionDecision struct {
	NewStatus      string
	AmountDueAfter models.Money
	Flag           string
	Mutate         bool
	SetPaidAt      bool
	SetCancelledAt bool
	Reason         string
}

// computeTransition evaluates an event against the current document state.
// Pure function: callers persist the decision under their own transaction.
//
// Allowed edges:
//
//	draft/sent/overdue + success(amount >= due) -> paid
//	draft/sent/overdue + success(amount < due)  -> sent/overdue, due decremented
//	sent/overdue       + failed                 -> unchanged, audited
//	sent/overdue       + cancelled              -> cancelled
//	any                + pending                -> unchanged, audited
//	paid/cancelled     + any                    -> ErrAlreadyFinal
func computeTransition(currentStatus string, amountDue models.Money, eventCurrency, documentCurrency string, event *PaymentEvent) (*transitionDecision, error) {
	switch currentStatus {
	case constants.DocumentStatusPaid, constants.DocumentStatusCancelled:
		return nil, fmt.Errorf("%w: status %s", ErrAlreadyFinal, currentStatus)
	case constants.DocumentStatusDraft, constants.DocumentStatusSent, constants.DocumentStatusOverdue:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, currentStatus)
	}

	switch event.Status {
	case constants.EventStatusPending:
		// The gateway will deliver a terminal status later.
		return &transitionDecision{
			NewStatus:      currentStatus,
			AmountDueAfter: amountDue,
			Mutate:         false,
			Reason:         "pending",
		}, nil

	case constants.EventStatusFailed:
		if currentStatus == constants.DocumentStatusDraft {
			return nil, fmt.Errorf("%w: failed event on draft", ErrInvalidTransition)
		}
		return &transitionDecision{
			NewStatus:      currentStatus,
			AmountDueAfter: amountDue,
			Mutate:         false,
			Reason:         "payment_failed",
		}, nil

	case constants.EventStatusCancelled:
		if currentStatus == constants.DocumentStatusDraft {
			return nil, fmt.Errorf("%w: cancelled event on draft", ErrInvalidTransition)
		}
		return &transitionDecision{
			NewStatus:      constants.DocumentStatusCancelled,
			AmountDueAfter: amountDue,
			Mutate:         true,
			SetCancelledAt: true,
			Reason:         "payment_cancelled",
		}, nil

	case constants.EventStatusSuccess:
		return computeSuccessTransition(currentStatus, amountDue, eventCurrency, documentCurrency, event)

	default:
		return nil, fmt.Errorf("%w: event status %q", ErrInvalidTransition, event.Status)
	}
}

func computeSuccessTransition(currentStatus string, amountDue models.Money, eventCurrency, documentCurrency string, event *PaymentEvent) (*transitionDecision, error) {
	flags := make([]string, 0, 2)
	if !strings.EqualFold(eventCurrency, documentCurrency) {
		// Accepted but flagged for operator review rather than rejected.
		flags = append(flags, constants.AuditFlagCurrencyMismatch)
	}

	remaining := amountDue.Decimal.Sub(event.Amount.Decimal)
	if remaining.Sign() <= 0 {
		if remaining.Sign() < 0 {
			flags = append(flags, constants.AuditFlagOverpayment)
		}
		return &transitionDecision{
			NewStatus:      constants.DocumentStatusPaid,
			AmountDueAfter: models.NewMoneyFromDecimal(decimal.Zero),
			Flag:           strings.Join(flags, ","),
			Mutate:         true,
			SetPaidAt:      true,
			Reason:         "payment_settled",
		}, nil
	}

	// Partial payment. A draft moves to sent, an overdue document stays
	// overdue until settled in full.
	newStatus := currentStatus
	if currentStatus == constants.DocumentStatusDraft {
		newStatus = constants.DocumentStatusSent
	}
	flags = append(flags, constants.AuditFlagPartialPayment)
	return &transitionDecision{
		NewStatus:      newStatus,
		AmountDueAfter: models.NewMoneyFromDecimal(remaining),
		Flag:           strings.Join(flags, ","),
		Mutate:         true,
		Reason:         "partial_payment",
	}, nil
}
