package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/facturio/internal/constants"
	"github.com/facturio/internal/models"
	"github.com/facturio/internal/payment/cinetpay"

	"github.com/shopspring/decimal"
)

// Document references embed the type prefix: INV-2025-0001 / QUO-2025-0001.
var documentReferencePattern = regexp.MustCompile(`^(INV|QUO)-\d{4}-\d{4,}$`)

// PaymentEvent is the canonical, provider-agnostic payment notification.
// Immutable once normalized.
type PaymentEvent struct {
	ProviderEventID string
	Reference       string
	DocumentType    string // invoice / quote, derived from the reference prefix
	Status          string
	Amount          models.Money
	Currency        string
	Method          string
	RawPayload      []byte
	ReceivedAt      time.Time
}

// NormalizePaymentEvent parses and validates a raw gateway notification.
// Failure modes stay distinguishable so the endpoint can pick the right
// response: ErrMalformedPayload, ErrMissingField, ErrUnsupportedStatus.
func NormalizePaymentEvent(rawBody []byte, receivedAt time.Time) (*PaymentEvent, error) {
	notification, err := cinetpay.ParseNotification(rawBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	eventID := strings.TrimSpace(notification.TransID)
	if eventID == "" {
		return nil, fmt.Errorf("%w: cpm_trans_id", ErrMissingField)
	}

	reference := strings.TrimSpace(notification.Custom)
	if reference == "" {
		return nil, fmt.Errorf("%w: cpm_custom", ErrMissingField)
	}
	if !documentReferencePattern.MatchString(reference) {
		return nil, fmt.Errorf("%w: reference format %q", ErrMalformedPayload, reference)
	}
	documentType := constants.DocumentTypeInvoice
	if strings.HasPrefix(reference, "QUO-") {
		documentType = constants.DocumentTypeQuote
	}

	status := cinetpay.ToEventStatus(notification.Status)
	if status == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStatus, strings.TrimSpace(notification.Status))
	}

	amountText := notification.AmountString()
	if amountText == "" {
		return nil, fmt.Errorf("%w: cpm_amount", ErrMissingField)
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return nil, fmt.Errorf("%w: cpm_amount %q", ErrMalformedPayload, amountText)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: negative cpm_amount %q", ErrMalformedPayload, amountText)
	}

	currency := strings.ToUpper(strings.TrimSpace(notification.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: cpm_currency", ErrMissingField)
	}

	payload := make([]byte, len(rawBody))
	copy(payload, rawBody)

	return &PaymentEvent{
		ProviderEventID: eventID,
		Reference:       reference,
		DocumentType:    documentType,
		Status:          status,
		Amount:          models.NewMoneyFromDecimal(amount),
		Currency:        currency,
		Method:          strings.TrimSpace(notification.Method),
		RawPayload:      payload,
		ReceivedAt:      receivedAt,
	}, nil
}

// PayloadMap returns the raw provider payload as a generic document, for
// storage alongside the audit entry. The payload already parsed as JSON
// during normalization, so a nil return only happens on a hand-built event.
func (e *PaymentEvent) PayloadMap() models.JSON {
	var doc models.JSON
	if err := json.Unmarshal(e.RawPayload, &doc); err != nil {
		return nil
	}
	return doc
}

// IsNormalizationError reports whether err is one of the normalization
// failure modes, all of which are non-retryable client errors.
func IsNormalizationError(err error) bool {
	return errors.Is(err, ErrMalformedPayload) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrUnsupportedStatus)
}
