package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/facturio/internal/constants"
	"github.com/facturio/internal/logger"
	"github.com/facturio/internal/models"
	"github.com/facturio/internal/repository"

	"github.com/shopspring/decimal"
)

// Manual status edges available to back-office operators. Gateway-driven
// transitions go through the reconciliation engine instead.
var manualTransitions = map[string][]string{
	constants.DocumentStatusDraft:   {constants.DocumentStatusSent, constants.DocumentStatusCancelled},
	constants.DocumentStatusSent:    {constants.DocumentStatusOverdue, constants.DocumentStatusPaid, constants.DocumentStatusCancelled},
	constants.DocumentStatusOverdue: {constants.DocumentStatusPaid, constants.DocumentStatusCancelled},
}

const manualUpdateMaxAttempts = 3

// BillingService serves invoice and quote reads for both portals and
// operator-driven status changes.
type BillingService struct {
	invoiceRepo repository.InvoiceRepository
	quoteRepo   repository.QuoteRepository
	auditRepo   repository.PaymentAuditLogRepository
}

// NewBillingService creates the billing service.
func NewBillingService(invoiceRepo repository.InvoiceRepository, quoteRepo repository.QuoteRepository, auditRepo repository.PaymentAuditLogRepository) *BillingService {
	return &BillingService{
		invoiceRepo: invoiceRepo,
		quoteRepo:   quoteRepo,
		auditRepo:   auditRepo,
	}
}

// ListUserInvoices lists a client's own invoices.
func (s *BillingService) ListUserInvoices(userID uint, filter repository.DocumentListFilter) ([]models.Invoice, int64, error) {
	return s.invoiceRepo.ListByUser(userID, filter)
}

// ListUserQuotes lists a client's own quotes.
func (s *BillingService) ListUserQuotes(userID uint, filter repository.DocumentListFilter) ([]models.Quote, int64, error) {
	return s.quoteRepo.ListByUser(userID, filter)
}

// GetUserInvoice fetches one invoice, enforcing ownership.
func (s *BillingService) GetUserInvoice(userID, id uint) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if invoice == nil || invoice.UserID != userID {
		return nil, ErrDocumentNotFound
	}
	return invoice, nil
}

// GetUserQuote fetches one quote, enforcing ownership.
func (s *BillingService) GetUserQuote(userID, id uint) (*models.Quote, error) {
	quote, err := s.quoteRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if quote == nil || quote.UserID != userID {
		return nil, ErrDocumentNotFound
	}
	return quote, nil
}

// ListInvoices lists invoices for the back office.
func (s *BillingService) ListInvoices(filter repository.DocumentListFilter) ([]models.Invoice, int64, error) {
	return s.invoiceRepo.ListAdmin(filter)
}

// ListQuotes lists quotes for the back office.
func (s *BillingService) ListQuotes(filter repository.DocumentListFilter) ([]models.Quote, int64, error) {
	return s.quoteRepo.ListAdmin(filter)
}

// GetInvoice fetches one invoice for the back office.
func (s *BillingService) GetInvoice(id uint) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrDocumentNotFound
	}
	return invoice, nil
}

// GetQuote fetches one quote for the back office.
func (s *BillingService) GetQuote(id uint) (*models.Quote, error) {
	quote, err := s.quoteRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, ErrDocumentNotFound
	}
	return quote, nil
}

// CreateInvoiceInput is the admin invoice creation request.
type CreateInvoiceInput struct {
	Reference   string
	UserID      uint
	Currency    string
	TotalAmount models.Money
	DueAt       *time.Time
}

// CreateInvoice registers a new draft invoice.
func (s *BillingService) CreateInvoice(input CreateInvoiceInput) (*models.Invoice, error) {
	reference := strings.TrimSpace(input.Reference)
	if !documentReferencePattern.MatchString(reference) || !strings.HasPrefix(reference, "INV-") {
		return nil, fmt.Errorf("%w: invoice reference %q", ErrStatusInvalid, reference)
	}
	if input.UserID == 0 || input.TotalAmount.Decimal.Sign() <= 0 {
		return nil, ErrStatusInvalid
	}
	existing, err := s.invoiceRepo.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: duplicate reference %q", ErrStatusInvalid, reference)
	}
	invoice := &models.Invoice{
		Reference:   reference,
		UserID:      input.UserID,
		Status:      constants.DocumentStatusDraft,
		Currency:    strings.ToUpper(strings.TrimSpace(input.Currency)),
		TotalAmount: input.TotalAmount,
		AmountDue:   input.TotalAmount,
		DueAt:       input.DueAt,
	}
	if err := s.invoiceRepo.Create(invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// CreateQuoteInput is the admin quote creation request.
type CreateQuoteInput struct {
	Reference   string
	UserID      uint
	Currency    string
	TotalAmount models.Money
	ValidUntil  *time.Time
}

// CreateQuote registers a new draft quote.
func (s *BillingService) CreateQuote(input CreateQuoteInput) (*models.Quote, error) {
	reference := strings.TrimSpace(input.Reference)
	if !documentReferencePattern.MatchString(reference) || !strings.HasPrefix(reference, "QUO-") {
		return nil, fmt.Errorf("%w: quote reference %q", ErrStatusInvalid, reference)
	}
	if input.UserID == 0 || input.TotalAmount.Decimal.Sign() <= 0 {
		return nil, ErrStatusInvalid
	}
	existing, err := s.quoteRepo.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: duplicate reference %q", ErrStatusInvalid, reference)
	}
	quote := &models.Quote{
		Reference:   reference,
		UserID:      input.UserID,
		Status:      constants.DocumentStatusDraft,
		Currency:    strings.ToUpper(strings.TrimSpace(input.Currency)),
		TotalAmount: input.TotalAmount,
		AmountDue:   input.TotalAmount,
		ValidUntil:  input.ValidUntil,
	}
	if err := s.quoteRepo.Create(quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// UpdateInvoiceStatus applies a manual status change with the optimistic
// version check, retrying against fresh state on conflict.
func (s *BillingService) UpdateInvoiceStatus(id uint, newStatus string) (*models.Invoice, error) {
	newStatus = strings.TrimSpace(newStatus)
	for attempt := 1; attempt <= manualUpdateMaxAttempts; attempt++ {
		invoice, err := s.invoiceRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if invoice == nil {
			return nil, ErrDocumentNotFound
		}
		updates, err := manualStatusUpdates(constants.DocumentTypeInvoice, invoice.Status, newStatus, time.Now())
		if err != nil {
			return nil, err
		}
		ok, err := s.invoiceRepo.UpdateStatusChecked(invoice.ID, invoice.Version, updates)
		if err != nil {
			return nil, err
		}
		if ok {
			logger.Infow("invoice_status_updated",
				"invoice_id", invoice.ID,
				"reference", invoice.Reference,
				"previous_status", invoice.Status,
				"new_status", newStatus,
			)
			return s.invoiceRepo.GetByID(id)
		}
	}
	return nil, ErrVersionConflict
}

// UpdateQuoteStatus applies a manual quote status change.
func (s *BillingService) UpdateQuoteStatus(id uint, newStatus string) (*models.Quote, error) {
	newStatus = strings.TrimSpace(newStatus)
	for attempt := 1; attempt <= manualUpdateMaxAttempts; attempt++ {
		quote, err := s.quoteRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if quote == nil {
			return nil, ErrDocumentNotFound
		}
		updates, err := manualStatusUpdates(constants.DocumentTypeQuote, quote.Status, newStatus, time.Now())
		if err != nil {
			return nil, err
		}
		ok, err := s.quoteRepo.UpdateStatusChecked(quote.ID, quote.Version, updates)
		if err != nil {
			return nil, err
		}
		if ok {
			logger.Infow("quote_status_updated",
				"quote_id", quote.ID,
				"reference", quote.Reference,
				"previous_status", quote.Status,
				"new_status", newStatus,
			)
			return s.quoteRepo.GetByID(id)
		}
	}
	return nil, ErrVersionConflict
}

// AuditTrail returns the payment audit entries for one document.
func (s *BillingService) AuditTrail(targetType, targetReference string) ([]models.PaymentAuditLog, error) {
	return s.auditRepo.ListByTarget(targetType, strings.TrimSpace(targetReference))
}

func manualStatusUpdates(documentType, currentStatus, newStatus string, now time.Time) (map[string]interface{}, error) {
	allowed := false
	for _, candidate := range manualTransitions[currentStatus] {
		if candidate == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrStatusInvalid, currentStatus, newStatus)
	}
	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": now,
	}
	switch newStatus {
	case constants.DocumentStatusPaid:
		// Manual settlement (offline payment recorded by an operator).
		updates["amount_due"] = models.NewMoneyFromDecimal(decimal.Zero)
		updates["paid_at"] = now
	case constants.DocumentStatusCancelled:
		updates["cancelled_at"] = now
	case constants.DocumentStatusSent:
		if documentType == constants.DocumentTypeInvoice {
			updates["issued_at"] = now
		}
	}
	return updates, nil
}
