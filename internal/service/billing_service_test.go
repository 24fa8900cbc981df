package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/facturio/internal/constants"
	"github.com/facturio/internal/models"
	"github.com/facturio/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupBillingServiceTest(t *testing.T) (*BillingService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:billing_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Invoice{},
		&models.Quote{},
		&models.PaymentAuditLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	return NewBillingService(
		repository.NewInvoiceRepository(db),
		repository.NewQuoteRepository(db),
		repository.NewPaymentAuditLogRepository(db),
	), db
}

func TestCreateInvoice(t *testing.T) {
	svc, _ := setupBillingServiceTest(t)

	invoice, err := svc.CreateInvoice(CreateInvoiceInput{
		Reference:   "INV-2025-0001",
		UserID:      7,
		Currency:    "xof",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(2500)),
	})
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	if invoice.Status != constants.DocumentStatusDraft {
		t.Fatalf("status want draft, got %q", invoice.Status)
	}
	if invoice.Currency != "XOF" {
		t.Fatalf("currency want XOF, got %q", invoice.Currency)
	}
	if !invoice.AmountDue.Decimal.Equal(invoice.TotalAmount.Decimal) {
		t.Fatalf("amount due must start at total")
	}

	_, err = svc.CreateInvoice(CreateInvoiceInput{
		Reference:   "INV-2025-0001",
		UserID:      7,
		Currency:    "XOF",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	})
	if !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("duplicate reference want ErrStatusInvalid, got %v", err)
	}
}

func TestCreateInvoiceRejectsBadReference(t *testing.T) {
	svc, _ := setupBillingServiceTest(t)
	for _, reference := range []string{"", "ORDER-42", "QUO-2025-0001", "INV-25-0001"} {
		_, err := svc.CreateInvoice(CreateInvoiceInput{
			Reference:   reference,
			UserID:      1,
			Currency:    "XOF",
			TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		})
		if !errors.Is(err, ErrStatusInvalid) {
			t.Fatalf("reference %q want ErrStatusInvalid, got %v", reference, err)
		}
	}
}

func TestCreateQuote(t *testing.T) {
	svc, _ := setupBillingServiceTest(t)

	quote, err := svc.CreateQuote(CreateQuoteInput{
		Reference:   "QUO-2025-0001",
		UserID:      3,
		Currency:    "XOF",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(900)),
	})
	if err != nil {
		t.Fatalf("create quote failed: %v", err)
	}
	if quote.Status != constants.DocumentStatusDraft {
		t.Fatalf("status want draft, got %q", quote.Status)
	}

	_, err = svc.CreateQuote(CreateQuoteInput{
		Reference:   "INV-2025-0001",
		UserID:      3,
		Currency:    "XOF",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(900)),
	})
	if !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("invoice reference on quote want ErrStatusInvalid, got %v", err)
	}
}

func TestUpdateInvoiceStatusManualTransitions(t *testing.T) {
	svc, _ := setupBillingServiceTest(t)
	invoice, err := svc.CreateInvoice(CreateInvoiceInput{
		Reference:   "INV-2025-0100",
		UserID:      1,
		Currency:    "XOF",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	})
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}

	sent, err := svc.UpdateInvoiceStatus(invoice.ID, constants.DocumentStatusSent)
	if err != nil {
		t.Fatalf("draft->sent failed: %v", err)
	}
	if sent.Status != constants.DocumentStatusSent {
		t.Fatalf("status want sent, got %q", sent.Status)
	}
	if sent.IssuedAt == nil {
		t.Fatalf("issued_at not set on send")
	}

	paid, err := svc.UpdateInvoiceStatus(invoice.ID, constants.DocumentStatusPaid)
	if err != nil {
		t.Fatalf("sent->paid failed: %v", err)
	}
	if paid.Status != constants.DocumentStatusPaid {
		t.Fatalf("status want paid, got %q", paid.Status)
	}
	if !paid.AmountDue.Decimal.IsZero() {
		t.Fatalf("manual settlement must zero amount due, got %s", paid.AmountDue.String())
	}
	if paid.PaidAt == nil {
		t.Fatalf("paid_at not set")
	}

	_, err = svc.UpdateInvoiceStatus(invoice.ID, constants.DocumentStatusSent)
	if !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("paid->sent want ErrStatusInvalid, got %v", err)
	}
}

func TestUpdateInvoiceStatusRejectsSkippingDraft(t *testing.T) {
	svc, _ := setupBillingServiceTest(t)
	invoice, err := svc.CreateInvoice(CreateInvoiceInput{
		Reference:   "INV-2025-0101",
		UserID:      1,
		Currency:    "XOF",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	})
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}

	for _, target := range []string{constants.DocumentStatusPaid, constants.DocumentStatusOverdue} {
		if _, err := svc.UpdateInvoiceStatus(invoice.ID, target); !errors.Is(err, ErrStatusInvalid) {
			t.Fatalf("draft->%s want ErrStatusInvalid, got %v", target, err)
		}
	}
}

func TestUpdateQuoteStatus(t *testing.T) {
	svc, _ := setupBillingServiceTest(t)
	quote, err := svc.CreateQuote(CreateQuoteInput{
		Reference:   "QUO-2025-0100",
		UserID:      1,
		Currency:    "XOF",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	})
	if err != nil {
		t.Fatalf("create quote failed: %v", err)
	}

	cancelled, err := svc.UpdateQuoteStatus(quote.ID, constants.DocumentStatusCancelled)
	if err != nil {
		t.Fatalf("draft->cancelled failed: %v", err)
	}
	if cancelled.Status != constants.DocumentStatusCancelled {
		t.Fatalf("status want cancelled, got %q", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Fatalf("cancelled_at not set")
	}

	if _, err := svc.UpdateQuoteStatus(9999, constants.DocumentStatusSent); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("missing quote want ErrDocumentNotFound, got %v", err)
	}
}

func TestGetUserInvoiceEnforcesOwnership(t *testing.T) {
	svc, _ := setupBillingServiceTest(t)
	invoice, err := svc.CreateInvoice(CreateInvoiceInput{
		Reference:   "INV-2025-0200",
		UserID:      10,
		Currency:    "XOF",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	})
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}

	if _, err := svc.GetUserInvoice(10, invoice.ID); err != nil {
		t.Fatalf("owner fetch failed: %v", err)
	}
	if _, err := svc.GetUserInvoice(11, invoice.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("foreign fetch want ErrDocumentNotFound, got %v", err)
	}
}
