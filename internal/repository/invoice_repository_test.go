package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/facturio/internal/constants"
	"github.com/facturio/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupInvoiceRepositoryTest(t *testing.T) (*GormInvoiceRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:invoice_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Invoice{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewInvoiceRepository(db), db
}

func createRepoTestInvoice(t *testing.T, repo *GormInvoiceRepository, reference string, userID uint, status string) *models.Invoice {
	t.Helper()
	now := time.Now()
	invoice := &models.Invoice{
		Reference:   reference,
		UserID:      userID,
		Status:      status,
		Currency:    "XOF",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		AmountDue:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(invoice); err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	return invoice
}

func TestUpdateStatusCheckedVersionGuard(t *testing.T) {
	repo, _ := setupInvoiceRepositoryTest(t)
	invoice := createRepoTestInvoice(t, repo, "INV-2025-0001", 1, constants.DocumentStatusSent)

	ok, err := repo.UpdateStatusChecked(invoice.ID, invoice.Version, map[string]interface{}{
		"status": constants.DocumentStatusPaid,
	})
	if err != nil {
		t.Fatalf("checked update failed: %v", err)
	}
	if !ok {
		t.Fatalf("update with matching version must succeed")
	}

	// Stale version loses.
	ok, err = repo.UpdateStatusChecked(invoice.ID, invoice.Version, map[string]interface{}{
		"status": constants.DocumentStatusCancelled,
	})
	if err != nil {
		t.Fatalf("stale update failed: %v", err)
	}
	if ok {
		t.Fatalf("update with stale version must be rejected")
	}

	reloaded, err := repo.GetByID(invoice.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.DocumentStatusPaid {
		t.Fatalf("status want paid, got %q", reloaded.Status)
	}
	if reloaded.Version != invoice.Version+1 {
		t.Fatalf("version want %d, got %d", invoice.Version+1, reloaded.Version)
	}
}

func TestGetByReference(t *testing.T) {
	repo, _ := setupInvoiceRepositoryTest(t)
	createRepoTestInvoice(t, repo, "INV-2025-0002", 1, constants.DocumentStatusDraft)

	invoice, err := repo.GetByReference("INV-2025-0002")
	if err != nil {
		t.Fatalf("get by reference failed: %v", err)
	}
	if invoice == nil {
		t.Fatalf("expected invoice")
	}

	missing, err := repo.GetByReference("INV-2025-9999")
	if err != nil {
		t.Fatalf("get missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("want nil for missing reference")
	}
}

func TestListByUserScopesToOwner(t *testing.T) {
	repo, _ := setupInvoiceRepositoryTest(t)
	createRepoTestInvoice(t, repo, "INV-2025-0003", 1, constants.DocumentStatusSent)
	createRepoTestInvoice(t, repo, "INV-2025-0004", 1, constants.DocumentStatusPaid)
	createRepoTestInvoice(t, repo, "INV-2025-0005", 2, constants.DocumentStatusSent)

	invoices, total, err := repo.ListByUser(1, DocumentListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list by user failed: %v", err)
	}
	if total != 2 || len(invoices) != 2 {
		t.Fatalf("user 1 invoices want 2, got total=%d len=%d", total, len(invoices))
	}

	invoices, total, err = repo.ListByUser(1, DocumentListFilter{Status: constants.DocumentStatusPaid, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if total != 1 || invoices[0].Reference != "INV-2025-0004" {
		t.Fatalf("paid filter want INV-2025-0004, got total=%d", total)
	}
}
