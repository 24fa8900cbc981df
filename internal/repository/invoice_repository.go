package repository

import (
	"errors"
	"strings"

	"github.com/facturio/internal/models"

	"gorm.io/gorm"
)

// InvoiceRepository is the invoice data access interface.
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	GetByID(id uint) (*models.Invoice, error)
	GetByReference(reference string) (*models.Invoice, error)
	ListByUser(userID uint, filter DocumentListFilter) ([]models.Invoice, int64, error)
	ListAdmin(filter DocumentListFilter) ([]models.Invoice, int64, error)
	UpdateStatusChecked(id uint, expectedVersion uint, updates map[string]interface{}) (bool, error)
	WithTx(tx *gorm.DB) *GormInvoiceRepository
}

// GormInvoiceRepository is the GORM implementation.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates an invoice repository.
func NewInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormInvoiceRepository) WithTx(tx *gorm.DB) *GormInvoiceRepository {
	if tx == nil {
		return r
	}
	return &GormInvoiceRepository{db: tx}
}

// Create inserts an invoice.
func (r *GormInvoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

// GetByID fetches an invoice by primary key.
func (r *GormInvoiceRepository) GetByID(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// GetByReference fetches an invoice by its document reference.
func (r *GormInvoiceRepository) GetByReference(reference string) (*models.Invoice, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var invoice models.Invoice
	result := r.db.Where("reference = ?", reference).Limit(1).Find(&invoice)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &invoice, nil
}

// ListByUser lists a client's invoices.
func (r *GormInvoiceRepository) ListByUser(userID uint, filter DocumentListFilter) ([]models.Invoice, int64, error) {
	filter.UserID = userID
	return r.list(filter)
}

// ListAdmin lists invoices for the back office.
func (r *GormInvoiceRepository) ListAdmin(filter DocumentListFilter) ([]models.Invoice, int64, error) {
	return r.list(filter)
}

func (r *GormInvoiceRepository) list(filter DocumentListFilter) ([]models.Invoice, int64, error) {
	query := r.db.Model(&models.Invoice{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Reference != "" {
		query = query.Where("reference = ?", filter.Reference)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var invoices []models.Invoice
	if err := query.Order("id desc").Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// UpdateStatusChecked applies updates only when the stored version still
// matches expectedVersion, bumping the version in the same statement.
// Returns false when another writer won the race.
func (r *GormInvoiceRepository) UpdateStatusChecked(id uint, expectedVersion uint, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["version"] = expectedVersion + 1
	result := r.db.Model(&models.Invoice{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
