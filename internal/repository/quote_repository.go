package repository

import (
	"errors"
	"strings"

	"github.com/facturio/internal/models"

	"gorm.io/gorm"
)

// QuoteRepository is the quote data access interface.
type QuoteRepository interface {
	Create(quote *models.Quote) error
	GetByID(id uint) (*models.Quote, error)
	GetByReference(reference string) (*models.Quote, error)
	ListByUser(userID uint, filter DocumentListFilter) ([]models.Quote, int64, error)
	ListAdmin(filter DocumentListFilter) ([]models.Quote, int64, error)
	UpdateStatusChecked(id uint, expectedVersion uint, updates map[string]interface{}) (bool, error)
	WithTx(tx *gorm.DB) *GormQuoteRepository
}

// GormQuoteRepository is the GORM implementation.
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository creates a quote repository.
func NewQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormQuoteRepository) WithTx(tx *gorm.DB) *GormQuoteRepository {
	if tx == nil {
		return r
	}
	return &GormQuoteRepository{db: tx}
}

// Create inserts a quote.
func (r *GormQuoteRepository) Create(quote *models.Quote) error {
	return r.db.Create(quote).Error
}

// GetByID fetches a quote by primary key.
func (r *GormQuoteRepository) GetByID(id uint) (*models.Quote, error) {
	var quote models.Quote
	if err := r.db.First(&quote, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &quote, nil
}

// GetByReference fetches a quote by its document reference.
func (r *GormQuoteRepository) GetByReference(reference string) (*models.Quote, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var quote models.Quote
	result := r.db.Where("reference = ?", reference).Limit(1).Find(&quote)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &quote, nil
}

// ListByUser lists a client's quotes.
func (r *GormQuoteRepository) ListByUser(userID uint, filter DocumentListFilter) ([]models.Quote, int64, error) {
	filter.UserID = userID
	return r.list(filter)
}

// ListAdmin lists quotes for the back office.
func (r *GormQuoteRepository) ListAdmin(filter DocumentListFilter) ([]models.Quote, int64, error) {
	return r.list(filter)
}

func (r *GormQuoteRepository) list(filter DocumentListFilter) ([]models.Quote, int64, error) {
	query := r.db.Model(&models.Quote{})
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

	var quotes []models.Quote
	if err := query.Order("id desc").Find(&quotes).Error; err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

// UpdateStatusChecked applies updates only when the stored version still
// matches expectedVersion, bumping the version in the same statement.
func (r *GormQuoteRepository) UpdateStatusChecked(id uint, expectedVersion uint, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["version"] = expectedVersion + 1
	result := r.db.Model(&models.Quote{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
