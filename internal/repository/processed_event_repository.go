package repository

import (
	"strings"
	"time"

	"github.com/facturio/internal/constants"
	"github.com/facturio/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProcessedEventRepository is the idempotency ledger access interface.
type ProcessedEventRepository interface {
	InsertIfAbsent(providerEventID string, now time.Time) (bool, error)
	MarkOutcome(providerEventID, outcome, reason string, now time.Time) error
	GetByProviderEventID(providerEventID string) (*models.ProcessedEvent, error)
	ListAdmin(filter ProcessedEventListFilter) ([]models.ProcessedEvent, int64, error)
	WithTx(tx *gorm.DB) *GormProcessedEventRepository
}

// GormProcessedEventRepository is the GORM implementation.
type GormProcessedEventRepository struct {
	db *gorm.DB
}

// NewProcessedEventRepository creates a ledger repository.
func NewProcessedEventRepository(db *gorm.DB) *GormProcessedEventRepository {
	return &GormProcessedEventRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormProcessedEventRepository) WithTx(tx *gorm.DB) *GormProcessedEventRepository {
	if tx == nil {
		return r
	}
	return &GormProcessedEventRepository{db: tx}
}

// InsertIfAbsent reserves a provider event id with insert-or-ignore
// semantics on the unique index. Returns true when this caller created the
// row (FRESH) and false when the id was already reserved (DUPLICATE).
func (r *GormProcessedEventRepository) InsertIfAbsent(providerEventID string, now time.Time) (bool, error) {
	record := models.ProcessedEvent{
		ProviderEventID: strings.TrimSpace(providerEventID),
		Outcome:         constants.LedgerOutcomeReserved,
		ProcessedAt:     now,
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(&record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkOutcome finalizes a previously reserved ledger row.
func (r *GormProcessedEventRepository) MarkOutcome(providerEventID, outcome, reason string, now time.Time) error {
	return r.db.Model(&models.ProcessedEvent{}).
		Where("provider_event_id = ?", strings.TrimSpace(providerEventID)).
		Updates(map[string]interface{}{
			"outcome":      outcome,
			"reason":       strings.TrimSpace(reason),
			"processed_at": now,
		}).Error
}

// GetByProviderEventID fetches a ledger row.
func (r *GormProcessedEventRepository) GetByProviderEventID(providerEventID string) (*models.ProcessedEvent, error) {
	providerEventID = strings.TrimSpace(providerEventID)
	if providerEventID == "" {
		return nil, nil
	}
	var record models.ProcessedEvent
	result := r.db.Where("provider_event_id = ?", providerEventID).Limit(1).Find(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &record, nil
}

// ListAdmin lists ledger rows for the back office.
func (r *GormProcessedEventRepository) ListAdmin(filter ProcessedEventListFilter) ([]models.ProcessedEvent, int64, error) {
	query := r.db.Model(&models.ProcessedEvent{})
	if filter.Outcome != "" {
		query = query.Where("outcome = ?", filter.Outcome)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var records []models.ProcessedEvent
	if err := query.Order("id desc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
