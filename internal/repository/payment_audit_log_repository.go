package repository

import (
	"github.com/facturio/internal/models"

	"gorm.io/gorm"
)

// PaymentAuditLogRepository is the audit trail access interface.
type PaymentAuditLogRepository interface {
	Create(entry *models.PaymentAuditLog) error
	ListByTarget(targetType, targetReference string) ([]models.PaymentAuditLog, error)
	ListAdmin(filter AuditLogListFilter) ([]models.PaymentAuditLog, int64, error)
	WithTx(tx *gorm.DB) *GormPaymentAuditLogRepository
}

// GormPaymentAuditLogRepository is the GORM implementation.
type GormPaymentAuditLogRepository struct {
	db *gorm.DB
}

// NewPaymentAuditLogRepository creates an audit log repository.
func NewPaymentAuditLogRepository(db *gorm.DB) *GormPaymentAuditLogRepository {
	return &GormPaymentAuditLogRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormPaymentAuditLogRepository) WithTx(tx *gorm.DB) *GormPaymentAuditLogRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentAuditLogRepository{db: tx}
}

// Create appends an audit entry.
func (r *GormPaymentAuditLogRepository) Create(entry *models.PaymentAuditLog) error {
	return r.db.Create(entry).Error
}

// ListByTarget lists the trail for one document.
func (r *GormPaymentAuditLogRepository) ListByTarget(targetType, targetReference string) ([]models.PaymentAuditLog, error) {
	var entries []models.PaymentAuditLog
	if err := r.db.Where("target_type = ? AND target_reference = ?", targetType, targetReference).
		Order("id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListAdmin lists audit entries for the back office.
func (r *GormPaymentAuditLogRepository) ListAdmin(filter AuditLogListFilter) ([]models.PaymentAuditLog, int64, error) {
	query := r.db.Model(&models.PaymentAuditLog{})
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetReference != "" {
		query = query.Where("target_reference = ?", filter.TargetReference)
	}
	if filter.EventID != "" {
		query = query.Where("event_id = ?", filter.EventID)
	}
	if filter.Flag != "" {
		query = query.Where("flag = ?", filter.Flag)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.PaymentAuditLog
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
