package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice is a billable document issued to a client.
// Status mutations go through the reconciliation transition table only;
// Version backs the optimistic concurrency check on updates.
type Invoice struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Reference   string         `gorm:"uniqueIndex;not null" json:"reference"` // e.g. INV-2025-0001
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	Status      string         `gorm:"index;not null" json:"status"`
	Currency    string         `gorm:"not null" json:"currency"`
	TotalAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`
	AmountDue   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount_due"`
	Version     uint           `gorm:"not null;default:0" json:"-"`
	IssuedAt    *time.Time     `gorm:"index" json:"issued_at"`
	DueAt       *time.Time     `gorm:"index" json:"due_at"`
	PaidAt      *time.Time     `gorm:"index" json:"paid_at"`
	CancelledAt *time.Time     `json:"cancelled_at"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Invoice) TableName() string {
	return "invoices"
}
