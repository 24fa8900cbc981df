package models

import (
	"time"

	"gorm.io/gorm"
)

// Quote is a priced proposal; a deposit can be settled against it through
// the same reconciliation path as invoices.
type Quote struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Reference   string         `gorm:"uniqueIndex;not null" json:"reference"` // e.g. QUO-2025-0001
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	Status      string         `gorm:"index;not null" json:"status"`
	Currency    string         `gorm:"not null" json:"currency"`
	TotalAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`
	AmountDue   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount_due"`
	Version     uint           `gorm:"not null;default:0" json:"-"`
	ValidUntil  *time.Time     `gorm:"index" json:"valid_until"`
	PaidAt      *time.Time     `gorm:"index" json:"paid_at"`
	CancelledAt *time.Time     `json:"cancelled_at"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Quote) TableName() string {
	return "quotes"
}
