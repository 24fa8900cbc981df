package models

import "time"

// PaymentAuditLog records one entry per accepted reconciliation transition,
// written in the same transaction as the document status change. Append-only.
type PaymentAuditLog struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	TargetType      string    `gorm:"index;not null" json:"target_type"` // invoice / quote
	TargetReference string    `gorm:"index;not null" json:"target_reference"`
	PreviousStatus  string    `gorm:"not null" json:"previous_status"`
	NewStatus       string    `gorm:"not null" json:"new_status"`
	EventID         string    `gorm:"index;not null" json:"event_id"`
	Amount          Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	AmountDueAfter  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount_due_after"`
	Flag            string    `gorm:"type:varchar(50)" json:"flag,omitempty"` // overpayment / partial_payment / ...
	Payload         JSON      `gorm:"type:json" json:"payload,omitempty"`     // provider notification that triggered the entry
	AppliedAt       time.Time `gorm:"index;not null" json:"applied_at"`
}

// TableName sets the table name.
func (PaymentAuditLog) TableName() string {
	return "payment_audit_logs"
}
