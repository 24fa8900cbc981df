package models

import "time"

// ProcessedEvent is the idempotency ledger: one row per provider event id,
// created exactly once by an insert-if-absent reservation. The unique index
// on ProviderEventID is the sole synchronization point between concurrent
// deliveries; the row is never deleted.
type ProcessedEvent struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	ProviderEventID string    `gorm:"uniqueIndex;not null" json:"provider_event_id"`
	Outcome         string    `gorm:"not null" json:"outcome"` // reserved / applied / rejected; duplicates never rewrite the row
	Reason          string    `gorm:"type:varchar(200)" json:"reason,omitempty"`
	ProcessedAt     time.Time `gorm:"index;not null" json:"processed_at"`
}

// TableName sets the table name.
func (ProcessedEvent) TableName() string {
	return "processed_events"
}
