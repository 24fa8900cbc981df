package repository

import "time"

// DocumentListFilter filters invoice/quote listings.
type DocumentListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	Reference   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ProcessedEventListFilter filters the idempotency ledger listing.
type ProcessedEventListFilter struct {
	Page     int
	PageSize int
	Outcome  string
}

// AuditLogListFilter filters the payment audit trail listing.
type AuditLogListFilter struct {
	Page            int
	PageSize        int
	TargetType      string
	TargetReference string
	EventID         string
	Flag            string
}
