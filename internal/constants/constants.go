package constants

// Invoice / quote document statuses.
const (
	DocumentStatusDraft     = "draft"
	DocumentStatusSent      = "sent"
	DocumentStatusPaid      = "paid"
	DocumentStatusOverdue   = "overdue"
	DocumentStatusCancelled = "cancelled"
)

// Document types settled through the payment gateway.
const (
	DocumentTypeInvoice = "invoice"
	DocumentTypeQuote   = "quote"
)

// Canonical payment event statuses.
const (
	EventStatusPending   = "pending"
	EventStatusSuccess   = "success"
	EventStatusFailed    = "failed"
	EventStatusCancelled = "cancelled"
)

// Processed-event ledger outcomes. IgnoredDuplicate is the disposition a
// redelivery reports to the gateway; the stored row keeps the first
// delivery's outcome, so it never appears in the ledger itself.
const (
	LedgerOutcomeReserved         = "reserved"
	LedgerOutcomeApplied          = "applied"
	LedgerOutcomeIgnoredDuplicate = "ignored_duplicate"
	LedgerOutcomeRejected         = "rejected"
)

// Audit entry flags for operator review.
const (
	AuditFlagPartialPayment   = "partial_payment"
	AuditFlagOverpayment      = "overpayment"
	AuditFlagCurrencyMismatch = "currency_mismatch"
)

// Payment provider identifiers.
const (
	PaymentProviderCinetpay = "cinetpay"
)

// Portal roles.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Portal user statuses.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Queue names.
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// Asynq task types.
const (
	TaskPaymentReceiptEmail = "payment:receipt_email"
	TaskOverpaymentReview   = "payment:overpayment_review"
)
