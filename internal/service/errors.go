package service

import "errors"

// Shared service-level sentinel errors. Handlers map these to transport
// responses; nothing below the handler layer writes HTTP status codes.
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")

	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")

	// Webhook pipeline errors.
	ErrSignatureInvalid   = errors.New("signature invalid")
	ErrMalformedPayload   = errors.New("payload malformed")
	ErrMissingField       = errors.New("payload field missing")
	ErrUnsupportedStatus  = errors.New("payment status unsupported")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Reconciliation rejections. Surfaced as accepted-but-ignored so the
	// gateway stops retrying deliveries that can never apply.
	ErrAlreadyFinal      = errors.New("document already final")
	ErrInvalidTransition = errors.New("transition invalid")
	ErrDocumentNotFound  = errors.New("document not found")

	// Admin document management errors.
	ErrStatusInvalid   = errors.New("document status invalid")
	ErrVersionConflict = errors.New("version conflict")
)
