package cinetpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("cinetpay config invalid")
	ErrRequestFailed   = errors.New("cinetpay request failed")
	ErrResponseInvalid = errors.New("cinetpay response invalid")
)

// SignatureHeader carries the HMAC of the notification body.
const SignatureHeader = "x-token"

// Gateway transaction statuses seen in notifications and check responses.
const (
	StatusAccepted = "ACCEPTED"
	StatusRefused  = "REFUSED"
	StatusWaiting  = "WAITING_FOR_CUSTOMER"
	StatusPending  = "PENDING"
	StatusCanceled = "CANCELED"
)

// Config holds the merchant integration settings.
type Config struct {
	SiteID    string
	APIKey    string
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// Validate checks the settings required to authenticate notifications.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(c.SiteID) == "" {
		return fmt.Errorf("%w: site_id is required", ErrConfigInvalid)
	}
	return nil
}

// Notification is the raw webhook payload posted by the gateway.
type Notification struct {
	TransID     string      `json:"cpm_trans_id"`
	SiteID      string      `json:"cpm_site_id"`
	TransDate   string      `json:"cpm_trans_date"`
	Amount      interface{} `json:"cpm_amount"` // number or string depending on channel
	Currency    string      `json:"cpm_currency"`
	Status      string      `json:"cpm_trans_status"`
	Custom      string      `json:"cpm_custom"` // merchant reference (invoice/quote)
	Designation string      `json:"cpm_designation"`
	Method      string      `json:"payment_method"`
	OperatorID  string      `json:"operator_id"`
}

// AmountString returns the amount as a trimmed decimal string.
func (n *Notification) AmountString() string {
	switch v := n.Amount.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

// ParseNotification decodes a webhook body. It must only be called after
// signature verification: decoding never touches the signature input.
func ParseNotification(body []byte) (*Notification, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrResponseInvalid)
	}
	decoder := json.NewDecoder(strings.NewReader(string(body)))
	decoder.UseNumber()
	var data Notification
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return &data, nil
}

// Sign computes the hex HMAC-SHA256 of a raw notification body.
func Sign(rawBody []byte, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the x-token header against the HMAC of the exact
// raw body. Constant-time comparison; false on missing signature or empty
// secret, never an error.
func VerifySignature(rawBody []byte, providedSignature, secretKey string) bool {
	providedSignature = strings.TrimSpace(providedSignature)
	if providedSignature == "" || secretKey == "" {
		return false
	}
	expected := Sign(rawBody, secretKey)
	return hmac.Equal([]byte(strings.ToLower(providedSignature)), []byte(expected))
}

// ToEventStatus maps a gateway status to the canonical event status.
// Unknown codes map to empty, which callers must reject.
func ToEventStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case StatusAccepted, "SUCCES", "SUCCESS":
		return "success"
	case StatusRefused, "FAILED":
		return "failed"
	case StatusWaiting, StatusPending:
		return "pending"
	case StatusCanceled, "CANCELLED", "EXPIRED":
		return "cancelled"
	default:
		return ""
	}
}

// CheckResult is the authoritative transaction state from the check API.
type CheckResult struct {
	Status   string
	Amount   string
	Currency string
	Raw      map[string]interface{}
}

// CheckTransaction queries the gateway's payment check endpoint. Used by
// operators to cross-check a notification against the authoritative state.
func CheckTransaction(ctx context.Context, cfg *Config, transID string) (*CheckResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: api_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(transID) == "" {
		return nil, fmt.Errorf("%w: empty transaction id", ErrConfigInvalid)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api-checkout.cinetpay.com"
	}
	params := map[string]interface{}{
		"apikey":         cfg.APIKey,
		"site_id":        cfg.SiteID,
		"transaction_id": transID,
	}
	respBytes, err := postJSON(ctx, baseURL+"/v2/payment/check", params, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var resp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Status   string `json:"status"`
			Amount   string `json:"amount"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.Code != "00" {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &CheckResult{
		Status:   resp.Data.Status,
		Amount:   resp.Data.Amount,
		Currency: resp.Data.Currency,
		Raw:      raw,
	}, nil
}

func postJSON(ctx context.Context, endpoint string, params map[string]interface{}, timeout time.Duration) ([]byte, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
