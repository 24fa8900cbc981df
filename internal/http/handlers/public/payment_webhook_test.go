package public

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/facturio/internal/config"
	"github.com/facturio/internal/constants"
	"github.com/facturio/internal/models"
	"github.com/facturio/internal/payment/cinetpay"
	"github.com/facturio/internal/provider"
	"github.com/facturio/internal/repository"
	"github.com/facturio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const webhookHandlerTestSecret = "handler-test-secret"

func setupWebhookHandlerTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:webhook_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Invoice{},
		&models.Quote{},
		&models.ProcessedEvent{},
		&models.PaymentAuditLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.Cinetpay.SecretKey = webhookHandlerTestSecret

	webhookService := service.NewWebhookService(
		cfg,
		repository.NewInvoiceRepository(db),
		repository.NewQuoteRepository(db),
		repository.NewProcessedEventRepository(db),
		repository.NewPaymentAuditLogRepository(db),
		nil,
	)
	return New(&provider.Container{
		Config:         cfg,
		WebhookService: webhookService,
	}), db
}

func postWebhook(t *testing.T, h *Handler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/cinetpay", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(cinetpay.SignatureHeader, signature)
	}
	c.Request = req
	h.CinetpayWebhook(c)
	return w
}

func decodeAck(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var ack map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack failed: %v", err)
	}
	return ack
}

func TestCinetpayWebhookAcceptsValidNotification(t *testing.T) {
	h, db := setupWebhookHandlerTest(t)
	now := time.Now()
	invoice := &models.Invoice{
		Reference:   "INV-2025-0001",
		UserID:      1,
		Status:      constants.DocumentStatusSent,
		Currency:    "XOF",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		AmountDue:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}

	body := []byte(`{"cpm_trans_id":"TX-H1","cpm_custom":"INV-2025-0001","cpm_trans_status":"ACCEPTED","cpm_amount":100,"cpm_currency":"XOF"}`)
	w := postWebhook(t, h, body, cinetpay.Sign(body, webhookHandlerTestSecret))

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200, got %d: %s", w.Code, w.Body.String())
	}
	if ack := decodeAck(t, w); ack["status"] != "accepted" {
		t.Fatalf("ack status want accepted, got %q", ack["status"])
	}

	var reloaded models.Invoice
	if err := db.First(&reloaded, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	if reloaded.Status != constants.DocumentStatusPaid {
		t.Fatalf("invoice status want paid, got %q", reloaded.Status)
	}
}

func TestCinetpayWebhookDuplicateDelivery(t *testing.T) {
	h, db := setupWebhookHandlerTest(t)
	now := time.Now()
	if err := db.Create(&models.Invoice{
		Reference:   "INV-2025-0002",
		UserID:      1,
		Status:      constants.DocumentStatusSent,
		Currency:    "XOF",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		AmountDue:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error; err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}

	body := []byte(`{"cpm_trans_id":"TX-H2","cpm_custom":"INV-2025-0002","cpm_trans_status":"ACCEPTED","cpm_amount":100,"cpm_currency":"XOF"}`)
	signature := cinetpay.Sign(body, webhookHandlerTestSecret)

	if w := postWebhook(t, h, body, signature); w.Code != http.StatusOK {
		t.Fatalf("first delivery want 200, got %d", w.Code)
	}
	w := postWebhook(t, h, body, signature)
	if w.Code != http.StatusOK {
		t.Fatalf("second delivery want 200, got %d", w.Code)
	}
	if ack := decodeAck(t, w); ack["status"] != "duplicate" {
		t.Fatalf("ack status want duplicate, got %q", ack["status"])
	}
}

func TestCinetpayWebhookRejectsBadSignature(t *testing.T) {
	h, _ := setupWebhookHandlerTest(t)

	body := []byte(`{"cpm_trans_id":"TX-H3","cpm_custom":"INV-2025-0001","cpm_trans_status":"ACCEPTED","cpm_amount":100,"cpm_currency":"XOF"}`)
	w := postWebhook(t, h, body, "deadbeef")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status want 400, got %d", w.Code)
	}
	if ack := decodeAck(t, w); ack["status"] != "rejected" {
		t.Fatalf("ack status want rejected, got %q", ack["status"])
	}
}

func TestCinetpayWebhookRejectsMissingSignature(t *testing.T) {
	h, _ := setupWebhookHandlerTest(t)

	body := []byte(`{"cpm_trans_id":"TX-H4","cpm_custom":"INV-2025-0001","cpm_trans_status":"ACCEPTED","cpm_amount":100,"cpm_currency":"XOF"}`)
	w := postWebhook(t, h, body, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status want 400, got %d", w.Code)
	}
}

func TestCinetpayWebhookRejectsMalformedPayload(t *testing.T) {
	h, _ := setupWebhookHandlerTest(t)

	body := []byte(`{"cpm_amount":100}`)
	w := postWebhook(t, h, body, cinetpay.Sign(body, webhookHandlerTestSecret))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status want 400, got %d", w.Code)
	}
	if ack := decodeAck(t, w); ack["message"] != "invalid payload" {
		t.Fatalf("ack message want invalid payload, got %q", ack["message"])
	}
}

func TestCinetpayWebhookUnknownReferenceAcknowledged(t *testing.T) {
	h, _ := setupWebhookHandlerTest(t)

	body := []byte(`{"cpm_trans_id":"TX-H5","cpm_custom":"INV-2025-9999","cpm_trans_status":"ACCEPTED","cpm_amount":100,"cpm_currency":"XOF"}`)
	w := postWebhook(t, h, body, cinetpay.Sign(body, webhookHandlerTestSecret))

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200, got %d", w.Code)
	}
	ack := decodeAck(t, w)
	if ack["status"] != "ignored" || ack["message"] != "not_found" {
		t.Fatalf("ack want ignored/not_found, got %q/%q", ack["status"], ack["message"])
	}
}
