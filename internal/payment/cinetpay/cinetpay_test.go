package cinetpay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"cpm_trans_id":"TX-1","cpm_amount":100}`)
	secret := "webhook-secret"
	signature := Sign(body, secret)

	if !VerifySignature(body, signature, secret) {
		t.Fatalf("expected valid signature to verify")
	}
	if !VerifySignature(body, strings.ToUpper(signature), secret) {
		t.Fatalf("expected uppercase hex signature to verify")
	}
	if VerifySignature(body, signature, "other-secret") {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifySignature([]byte(`{"cpm_trans_id":"TX-1","cpm_amount":101}`), signature, secret) {
		t.Fatalf("expected tampered body to fail")
	}
	if VerifySignature(body, "", secret) {
		t.Fatalf("expected missing signature to fail")
	}
	if VerifySignature(body, signature, "") {
		t.Fatalf("expected empty secret to fail")
	}
}

func TestParseNotificationAmountForms(t *testing.T) {
	n, err := ParseNotification([]byte(`{"cpm_trans_id":"TX-1","cpm_amount":1500.5,"cpm_currency":"XOF"}`))
	if err != nil {
		t.Fatalf("parse numeric amount failed: %v", err)
	}
	if got := n.AmountString(); got != "1500.5" {
		t.Fatalf("numeric amount want 1500.5, got %q", got)
	}

	n, err = ParseNotification([]byte(`{"cpm_trans_id":"TX-2","cpm_amount":" 2000 ","cpm_currency":"XOF"}`))
	if err != nil {
		t.Fatalf("parse string amount failed: %v", err)
	}
	if got := n.AmountString(); got != "2000" {
		t.Fatalf("string amount want 2000, got %q", got)
	}

	if _, err := ParseNotification([]byte(`not json`)); err == nil {
		t.Fatalf("expected parse error for invalid json")
	}
	if _, err := ParseNotification(nil); err == nil {
		t.Fatalf("expected parse error for empty body")
	}
}

func TestToEventStatus(t *testing.T) {
	cases := map[string]string{
		"ACCEPTED":             "success",
		"succes":               "success",
		"SUCCESS":              "success",
		"REFUSED":              "failed",
		"failed":               "failed",
		"WAITING_FOR_CUSTOMER": "pending",
		"PENDING":              "pending",
		"CANCELED":             "cancelled",
		"CANCELLED":            "cancelled",
		"EXPIRED":              "cancelled",
		"SOMETHING_ELSE":       "",
		"":                     "",
	}
	for input, want := range cases {
		if got := ToEventStatus(input); got != want {
			t.Fatalf("ToEventStatus(%q) want %q, got %q", input, want, got)
		}
	}
}

func TestCheckTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/payment/check" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"00","message":"SUCCES","data":{"status":"ACCEPTED","amount":"5000","currency":"XOF"}}`))
	}))
	defer server.Close()

	cfg := &Config{
		SiteID:    "site-1",
		APIKey:    "api-key",
		SecretKey: "secret",
		BaseURL:   server.URL,
	}
	result, err := CheckTransaction(context.Background(), cfg, "TX-1")
	if err != nil {
		t.Fatalf("check transaction failed: %v", err)
	}
	if result.Status != "ACCEPTED" || result.Amount != "5000" || result.Currency != "XOF" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCheckTransactionGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"608","message":"MINIMUM_REQUIRED_FIELDS"}`))
	}))
	defer server.Close()

	cfg := &Config{
		SiteID:    "site-1",
		APIKey:    "api-key",
		SecretKey: "secret",
		BaseURL:   server.URL,
	}
	if _, err := CheckTransaction(context.Background(), cfg, "TX-1"); err == nil {
		t.Fatalf("expected error on non-00 code")
	}
}

func TestCheckTransactionConfigValidation(t *testing.T) {
	if _, err := CheckTransaction(context.Background(), &Config{SiteID: "s", SecretKey: "k"}, "TX-1"); err == nil {
		t.Fatalf("expected error without api key")
	}
	if _, err := CheckTransaction(context.Background(), &Config{SiteID: "s", APIKey: "a", SecretKey: "k"}, " "); err == nil {
		t.Fatalf("expected error on empty transaction id")
	}
}
