package public

import (
	"errors"
	"io"
	"net/http"

	"github.com/facturio/internal/payment/cinetpay"
	"github.com/facturio/internal/service"

	"github.com/gin-gonic/gin"
)

// webhookAck is the gateway-facing acknowledgement body. It never carries
// internal error detail.
type webhookAck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CinetpayWebhook ingests a payment notification. The raw body is read
// exactly once and handed to the pipeline untouched; the signature check
// runs over those bytes before any parsing.
//
// 200 for accepted, duplicate and non-retryable rejections, 400 for
// authentication or normalization failures, 500 when storage is down so
// the gateway retries.
func (h *Handler) CinetpayWebhook(c *gin.Context) {
	log := requestLog(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("cinetpay_webhook_body_read_failed", "error", err)
		c.JSON(http.StatusBadRequest, webhookAck{Status: "rejected", Message: "unreadable body"})
		return
	}
	signature := c.GetHeader(cinetpay.SignatureHeader)

	log.Infow("cinetpay_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"signature_present", signature != "",
	)

	result, err := h.WebhookService.HandleWebhook(body, signature)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSignatureInvalid):
			log.Warnw("cinetpay_webhook_auth_failed")
			c.JSON(http.StatusBadRequest, webhookAck{Status: "rejected", Message: "invalid signature"})
		case service.IsNormalizationError(err):
			log.Warnw("cinetpay_webhook_payload_rejected", "error", err)
			c.JSON(http.StatusBadRequest, webhookAck{Status: "rejected", Message: "invalid payload"})
		default:
			log.Errorw("cinetpay_webhook_processing_failed", "error", err)
			c.JSON(http.StatusInternalServerError, webhookAck{Status: "error", Message: "temporary failure, retry"})
		}
		return
	}

	switch result.Outcome {
	case service.WebhookOutcomeDuplicate:
		c.JSON(http.StatusOK, webhookAck{Status: "duplicate", Message: "event already processed"})
	case service.WebhookOutcomeIgnored:
		c.JSON(http.StatusOK, webhookAck{Status: "ignored", Message: result.Reason})
	default:
		c.JSON(http.StatusOK, webhookAck{Status: "accepted", Message: result.Reason})
	}
}
