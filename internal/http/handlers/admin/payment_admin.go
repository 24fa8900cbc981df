package admin

import (
	"strings"
	"time"

	handlershared "github.com/facturio/internal/http/handlers/shared"
	"github.com/facturio/internal/http/response"
	"github.com/facturio/internal/payment/cinetpay"
	"github.com/facturio/internal/repository"

	"github.com/gin-gonic/gin"
)

type auditListQuery struct {
	Page            int    `form:"page"`
	PageSize        int    `form:"page_size"`
	TargetType      string `form:"target_type"`
	TargetReference string `form:"target_reference"`
	EventID         string `form:"event_id"`
	Flag            string `form:"flag"`
}

// ListAuditLog lists payment audit entries.
func (h *Handler) ListAuditLog(c *gin.Context) {
	var query auditListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	page, pageSize := handlershared.NormalizePagination(query.Page, query.PageSize)

	entries, total, err := h.AuditLogRepo.ListAdmin(repository.AuditLogListFilter{
		TargetType:      query.TargetType,
		TargetReference: query.TargetReference,
		EventID:         query.EventID,
		Flag:            query.Flag,
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, entries, buildPagination(page, pageSize, total))
}

type eventListQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Outcome  string `form:"outcome"`
}

// ListProcessedEvents lists the idempotency ledger.
func (h *Handler) ListProcessedEvents(c *gin.Context) {
	var query eventListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	page, pageSize := handlershared.NormalizePagination(query.Page, query.PageSize)

	events, total, err := h.ProcessedEventRepo.ListAdmin(repository.ProcessedEventListFilter{
		Outcome:  query.Outcome,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, events, buildPagination(page, pageSize, total))
}

// CheckTransaction cross-checks a transaction against the gateway's
// authoritative state. Used when reviewing flagged audit entries.
func (h *Handler) CheckTransaction(c *gin.Context) {
	transID := strings.TrimSpace(c.Param("transId"))
	if transID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	cfg := &cinetpay.Config{
		SiteID:    h.Config.Cinetpay.SiteID,
		APIKey:    h.Config.Cinetpay.APIKey,
		SecretKey: h.Config.Cinetpay.SecretKey,
		BaseURL:   h.Config.Cinetpay.BaseURL,
		Timeout:   time.Duration(h.Config.Cinetpay.TimeoutMS) * time.Millisecond,
	}
	result, err := cinetpay.CheckTransaction(c.Request.Context(), cfg, transID)
	if err != nil {
		requestLog(c).Warnw("cinetpay_check_failed", "trans_id", transID, "error", err)
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"status":   result.Status,
		"amount":   result.Amount,
		"currency": result.Currency,
	})
}
