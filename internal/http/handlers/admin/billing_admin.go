package admin

import (
	"errors"
	"strconv"
	"time"

	handlershared "github.com/facturio/internal/http/handlers/shared"
	"github.com/facturio/internal/http/response"
	"github.com/facturio/internal/models"
	"github.com/facturio/internal/repository"
	"github.com/facturio/internal/service"

	"github.com/gin-gonic/gin"
)

type documentListQuery struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	Status    string `form:"status"`
	Reference string `form:"reference"`
	UserID    uint   `form:"user_id"`
}

func (q documentListQuery) toFilter() (repository.DocumentListFilter, int, int) {
	page, pageSize := handlershared.NormalizePagination(q.Page, q.PageSize)
	return repository.DocumentListFilter{
		UserID:    q.UserID,
		Status:    q.Status,
		Reference: q.Reference,
		Page:      page,
		PageSize:  pageSize,
	}, page, pageSize
}

// ListInvoices lists invoices for the back office.
func (h *Handler) ListInvoices(c *gin.Context) {
	var query documentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	filter, page, pageSize := query.toFilter()

	invoices, total, err := h.BillingService.ListInvoices(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, invoices, buildPagination(page, pageSize, total))
}

// GetInvoice returns one invoice.
func (h *Handler) GetInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	invoice, err := h.BillingService.GetInvoice(id)
	if err != nil {
		respondBillingError(c, err)
		return
	}
	response.Success(c, invoice)
}

// CreateInvoiceRequest is the invoice creation payload.
type CreateInvoiceRequest struct {
	Reference   string       `json:"reference" binding:"required"`
	UserID      uint         `json:"user_id" binding:"required"`
	Currency    string       `json:"currency" binding:"required"`
	TotalAmount models.Money `json:"total_amount" binding:"required"`
	DueAt       *time.Time   `json:"due_at"`
}

// CreateInvoice registers a draft invoice.
func (h *Handler) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	invoice, err := h.BillingService.CreateInvoice(service.CreateInvoiceInput{
		Reference:   req.Reference,
		UserID:      req.UserID,
		Currency:    req.Currency,
		TotalAmount: req.TotalAmount,
		DueAt:       req.DueAt,
	})
	if err != nil {
		respondBillingError(c, err)
		return
	}
	requestLog(c).Infow("invoice_created", "invoice_id", invoice.ID, "reference", invoice.Reference)
	response.Success(c, invoice)
}

// UpdateStatusRequest is the manual status change payload.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateInvoiceStatus applies a manual invoice status change.
func (h *Handler) UpdateInvoiceStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	invoice, err := h.BillingService.UpdateInvoiceStatus(id, req.Status)
	if err != nil {
		respondBillingError(c, err)
		return
	}
	response.Success(c, invoice)
}

// ListQuotes lists quotes for the back office.
func (h *Handler) ListQuotes(c *gin.Context) {
	var query documentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	filter, page, pageSize := query.toFilter()

	quotes, total, err := h.BillingService.ListQuotes(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, quotes, buildPagination(page, pageSize, total))
}

// GetQuote returns one quote.
func (h *Handler) GetQuote(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	quote, err := h.BillingService.GetQuote(id)
	if err != nil {
		respondBillingError(c, err)
		return
	}
	response.Success(c, quote)
}

// CreateQuoteRequest is the quote creation payload.
type CreateQuoteRequest struct {
	Reference   string       `json:"reference" binding:"required"`
	UserID      uint         `json:"user_id" binding:"required"`
	Currency    string       `json:"currency" binding:"required"`
	TotalAmount models.Money `json:"total_amount" binding:"required"`
	ValidUntil  *time.Time   `json:"valid_until"`
}

// CreateQuote registers a draft quote.
func (h *Handler) CreateQuote(c *gin.Context) {
	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	quote, err := h.BillingService.CreateQuote(service.CreateQuoteInput{
		Reference:   req.Reference,
		UserID:      req.UserID,
		Currency:    req.Currency,
		TotalAmount: req.TotalAmount,
		ValidUntil:  req.ValidUntil,
	})
	if err != nil {
		respondBillingError(c, err)
		return
	}
	requestLog(c).Infow("quote_created", "quote_id", quote.ID, "reference", quote.Reference)
	response.Success(c, quote)
}

// UpdateQuoteStatus applies a manual quote status change.
func (h *Handler) UpdateQuoteStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	quote, err := h.BillingService.UpdateQuoteStatus(id, req.Status)
	if err != nil {
		respondBillingError(c, err)
		return
	}
	response.Success(c, quote)
}

func respondBillingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound):
		respondError(c, response.CodeNotFound, "error.document_not_found", nil)
	case errors.Is(err, service.ErrStatusInvalid):
		respondError(c, response.CodeBadRequest, "error.status_invalid", nil)
	case errors.Is(err, service.ErrVersionConflict):
		respondError(c, response.CodeBadRequest, "error.status_invalid", err)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return 0, false
	}
	return uint(id), true
}

func buildPagination(page, pageSize int, total int64) response.Pagination {
	totalPage := int64(0)
	if pageSize > 0 {
		totalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}
