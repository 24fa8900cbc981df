package public

import (
	"errors"
	"strconv"

	handlershared "github.com/facturio/internal/http/handlers/shared"
	"github.com/facturio/internal/http/response"
	"github.com/facturio/internal/repository"
	"github.com/facturio/internal/service"

	"github.com/gin-gonic/gin"
)

type documentListQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
}

// MyInvoices lists the authenticated client's invoices.
func (h *Handler) MyInvoices(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var query documentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	page, pageSize := handlershared.NormalizePagination(query.Page, query.PageSize)

	invoices, total, err := h.BillingService.ListUserInvoices(userID, repository.DocumentListFilter{
		Status:   query.Status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, invoices, buildPagination(page, pageSize, total))
}

// MyQuotes lists the authenticated client's quotes.
func (h *Handler) MyQuotes(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var query documentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	page, pageSize := handlershared.NormalizePagination(query.Page, query.PageSize)

	quotes, total, err := h.BillingService.ListUserQuotes(userID, repository.DocumentListFilter{
		Status:   query.Status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, quotes, buildPagination(page, pageSize, total))
}

// MyInvoice returns one of the client's invoices.
func (h *Handler) MyInvoice(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	invoice, err := h.BillingService.GetUserInvoice(userID, id)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			respondError(c, response.CodeNotFound, "error.document_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, invoice)
}

// MyQuote returns one of the client's quotes.
func (h *Handler) MyQuote(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	quote, err := h.BillingService.GetUserQuote(userID, id)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			respondError(c, response.CodeNotFound, "error.document_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, quote)
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
