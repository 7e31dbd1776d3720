package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/middlewares"
	"github.com/mmdatafocus/travel_backend/models"
)

func (h *Handler) listInvoices(c *gin.Context) {
	invoices, err := models.ListInvoices(c.Request.Context(), h.env.DB, middlewares.Scope(c), models.InvoiceFilter{
		Status:     models.InvoiceStatus(c.Query("status")),
		CustomerId: queryInt(c, "customer_id"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	})
	ok(c, invoices, err)
}

func (h *Handler) getInvoice(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	invoice, err := models.GetInvoice(c.Request.Context(), h.env.DB, middlewares.Scope(c), id)
	ok(c, invoice, err)
}

func (h *Handler) issueInvoice(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	invoice, err := h.ledger.IssueInvoice(c.Request.Context(), middlewares.Scope(c), id)
	ok(c, invoice, err)
}

func (h *Handler) recomputeInvoice(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	invoice, err := h.ledger.RecomputeInvoiceStatus(c.Request.Context(), middlewares.Scope(c), id)
	ok(c, invoice, err)
}
