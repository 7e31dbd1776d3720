package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/middlewares"
	"github.com/mmdatafocus/travel_backend/models"
)

func (h *Handler) listReceipts(c *gin.Context) {
	receipts, err := models.ListReceipts(c.Request.Context(), h.env.DB, middlewares.Scope(c), models.ReceiptFilter{
		CustomerId: queryInt(c, "customer_id"),
		InvoiceId:  queryInt(c, "invoice_id"),
		Status:     models.ReceiptStatus(c.Query("status")),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	})
	ok(c, receipts, err)
}

func (h *Handler) getReceipt(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	receipt, err := models.GetReceipt(c.Request.Context(), h.env.DB, middlewares.Scope(c), id)
	ok(c, receipt, err)
}

func (h *Handler) createReceipt(c *gin.Context) {
	var input models.NewReceipt
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	receipt, err := h.ledger.CreateReceipt(c.Request.Context(), middlewares.Scope(c), &input, c.GetHeader(idempotencyHeader))
	created(c, receipt, err)
}

func (h *Handler) updateReceipt(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	var input models.NewReceipt
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	receipt, err := h.ledger.UpdateReceipt(c.Request.Context(), middlewares.Scope(c), id, &input)
	ok(c, receipt, err)
}

func (h *Handler) voidReceipt(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	receipt, err := h.ledger.VoidReceipt(c.Request.Context(), middlewares.Scope(c), id)
	ok(c, receipt, err)
}

func (h *Handler) deleteReceipt(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	receipt, err := h.ledger.DeleteReceipt(c.Request.Context(), middlewares.Scope(c), id)
	ok(c, receipt, err)
}
