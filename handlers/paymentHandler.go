package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/middlewares"
	"github.com/mmdatafocus/travel_backend/models"
)

func (h *Handler) listPayments(c *gin.Context) {
	payments, err := models.ListPayments(c.Request.Context(), h.env.DB, middlewares.Scope(c), models.PaymentFilter{
		SupplierId: queryInt(c, "supplier_id"),
		BookingId:  queryInt(c, "booking_id"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	})
	ok(c, payments, err)
}

func (h *Handler) createPayment(c *gin.Context) {
	var input models.NewPayment
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	payment, err := h.ledger.CreatePayment(c.Request.Context(), middlewares.Scope(c), &input, c.GetHeader(idempotencyHeader))
	created(c, payment, err)
}

func (h *Handler) updatePayment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	var input models.NewPayment
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	payment, err := h.ledger.UpdatePayment(c.Request.Context(), middlewares.Scope(c), id, &input)
	ok(c, payment, err)
}

func (h *Handler) deletePayment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	payment, err := h.ledger.DeletePayment(c.Request.Context(), middlewares.Scope(c), id)
	ok(c, payment, err)
}
