package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/middlewares"
	"github.com/mmdatafocus/travel_backend/models"
)

func bookingFilter(c *gin.Context) models.BookingFilter {
	filter := models.BookingFilter{
		Status:      models.BookingStatus(c.Query("status")),
		ServiceType: models.ServiceType(c.Query("service_type")),
		CustomerId:  queryInt(c, "customer_id"),
		SupplierId:  queryInt(c, "supplier_id"),
		Limit:       queryInt(c, "limit"),
		Offset:      queryInt(c, "offset"),
	}
	if t, err := time.Parse(time.DateOnly, c.Query("from")); err == nil {
		filter.FromDate = &t
	}
	if t, err := time.Parse(time.DateOnly, c.Query("to")); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.ToDate = &end
	}
	return filter
}

func (h *Handler) listBookings(c *gin.Context) {
	bookings, err := models.ListBookings(c.Request.Context(), h.env.DB, middlewares.Scope(c), bookingFilter(c))
	ok(c, bookings, err)
}

func (h *Handler) summarizeBookings(c *gin.Context) {
	summary, err := models.SummarizeScopedBookings(c.Request.Context(), h.env.DB, middlewares.Scope(c), bookingFilter(c))
	ok(c, summary, err)
}

func (h *Handler) getBooking(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	booking, err := models.GetBooking(c.Request.Context(), h.env.DB, middlewares.Scope(c), id)
	ok(c, booking, err)
}

// quoteBooking runs the calculator without storing anything.
func (h *Handler) quoteBooking(c *gin.Context) {
	var input models.FinancialInput
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	rates, err := models.LoadRateTable(c.Request.Context(), h.env.DB, h.env.Cache)
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	financials, err := models.CalculateBookingFinancials(rates, input)
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	ok(c, gin.H{
		"financials":    financials,
		"journal_lines": models.BookingJournalLines(financials),
	}, nil)
}

func (h *Handler) bookingJournalLines(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	booking, err := models.GetBooking(c.Request.Context(), h.env.DB, middlewares.Scope(c), id)
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	lines := booking.JournalLines()
	ok(c, gin.H{"lines": lines, "balanced": models.IsBalanced(lines)}, nil)
}

func (h *Handler) createBooking(c *gin.Context) {
	var input models.NewBooking
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	booking, err := h.ledger.CreateBooking(c.Request.Context(), middlewares.Scope(c), &input, c.GetHeader(idempotencyHeader))
	created(c, booking, err)
}

func (h *Handler) updateBooking(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	var patch models.BookingPatch
	if err := bind(c, &patch); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	booking, err := h.ledger.UpdateBooking(c.Request.Context(), middlewares.Scope(c), id, patch)
	ok(c, booking, err)
}

func (h *Handler) confirmBooking(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	booking, err := h.ledger.ConfirmBooking(c.Request.Context(), middlewares.Scope(c), id)
	ok(c, booking, err)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancelBooking(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	var input cancelRequest
	if c.Request.ContentLength > 0 {
		if err := bind(c, &input); err != nil {
			middlewares.AbortWithError(c, err)
			return
		}
	}
	result, err := h.ledger.CancelBooking(c.Request.Context(), middlewares.Scope(c), id, input.Reason)
	ok(c, result, err)
}

func (h *Handler) createInvoice(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	var input models.NewInvoice
	if c.Request.ContentLength > 0 {
		if err := bind(c, &input); err != nil {
			middlewares.AbortWithError(c, err)
			return
		}
	}
	input.BookingId = id
	invoice, err := h.ledger.CreateInvoice(c.Request.Context(), middlewares.Scope(c), &input)
	created(c, invoice, err)
}
