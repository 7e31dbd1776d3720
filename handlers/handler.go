package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/middlewares"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/mmdatafocus/travel_backend/workflow"
)

const idempotencyHeader = "Idempotency-Key"

// Handler is the REST surface over models and the ledger.
type Handler struct {
	env    *config.Env
	ledger *workflow.Ledger
}

func New(env *config.Env, ledger *workflow.Ledger) *Handler {
	return &Handler{env: env, ledger: ledger}
}

// Register mounts every route under r.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.POST("/login", h.login)

	api := r.Group("", middlewares.RequireAuth())

	api.GET("/bookings", h.listBookings)
	api.POST("/bookings", h.createBooking)
	api.GET("/bookings/summary", h.summarizeBookings)
	api.POST("/bookings/quote", h.quoteBooking)
	api.GET("/bookings/:id", h.getBooking)
	api.PATCH("/bookings/:id", h.updateBooking)
	api.GET("/bookings/:id/journal-lines", h.bookingJournalLines)
	api.POST("/bookings/:id/confirm", h.confirmBooking)
	api.POST("/bookings/:id/cancel", h.cancelBooking)
	api.POST("/bookings/:id/invoice", h.createInvoice)

	api.GET("/invoices", h.listInvoices)
	api.GET("/invoices/:id", h.getInvoice)
	api.POST("/invoices/:id/issue", h.issueInvoice)
	api.POST("/invoices/:id/recompute", h.recomputeInvoice)

	api.GET("/receipts", h.listReceipts)
	api.POST("/receipts", h.createReceipt)
	api.GET("/receipts/:id", h.getReceipt)
	api.PUT("/receipts/:id", h.updateReceipt)
	api.POST("/receipts/:id/void", h.voidReceipt)
	api.DELETE("/receipts/:id", h.deleteReceipt)

	api.GET("/payments", h.listPayments)
	api.POST("/payments", h.createPayment)
	api.PUT("/payments/:id", h.updatePayment)
	api.DELETE("/payments/:id", h.deletePayment)

	api.GET("/customers", h.listCustomers)
	api.GET("/customers/:id", h.getCustomer)
	api.GET("/suppliers", h.listSuppliers)
	api.GET("/currency-rates", h.listCurrencyRates)
	api.GET("/history/:type/:id", h.listHistory)
	api.GET("/reports/ar-aging", h.arAging)

	admin := api.Group("", middlewares.RequireAdmin())
	admin.POST("/customers", h.createCustomer)
	admin.POST("/suppliers", h.createSupplier)
	admin.POST("/users", h.createUser)
	admin.GET("/assignments", h.listAssignments)
	admin.PUT("/assignments", h.upsertAssignment)
	admin.DELETE("/assignments/:id", h.deactivateAssignment)
	admin.PUT("/currency-rates", h.updateCurrencyRates)
	admin.GET("/accounts", h.listAccounts)
	admin.POST("/accounts", h.createAccount)
	admin.PUT("/accounts/:id", h.updateAccount)
	admin.DELETE("/accounts/:id", h.deleteAccount)
	admin.GET("/money-accounts", h.listMoneyAccounts)
	admin.POST("/money-accounts", h.createMoneyAccount)
	admin.GET("/journal-entries", h.listJournalEntries)
	admin.POST("/journal-entries", h.createJournalEntry)
	admin.GET("/journal-entries/:id", h.getJournalEntry)
	admin.POST("/journal-entries/:id/post", h.postJournalEntry)
	admin.POST("/journal-entries/:id/reverse", h.reverseJournalEntry)
	admin.DELETE("/journal-entries/:id", h.deleteJournalEntry)
	admin.GET("/reconciliation", h.reconcile)
	admin.GET("/reports/trial-balance", h.trialBalance)
}

func idParam(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, utils.NewValidationError(name, "invalid id %q", c.Param(name))
	}
	return id, nil
}

func queryInt(c *gin.Context, name string) int {
	v, _ := strconv.Atoi(c.Query(name))
	return v
}

func bind(c *gin.Context, dest any) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return utils.NewValidationError("body", "invalid request body: %s", err.Error())
	}
	return nil
}

func respond(c *gin.Context, status int, body any, err error) {
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	c.JSON(status, body)
}

func ok(c *gin.Context, body any, err error) {
	respond(c, http.StatusOK, body, err)
}

func created(c *gin.Context, body any, err error) {
	respond(c, http.StatusCreated, body, err)
}
