package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/middlewares"
	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/utils"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var input loginRequest
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	info, err := models.Login(c.Request.Context(), h.env.DB, input.Username, input.Password)
	ok(c, info, err)
}

func (h *Handler) createUser(c *gin.Context) {
	var input models.NewUser
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	user, err := models.CreateUser(c.Request.Context(), h.env.DB, &input)
	created(c, user, err)
}

func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := models.ListCustomers(c.Request.Context(), h.env.DB, middlewares.Scope(c))
	ok(c, customers, err)
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	customer, err := models.GetCustomer(c.Request.Context(), h.env.DB, middlewares.Scope(c), id)
	ok(c, customer, err)
}

func (h *Handler) createCustomer(c *gin.Context) {
	var input models.NewCustomer
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	customer, err := models.CreateCustomer(c.Request.Context(), h.env.DB, &input)
	created(c, customer, err)
}

func (h *Handler) listSuppliers(c *gin.Context) {
	suppliers, err := models.ListSuppliers(c.Request.Context(), h.env.DB, middlewares.Scope(c))
	ok(c, suppliers, err)
}

func (h *Handler) createSupplier(c *gin.Context) {
	var input models.NewSupplier
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	supplier, err := models.CreateSupplier(c.Request.Context(), h.env.DB, &input)
	created(c, supplier, err)
}

func (h *Handler) listAssignments(c *gin.Context) {
	assignments, err := models.ListCustomerAssignments(c.Request.Context(), h.env.DB, queryInt(c, "customer_id"), queryInt(c, "user_id"))
	ok(c, assignments, err)
}

func (h *Handler) upsertAssignment(c *gin.Context) {
	var input models.NewCustomerAssignment
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	assignment, err := models.UpsertCustomerAssignment(c.Request.Context(), h.env.DB, h.env.Cache, &input)
	ok(c, assignment, err)
}

func (h *Handler) deactivateAssignment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	assignment, err := models.DeactivateCustomerAssignment(c.Request.Context(), h.env.DB, h.env.Cache, id)
	ok(c, assignment, err)
}

func (h *Handler) listCurrencyRates(c *gin.Context) {
	rates, err := models.ListCurrencyRates(c.Request.Context(), h.env.DB)
	ok(c, rates, err)
}

// updateCurrencyRates is the only way rates change; there is no scheduled feed.
func (h *Handler) updateCurrencyRates(c *gin.Context) {
	var input []models.NewCurrencyRate
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	userId, _ := utils.GetUserIdFromContext(c.Request.Context())
	rates, err := models.UpdateCurrencyRates(c.Request.Context(), h.env.DB, h.env.Cache, userId, input)
	ok(c, rates, err)
}

func (h *Handler) listAccounts(c *gin.Context) {
	accounts, err := models.ListAccounts(c.Request.Context(), h.env.DB)
	ok(c, accounts, err)
}

func (h *Handler) createAccount(c *gin.Context) {
	var input models.NewAccount
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	account, err := models.CreateAccount(c.Request.Context(), h.env.DB, &input)
	created(c, account, err)
}

func (h *Handler) updateAccount(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	var input models.NewAccount
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	account, err := models.UpdateAccount(c.Request.Context(), h.env.DB, id, &input)
	ok(c, account, err)
}

func (h *Handler) deleteAccount(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	account, err := models.DeleteAccount(c.Request.Context(), h.env.DB, id)
	ok(c, account, err)
}

func (h *Handler) listMoneyAccounts(c *gin.Context) {
	accounts, err := models.ListMoneyAccounts(c.Request.Context(), h.env.DB)
	ok(c, accounts, err)
}

func (h *Handler) createMoneyAccount(c *gin.Context) {
	var input models.NewMoneyAccount
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	account, err := models.CreateMoneyAccount(c.Request.Context(), h.env.DB, &input)
	created(c, account, err)
}

// listHistory shows the audit trail of one record. Restricted callers only
// see records of their customers' bookings and invoices.
func (h *Handler) listHistory(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	scope := middlewares.Scope(c)
	refType := models.ReferenceType(c.Param("type"))
	switch refType {
	case models.ReferenceTypeBooking:
		_, err = models.GetBooking(ctx, h.env.DB, scope, id)
	case models.ReferenceTypeInvoice:
		_, err = models.GetInvoice(ctx, h.env.DB, scope, id)
	case models.ReferenceTypeReceipt:
		_, err = models.GetReceipt(ctx, h.env.DB, scope, id)
	default:
		if !scope.Customers.Unrestricted {
			err = utils.NewAccessDeniedError(string(refType), id, "requires an admin role")
		}
	}
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	history, err := models.ListHistory(ctx, h.env.DB, refType, id)
	ok(c, history, err)
}
