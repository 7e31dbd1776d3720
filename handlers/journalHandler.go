package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/middlewares"
	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/workflow"
)

func (h *Handler) listJournalEntries(c *gin.Context) {
	entries, err := models.ListJournalEntries(c.Request.Context(), h.env.DB, models.JournalEntryFilter{
		Status:        models.JournalStatus(c.Query("status")),
		AccountId:     queryInt(c, "account_id"),
		ReferenceType: models.ReferenceType(c.Query("reference_type")),
		ReferenceId:   queryInt(c, "reference_id"),
		Limit:         queryInt(c, "limit"),
		Offset:        queryInt(c, "offset"),
	})
	ok(c, entries, err)
}

func (h *Handler) getJournalEntry(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	entry, err := models.GetJournalEntry(c.Request.Context(), h.env.DB, id)
	ok(c, entry, err)
}

func (h *Handler) createJournalEntry(c *gin.Context) {
	var input models.NewJournalEntry
	if err := bind(c, &input); err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	entry, err := h.ledger.CreateJournalEntry(c.Request.Context(), middlewares.Scope(c), &input)
	created(c, entry, err)
}

func (h *Handler) postJournalEntry(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	entry, err := h.ledger.PostJournalEntry(c.Request.Context(), middlewares.Scope(c), id)
	ok(c, entry, err)
}

func (h *Handler) reverseJournalEntry(c *gin.Context) {
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
	entry, err := h.ledger.ReverseJournalEntry(c.Request.Context(), middlewares.Scope(c), id, input.Reason)
	ok(c, entry, err)
}

func (h *Handler) deleteJournalEntry(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		middlewares.AbortWithError(c, err)
		return
	}
	entry, err := h.ledger.DeleteJournalEntry(c.Request.Context(), middlewares.Scope(c), id)
	ok(c, entry, err)
}

func (h *Handler) reconcile(c *gin.Context) {
	report, err := workflow.RunReconciliationChecks(c.Request.Context(), h.env.DB, h.env.Logger)
	ok(c, report, err)
}
