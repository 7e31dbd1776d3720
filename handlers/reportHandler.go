package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/middlewares"
	"github.com/mmdatafocus/travel_backend/models/reports"
	"github.com/mmdatafocus/travel_backend/utils"
)

func (h *Handler) trialBalance(c *gin.Context) {
	report, err := reports.GetTrialBalance(c.Request.Context(), h.env.DB)
	ok(c, report, err)
}

func (h *Handler) arAging(c *gin.Context) {
	asOf := time.Now().UTC()
	if v := c.Query("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			middlewares.AbortWithError(c, utils.NewValidationError("as_of", "use YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}
	rows, err := reports.GetARAgingSummary(c.Request.Context(), h.env.DB, middlewares.Scope(c), asOf)
	ok(c, rows, err)
}
