package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/sirupsen/logrus"
)

// StatusForError maps the typed errors to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case utils.IsValidationError(err):
		return http.StatusBadRequest
	case utils.IsAccessDeniedError(err):
		return http.StatusForbidden
	case utils.IsNotFoundError(err):
		return http.StatusNotFound
	case utils.IsConflictError(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// AbortWithError writes err as JSON. Internal errors are not echoed.
func AbortWithError(c *gin.Context, err error) {
	status := StatusForError(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body = gin.H{"error": "internal server error"}
	}
	if id, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok {
		body["correlation_id"] = id
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// ErrorLogger logs the errors handlers attached to the context. Rejected
// requests (4xx) go to debug; only server failures are logged as errors.
func ErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			status := StatusForError(e.Err)
			entry := logger.WithFields(logrus.Fields{
				"field":  "http",
				"path":   c.FullPath(),
				"status": status,
			}).WithError(e.Err)
			if id, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok {
				entry = entry.WithField("correlation_id", id)
			}
			if name, ok := utils.GetUserNameFromContext(c.Request.Context()); ok {
				entry = entry.WithField("user", name)
			}
			if status >= http.StatusInternalServerError {
				entry.Error("request failed")
			} else {
				entry.Debug("request rejected")
			}
		}
	}
}
