package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/sirupsen/logrus"
)

const correlationHeader = "X-Correlation-Id"

// CorrelationMiddleware tags each request with a correlation id, taken from
// the caller when supplied, and logs the outcome.
func CorrelationMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Request.Header.Get(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(correlationHeader, id)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), id))

		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"field":          "http",
			"correlation_id": id,
			"method":         c.Request.Method,
			"path":           c.FullPath(),
			"status":         c.Writer.Status(),
			"latency_ms":     time.Since(start).Milliseconds(),
		})
		if name, ok := utils.GetUserNameFromContext(c.Request.Context()); ok {
			entry = entry.WithField("user", name)
		}
		if c.Writer.Status() >= 500 {
			entry.Error("request failed")
		} else {
			entry.Debug("request served")
		}
	}
}
