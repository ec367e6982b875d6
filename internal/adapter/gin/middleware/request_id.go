package middleware

import (
	"github.com/gin-gonic/gin"

	"user-crud-service/pkg/logger"
)

// RequestID reuses a well-formed caller X-Request-ID or generates one, echoes
// it on the response and stores it in the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := logger.RequestIDOrNew(c.GetHeader(logger.RequestIDHeader))

		c.Header(logger.RequestIDHeader, requestID)
		c.Set(logger.RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}
