package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	grpcmiddleware "user-crud-service/internal/adapter/grpc/middleware"
)

// RateLimiter returns a Gin middleware counting requests per method, route
// and client IP against the shared fixed-window limiter.
func RateLimiter(limiter *grpcmiddleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := fmt.Sprintf("http:%s:%s:%s", c.Request.Method, route, c.ClientIP())

		if ok, _ := limiter.Allow(c.Request.Context(), key); !ok {
			cfg := limiter.Config()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": fmt.Sprintf("Rate limit exceeded: %.2f requests/second over %ds", cfg.RequestsPerSecond, cfg.WindowSeconds),
			})
			return
		}

		c.Next()
	}
}
