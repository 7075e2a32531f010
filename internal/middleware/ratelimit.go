package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/storefront_app/internal/dto"
	"github.com/SscSPs/storefront_app/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// RateLimit creates a Gin middleware for rate limiting requests by client IP.
// It uses the provided limiter instance; counters live in the limiter's store.
func RateLimit(limiterInstance *limiter.Limiter, collector metrics.MetricsCollector) gin.HandlerFunc {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return func(c *gin.Context) {
		// Get the IP address for rate limiting
		ip := c.ClientIP()

		// Apply the rate limiting
		context, err := limiterInstance.Get(c.Request.Context(), ip)
		if err != nil {
			GetLoggerFromContext(c).Error("Failed to get rate limit context", slog.String("ip", ip), slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Response{Msg: "Internal server error during rate limit check"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(context.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(context.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(context.Reset, 10))

		if context.Reached {
			GetLoggerFromContext(c).Warn("Rate limit exceeded", slog.String("ip", ip), slog.Int64("limit", context.Limit))
			collector.RecordGateRejection(CodeTooManyRequests)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.Response{Msg: "Too many requests", Code: CodeTooManyRequests})
			return
		}

		c.Next()
	}
}
