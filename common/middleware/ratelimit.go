// Package middleware holds echo middleware shared across services.
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediaforge/renditions/common/ratelimit"
)

// UploadRateLimit throttles write requests per client IP over a 1
// minute window. A failed limiter check fails open: availability of the
// upload path wins over strict enforcement.
func UploadRateLimit(limiter *ratelimit.Limiter, limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			result, err := limiter.CheckClient(c.Request().Context(), c.RealIP(), limit, 60)
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "rate_limit_exceeded",
					"message": "Too many uploads. Please wait before trying again.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"window":              "60 seconds",
						"current_count":       result.CurrentCount,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
