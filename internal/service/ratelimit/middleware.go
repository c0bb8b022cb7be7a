package ratelimit

import (
	apphttp "CryptoCompass/pkg/http"

	"github.com/labstack/echo/v4"
)

// Middleware limits each client IP with its own bucket under scope.
func Middleware(l *Limiter, scope string, capacity, refillPerSec float64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if capacity <= 0 {
				return next(c)
			}
			if !l.Allow(scope+":"+c.RealIP(), capacity, refillPerSec) {
				c.Response().Header().Set("Retry-After", "1")
				return apphttp.AppErrorResponse(c, apphttp.TooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}
