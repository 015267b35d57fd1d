package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/config"
)

// loginWindowScript increments the window counter and attaches the
// TTL in the same Redis call, so a crash can never strand a counter
// key without an expiry.
var loginWindowScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n`)

// LoginRateLimit returns a fixed-window limiter keyed by client IP,
// meant for the login endpoint to slow credential stuffing. The count
// lives in Redis so the limit holds across replicas. With no Redis
// client the limiter is a no-op; availability wins over throttling.
func LoginRateLimit(rdb *redis.Client, cfg config.LoginRateConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rdb == nil || !cfg.Enabled {
				return next(c)
			}
			key := cfg.Prefix + ":" + c.RealIP()
			ctx, cancel := context.WithTimeout(c.Request().Context(), 200*time.Millisecond)
			defer cancel()
			n, err := loginWindowScript.Run(ctx, rdb, []string{key}, cfg.Window.Milliseconds()).Int64()
			if err != nil {
				// Redis being down should not lock users out.
				return next(c)
			}
			if n > int64(cfg.Limit) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many login attempts, try again later"})
			}
			return next(c)
		}
	}
}
