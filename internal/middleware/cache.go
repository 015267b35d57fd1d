package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/config"
)

// cachedResponse is the envelope stored in Redis for a cached response.
type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// captureWriter tees the response body so it can be stored after the
// handler has written it to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// Cache returns a read-through response cache for public GET routes,
// keyed by method, route and raw query. Only 200 responses are stored.
// Redis failures (or a nil client) disable caching for the request;
// the handler always remains the source of truth.
func Cache(rdb *redis.Client, cfg config.CacheConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rdb == nil || !cfg.Enabled || c.Request().Method != http.MethodGet {
				return next(c)
			}
			// Key on the concrete request path, not the registered
			// route pattern: parameterized routes like /v1/events/:id
			// must cache one entry per id.
			key := cfg.Prefix + ":" + c.Request().Method + ":" + c.Request().URL.Path + ":" + c.Request().URL.RawQuery

			ctx, cancel := context.WithTimeout(c.Request().Context(), 200*time.Millisecond)
			raw, err := rdb.Get(ctx, key).Bytes()
			cancel()
			if err == nil {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil {
					return c.JSONBlob(cached.Status, cached.Body)
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK {
				if payload, err := json.Marshal(cachedResponse{Status: cw.status, Body: cw.buf.Bytes()}); err == nil {
					ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
					_ = rdb.Set(ctx, key, payload, cfg.TTL).Err()
					cancel()
				}
			}
			return nil
		}
	}
}
