package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns every request an id, reusing a client supplied
// X-Request-ID when present, and echoes it on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(observability.RequestIDKey, id)
			c.Response().Header().Set(requestIDHeader, id)
			return next(c)
		}
	}
}

// RequestIDFrom returns the id assigned by RequestID.
func RequestIDFrom(c echo.Context) string {
	id, _ := c.Get(observability.RequestIDKey).(string)
	return id
}

// RequestLogger writes one structured line per request.
func RequestLogger(log *observability.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler pick the status before it is logged
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			evt := log.WithRequestID(RequestIDFrom(c)).Info()
			if status >= 500 {
				evt = log.WithRequestID(RequestIDFrom(c)).Error()
			}
			evt.Str("method", req.Method).
				Str("path", c.Path()).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("operator", OperatorID(c)).
				Msg("request")
			return nil
		}
	}
}
