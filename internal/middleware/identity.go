package middleware

import "github.com/labstack/echo/v4"

// OperatorID returns the operator id stored by JWTAuth, or "anonymous" on
// public routes.
func OperatorID(c echo.Context) string {
	if v, ok := c.Get(OperatorIDKey).(string); ok && v != "" {
		return v
	}
	return "anonymous"
}
