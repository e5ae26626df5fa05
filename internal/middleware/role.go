package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Roles carried in the "role" claim of operator tokens.
const (
	RoleOperator = "OPERATOR"
	RoleApprover = "APPROVER"
	RoleFinance  = "FINANCE"
	RoleAdmin    = "ADMIN"
)

// RequireRole returns a middleware function that enforces that the
// authenticated operator has one of the specified roles.  It assumes
// JWTAuth has already stored the role in the context; a missing or
// unlisted role is answered with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(RoleKey).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
