package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RoleAdmin is the role claim carried by admin API tokens.
const RoleAdmin = "ADMIN"

// AdminChecker is the admin allow-list.
type AdminChecker interface {
	IsAdmin(userID int64) bool
}

// RequireRole rejects requests whose role claim is not one of roles.  It
// runs after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ctxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireAdmin checks the token subject against the current allow-list,
// so a token outlives neither its expiry nor the holder's admin status.
func RequireAdmin(admins AdminChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := AdminID(c)
			if !ok || !admins.IsAdmin(id) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
