// middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/labstack/echo/v4"
)

// RequireRole lets the request through only when the resolved caller has one
// of the allowed roles.
func RequireRole(allowed ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := GetCaller(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: user not resolved",
				})
			}
			if caller.Is(allowed...) {
				return next(c)
			}

			c.Logger().Debugf("Access denied for role %s on %s, allowed: %v", caller.Role, c.Path(), allowed)
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Forbidden",
			})
		}
	}
}
