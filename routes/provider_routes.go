package routes

import (
	"github.com/HSouheill/homeservices_backend/controllers"
	"github.com/HSouheill/homeservices_backend/middleware"
	"github.com/HSouheill/homeservices_backend/models"
	"github.com/labstack/echo/v4"
)

// RegisterProviderRoutes mounts the provider endpoints and the public
// nearby preview
func RegisterProviderRoutes(e *echo.Echo, auth *middleware.Auth, pc *controllers.ProviderController) {
	// Public routes (no auth required)
	e.GET("/api/provider/nearby", pc.Nearby)

	provider := e.Group("/api/provider")
	provider.Use(auth.JWTMiddleware())
	provider.Use(auth.ResolveUser())
	provider.Use(middleware.RequireRole(models.RoleProvider))

	provider.GET("/me", pc.Me)
	provider.GET("/open-requests", pc.OpenRequests)
	provider.PATCH("/availability", pc.UpdateAvailability)
}
