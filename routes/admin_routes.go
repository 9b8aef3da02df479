package routes

import (
	"github.com/HSouheill/homeservices_backend/controllers"
	"github.com/HSouheill/homeservices_backend/middleware"
	"github.com/HSouheill/homeservices_backend/models"
	"github.com/labstack/echo/v4"
)

// RegisterAdminRoutes sets up all admin-related routes
func RegisterAdminRoutes(e *echo.Echo, auth *middleware.Auth, ac *controllers.AdminController) {
	admin := e.Group("/api/admin")
	admin.Use(auth.JWTMiddleware())
	admin.Use(auth.ResolveUser())
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	admin.GET("/requests", ac.ListRequests)
	admin.GET("/providers", ac.ListProviders)
}
