package routes

import (
	"github.com/HSouheill/homeservices_backend/controllers"
	"github.com/HSouheill/homeservices_backend/middleware"
	"github.com/HSouheill/homeservices_backend/models"
	"github.com/labstack/echo/v4"
)

// RegisterRequestRoutes mounts the service request lifecycle
func RegisterRequestRoutes(e *echo.Echo, auth *middleware.Auth, rc *controllers.RequestController) {
	requests := e.Group("/api/requests")
	requests.Use(auth.JWTMiddleware())
	requests.Use(auth.ResolveUser())

	customer := middleware.RequireRole(models.RoleCustomer)
	provider := middleware.RequireRole(models.RoleProvider)

	requests.POST("", rc.CreateRequest, customer)
	requests.GET("", rc.ListMyRequests, customer)
	requests.GET("/:id", rc.GetRequest)

	requests.POST("/:id/accept", rc.AcceptRequest, provider)
	requests.POST("/:id/status", rc.UpdateStatus, provider)
	requests.POST("/:id/payment-confirm", rc.ConfirmPayment, provider)

	requests.POST("/:id/confirm-completion", rc.ConfirmCompletion, customer)
}
