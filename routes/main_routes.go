package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/homeservices_backend/controllers"
	"github.com/HSouheill/homeservices_backend/middleware"
	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/websocket"
)

// Handlers bundles every controller the API mounts.
type Handlers struct {
	Requests  *controllers.RequestController
	Providers *controllers.ProviderController
	Admin     *controllers.AdminController
	Socket    *websocket.Handler
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, auth *middleware.Auth, h Handlers) {
	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.Response{Status: http.StatusOK, Message: "healthy"})
	})

	// The socket authenticates its own handshake.
	e.GET("/api/ws", h.Socket.ServeWS)

	RegisterRequestRoutes(e, auth, h.Requests)
	RegisterProviderRoutes(e, auth, h.Providers)
	RegisterAdminRoutes(e, auth, h.Admin)
}
