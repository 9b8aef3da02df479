package controllers

import (
	"net/http"

	"github.com/HSouheill/homeservices_backend/services"
	"github.com/labstack/echo/v4"
)

// AdminController is the read-only oversight view. Provider approval is done
// by the registration service.
type AdminController struct {
	requests  *services.RequestService
	providers *services.ProviderService
}

func NewAdminController(requests *services.RequestService, providers *services.ProviderService) *AdminController {
	return &AdminController{requests: requests, providers: providers}
}

// ListRequests handles GET /api/admin/requests
func (ac *AdminController) ListRequests(c echo.Context) error {
	requests, err := ac.requests.ListAll(c.Request().Context())
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Requests retrieved", map[string]interface{}{"requests": requests})
}

// ListProviders handles GET /api/admin/providers
func (ac *AdminController) ListProviders(c echo.Context) error {
	providers, err := ac.providers.List(c.Request().Context())
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Providers retrieved", map[string]interface{}{"providers": providers})
}
