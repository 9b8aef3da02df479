package controllers

import (
	"net/http"
	"strings"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/services"
	"github.com/HSouheill/homeservices_backend/utils"
	"github.com/labstack/echo/v4"
)

type ProviderController struct {
	matching  *services.MatchingService
	providers *services.ProviderService
}

func NewProviderController(matching *services.MatchingService, providers *services.ProviderService) *ProviderController {
	return &ProviderController{matching: matching, providers: providers}
}

// Nearby handles GET /api/provider/nearby?lng&lat&category. It is public and
// only previews; nothing is stored or sent.
func (pc *ProviderController) Nearby(c echo.Context) error {
	lng, lat, err := utils.ParseCoordinates(c.QueryParam("lng"), c.QueryParam("lat"))
	if err != nil {
		return WriteError(c, services.ValidationError(err.Error()))
	}
	category := strings.TrimSpace(c.QueryParam("category"))
	if category == "" {
		return WriteError(c, services.ValidationError("category is required"))
	}

	providers, err := pc.matching.Preview(c.Request().Context(), category, models.NewPoint(lng, lat))
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Providers retrieved", map[string]interface{}{"providers": providers})
}

// OpenRequests handles GET /api/provider/open-requests
func (pc *ProviderController) OpenRequests(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return WriteError(c, err)
	}
	requests, err := pc.matching.OpenRequestsFor(c.Request().Context(), caller)
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Open requests retrieved", map[string]interface{}{"requests": requests})
}

// Me handles GET /api/provider/me
func (pc *ProviderController) Me(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return WriteError(c, err)
	}
	profile, err := pc.providers.Me(c.Request().Context(), caller)
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Provider retrieved", map[string]interface{}{"provider": profile})
}

// UpdateAvailability handles PATCH /api/provider/availability
func (pc *ProviderController) UpdateAvailability(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return WriteError(c, err)
	}
	var body models.AvailabilityUpdateRequest
	if err := bindAndValidate(c, &body); err != nil {
		return WriteError(c, err)
	}

	profile, err := pc.providers.UpdateAvailability(c.Request().Context(), caller, body.Availability)
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Availability updated", map[string]interface{}{"provider": profile})
}
