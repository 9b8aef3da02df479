package controllers

import (
	"net/http"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/services"
	"github.com/labstack/echo/v4"
)

type RequestController struct {
	requests *services.RequestService
	dispatch *services.DispatchCoordinator
	machine  *services.StatusStateMachine
}

func NewRequestController(requests *services.RequestService, dispatch *services.DispatchCoordinator, machine *services.StatusStateMachine) *RequestController {
	return &RequestController{requests: requests, dispatch: dispatch, machine: machine}
}

// CreateRequest handles POST /api/requests
func (rc *RequestController) CreateRequest(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return WriteError(c, err)
	}
	var body models.ServiceRequestCreate
	if err := bindAndValidate(c, &body); err != nil {
		return WriteError(c, err)
	}

	req, notified, err := rc.requests.Create(c.Request().Context(), caller, body)
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusCreated, "Request created", models.ServiceRequestCreated{
		Request:               req,
		NotifiedProviderCount: notified,
	})
}

// AcceptRequest handles POST /api/requests/:id/accept
func (rc *RequestController) AcceptRequest(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return WriteError(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return WriteError(c, err)
	}

	req, err := rc.dispatch.Accept(c.Request().Context(), caller, id)
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Request accepted", map[string]interface{}{"request": req})
}

// UpdateStatus handles POST /api/requests/:id/status
func (rc *RequestController) UpdateStatus(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return WriteError(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return WriteError(c, err)
	}
	var body models.StatusUpdateRequest
	if err := bindAndValidate(c, &body); err != nil {
		return WriteError(c, err)
	}

	req, err := rc.machine.UpdateStatus(c.Request().Context(), caller, id, body.Status)
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Status updated", map[string]interface{}{"request": req})
}

// ConfirmCompletion handles POST /api/requests/:id/confirm-completion
func (rc *RequestController) ConfirmCompletion(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return WriteError(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return WriteError(c, err)
	}

	req, err := rc.machine.ConfirmCompletion(c.Request().Context(), caller, id)
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Completion confirmed", map[string]interface{}{"request": req})
}

// ConfirmPayment handles POST /api/requests/:id/payment-confirm
func (rc *RequestController) ConfirmPayment(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return WriteError(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return WriteError(c, err)
	}

	req, err := rc.machine.ConfirmPayment(c.Request().Context(), caller, id)
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Payment confirmed", map[string]interface{}{"request": req})
}

// ListMyRequests handles GET /api/requests
func (rc *RequestController) ListMyRequests(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return WriteError(c, err)
	}
	requests, err := rc.requests.ListForCustomer(c.Request().Context(), caller)
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Requests retrieved", map[string]interface{}{"requests": requests})
}

// GetRequest handles GET /api/requests/:id
func (rc *RequestController) GetRequest(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return WriteError(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return WriteError(c, err)
	}
	req, err := rc.requests.Get(c.Request().Context(), caller, id)
	if err != nil {
		return WriteError(c, err)
	}
	return respond(c, http.StatusOK, "Request retrieved", map[string]interface{}{"request": req})
}
