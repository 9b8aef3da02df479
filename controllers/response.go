package controllers

import (
	"errors"
	"net/http"

	"github.com/HSouheill/homeservices_backend/middleware"
	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/services"
	"github.com/HSouheill/homeservices_backend/utils"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WriteError answers with the status and message carried by a domain error.
// Anything else is logged and reported as a 500.
func WriteError(c echo.Context, err error) error {
	var appErr *services.AppError
	if !errors.As(err, &appErr) {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		return respond(c, http.StatusInternalServerError, "Server error", nil)
	}
	status := appErr.Kind.HTTPStatus()
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		return respond(c, status, "Server error", nil)
	}
	return respond(c, status, appErr.Message, nil)
}

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// bindAndValidate decodes the body into dst and runs the struct validator.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return services.ValidationError("Invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		return services.ValidationError(utils.ValidationMessage(err))
	}
	return nil
}

func pathID(c echo.Context) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return primitive.NilObjectID, services.ValidationError("Invalid request ID")
	}
	return id, nil
}

func callerOf(c echo.Context) (models.Caller, error) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return models.Caller{}, services.UnauthorizedError("Missing authorization token")
	}
	return caller, nil
}
