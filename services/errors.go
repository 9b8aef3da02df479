package services

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidTransition
)

// HTTPStatus maps the kind onto the response code the API uses.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// AppError is a domain error whose message is safe to show the caller.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func ValidationError(msg string) *AppError { return &AppError{Kind: KindValidation, Message: msg} }

func UnauthorizedError(msg string) *AppError { return &AppError{Kind: KindUnauthorized, Message: msg} }

func ForbiddenError(msg string) *AppError { return &AppError{Kind: KindForbidden, Message: msg} }

func NotFoundError(msg string) *AppError { return &AppError{Kind: KindNotFound, Message: msg} }

func ConflictError(msg string) *AppError { return &AppError{Kind: KindConflict, Message: msg} }

func InvalidTransitionError(msg string) *AppError {
	return &AppError{Kind: KindInvalidTransition, Message: msg}
}

// InternalError wraps an infrastructure failure.
func InternalError(op string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: op, Err: err}
}

// KindOf returns the kind of err, KindInternal for anything that is not an
// AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
