package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"studio/internal/backend"
	"studio/internal/board"
	"studio/internal/gesture"
	"studio/internal/intake"
	"studio/internal/service"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 error.
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 error for a specific field.
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewBadGatewayError reports a failure of the image or chat backend.
func NewBadGatewayError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadGateway,
		Code:    "BACKEND_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// fromError maps domain errors onto API errors.
func fromError(message string, err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, board.ErrNotFound), errors.Is(err, gesture.ErrUnknownItem):
		e := NewNotFoundError("item", "")
		e.Message = message
		e.Details = err.Error()
		return e
	case errors.Is(err, gesture.ErrNotResizable), errors.Is(err, intake.ErrNotImage):
		return NewBadRequestError(message, err)
	case errors.Is(err, service.ErrBusy):
		e := NewConflictError(message)
		e.Details = err.Error()
		return e
	case errors.Is(err, backend.ErrNotConfigured), errors.Is(err, intake.ErrClipboardEmpty):
		e := NewServiceUnavailableError(message)
		e.Details = err.Error()
		return e
	case errors.Is(err, backend.ErrBackend):
		return NewBadGatewayError(message, err)
	}
	return NewInternalError(message, err)
}

// ErrorHandler renders every error as an APIError.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	default:
		apiErr = NewInternalError("An unexpected error occurred", err)
	}

	if apiErr.Status >= http.StatusInternalServerError {
		log.Printf("[API] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if err := c.JSON(apiErr.Status, apiErr); err != nil {
		log.Printf("[API] write error response: %v", err)
	}
}

// RespondWithError is a helper to respond with an APIError.
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
