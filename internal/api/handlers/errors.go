package handlers

import (
	"errors"
	"net/http"

	"example.com/backstage/services/picking/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error represents an API error
type Error struct {
	Message    string
	StatusCode int
	Code       string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrMissingActor   = &Error{Message: "X-Actor-ID header is required", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrInternalServer = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
)

// NewValidationError creates a new validation error with a custom message
func NewValidationError(message string) *Error {
	return &Error{Message: message, StatusCode: http.StatusBadRequest, Code: "VALIDATION_ERROR"}
}

// toAPIError maps service errors onto status codes
func toAPIError(err error) *Error {
	var (
		apiErr     *Error
		validation *service.ValidationError
		exists     *service.AlreadyExistsError
		notFound   *service.NotFoundError
		mismatch   *service.KindMismatchError
		empty      *service.EmptyInventoryError
		inUse      *service.InUseError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &validation):
		return &Error{Message: validation.Error(), StatusCode: http.StatusBadRequest, Code: "VALIDATION_ERROR"}
	case errors.As(err, &exists):
		return &Error{Message: exists.Error(), StatusCode: http.StatusConflict, Code: "ALREADY_EXISTS"}
	case errors.As(err, &notFound):
		return &Error{Message: notFound.Error(), StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	case errors.As(err, &mismatch):
		return &Error{Message: mismatch.Error(), StatusCode: http.StatusUnprocessableEntity, Code: "KIND_MISMATCH"}
	case errors.As(err, &empty):
		return &Error{Message: empty.Error(), StatusCode: http.StatusUnprocessableEntity, Code: "EMPTY_INVENTORY"}
	case errors.As(err, &inUse):
		return &Error{Message: inUse.Error(), StatusCode: http.StatusConflict, Code: "IN_USE"}
	default:
		return nil
	}
}

// WriteError writes an error response
func WriteError(c *gin.Context, err error) {
	if apiErr := toAPIError(err); apiErr != nil {
		c.JSON(apiErr.StatusCode, ErrorResponse{Message: apiErr.Message, Code: apiErr.Code})
		return
	}

	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
	c.JSON(ErrInternalServer.StatusCode, ErrorResponse{Message: ErrInternalServer.Message, Code: ErrInternalServer.Code})
}
