package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat-platform/services"
)

// ErrorResponse is the standardized error body.
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithServiceError maps a service-layer error onto the matching HTTP
// status and error code.
func RespondWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		RespondWithError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, services.ErrUnsupportedType):
		RespondWithError(c, http.StatusUnsupportedMediaType, "unsupported_file_type", err.Error(), nil)
	case errors.Is(err, services.ErrIndex):
		RespondWithError(c, http.StatusBadGateway, "index_error", "Vector index operation failed", err.Error())
	case errors.Is(err, services.ErrGeneration):
		RespondWithError(c, http.StatusBadGateway, "generation_error", "Language model call failed", err.Error())
	case errors.Is(err, services.ErrPersistence):
		RespondWithError(c, http.StatusInternalServerError, "persistence_error", "Storage operation failed", err.Error())
	default:
		RespondWithInternalError(c, "Unexpected error", err.Error())
	}
}
