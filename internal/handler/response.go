package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/repository"
	"github.com/howard-metropia/trip-validation/internal/service"
	"github.com/howard-metropia/trip-validation/internal/validator"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNoResultToOverride):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidActorID),
		errors.Is(err, service.ErrInvalidOverrideReason),
		errors.Is(err, service.ErrInvalidOutcome),
		errors.Is(err, validator.ErrInvalidTrajectory),
		errors.Is(err, validator.ErrInvalidRoute):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrTripNotEnded),
		errors.Is(err, service.ErrTripCanceled),
		errors.Is(err, service.ErrValidationInFlight),
		errors.Is(err, domain.ErrPairRoleConflict):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
