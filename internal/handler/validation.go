package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/service"
)

// ValidationHandler handles HTTP requests for trip validation.
type ValidationHandler struct {
	validationService *service.ValidationService
}

// NewValidationHandler creates a new ValidationHandler.
func NewValidationHandler(validationService *service.ValidationService) *ValidationHandler {
	return &ValidationHandler{validationService: validationService}
}

// DimensionResponse is one scored axis in the HTTP response.
type DimensionResponse struct {
	Name     string             `json:"name"`
	Score    float64            `json:"score"`
	Max      float64            `json:"max"`
	HardFail bool               `json:"hard_fail,omitempty"`
	Details  map[string]float64 `json:"details,omitempty"`
}

// ResultResponse is the HTTP response for a validation attempt.
type ResultResponse struct {
	ResultID    string              `json:"result_id"`
	TripID      string              `json:"trip_id"`
	Attempt     int                 `json:"attempt"`
	Category    string              `json:"category"`
	Passed      bool                `json:"passed"`
	TotalScore  float64             `json:"total_score"`
	Confidence  float64             `json:"confidence"`
	Dimensions  []DimensionResponse `json:"dimensions,omitempty"`
	Reasons     []string            `json:"reasons"`
	PartnerTrip string              `json:"partner_trip_id,omitempty"`
	CreatedAt   string              `json:"created_at"`
}

func toResultResponse(r *domain.ValidationResult) ResultResponse {
	resp := ResultResponse{
		ResultID:    r.ID,
		TripID:      r.TripID,
		Attempt:     r.Attempt,
		Category:    string(r.Category),
		Passed:      r.Passed,
		TotalScore:  r.TotalScore,
		Confidence:  r.Confidence,
		Reasons:     r.Reasons,
		PartnerTrip: r.PartnerTrip,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	for _, d := range r.Dimensions {
		resp.Dimensions = append(resp.Dimensions, DimensionResponse{
			Name:     d.Name,
			Score:    d.Score,
			Max:      d.Max,
			HardFail: d.HardFail,
			Details:  d.Details,
		})
	}
	return resp
}

// Validate handles POST /v1/trips/:id/validate
func (h *ValidationHandler) Validate(c *gin.Context) {
	tripID := c.Param("id")

	result, err := h.validationService.Validate(c.Request.Context(), tripID, 1)
	if err != nil {
		if errors.Is(err, service.ErrValidationDeferred) {
			c.JSON(http.StatusAccepted, gin.H{
				"trip_id": tripID,
				"status":  "deferred",
			})
			return
		}
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toResultResponse(result))
}

// GetLatest handles GET /v1/trips/:id/validations/latest
func (h *ValidationHandler) GetLatest(c *gin.Context) {
	tripID := c.Param("id")

	result, err := h.validationService.GetLatestResult(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toResultResponse(result))
}

// List handles GET /v1/trips/:id/validations
func (h *ValidationHandler) List(c *gin.Context) {
	tripID := c.Param("id")

	results, err := h.validationService.ListResults(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]ResultResponse, 0, len(results))
	for _, r := range results {
		response = append(response, toResultResponse(r))
	}
	c.JSON(http.StatusOK, response)
}

// Schedule handles POST /v1/trips/:id/schedule
// The trip lifecycle store calls this on the ENDED transition; the
// response returns immediately, validation runs on its own timer.
func (h *ValidationHandler) Schedule(c *gin.Context) {
	tripID := c.Param("id")

	due, err := h.validationService.ScheduleValidation(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusAccepted, gin.H{
		"trip_id": tripID,
		"due":     due.Format(time.RFC3339),
	})
}

// CancelSchedule handles DELETE /v1/trips/:id/schedule
func (h *ValidationHandler) CancelSchedule(c *gin.Context) {
	tripID := c.Param("id")

	canceled, err := h.validationService.CancelScheduledValidation(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"trip_id":  tripID,
		"canceled": canceled,
	})
}

// OverrideRequestBody is the payload for an administrative override.
type OverrideRequestBody struct {
	NewOutcome string `json:"new_outcome" binding:"required"`
	ActorID    string `json:"actor_id" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// Override handles POST /v1/trips/:id/override
func (h *ValidationHandler) Override(c *gin.Context) {
	tripID := c.Param("id")

	var body OverrideRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	override, err := h.validationService.OverrideResult(c.Request.Context(), service.OverrideRequest{
		TripID:     tripID,
		NewOutcome: domain.TripStatus(body.NewOutcome),
		ActorID:    body.ActorID,
		Reason:     body.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"override_id":      override.ID,
		"trip_id":          override.TripID,
		"result_id":        override.ResultID,
		"actor_id":         override.ActorID,
		"previous_outcome": string(override.PreviousOutcome),
		"new_outcome":      string(override.NewOutcome),
		"created_at":       override.CreatedAt.Format(time.RFC3339),
	})
}
