package domain

import "time"

// ResultCategory separates real verdicts from "could not judge" outcomes.
type ResultCategory string

const (
	// CategoryScored means the engine produced a numeric verdict.
	CategoryScored ResultCategory = "scored"

	// CategoryInsufficientData means too few valid samples survived
	// normalization. Not a verdict; collaborators must not penalize.
	CategoryInsufficientData ResultCategory = "insufficient_data"

	// CategoryInvalidInput means the route or trajectory was malformed.
	// Flagged for manual review, never auto-rejected.
	CategoryInvalidInput ResultCategory = "invalid_input"
)

// Dimension names used in results and configuration.
const (
	DimensionRouteAdherence = "route_adherence"
	DimensionBehavior       = "behavior"
	DimensionCompletion     = "completion"
	DimensionProximity      = "proximity"
	DimensionSharedWindow   = "shared_window"
	DimensionSharedBehavior = "shared_behavior"
)

// ValidationDimension is one scored axis of a validation result.
type ValidationDimension struct {
	Name     string
	Score    float64 // achieved, in [0, Max]
	Max      float64 // weight after renormalization; dimension maxima sum to 100
	Weight   float64 // configured raw weight before renormalization
	HardFail bool    // forces overall failure regardless of total
	Details  map[string]float64
}

// ValidationResult is the outcome of one validation attempt. Persisted
// append-only: re-running validation creates a new attempt record and
// never mutates a prior one.
type ValidationResult struct {
	ID          string
	TripID      string
	Attempt     int
	Category    ResultCategory
	Passed      bool
	TotalScore  float64 // 0-100
	Confidence  float64 // 1.0 normally, reduced for single-sided carpool results
	Dimensions  []ValidationDimension
	Reasons     []string
	PartnerTrip string // partner trip id for carpool runs, empty otherwise
	CreatedAt   time.Time
}

// Scored reports whether the result carries a real pass/fail verdict.
func (r *ValidationResult) Scored() bool {
	return r.Category == CategoryScored
}

// Dimension returns the named dimension breakdown, or nil.
func (r *ValidationResult) Dimension(name string) *ValidationDimension {
	for i := range r.Dimensions {
		if r.Dimensions[i].Name == name {
			return &r.Dimensions[i]
		}
	}
	return nil
}

// ResultOverride is an audited administrative correction of an automated
// result. It is a distinct record, never an in-place mutation.
type ResultOverride struct {
	ID              string
	TripID          string
	ResultID        string
	ActorID         string
	Reason          string
	PreviousOutcome TripStatus
	NewOutcome      TripStatus
	CreatedAt       time.Time
}
