// Package validator implements the trajectory-validation engine: it
// decides, from already-collected trajectory and route data, whether
// reported travel actually happened as claimed, and whether the two
// parties of a carpool genuinely traveled together.
//
// All scoring is CPU-bound and side-effect-free; identical inputs always
// produce identical results.
package validator

import (
	"fmt"
	"time"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/geo"
)

// Config carries the decision-engine tunables. Every threshold here is a
// deployment default, not a canonical constant; ops tune them through
// the environment and the profile file.
type Config struct {
	PassThreshold         float64
	ProximityThreshold    float64 // meters
	ResampleStep          time.Duration
	SingleSidedConfidence float64

	// Raw dimension weights, renormalized to 100 over the dimensions
	// actually present in a run.
	SoloWeights map[string]float64
	PairWeights map[string]float64

	Profiles ProfileTable
}

// DefaultConfig returns the documented defaults (see DESIGN.md for the
// weight-split rationale).
func DefaultConfig() Config {
	return Config{
		PassThreshold:         70,
		ProximityThreshold:    100,
		ResampleStep:          10 * time.Second,
		SingleSidedConfidence: 0.6,
		SoloWeights: map[string]float64{
			domain.DimensionRouteAdherence: 35,
			domain.DimensionBehavior:       35,
			domain.DimensionCompletion:     30,
		},
		PairWeights: map[string]float64{
			domain.DimensionRouteAdherence: 15,
			domain.DimensionBehavior:       15,
			domain.DimensionCompletion:     10,
			domain.DimensionProximity:      25,
			domain.DimensionSharedWindow:   15,
			domain.DimensionSharedBehavior: 20,
		},
		Profiles: DefaultProfiles(),
	}
}

// dimensionOrder fixes the reporting order of the breakdown and reasons.
var dimensionOrder = []string{
	domain.DimensionRouteAdherence,
	domain.DimensionBehavior,
	domain.DimensionCompletion,
	domain.DimensionProximity,
	domain.DimensionSharedWindow,
	domain.DimensionSharedBehavior,
}

// Engine runs the weighted multi-dimensional decision procedure.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine. The profile table must already be
// validated.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// PartnerInput is the other side of a carpool pair.
type PartnerInput struct {
	Trip    *domain.Trip
	Samples []domain.TrajectorySample
}

// Input is everything one validation run consumes.
type Input struct {
	Trip    *domain.Trip
	Samples []domain.TrajectorySample
	Route   *domain.PlannedRoute // nil removes the route-adherence dimension

	// Partner carries the paired trip for carpool modes. When nil for
	// a carpool trip, Validate returns ErrPartnerDataUnavailable unless
	// SingleSided is set.
	Partner     *PartnerInput
	SingleSided bool
}

// Validate scores one trip (or one trip pair). The returned result's
// category distinguishes real verdicts from "could not judge" outcomes;
// only ErrPartnerDataUnavailable is returned as an error, signaling the
// caller to defer and retry.
func (e *Engine) Validate(in Input) (*domain.ValidationResult, error) {
	result := &domain.ValidationResult{
		TripID:     in.Trip.ID,
		Category:   domain.CategoryScored,
		Confidence: 1.0,
	}
	if in.Partner != nil {
		result.PartnerTrip = in.Partner.Trip.ID
	}

	if !in.Trip.Ended() {
		result.Category = domain.CategoryInvalidInput
		result.Reasons = []string{"trip has no end timestamp"}
		return result, nil
	}

	samples, stats, err := Normalize(in.Samples, in.Trip.StartedOn, in.Trip.EndedOn)
	switch err {
	case nil:
	case ErrInsufficientData:
		result.Category = domain.CategoryInsufficientData
		result.Reasons = []string{fmt.Sprintf(
			"insufficient data: %d valid samples after normalization (need at least 2)", stats.KeptCount)}
		return result, nil
	case ErrInvalidTrajectory:
		result.Category = domain.CategoryInvalidInput
		result.Reasons = []string{"trajectory contains malformed samples, flagged for manual review"}
		return result, nil
	default:
		return nil, err
	}

	route, err := e.decodeRoute(in.Route)
	if err != nil {
		result.Category = domain.CategoryInvalidInput
		result.Reasons = []string{"planned route polyline is malformed, flagged for manual review"}
		return result, nil
	}

	profile := e.cfg.Profiles.For(in.Trip.TravelMode)
	isPair := in.Trip.Role != domain.RoleSolo &&
		(in.Trip.TravelMode == domain.ModeCarpool || in.Partner != nil)

	type scoredDim struct {
		name    string
		outcome dimensionOutcome
	}
	var dims []scoredDim

	if len(route) > 0 {
		dims = append(dims, scoredDim{domain.DimensionRouteAdherence, scoreRouteAdherence(samples, route, profile)})
	}
	dims = append(dims, scoredDim{domain.DimensionBehavior, scoreBehavior(samples, in.Trip.TravelMode, profile)})

	plannedDuration := in.Trip.PlannedDuration()
	if in.Route != nil && !in.Route.EstimatedArrivalOn.IsZero() {
		plannedDuration = in.Route.EstimatedArrivalOn.Sub(in.Trip.StartedOn)
	}
	plannedDistance := in.Trip.PlannedDistance
	if in.Route != nil && in.Route.PlannedDistance > 0 {
		plannedDistance = in.Route.PlannedDistance
	}
	if completion, ok := scoreCompletion(in.Trip, samples, plannedDuration, plannedDistance); ok {
		dims = append(dims, scoredDim{domain.DimensionCompletion, completion})
	}

	weights := e.cfg.SoloWeights
	if isPair {
		if in.Partner == nil {
			if !in.SingleSided {
				return nil, ErrPartnerDataUnavailable
			}
			// Retry budget exhausted: score what one side alone can
			// support, at reduced confidence.
			result.Confidence = e.cfg.SingleSidedConfidence
			result.Reasons = append(result.Reasons,
				"partner trajectory unavailable, single-sided validation at reduced confidence")
		} else {
			partnerSamples, _, perr := Normalize(
				in.Partner.Samples, in.Partner.Trip.StartedOn, in.Partner.Trip.EndedOn)
			if perr != nil {
				result.Confidence = e.cfg.SingleSidedConfidence
				result.Reasons = append(result.Reasons,
					"partner trajectory unusable, single-sided validation at reduced confidence")
			} else {
				weights = e.cfg.PairWeights
				pairing := scorePairing(in.Trip, samples, in.Partner.Trip, partnerSamples,
					e.cfg.ProximityThreshold, e.cfg.ResampleStep)
				dims = append(dims,
					scoredDim{domain.DimensionProximity, pairing.proximity},
					scoredDim{domain.DimensionSharedWindow, pairing.sharedWindow},
					scoredDim{domain.DimensionSharedBehavior, pairing.sharedBehavior},
				)
			}
		}
	}

	// Renormalize the raw weights of the present dimensions so the
	// maximum achievable total stays exactly 100.
	var weightSum float64
	for _, d := range dims {
		weightSum += weights[d.name]
	}

	var total float64
	hardFail := false
	byName := make(map[string]scoredDim, len(dims))
	for _, d := range dims {
		byName[d.name] = d
	}

	for _, name := range dimensionOrder {
		d, ok := byName[name]
		if !ok {
			continue
		}
		raw := weights[name]
		max := raw / weightSum * 100
		score := d.outcome.fraction * max
		total += score
		if d.outcome.hardFail {
			hardFail = true
		}
		d.outcome.details["samples_kept"] = float64(stats.KeptCount)
		result.Dimensions = append(result.Dimensions, domain.ValidationDimension{
			Name:     name,
			Score:    score,
			Max:      max,
			Weight:   raw,
			HardFail: d.outcome.hardFail,
			Details:  d.outcome.details,
		})
		result.Reasons = append(result.Reasons, d.outcome.reasons...)
	}

	result.TotalScore = total
	result.Passed = total >= e.cfg.PassThreshold && !hardFail

	verdict := "passed"
	if !result.Passed {
		verdict = "failed"
	}
	result.Reasons = append([]string{fmt.Sprintf(
		"%s: total score %.1f of 100 (pass threshold %.0f)", verdict, total, e.cfg.PassThreshold)},
		result.Reasons...)

	return result, nil
}

// decodeRoute decodes and sanity-checks the planned route. A nil route or
// empty polyline yields no geometry; the adherence dimension is then
// omitted and its weight redistributed.
func (e *Engine) decodeRoute(route *domain.PlannedRoute) ([]geo.Point, error) {
	if route == nil || route.EncodedPolyline == "" {
		return nil, nil
	}
	points, err := geo.DecodePolyline(route.EncodedPolyline)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, ErrInvalidRoute
	}
	return points, nil
}
