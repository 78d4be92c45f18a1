package validator

import (
	"fmt"
	"time"

	"github.com/howard-metropia/trip-validation/internal/domain"
)

// Completion tolerance band: ratios of actual to planned inside
// [bandLow, bandHigh] earn full credit, with linear falloff to zero at
// the hard outer bounds.
const (
	completionBandLow   = 0.7
	completionBandHigh  = 1.3
	completionOuterLow  = 0.25
	completionOuterHigh = 2.0
)

// scoreCompletion compares actual duration and distance against the
// plan. A zero planned value disables that sub-metric rather than
// dividing by zero; when both are disabled the dimension is reported
// absent (ok=false) and its weight redistributed.
func scoreCompletion(trip *domain.Trip, samples []domain.TrajectorySample, plannedDuration time.Duration, plannedDistance float64) (dimensionOutcome, bool) {
	details := map[string]float64{}
	var fracs []float64
	var reasons []string

	if plannedDuration > 0 {
		ratio := trip.Duration().Seconds() / plannedDuration.Seconds()
		score := bandScore(ratio)
		fracs = append(fracs, score)
		details["duration_ratio"] = ratio
		details["duration_score"] = score
		reasons = append(reasons, fmt.Sprintf("completion: actual duration %.0f%% of planned", ratio*100))
	}

	if plannedDistance > 0 {
		ratio := TotalDistance(samples) / plannedDistance
		score := bandScore(ratio)
		fracs = append(fracs, score)
		details["distance_ratio"] = ratio
		details["distance_score"] = score
		reasons = append(reasons, fmt.Sprintf("completion: actual distance %.0f%% of planned", ratio*100))
	}

	if len(fracs) == 0 {
		return dimensionOutcome{}, false
	}

	var sum float64
	for _, f := range fracs {
		sum += f
	}
	fraction := sum / float64(len(fracs))

	out := dimensionOutcome{fraction: fraction, details: details, reasons: reasons}
	if fraction == 0 {
		out.reasons = append(out.reasons, "trip length bears no resemblance to the plan")
	}
	return out, true
}

// bandScore maps an actual/planned ratio to [0,1]: full credit inside the
// tolerance band, linear falloff outside, zero beyond the outer bounds.
func bandScore(ratio float64) float64 {
	switch {
	case ratio >= completionBandLow && ratio <= completionBandHigh:
		return 1
	case ratio <= completionOuterLow || ratio >= completionOuterHigh:
		return 0
	case ratio < completionBandLow:
		return (ratio - completionOuterLow) / (completionBandLow - completionOuterLow)
	default:
		return (completionOuterHigh - ratio) / (completionOuterHigh - completionBandHigh)
	}
}
