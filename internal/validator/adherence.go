package validator

import (
	"fmt"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/geo"
)

// routeSimplifyTolerance bounds the shape error introduced when long
// planned routes are thinned before per-sample distance checks.
const routeSimplifyTolerance = 10.0 // meters

// deviationPenaltyWeight scales the secondary penalty applied for how far
// off-route the off-route samples strayed.
const deviationPenaltyWeight = 0.1

// dimensionOutcome is a scorer's raw verdict before the engine applies
// dimension weights: a fraction of the dimension maximum, sub-metric
// details, and any hard-fail condition.
type dimensionOutcome struct {
	fraction float64
	hardFail bool
	details  map[string]float64
	reasons  []string
}

// scoreRouteAdherence measures how closely the trajectory followed the
// planned route: the on-route sample fraction, reduced by a penalty
// proportional to the mean deviation of off-route samples, floored at
// zero.
func scoreRouteAdherence(samples []domain.TrajectorySample, route []geo.Point, profile ModeProfile) dimensionOutcome {
	simplified := geo.Simplify(route, routeSimplifyTolerance)
	tolerance := profile.RouteTolerance

	var onRoute int
	var offDeviationSum float64
	for _, s := range samples {
		d := geo.PointToPolyline(geo.Point{Lat: s.Latitude, Lng: s.Longitude}, simplified)
		if d <= tolerance {
			onRoute++
		} else {
			offDeviationSum += d - tolerance
		}
	}

	total := len(samples)
	onRatio := float64(onRoute) / float64(total)

	var penalty float64
	if off := total - onRoute; off > 0 {
		meanExcess := offDeviationSum / float64(off)
		penalty = deviationPenaltyWeight * meanExcess / tolerance
	}

	fraction := onRatio - penalty
	if fraction < 0 {
		fraction = 0
	}

	out := dimensionOutcome{
		fraction: fraction,
		details: map[string]float64{
			"on_route_ratio":      onRatio,
			"on_route_samples":    float64(onRoute),
			"total_samples":       float64(total),
			"tolerance_m":         tolerance,
			"deviation_penalty":   penalty,
			"route_points":        float64(len(route)),
			"route_points_simple": float64(len(simplified)),
		},
		reasons: []string{
			fmt.Sprintf("route adherence: %d of %d samples within %.0fm of planned route", onRoute, total, tolerance),
		},
	}

	if onRatio < 0.5 {
		out.reasons = append(out.reasons, "route deviation exceeded tolerance for most of the trip")
	}
	return out
}
