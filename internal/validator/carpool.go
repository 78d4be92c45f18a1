package validator

import (
	"fmt"
	"math"
	"time"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/geo"
)

// minSpeedStdDevKmh guards the shared-behavior correlation: below this
// motion variance the parties were effectively parked, and "parked near
// each other" must not read as "moving together".
const minSpeedStdDevKmh = 1.0

// pairScores holds the three pairing sub-dimensions of a carpool run.
type pairScores struct {
	proximity      dimensionOutcome
	sharedWindow   dimensionOutcome
	sharedBehavior dimensionOutcome
}

// scorePairing validates that two parties genuinely traveled together:
// continuous proximity over the aligned overlap window, the shared time
// window itself, and correlated motion during it. Zero temporal overlap
// is a hard fail; no proximity score can rescue a pair that was never
// underway at the same time.
func scorePairing(
	own *domain.Trip, ownSamples []domain.TrajectorySample,
	partner *domain.Trip, partnerSamples []domain.TrajectorySample,
	proximityThreshold float64, resampleStep time.Duration,
) pairScores {
	start, end, ok := geo.OverlapWindow(own.StartedOn, own.EndedOn, partner.StartedOn, partner.EndedOn)
	if !ok {
		noOverlap := dimensionOutcome{
			fraction: 0,
			details:  map[string]float64{"overlap_seconds": 0},
			reasons:  []string{"no aligned instants: trips never ran concurrently"},
		}
		return pairScores{
			proximity: noOverlap,
			sharedWindow: dimensionOutcome{
				fraction: 0,
				hardFail: true,
				details:  map[string]float64{"overlap_seconds": 0, "overlap_ratio": 0},
				reasons:  []string{"no temporal overlap with partner trip"},
			},
			sharedBehavior: noOverlap,
		}
	}

	overlap := end.Sub(start)
	shorter := own.Duration()
	if partner.Duration() < shorter {
		shorter = partner.Duration()
	}
	overlapRatio := 0.0
	if shorter > 0 {
		overlapRatio = overlap.Seconds() / shorter.Seconds()
	}

	ownAligned := geo.Resample(ToTimedPoints(ownSamples), start, end, resampleStep)
	partnerAligned := geo.Resample(ToTimedPoints(partnerSamples), start, end, resampleStep)
	pairs := alignByInstant(ownAligned, partnerAligned)

	return pairScores{
		proximity:      scoreProximity(pairs, proximityThreshold),
		sharedWindow:   scoreSharedWindow(overlap, overlapRatio),
		sharedBehavior: scoreSharedBehavior(pairs),
	}
}

type alignedInstant struct {
	a, b geo.TimedPoint
}

// alignByInstant pairs two resampled tracks on their common instants.
// Both tracks were resampled onto the same grid, so a two-pointer merge
// suffices.
func alignByInstant(a, b []geo.TimedPoint) []alignedInstant {
	var out []alignedInstant
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Time.Before(b[j].Time):
			i++
		case b[j].Time.Before(a[i].Time):
			j++
		default:
			out = append(out, alignedInstant{a: a[i], b: b[j]})
			i++
			j++
		}
	}
	return out
}

func scoreProximity(pairs []alignedInstant, threshold float64) dimensionOutcome {
	if len(pairs) == 0 {
		return dimensionOutcome{
			fraction: 0,
			details:  map[string]float64{"aligned_instants": 0},
			reasons:  []string{"proximity: no aligned trajectory instants in overlap window"},
		}
	}

	var near int
	var distSum float64
	for _, p := range pairs {
		d := geo.Distance(p.a.Point, p.b.Point)
		distSum += d
		if d <= threshold {
			near++
		}
	}

	ratio := float64(near) / float64(len(pairs))
	meanDist := distSum / float64(len(pairs))

	out := dimensionOutcome{
		fraction: ratio,
		details: map[string]float64{
			"proximity_ratio":  ratio,
			"aligned_instants": float64(len(pairs)),
			"mean_distance_m":  meanDist,
			"threshold_m":      threshold,
		},
		reasons: []string{
			fmt.Sprintf("proximity: within %.0fm of partner at %.0f%% of aligned instants (mean %.0fm)",
				threshold, ratio*100, meanDist),
		},
	}
	if ratio < 0.5 {
		out.reasons = append(out.reasons, "parties were apart for most of the shared window")
	}
	return out
}

func scoreSharedWindow(overlap time.Duration, ratio float64) dimensionOutcome {
	if ratio > 1 {
		ratio = 1
	}
	return dimensionOutcome{
		fraction: ratio,
		details: map[string]float64{
			"overlap_seconds": overlap.Seconds(),
			"overlap_ratio":   ratio,
		},
		reasons: []string{
			fmt.Sprintf("shared window: trips overlap for %.0f minutes (%.0f%% of the shorter trip)",
				overlap.Minutes(), ratio*100),
		},
	}
}

// scoreSharedBehavior correlates the two aligned speed profiles. A high
// Pearson coefficient means the parties accelerated and braked together.
func scoreSharedBehavior(pairs []alignedInstant) dimensionOutcome {
	if len(pairs) < 3 {
		return dimensionOutcome{
			fraction: 0,
			details:  map[string]float64{"aligned_instants": float64(len(pairs))},
			reasons:  []string{"shared behavior: too few aligned instants to correlate"},
		}
	}

	a := make([]float64, len(pairs))
	b := make([]float64, len(pairs))
	for i, p := range pairs {
		a[i] = p.a.Speed
		b[i] = p.b.Speed
	}

	sdA, sdB := stdDev(a), stdDev(b)
	if sdA < minSpeedStdDevKmh || sdB < minSpeedStdDevKmh {
		return dimensionOutcome{
			fraction: 0,
			details: map[string]float64{
				"speed_stddev_a": sdA,
				"speed_stddev_b": sdB,
			},
			reasons: []string{"shared behavior: no motion variation, parties may simply be parked nearby"},
		}
	}

	r := pearson(a, b)
	fraction := r
	if fraction < 0 {
		fraction = 0
	}

	out := dimensionOutcome{
		fraction: fraction,
		details: map[string]float64{
			"speed_correlation": r,
			"aligned_instants":  float64(len(pairs)),
		},
		reasons: []string{
			fmt.Sprintf("shared behavior: speed profile correlation %.2f over %d aligned instants", r, len(pairs)),
		},
	}
	if r < 0.3 {
		out.reasons = append(out.reasons, "speed profiles do not move together")
	}
	return out
}

func stdDev(xs []float64) float64 {
	m := meanOf(xs)
	var sum float64
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func pearson(a, b []float64) float64 {
	ma, mb := meanOf(a), meanOf(b)
	var cov, varA, varB float64
	for i := range a {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}
