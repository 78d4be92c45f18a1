package validator

import (
	"fmt"
	"math"

	"github.com/howard-metropia/trip-validation/internal/domain"
)

// implausibleSpeedFactor marks a mean speed as beyond explanation for the
// claimed mode: above maxSpeed*factor the dimension hard-fails instead of
// merely scoring low.
const implausibleSpeedFactor = 3.0

// Sub-score exponents for the multiplicative combination. Envelope
// conformance dominates; mean-closeness refines.
const (
	envelopeExponent  = 0.6
	closenessExponent = 0.4
)

// scoreBehavior profiles the trajectory's motion against the mode
// envelope. Two sub-scores: the fraction of samples whose instantaneous
// speed falls inside [min, max], and a triangular score peaking at the
// target mean speed and reaching zero outside the tolerance band. They
// combine multiplicatively so either collapsing drags the dimension down.
func scoreBehavior(samples []domain.TrajectorySample, mode domain.TravelMode, profile ModeProfile) dimensionOutcome {
	mean := MeanSpeed(samples)

	var inEnvelope int
	for _, s := range samples {
		if s.Speed >= profile.MinSpeed && s.Speed <= profile.MaxSpeed {
			inEnvelope++
		}
	}
	conformance := float64(inEnvelope) / float64(len(samples))

	closeness := 1 - math.Abs(mean-profile.TargetMeanSpeed)/profile.ToleranceBand
	if closeness < 0 {
		closeness = 0
	}

	details := map[string]float64{
		"mean_speed_kmh":       mean,
		"envelope_conformance": conformance,
		"mean_closeness":       closeness,
		"envelope_min_kmh":     profile.MinSpeed,
		"envelope_max_kmh":     profile.MaxSpeed,
		"target_mean_kmh":      profile.TargetMeanSpeed,
	}

	if mean >= profile.MaxSpeed*implausibleSpeedFactor {
		return dimensionOutcome{
			fraction: 0,
			hardFail: true,
			details:  details,
			reasons: []string{
				fmt.Sprintf("implausible speed: mean %.1f km/h is beyond any plausible %s trip (envelope max %.1f km/h)",
					mean, mode, profile.MaxSpeed),
			},
		}
	}

	fraction := math.Pow(conformance, envelopeExponent) * math.Pow(closeness, closenessExponent)

	out := dimensionOutcome{
		fraction: fraction,
		details:  details,
		reasons: []string{
			fmt.Sprintf("behavior: mean speed %.1f km/h, %.0f%% of samples inside %s envelope %.1f-%.1f km/h",
				mean, conformance*100, mode, profile.MinSpeed, profile.MaxSpeed),
		},
	}

	if conformance < 0.5 {
		out.reasons = append(out.reasons, fmt.Sprintf("speed outside %s envelope for most of the trip", mode))
	}
	return out
}
