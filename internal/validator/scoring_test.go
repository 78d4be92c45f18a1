package validator

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/geo"
)

// track builds fixes every stepSec seconds heading north from (lat0,
// lng0) at latStepDeg per step, all reporting the given speed.
func track(start time.Time, n, stepSec int, lat0, lng0, latStepDeg, speed float64) []domain.TrajectorySample {
	out := make([]domain.TrajectorySample, n)
	for i := range out {
		out[i] = domain.TrajectorySample{
			Timestamp: start.Add(time.Duration(i*stepSec) * time.Second),
			Latitude:  lat0 + float64(i)*latStepDeg,
			Longitude: lng0,
			Speed:     speed,
		}
	}
	return out
}

func walkingProfile() ModeProfile {
	return DefaultProfiles().Modes[domain.ModeWalking]
}

func TestScoreRouteAdherence_AllOnRoute(t *testing.T) {
	t.Parallel()

	route := []geo.Point{{Lat: 29.7600, Lng: -95.3700}, {Lat: 29.7740, Lng: -95.3700}}
	samples := track(tripStart, 41, 30, 29.7600, -95.3700, 0.000337, 4.5)

	out := scoreRouteAdherence(samples, route, walkingProfile())
	if out.fraction < 0.999 {
		t.Errorf("expected full adherence, got fraction %.3f", out.fraction)
	}
	if out.hardFail {
		t.Error("expected no hard fail")
	}
	if out.details["on_route_ratio"] != 1 {
		t.Errorf("expected on_route_ratio 1, got %.3f", out.details["on_route_ratio"])
	}
}

func TestScoreRouteAdherence_OffRoutePenalized(t *testing.T) {
	t.Parallel()

	route := []geo.Point{{Lat: 29.7600, Lng: -95.3700}, {Lat: 29.7740, Lng: -95.3700}}
	samples := track(tripStart, 40, 30, 29.7600, -95.3700, 0.000337, 4.5)
	// Half the trip ~200m east, far past the 50m walking tolerance.
	for i := 20; i < 40; i++ {
		samples[i].Longitude += 0.00207
	}

	out := scoreRouteAdherence(samples, route, walkingProfile())
	if out.details["on_route_ratio"] != 0.5 {
		t.Errorf("expected on_route_ratio 0.5, got %.3f", out.details["on_route_ratio"])
	}
	// Penalty pushes the fraction below the on-route ratio.
	if out.fraction >= 0.5 {
		t.Errorf("expected fraction below 0.5, got %.3f", out.fraction)
	}
	if out.fraction < 0 {
		t.Errorf("expected floor at zero, got %.3f", out.fraction)
	}

	found := false
	for _, r := range out.reasons {
		if strings.Contains(r, "route deviation exceeded tolerance") {
			found = true
		}
	}
	if found {
		t.Error("deviation reason should only appear when most samples are off route")
	}
}

func TestScoreBehavior_InEnvelopeAtTarget(t *testing.T) {
	t.Parallel()

	samples := track(tripStart, 20, 30, 29.7600, -95.3700, 0.000337, 4.5)

	out := scoreBehavior(samples, domain.ModeWalking, walkingProfile())
	if out.fraction < 0.999 {
		t.Errorf("expected full score at target mean, got %.3f", out.fraction)
	}
	if out.hardFail {
		t.Error("expected no hard fail")
	}
}

func TestScoreBehavior_ImplausibleSpeedHardFails(t *testing.T) {
	t.Parallel()

	// Claimed walking at driving speed: mean 45 km/h, far past 7*3.
	samples := track(tripStart, 20, 10, 29.7600, -95.3700, 0.00112, 45)

	out := scoreBehavior(samples, domain.ModeWalking, walkingProfile())
	if !out.hardFail {
		t.Fatal("expected hard fail for implausible speed")
	}
	if out.fraction != 0 {
		t.Errorf("expected zero fraction, got %.3f", out.fraction)
	}
	found := false
	for _, r := range out.reasons {
		if strings.Contains(r, "implausible speed") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an implausible speed reason, got: %v", out.reasons)
	}
}

func TestScoreBehavior_SlowButPlausibleScoresLowWithoutHardFail(t *testing.T) {
	t.Parallel()

	// Mean 15 km/h for claimed walking: outside the envelope and the
	// tolerance band, but not physically absurd.
	samples := track(tripStart, 20, 10, 29.7600, -95.3700, 0.000375, 15)

	out := scoreBehavior(samples, domain.ModeWalking, walkingProfile())
	if out.hardFail {
		t.Error("expected no hard fail for merely out-of-envelope speed")
	}
	if out.fraction != 0 {
		t.Errorf("expected zero fraction outside band, got %.3f", out.fraction)
	}
}

func TestScoreCompletion_Bands(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		ratio float64
		want  float64
	}{
		{"exact match", 1.0, 1},
		{"inside band low edge", 0.7, 1},
		{"inside band high edge", 1.3, 1},
		{"below band", 0.475, 0.5},
		{"above band", 1.65, 0.5},
		{"far too short", 0.2, 0},
		{"far too long", 2.5, 0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := bandScore(tc.ratio)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("bandScore(%.2f): expected %.2f, got %.2f", tc.ratio, tc.want, got)
			}
		})
	}
}

func TestScoreCompletion_DisabledWithoutPlan(t *testing.T) {
	t.Parallel()

	trip := &domain.Trip{
		StartedOn: tripStart,
		EndedOn:   tripStart.Add(20 * time.Minute),
	}
	samples := track(tripStart, 10, 30, 29.76, -95.37, 0.000337, 4.5)

	if _, ok := scoreCompletion(trip, samples, 0, 0); ok {
		t.Error("expected completion to be absent with no planned values")
	}

	out, ok := scoreCompletion(trip, samples, 20*time.Minute, 0)
	if !ok {
		t.Fatal("expected duration sub-metric alone to enable the dimension")
	}
	if out.fraction != 1 {
		t.Errorf("expected full duration score, got %.3f", out.fraction)
	}
	if _, present := out.details["distance_ratio"]; present {
		t.Error("expected distance sub-metric to stay disabled")
	}
}
