package validator

import (
	"sort"
	"time"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/geo"
)

// Normalization limits. The speed ceiling is deliberately above every
// mode envelope: it rejects physically impossible fixes for any mode,
// not merely out-of-profile ones.
const (
	impossibleSpeedKmh    = 300.0
	boundToleranceDefault = 2 * time.Minute
)

// NormalizeStats records what the normalizer discarded, surfaced in the
// result detail map for explainability.
type NormalizeStats struct {
	RawCount       int
	KeptCount      int
	DuplicateCount int
	OutOfBounds    int
	NoiseCount     int
}

// Normalize produces the canonical sample sequence every downstream
// scorer consumes. Samples are sorted, deduplicated, anchored to the trip
// time bounds and stripped of physically impossible jumps. The output is
// never re-sorted or re-filtered later, which keeps scoring deterministic.
//
// Missing instantaneous speeds are derived from neighboring fixes and
// missing cumulative distances are filled in.
func Normalize(raw []domain.TrajectorySample, startedOn, endedOn time.Time) ([]domain.TrajectorySample, NormalizeStats, error) {
	stats := NormalizeStats{RawCount: len(raw)}

	for _, s := range raw {
		if s.Latitude < -90 || s.Latitude > 90 || s.Longitude < -180 || s.Longitude > 180 || s.Timestamp.IsZero() {
			return nil, stats, ErrInvalidTrajectory
		}
	}

	sorted := make([]domain.TrajectorySample, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	lowBound := startedOn.Add(-boundToleranceDefault)
	highBound := endedOn.Add(boundToleranceDefault)

	kept := make([]domain.TrajectorySample, 0, len(sorted))
	for _, s := range sorted {
		if s.Timestamp.Before(lowBound) || s.Timestamp.After(highBound) {
			stats.OutOfBounds++
			continue
		}
		if n := len(kept); n > 0 && !kept[n-1].Timestamp.Before(s.Timestamp) {
			// Duplicate or non-advancing timestamp: keep the first fix.
			stats.DuplicateCount++
			continue
		}
		if n := len(kept); n > 0 {
			prev := kept[n-1]
			if impliedSpeedKmh(prev, s) > impossibleSpeedKmh {
				stats.NoiseCount++
				continue
			}
		}
		kept = append(kept, s)
	}

	if len(kept) < 2 {
		stats.KeptCount = len(kept)
		return nil, stats, ErrInsufficientData
	}

	deriveSpeeds(kept)
	fillCumulativeDistance(kept)

	stats.KeptCount = len(kept)
	return kept, stats, nil
}

// impliedSpeedKmh returns the speed a device would have needed to travel
// between two fixes.
func impliedSpeedKmh(a, b domain.TrajectorySample) float64 {
	dt := b.Timestamp.Sub(a.Timestamp).Seconds()
	if dt <= 0 {
		return 0
	}
	meters := geo.Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	return meters / dt * 3.6
}

// deriveSpeeds fills unreported speeds from the distance covered since
// the previous fix. The first sample inherits its successor's speed.
func deriveSpeeds(samples []domain.TrajectorySample) {
	for i := 1; i < len(samples); i++ {
		if !samples[i].HasSpeed() {
			samples[i].Speed = impliedSpeedKmh(samples[i-1], samples[i])
		}
	}
	if !samples[0].HasSpeed() {
		samples[0].Speed = samples[1].Speed
	}
}

func fillCumulativeDistance(samples []domain.TrajectorySample) {
	for i := 1; i < len(samples); i++ {
		if samples[i].CumulativeDistance > 0 {
			continue
		}
		step := geo.Haversine(
			samples[i-1].Latitude, samples[i-1].Longitude,
			samples[i].Latitude, samples[i].Longitude,
		)
		samples[i].CumulativeDistance = samples[i-1].CumulativeDistance + step
	}
}

// TotalDistance returns the trajectory's recorded length in meters.
func TotalDistance(samples []domain.TrajectorySample) float64 {
	if len(samples) == 0 {
		return 0
	}
	return samples[len(samples)-1].CumulativeDistance
}

// MeanSpeed returns the average instantaneous speed in km/h.
func MeanSpeed(samples []domain.TrajectorySample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.Speed
	}
	return sum / float64(len(samples))
}

// ToTimedPoints converts normalized samples to the geometry package's
// time-base representation for resampling.
func ToTimedPoints(samples []domain.TrajectorySample) []geo.TimedPoint {
	out := make([]geo.TimedPoint, len(samples))
	for i, s := range samples {
		out[i] = geo.TimedPoint{
			Time:  s.Timestamp,
			Point: geo.Point{Lat: s.Latitude, Lng: s.Longitude},
			Speed: s.Speed,
		}
	}
	return out
}
