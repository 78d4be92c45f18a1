package domain

import "time"

// TrajectorySample is one timestamped GPS fix recorded during a trip.
// Speed is in km/h and may be absent (negative means "not reported");
// the normalizer derives it from neighboring fixes in that case.
type TrajectorySample struct {
	Timestamp          time.Time
	Latitude           float64
	Longitude          float64
	Speed              float64 // km/h, < 0 when not reported
	CumulativeDistance float64 // meters from trip start, 0 when not reported
}

// HasSpeed reports whether the device reported an instantaneous speed.
func (s TrajectorySample) HasSpeed() bool {
	return s.Speed >= 0
}
