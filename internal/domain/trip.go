package domain

import "time"

// TripStatus represents the lifecycle status of a trip.
type TripStatus string

const (
	TripStatusActive   TripStatus = "ACTIVE"
	TripStatusEnded    TripStatus = "ENDED"
	TripStatusCanceled TripStatus = "CANCELED"

	// Post-validation statuses attached once the engine has judged the trip.
	TripStatusValidated     TripStatus = "VALIDATED"
	TripStatusRejected      TripStatus = "REJECTED"
	TripStatusUnvalidatable TripStatus = "UNVALIDATABLE"
)

// TravelMode identifies how a trip was (claimed to be) traveled.
type TravelMode string

const (
	ModeWalking    TravelMode = "walking"
	ModeBiking     TravelMode = "biking"
	ModeDriving    TravelMode = "driving"
	ModeTransit    TravelMode = "transit"
	ModeCarpool    TravelMode = "carpool"
	ModeRidehail   TravelMode = "ridehail"
	ModeTrucking   TravelMode = "trucking"
	ModeIntermodal TravelMode = "intermodal"
)

// TripRole distinguishes the parties of a shared ride.
type TripRole string

const (
	RoleDriver    TripRole = "driver"
	RolePassenger TripRole = "passenger"
	RoleSolo      TripRole = "solo"
)

// Trip represents a completed or active trip awaiting validation.
// Immutable once ended except for the validation-status attachment.
type Trip struct {
	ID                 string
	UserID             string
	Role               TripRole
	TravelMode         TravelMode
	Status             TripStatus
	StartedOn          time.Time
	EndedOn            time.Time // zero while active
	EstimatedArrivalOn time.Time
	PlannedDistance    float64 // meters
	OriginLat          float64
	OriginLng          float64
	DestinationLat     float64
	DestinationLng     float64
}

// Ended reports whether the trip has an end timestamp.
func (t *Trip) Ended() bool {
	return !t.EndedOn.IsZero()
}

// Duration returns the recorded travel time, zero while the trip is active.
func (t *Trip) Duration() time.Duration {
	if t.EndedOn.IsZero() {
		return 0
	}
	return t.EndedOn.Sub(t.StartedOn)
}

// PlannedDuration returns the planned travel time derived from the ETA.
func (t *Trip) PlannedDuration() time.Duration {
	if t.EstimatedArrivalOn.IsZero() {
		return 0
	}
	return t.EstimatedArrivalOn.Sub(t.StartedOn)
}

// ValidationDue returns the instant validation should run: the later of
// the trip end and the estimated arrival.
func (t *Trip) ValidationDue() time.Time {
	if t.EstimatedArrivalOn.After(t.EndedOn) {
		return t.EstimatedArrivalOn
	}
	return t.EndedOn
}
