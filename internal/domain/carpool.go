package domain

import "errors"

// ErrPairRoleConflict is returned when both sides of a pair claim the same
// role. That is a data-integrity error, not a scoring case.
var ErrPairRoleConflict = errors.New("carpool pair has no role diversity")

// CarpoolPair links the driver-role and passenger-role trips of one shared
// ride through their reservation grouping key.
type CarpoolPair struct {
	ReservationID   string
	DriverTripID    string
	PassengerTripID string
}

// Key returns the canonical pair lock key. Both sides' validation runs
// synchronize on it so retries cannot race.
func (p CarpoolPair) Key() string {
	return p.DriverTripID + ":" + p.PassengerTripID
}

// RoleAt returns the role the pair's columns assign to tripID, or empty
// when the trip is not part of the pair. The columns are authoritative;
// a trip whose own Role contradicts them is an ErrPairRoleConflict.
func (p CarpoolPair) RoleAt(tripID string) TripRole {
	switch tripID {
	case p.DriverTripID:
		return RoleDriver
	case p.PassengerTripID:
		return RolePassenger
	}
	return ""
}

// PartnerOf returns the opposite side's trip id, or empty when tripID is
// not part of the pair.
func (p CarpoolPair) PartnerOf(tripID string) string {
	switch tripID {
	case p.DriverTripID:
		return p.PassengerTripID
	case p.PassengerTripID:
		return p.DriverTripID
	}
	return ""
}
