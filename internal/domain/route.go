package domain

import "time"

// PlannedRoute is the itinerary a routing collaborator produced at trip
// start: a compact encoded polyline plus the estimated arrival. Optional;
// a trip without one is scored on the remaining dimensions.
type PlannedRoute struct {
	TripID             string
	EncodedPolyline    string
	EstimatedArrivalOn time.Time
	PlannedDistance    float64 // meters
}
