package service

import "errors"

var (
	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidActorID is returned when an override carries no actor.
	ErrInvalidActorID = errors.New("invalid actor id")

	// ErrInvalidOverrideReason is returned when an override carries no reason.
	ErrInvalidOverrideReason = errors.New("override reason required")

	// ErrInvalidOutcome is returned when an override requests a status
	// that is not a validation outcome.
	ErrInvalidOutcome = errors.New("invalid override outcome")

	// ErrTripNotEnded is returned when validation is requested for a trip
	// that is still active.
	ErrTripNotEnded = errors.New("trip not ended")

	// ErrTripCanceled is returned when validation is requested for a
	// canceled trip.
	ErrTripCanceled = errors.New("trip canceled")

	// ErrValidationInFlight is returned when a validation run for the
	// same trip is already executing.
	ErrValidationInFlight = errors.New("validation already in flight")

	// ErrValidationDeferred signals that the run was rescheduled because
	// the carpool partner's data is not yet available.
	ErrValidationDeferred = errors.New("validation deferred awaiting partner data")

	// ErrNoResultToOverride is returned when an override targets a trip
	// with no automated attempt on record.
	ErrNoResultToOverride = errors.New("no validation result to override")
)
