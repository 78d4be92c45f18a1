package validator

import "errors"

var (
	// ErrInsufficientData is returned when fewer than two valid samples
	// survive normalization. It is "cannot judge", not a verdict.
	ErrInsufficientData = errors.New("insufficient trajectory data")

	// ErrInvalidTrajectory is returned when the raw sample list is
	// structurally unusable (e.g. coordinates off the globe).
	ErrInvalidTrajectory = errors.New("invalid trajectory")

	// ErrInvalidRoute is returned when the planned route polyline cannot
	// be decoded.
	ErrInvalidRoute = errors.New("invalid planned route")

	// ErrPartnerDataUnavailable signals that the carpool partner's
	// trajectory is not yet available; the caller defers and retries.
	ErrPartnerDataUnavailable = errors.New("carpool partner data unavailable")
)
