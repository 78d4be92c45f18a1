package repository

import (
	"context"

	"github.com/howard-metropia/trip-validation/internal/domain"
)

// TripRepository reads trips from the lifecycle store and attaches
// validation outcomes. The engine never creates or deletes trips.
type TripRepository interface {
	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// UpdateStatus attaches a validation outcome status to a trip.
	UpdateStatus(ctx context.Context, id string, status domain.TripStatus) error
}
