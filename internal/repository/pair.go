package repository

import (
	"context"

	"github.com/howard-metropia/trip-validation/internal/domain"
)

// PairRepository resolves the driver↔passenger pairing the reservation
// collaborator recorded for carpool trips.
type PairRepository interface {
	// GetByTripID retrieves the pair either side of a shared ride
	// belongs to. Returns repository.ErrNotFound for unpaired trips.
	GetByTripID(ctx context.Context, tripID string) (*domain.CarpoolPair, error)
}
