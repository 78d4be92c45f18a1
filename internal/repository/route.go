package repository

import (
	"context"

	"github.com/howard-metropia/trip-validation/internal/domain"
)

// RouteRepository reads the planned route the routing collaborator
// supplied at trip start.
type RouteRepository interface {
	// GetByTripID retrieves a trip's planned route. Returns
	// repository.ErrNotFound when no route was planned; the adherence
	// dimension is then omitted from scoring.
	GetByTripID(ctx context.Context, tripID string) (*domain.PlannedRoute, error)
}
