package repository

import (
	"context"

	"github.com/howard-metropia/trip-validation/internal/domain"
)

// TrajectoryRepository reads the samples the tracking collaborator
// collected for a trip. The store is append-only while the trip is
// active and frozen at completion.
type TrajectoryRepository interface {
	// ListByTripID retrieves a trip's raw samples ordered by timestamp.
	// An empty slice (not an error) means no samples were recorded.
	ListByTripID(ctx context.Context, tripID string) ([]domain.TrajectorySample, error)
}
