package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/repository"
)

// RouteRepository is a PostgreSQL implementation of repository.RouteRepository.
type RouteRepository struct {
	q executor
}

// NewRouteRepository creates a new PostgreSQL route repository.
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{q: db}
}

// GetByTripID retrieves a trip's planned route.
func (r *RouteRepository) GetByTripID(ctx context.Context, tripID string) (*domain.PlannedRoute, error) {
	query := `
		SELECT trip_id, encoded_polyline, estimated_arrival_on, planned_distance
		FROM planned_routes WHERE trip_id = $1
	`

	var route domain.PlannedRoute
	var estimatedArrivalOn sql.NullTime

	err := r.q.QueryRowContext(ctx, query, tripID).Scan(
		&route.TripID,
		&route.EncodedPolyline,
		&estimatedArrivalOn,
		&route.PlannedDistance,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if estimatedArrivalOn.Valid {
		route.EstimatedArrivalOn = estimatedArrivalOn.Time
	}

	return &route, nil
}

// Ensure RouteRepository implements repository.RouteRepository.
var _ repository.RouteRepository = (*RouteRepository)(nil)
