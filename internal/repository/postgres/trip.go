package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q executor
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `
		SELECT id, user_id, role, travel_mode, status, started_on, ended_on, estimated_arrival_on,
		       planned_distance, origin_lat, origin_lng, destination_lat, destination_lng
		FROM trips WHERE id = $1
	`

	var trip domain.Trip
	var endedOn sql.NullTime
	var estimatedArrivalOn sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&trip.ID,
		&trip.UserID,
		&trip.Role,
		&trip.TravelMode,
		&trip.Status,
		&trip.StartedOn,
		&endedOn,
		&estimatedArrivalOn,
		&trip.PlannedDistance,
		&trip.OriginLat,
		&trip.OriginLng,
		&trip.DestinationLat,
		&trip.DestinationLng,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if endedOn.Valid {
		trip.EndedOn = endedOn.Time
	}
	if estimatedArrivalOn.Valid {
		trip.EstimatedArrivalOn = estimatedArrivalOn.Time
	}

	return &trip, nil
}

// UpdateStatus attaches a validation outcome status to a trip.
func (r *TripRepository) UpdateStatus(ctx context.Context, id string, status domain.TripStatus) error {
	query := `UPDATE trips SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
