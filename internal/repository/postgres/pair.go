package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/repository"
)

// PairRepository is a PostgreSQL implementation of repository.PairRepository.
type PairRepository struct {
	q executor
}

// NewPairRepository creates a new PostgreSQL pair repository.
func NewPairRepository(db *sql.DB) *PairRepository {
	return &PairRepository{q: db}
}

// GetByTripID retrieves the carpool pair a trip belongs to.
func (r *PairRepository) GetByTripID(ctx context.Context, tripID string) (*domain.CarpoolPair, error) {
	query := `
		SELECT reservation_id, driver_trip_id, passenger_trip_id
		FROM carpool_pairs
		WHERE driver_trip_id = $1 OR passenger_trip_id = $1
	`

	var pair domain.CarpoolPair
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(
		&pair.ReservationID,
		&pair.DriverTripID,
		&pair.PassengerTripID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	// Two same-role trips in one pair is a data-integrity error the
	// reservation collaborator must resolve, not a scoring case.
	if pair.DriverTripID == pair.PassengerTripID {
		return nil, domain.ErrPairRoleConflict
	}

	return &pair, nil
}

// Ensure PairRepository implements repository.PairRepository.
var _ repository.PairRepository = (*PairRepository)(nil)
