package postgres

import (
	"context"
	"database/sql"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/repository"
)

// TrajectoryRepository is a PostgreSQL implementation of
// repository.TrajectoryRepository.
type TrajectoryRepository struct {
	q executor
}

// NewTrajectoryRepository creates a new PostgreSQL trajectory repository.
func NewTrajectoryRepository(db *sql.DB) *TrajectoryRepository {
	return &TrajectoryRepository{q: db}
}

// ListByTripID retrieves a trip's raw samples ordered by timestamp.
func (r *TrajectoryRepository) ListByTripID(ctx context.Context, tripID string) ([]domain.TrajectorySample, error) {
	query := `
		SELECT recorded_at, latitude, longitude, speed, cumulative_distance
		FROM trajectory_samples
		WHERE trip_id = $1
		ORDER BY recorded_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []domain.TrajectorySample
	for rows.Next() {
		var s domain.TrajectorySample
		var speed sql.NullFloat64
		var cumulative sql.NullFloat64

		if err := rows.Scan(
			&s.Timestamp,
			&s.Latitude,
			&s.Longitude,
			&speed,
			&cumulative,
		); err != nil {
			return nil, err
		}

		// An unreported speed is kept distinguishable so the
		// normalizer derives it instead of treating it as zero.
		s.Speed = -1
		if speed.Valid {
			s.Speed = speed.Float64
		}
		if cumulative.Valid {
			s.CumulativeDistance = cumulative.Float64
		}

		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// Ensure TrajectoryRepository implements repository.TrajectoryRepository.
var _ repository.TrajectoryRepository = (*TrajectoryRepository)(nil)
