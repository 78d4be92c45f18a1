package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/repository"
)

// ResultRepository is a PostgreSQL implementation of
// repository.ResultRepository. Attempts are insert-only; overrides go to
// their own audited table.
type ResultRepository struct {
	q executor
}

// NewResultRepository creates a new PostgreSQL result repository.
func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{q: db}
}

// NewResultRepositoryWithTx creates a result repository using a transaction.
func NewResultRepositoryWithTx(tx *sql.Tx) *ResultRepository {
	return &ResultRepository{q: tx}
}

// Create persists a new validation attempt.
func (r *ResultRepository) Create(ctx context.Context, result *domain.ValidationResult) error {
	query := `
		INSERT INTO validation_results
			(id, trip_id, attempt, category, passed, total_score, confidence,
			 dimensions, reasons, partner_trip_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	dimensions, err := json.Marshal(result.Dimensions)
	if err != nil {
		return err
	}
	reasons, err := json.Marshal(result.Reasons)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, query,
		result.ID,
		result.TripID,
		result.Attempt,
		result.Category,
		result.Passed,
		result.TotalScore,
		result.Confidence,
		dimensions,
		reasons,
		nullString(result.PartnerTrip),
		result.CreatedAt,
	)

	return err
}

// GetLatestByTripID retrieves the most recent attempt for a trip.
func (r *ResultRepository) GetLatestByTripID(ctx context.Context, tripID string) (*domain.ValidationResult, error) {
	query := selectResult + ` WHERE trip_id = $1 ORDER BY attempt DESC LIMIT 1`

	result, err := r.scanResult(r.q.QueryRowContext(ctx, query, tripID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return result, nil
}

// ListByTripID retrieves all attempts for a trip, oldest first.
func (r *ResultRepository) ListByTripID(ctx context.Context, tripID string) ([]*domain.ValidationResult, error) {
	query := selectResult + ` WHERE trip_id = $1 ORDER BY attempt ASC`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.ValidationResult
	for rows.Next() {
		result, err := r.scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// NextAttempt returns the attempt number the next run should use.
func (r *ResultRepository) NextAttempt(ctx context.Context, tripID string) (int, error) {
	query := `SELECT COALESCE(MAX(attempt), 0) + 1 FROM validation_results WHERE trip_id = $1`

	var next int
	if err := r.q.QueryRowContext(ctx, query, tripID).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

// CreateOverride records an audited administrative override.
func (r *ResultRepository) CreateOverride(ctx context.Context, override *domain.ResultOverride) error {
	query := `
		INSERT INTO validation_overrides
			(id, trip_id, result_id, actor_id, reason, previous_outcome, new_outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		override.ID,
		override.TripID,
		override.ResultID,
		override.ActorID,
		override.Reason,
		override.PreviousOutcome,
		override.NewOutcome,
		override.CreatedAt,
	)

	return err
}

const selectResult = `
	SELECT id, trip_id, attempt, category, passed, total_score, confidence,
	       dimensions, reasons, partner_trip_id, created_at
	FROM validation_results
`

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *ResultRepository) scanResult(row scanner) (*domain.ValidationResult, error) {
	var result domain.ValidationResult
	var dimensions, reasons []byte
	var partnerTrip sql.NullString

	err := row.Scan(
		&result.ID,
		&result.TripID,
		&result.Attempt,
		&result.Category,
		&result.Passed,
		&result.TotalScore,
		&result.Confidence,
		&dimensions,
		&reasons,
		&partnerTrip,
		&result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dimensions, &result.Dimensions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(reasons, &result.Reasons); err != nil {
		return nil, err
	}
	if partnerTrip.Valid {
		result.PartnerTrip = partnerTrip.String
	}

	return &result, nil
}

// Ensure ResultRepository implements repository.ResultRepository.
var _ repository.ResultRepository = (*ResultRepository)(nil)
