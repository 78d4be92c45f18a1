package repository

import (
	"context"

	"github.com/howard-metropia/trip-validation/internal/domain"
)

// ResultRepository persists validation attempts and administrative
// overrides. Attempts are append-only: one record per run, never an
// in-place overwrite of a prior result.
type ResultRepository interface {
	// Create persists a new validation attempt.
	Create(ctx context.Context, result *domain.ValidationResult) error

	// GetLatestByTripID retrieves the most recent attempt for a trip.
	GetLatestByTripID(ctx context.Context, tripID string) (*domain.ValidationResult, error)

	// ListByTripID retrieves all attempts for a trip, oldest first.
	ListByTripID(ctx context.Context, tripID string) ([]*domain.ValidationResult, error)

	// NextAttempt returns the attempt number the next run should use.
	NextAttempt(ctx context.Context, tripID string) (int, error)

	// CreateOverride records an audited administrative override as a
	// distinct row alongside, never instead of, the automated attempts.
	CreateOverride(ctx context.Context, override *domain.ResultOverride) error
}
