package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/observability"
	"github.com/howard-metropia/trip-validation/internal/publish"
	"github.com/howard-metropia/trip-validation/internal/redis"
	"github.com/howard-metropia/trip-validation/internal/repository"
	"github.com/howard-metropia/trip-validation/internal/scheduler"
	"github.com/howard-metropia/trip-validation/internal/validator"
)

// scheduledRunTimeout bounds one timer-triggered validation run.
const scheduledRunTimeout = 60 * time.Second

// ValidationService orchestrates validation runs: it loads the inputs,
// drives the engine, persists append-only attempt records, and owns the
// scheduling surface exposed to collaborators.
type ValidationService struct {
	tripRepo       repository.TripRepository
	trajectoryRepo repository.TrajectoryRepository
	routeRepo      repository.RouteRepository
	pairRepo       repository.PairRepository
	resultRepo     repository.ResultRepository

	engine     *validator.Engine
	registry   *scheduler.Registry
	lockStore  redis.LockStoreInterface
	cacheStore redis.CacheStoreInterface
	publisher  publish.Publisher // optional
	logger     *slog.Logger

	lockTTL time.Duration
}

// NewValidationService creates a new ValidationService. The registry's
// run function must be bound to RunScheduled by the caller.
func NewValidationService(
	tripRepo repository.TripRepository,
	trajectoryRepo repository.TrajectoryRepository,
	routeRepo repository.RouteRepository,
	pairRepo repository.PairRepository,
	resultRepo repository.ResultRepository,
	engine *validator.Engine,
	lockStore redis.LockStoreInterface,
	cacheStore redis.CacheStoreInterface,
	publisher publish.Publisher,
	logger *slog.Logger,
	lockTTL time.Duration,
) *ValidationService {
	return &ValidationService{
		tripRepo:       tripRepo,
		trajectoryRepo: trajectoryRepo,
		routeRepo:      routeRepo,
		pairRepo:       pairRepo,
		resultRepo:     resultRepo,
		engine:         engine,
		lockStore:      lockStore,
		cacheStore:     cacheStore,
		publisher:      publisher,
		logger:         logger,
		lockTTL:        lockTTL,
	}
}

// BindRegistry attaches the timer registry once it has been constructed
// with this service's RunScheduled callback.
func (s *ValidationService) BindRegistry(registry *scheduler.Registry) {
	s.registry = registry
}

// Validate runs one validation attempt for a trip. Safe to invoke
// multiple times: each completed run appends a new attempt record and
// never mutates history. attempt is 1 for manual triggers.
func (s *ValidationService) Validate(ctx context.Context, tripID string, attempt int) (*domain.ValidationResult, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status == domain.TripStatusCanceled {
		return nil, ErrTripCanceled
	}
	if !trip.Ended() {
		return nil, ErrTripNotEnded
	}

	// Per-trip single flight: in-process registry first, then the
	// distributed lock so a timer and a manual re-trigger on different
	// instances cannot double-score.
	if s.registry != nil {
		if !s.registry.TryBegin(tripID) {
			return nil, ErrValidationInFlight
		}
		defer s.registry.Finish(tripID)
	}

	locked, err := s.lockStore.AcquireTripLock(ctx, tripID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrValidationInFlight
	}
	defer func() {
		_ = s.lockStore.ReleaseTripLock(ctx, tripID)
	}()

	started := time.Now()
	result, err := s.runEngine(ctx, trip, attempt)
	if err != nil {
		return nil, err
	}
	observability.ValidationDuration.Observe(time.Since(started).Seconds())

	if err := s.persist(ctx, trip, result); err != nil {
		return nil, err
	}

	return result, nil
}

// runEngine assembles the engine input and executes it, handling the
// carpool partner-data deferral path.
func (s *ValidationService) runEngine(ctx context.Context, trip *domain.Trip, attempt int) (*domain.ValidationResult, error) {
	samples, err := s.trajectoryRepo.ListByTripID(ctx, trip.ID)
	if err != nil {
		return nil, err
	}

	input := validator.Input{Trip: trip, Samples: samples}

	route, err := s.routeRepo.GetByTripID(ctx, trip.ID)
	switch {
	case err == nil:
		input.Route = route
	case errors.Is(err, repository.ErrNotFound):
		// No planned route: the adherence dimension is omitted.
	default:
		return nil, err
	}

	if trip.Role == domain.RoleDriver || trip.Role == domain.RolePassenger {
		pair, pairKey, err := s.loadPartner(ctx, trip, &input)
		if err != nil {
			return nil, err
		}
		if pair != nil {
			// Serialize the two sides' runs on the pair key so retry
			// runs from either side's schedule cannot race.
			locked, err := s.lockStore.AcquirePairLock(ctx, pairKey, s.lockTTL)
			if err != nil {
				return nil, err
			}
			if !locked {
				return nil, ErrValidationInFlight
			}
			defer func() {
				_ = s.lockStore.ReleasePairLock(ctx, pairKey)
			}()
		}
	}

	result, err := s.engine.Validate(input)
	if errors.Is(err, validator.ErrPartnerDataUnavailable) {
		if s.registry != nil && s.registry.Defer(trip.ID, attempt) {
			observability.DeferralsTotal.Inc()
			s.logger.Info("validation deferred awaiting partner data",
				"trip_id", trip.ID, "attempt", attempt)
			return nil, ErrValidationDeferred
		}
		// Retry budget exhausted: score single-sided at reduced
		// confidence rather than staying pending forever.
		input.SingleSided = true
		result, err = s.engine.Validate(input)
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

// loadPartner resolves the carpool pair and the partner's inputs. A
// missing pair is fine (the trip validates solo); a known pair with an
// unfinished or untracked partner leaves input.Partner nil so the
// engine signals deferral.
func (s *ValidationService) loadPartner(ctx context.Context, trip *domain.Trip, input *validator.Input) (*domain.CarpoolPair, string, error) {
	pair, err := s.pairRepo.GetByTripID(ctx, trip.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	// The pair's columns are authoritative for role. A trip whose
	// recorded role contradicts the column it sits in means the
	// reservation paired two drivers or two passengers; that is an
	// integrity error for the reservation collaborator, not a scoring
	// case.
	if pair.RoleAt(trip.ID) != trip.Role {
		return nil, "", domain.ErrPairRoleConflict
	}

	partnerID := pair.PartnerOf(trip.ID)
	partner, err := s.tripRepo.GetByID(ctx, partnerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}
	if partner != nil && pair.RoleAt(partnerID) != partner.Role {
		return nil, "", domain.ErrPairRoleConflict
	}

	if partner != nil && partner.Ended() {
		partnerSamples, err := s.trajectoryRepo.ListByTripID(ctx, partnerID)
		if err != nil {
			return nil, "", err
		}
		if len(partnerSamples) > 0 {
			input.Partner = &validator.PartnerInput{Trip: partner, Samples: partnerSamples}
		}
	}

	return pair, pair.Key(), nil
}

// persist writes the attempt record, attaches the outcome to the trip,
// refreshes the cache and publishes the outcome event.
func (s *ValidationService) persist(ctx context.Context, trip *domain.Trip, result *domain.ValidationResult) error {
	next, err := s.resultRepo.NextAttempt(ctx, trip.ID)
	if err != nil {
		return err
	}

	result.ID = uuid.New().String()
	result.Attempt = next
	result.CreatedAt = time.Now().UTC()

	if err := s.resultRepo.Create(ctx, result); err != nil {
		return err
	}

	status := outcomeStatus(result)
	if err := s.tripRepo.UpdateStatus(ctx, trip.ID, status); err != nil {
		return err
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetResult(ctx, result); err != nil {
			s.logger.Warn("failed to cache validation result", "trip_id", trip.ID, "error", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOutcome(ctx, trip, result); err != nil {
			// Log and continue: the attempt record is the source of
			// truth, events are an optimization for collaborators.
			s.logger.Warn("failed to publish validation outcome", "trip_id", trip.ID, "error", err)
		}
	}

	verdict := "fail"
	if result.Passed {
		verdict = "pass"
	}
	if !result.Scored() {
		verdict = "none"
	}
	observability.ValidationsTotal.WithLabelValues(string(result.Category), verdict, string(trip.TravelMode)).Inc()
	if result.Scored() {
		observability.ValidationScore.Observe(result.TotalScore)
	}

	s.logger.Info("validation attempt recorded",
		"trip_id", trip.ID,
		"attempt", result.Attempt,
		"category", result.Category,
		"passed", result.Passed,
		"score", result.TotalScore,
	)
	return nil
}

// outcomeStatus maps a result to the status attached to the trip. Only
// scored outcomes are verdicts; the rest mean the engine could not judge.
func outcomeStatus(result *domain.ValidationResult) domain.TripStatus {
	switch {
	case !result.Scored():
		return domain.TripStatusUnvalidatable
	case result.Passed:
		return domain.TripStatusValidated
	default:
		return domain.TripStatusRejected
	}
}

// ScheduleValidation arms the validation timer for an ended trip at
// max(ended_on, estimated_arrival_on). The caller that ended the trip
// never blocks on the validation itself.
func (s *ValidationService) ScheduleValidation(ctx context.Context, tripID string) (time.Time, error) {
	if tripID == "" {
		return time.Time{}, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return time.Time{}, err
	}
	if trip.Status == domain.TripStatusCanceled {
		return time.Time{}, ErrTripCanceled
	}
	if !trip.Ended() {
		return time.Time{}, ErrTripNotEnded
	}

	due := trip.ValidationDue()
	if err := s.registry.Schedule(ctx, tripID, due); err != nil {
		return time.Time{}, err
	}
	observability.ScheduledTimers.Set(float64(s.registry.Pending()))

	s.logger.Info("validation scheduled", "trip_id", tripID, "due", due)
	return due, nil
}

// CancelScheduledValidation cancels a pending validation timer.
// Best-effort: a no-op when the run already happened.
func (s *ValidationService) CancelScheduledValidation(ctx context.Context, tripID string) (bool, error) {
	if tripID == "" {
		return false, ErrInvalidTripID
	}

	canceled := s.registry.Cancel(ctx, tripID)
	observability.ScheduledTimers.Set(float64(s.registry.Pending()))
	if canceled {
		s.logger.Info("scheduled validation canceled", "trip_id", tripID)
	}
	return canceled, nil
}

// RunScheduled is the registry's timer callback.
func (s *ValidationService) RunScheduled(tripID string, attempt int) {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledRunTimeout)
	defer cancel()

	_, err := s.Validate(ctx, tripID, attempt)
	switch {
	case err == nil, errors.Is(err, ErrValidationDeferred):
	case errors.Is(err, ErrTripCanceled), errors.Is(err, ErrValidationInFlight),
		errors.Is(err, repository.ErrNotFound), errors.Is(err, domain.ErrPairRoleConflict):
		s.logger.Info("scheduled validation skipped", "trip_id", tripID, "reason", err)
	default:
		// Transient failure, e.g. storage briefly down. Retry on the
		// same backoff budget as a partner-data deferral so the trip
		// does not sit unvalidated until someone notices.
		if s.registry.Defer(tripID, attempt) {
			s.logger.Warn("scheduled validation failed, retrying",
				"trip_id", tripID, "attempt", attempt, "error", err)
		} else {
			s.logger.Error("scheduled validation failed, retry budget exhausted",
				"trip_id", tripID, "error", err)
		}
	}
	observability.ScheduledTimers.Set(float64(s.registry.Pending()))
}

// OverrideRequest contains the parameters of an administrative override.
type OverrideRequest struct {
	TripID     string
	NewOutcome domain.TripStatus
	ActorID    string
	Reason     string
}

// OverrideResult records an audited administrative override of the
// latest automated result. The automated attempt history is never
// touched.
func (s *ValidationService) OverrideResult(ctx context.Context, req OverrideRequest) (*domain.ResultOverride, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.ActorID == "" {
		return nil, ErrInvalidActorID
	}
	if req.Reason == "" {
		return nil, ErrInvalidOverrideReason
	}
	switch req.NewOutcome {
	case domain.TripStatusValidated, domain.TripStatusRejected, domain.TripStatusUnvalidatable:
	default:
		return nil, ErrInvalidOutcome
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	latest, err := s.resultRepo.GetLatestByTripID(ctx, req.TripID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoResultToOverride
	}
	if err != nil {
		return nil, err
	}

	override := &domain.ResultOverride{
		ID:              uuid.New().String(),
		TripID:          req.TripID,
		ResultID:        latest.ID,
		ActorID:         req.ActorID,
		Reason:          req.Reason,
		PreviousOutcome: trip.Status,
		NewOutcome:      req.NewOutcome,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.resultRepo.CreateOverride(ctx, override); err != nil {
		return nil, err
	}
	if err := s.tripRepo.UpdateStatus(ctx, req.TripID, req.NewOutcome); err != nil {
		return nil, err
	}
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateResult(ctx, req.TripID)
	}

	observability.OverridesTotal.Inc()
	s.logger.Info("validation result overridden",
		"trip_id", req.TripID, "actor_id", req.ActorID, "new_outcome", req.NewOutcome)
	return override, nil
}

// GetLatestResult returns the most recent attempt, served from cache
// when fresh.
func (s *ValidationService) GetLatestResult(ctx context.Context, tripID string) (*domain.ValidationResult, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetResult(ctx, tripID); err == nil && cached != nil {
			return cached, nil
		}
	}

	return s.resultRepo.GetLatestByTripID(ctx, tripID)
}

// ListResults returns the full attempt history for a trip, oldest first.
func (s *ValidationService) ListResults(ctx context.Context, tripID string) ([]*domain.ValidationResult, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.resultRepo.ListByTripID(ctx, tripID)
}
