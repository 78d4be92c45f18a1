package tests

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/geo"
	"github.com/howard-metropia/trip-validation/internal/scheduler"
	"github.com/howard-metropia/trip-validation/internal/service"
	"github.com/howard-metropia/trip-validation/internal/validator"
)

var fixtureStart = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

// fixture bundles the service under test with its mocks.
type fixture struct {
	tripRepo       *MockTripRepository
	trajectoryRepo *MockTrajectoryRepository
	routeRepo      *MockRouteRepository
	pairRepo       *MockPairRepository
	resultRepo     *MockResultRepository
	lockStore      *MockLockStore
	cacheStore     *MockCacheStore
	publisher      *MockPublisher
	scheduleStore  *MockScheduleStore
	registry       *scheduler.Registry
	svc            *service.ValidationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		tripRepo:       NewMockTripRepository(),
		trajectoryRepo: NewMockTrajectoryRepository(),
		routeRepo:      NewMockRouteRepository(),
		pairRepo:       NewMockPairRepository(),
		resultRepo:     NewMockResultRepository(),
		lockStore:      NewMockLockStore(),
		cacheStore:     NewMockCacheStore(),
		publisher:      NewMockPublisher(),
		scheduleStore:  NewMockScheduleStore(),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f.svc = service.NewValidationService(
		f.tripRepo,
		f.trajectoryRepo,
		f.routeRepo,
		f.pairRepo,
		f.resultRepo,
		validator.NewEngine(validator.DefaultConfig()),
		f.lockStore,
		f.cacheStore,
		f.publisher,
		logger,
		2*time.Minute,
	)

	// An hour-long retry base keeps deferral timers from firing inside
	// a test run.
	f.registry = scheduler.NewRegistry(f.svc.RunScheduled, f.scheduleStore, logger,
		scheduler.WithRetryPolicy(time.Hour, 2, 5))
	f.svc.BindRegistry(f.registry)
	t.Cleanup(f.registry.Shutdown)

	return f
}

// addWalkingTrip seeds an ended walking trip with an on-route,
// on-schedule trajectory that the engine scores near 100.
func (f *fixture) addWalkingTrip(id string) *domain.Trip {
	trip := &domain.Trip{
		ID:                 id,
		UserID:             "user-" + id,
		Role:               domain.RoleSolo,
		TravelMode:         domain.ModeWalking,
		Status:             domain.TripStatusEnded,
		StartedOn:          fixtureStart,
		EndedOn:            fixtureStart.Add(20 * time.Minute),
		EstimatedArrivalOn: fixtureStart.Add(20 * time.Minute),
		PlannedDistance:    1500,
	}
	f.tripRepo.AddTrip(trip)

	samples := make([]domain.TrajectorySample, 41)
	for i := range samples {
		samples[i] = domain.TrajectorySample{
			Timestamp: fixtureStart.Add(time.Duration(i*30) * time.Second),
			Latitude:  29.7600 + float64(i)*0.000337,
			Longitude: -95.3700,
			Speed:     4.5,
		}
	}
	f.trajectoryRepo.SetSamples(id, samples)

	f.routeRepo.SetRoute(&domain.PlannedRoute{
		TripID: id,
		EncodedPolyline: geo.EncodePolyline([]geo.Point{
			{Lat: 29.7600, Lng: -95.3700},
			{Lat: 29.7735, Lng: -95.3700},
		}),
		EstimatedArrivalOn: fixtureStart.Add(20 * time.Minute),
		PlannedDistance:    1500,
	})

	return trip
}

// addCarpoolSide seeds one side of a carpool with a driving trajectory.
func (f *fixture) addCarpoolSide(id string, role domain.TripRole, start time.Time, dur time.Duration, lngOffset float64) *domain.Trip {
	trip := &domain.Trip{
		ID:         id,
		UserID:     "user-" + id,
		Role:       role,
		TravelMode: domain.ModeCarpool,
		Status:     domain.TripStatusEnded,
		StartedOn:  start,
		EndedOn:    start.Add(dur),
	}
	f.tripRepo.AddTrip(trip)

	n := int(dur/(10*time.Second)) + 1
	samples := make([]domain.TrajectorySample, n)
	lat := 29.7600
	for i := range samples {
		ts := start.Add(time.Duration(i*10) * time.Second)
		speed := 30 + float64(int(ts.Unix()/10)%5)*5
		elapsed := ts.Sub(fixtureStart).Seconds()
		samples[i] = domain.TrajectorySample{
			Timestamp: ts,
			Latitude:  lat + elapsed*11.1/111195, // ~40 km/h northward
			Longitude: -95.3700 + lngOffset,
			Speed:     speed,
		}
	}
	f.trajectoryRepo.SetSamples(id, samples)

	return trip
}

func TestValidation_SoloTripPassesAndPersists(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addWalkingTrip("trip-1")

	result, err := f.svc.Validate(context.Background(), "trip-1", 1)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !result.Passed {
		t.Fatalf("expected pass, total %.1f, reasons: %v", result.TotalScore, result.Reasons)
	}
	if result.Attempt != 1 {
		t.Errorf("expected attempt 1, got %d", result.Attempt)
	}
	if result.ID == "" {
		t.Error("expected a result id")
	}

	if got := f.tripRepo.GetTrip("trip-1").Status; got != domain.TripStatusValidated {
		t.Errorf("expected trip status VALIDATED, got %s", got)
	}
	if f.resultRepo.Attempts("trip-1") != 1 {
		t.Errorf("expected 1 stored attempt, got %d", f.resultRepo.Attempts("trip-1"))
	}
	if f.cacheStore.SetCallCount != 1 {
		t.Errorf("expected result cached once, got %d", f.cacheStore.SetCallCount)
	}
	if len(f.publisher.Published()) != 1 {
		t.Errorf("expected one outcome event, got %d", len(f.publisher.Published()))
	}
}

func TestValidation_ReValidationAppendsAttempts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addWalkingTrip("trip-1")

	first, err := f.svc.Validate(context.Background(), "trip-1", 1)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	second, err := f.svc.Validate(context.Background(), "trip-1", 1)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if second.Attempt != 2 {
		t.Errorf("expected attempt 2, got %d", second.Attempt)
	}

	history, err := f.svc.ListResults(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 attempts on record, got %d", len(history))
	}
	// The first attempt is untouched by the re-run.
	if history[0].ID != first.ID || history[0].TotalScore != first.TotalScore {
		t.Error("expected the first attempt record to be preserved verbatim")
	}
	if history[0].TotalScore != history[1].TotalScore {
		t.Error("expected identical scores for identical inputs")
	}
}

func TestValidation_RejectsBadTrips(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	active := f.addWalkingTrip("trip-active")
	active.EndedOn = time.Time{}
	active.Status = domain.TripStatusActive
	f.tripRepo.AddTrip(active)

	canceled := f.addWalkingTrip("trip-canceled")
	canceled.Status = domain.TripStatusCanceled
	f.tripRepo.AddTrip(canceled)

	testCases := []struct {
		name    string
		tripID  string
		wantErr error
	}{
		{"empty id", "", service.ErrInvalidTripID},
		{"unknown trip", "trip-missing", nil},
		{"still active", "trip-active", service.ErrTripNotEnded},
		{"canceled", "trip-canceled", service.ErrTripCanceled},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := f.svc.Validate(context.Background(), tc.tripID, 1)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidation_DistributedLockContention(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addWalkingTrip("trip-1")
	f.lockStore.TripLockHeld = true

	_, err := f.svc.Validate(context.Background(), "trip-1", 1)
	if !errors.Is(err, service.ErrValidationInFlight) {
		t.Fatalf("expected ErrValidationInFlight, got: %v", err)
	}
	if f.resultRepo.Attempts("trip-1") != 0 {
		t.Error("expected no attempt recorded while contended")
	}
}

func TestValidation_InsufficientDataMarksUnvalidatable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	trip := f.addWalkingTrip("trip-1")
	f.trajectoryRepo.SetSamples(trip.ID, []domain.TrajectorySample{
		{Timestamp: fixtureStart, Latitude: 29.76, Longitude: -95.37, Speed: -1},
	})

	result, err := f.svc.Validate(context.Background(), "trip-1", 1)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.Category != domain.CategoryInsufficientData {
		t.Fatalf("expected insufficient_data, got %s", result.Category)
	}
	if result.Passed {
		t.Error("expected no pass without data")
	}
	if got := f.tripRepo.GetTrip("trip-1").Status; got != domain.TripStatusUnvalidatable {
		t.Errorf("expected trip status UNVALIDATABLE, got %s", got)
	}
	// The unscored attempt still lands in the append-only history.
	if f.resultRepo.Attempts("trip-1") != 1 {
		t.Errorf("expected 1 stored attempt, got %d", f.resultRepo.Attempts("trip-1"))
	}
}

func TestValidation_CarpoolDefersUntilPartnerData(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	driver := f.addCarpoolSide("trip-d", domain.RoleDriver, fixtureStart, 25*time.Minute, 0)

	// Partner still underway: pair known, no usable partner trajectory.
	passenger := &domain.Trip{
		ID:         "trip-p",
		UserID:     "user-p",
		Role:       domain.RolePassenger,
		TravelMode: domain.ModeCarpool,
		Status:     domain.TripStatusActive,
		StartedOn:  fixtureStart.Add(2 * time.Minute),
	}
	f.tripRepo.AddTrip(passenger)
	f.pairRepo.AddPair(&domain.CarpoolPair{
		ReservationID:   "res-1",
		DriverTripID:    driver.ID,
		PassengerTripID: passenger.ID,
	})

	_, err := f.svc.Validate(context.Background(), driver.ID, 1)
	if !errors.Is(err, service.ErrValidationDeferred) {
		t.Fatalf("expected ErrValidationDeferred, got: %v", err)
	}

	if f.resultRepo.Attempts(driver.ID) != 0 {
		t.Error("expected no attempt recorded for a deferred run")
	}
	if f.registry.Pending() != 1 {
		t.Errorf("expected a retry timer armed, got %d", f.registry.Pending())
	}
	// The retry must be durable: a restart inside the backoff window
	// restores the schedule instead of stranding the pair as pending.
	if !f.scheduleStore.Has(driver.ID) {
		t.Error("expected deferred retry mirrored to the schedule store")
	}
}

func TestValidation_PairRoleConflictRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	// Both sides claim the driver role; the pair's columns disagree
	// with one of them no matter which side validates first.
	driver := f.addCarpoolSide("trip-d", domain.RoleDriver, fixtureStart, 25*time.Minute, 0)
	rival := f.addCarpoolSide("trip-x", domain.RoleDriver, fixtureStart.Add(2*time.Minute), 25*time.Minute, 0.0003)
	f.pairRepo.AddPair(&domain.CarpoolPair{
		ReservationID:   "res-1",
		DriverTripID:    driver.ID,
		PassengerTripID: rival.ID,
	})

	// The partner in the passenger column contradicts its own role.
	if _, err := f.svc.Validate(context.Background(), driver.ID, 1); !errors.Is(err, domain.ErrPairRoleConflict) {
		t.Fatalf("expected ErrPairRoleConflict, got: %v", err)
	}
	// The trip itself sits in a column contradicting its role.
	if _, err := f.svc.Validate(context.Background(), rival.ID, 1); !errors.Is(err, domain.ErrPairRoleConflict) {
		t.Fatalf("expected ErrPairRoleConflict, got: %v", err)
	}

	if f.resultRepo.Attempts(driver.ID) != 0 || f.resultRepo.Attempts(rival.ID) != 0 {
		t.Error("expected no attempt recorded for a role-conflicted pair")
	}
}

func TestValidation_CarpoolBudgetExhaustedRunsSingleSided(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	driver := f.addCarpoolSide("trip-d", domain.RoleDriver, fixtureStart, 25*time.Minute, 0)

	passenger := &domain.Trip{
		ID:         "trip-p",
		UserID:     "user-p",
		Role:       domain.RolePassenger,
		TravelMode: domain.ModeCarpool,
		Status:     domain.TripStatusActive,
		StartedOn:  fixtureStart.Add(2 * time.Minute),
	}
	f.tripRepo.AddTrip(passenger)
	f.pairRepo.AddPair(&domain.CarpoolPair{
		ReservationID:   "res-1",
		DriverTripID:    driver.ID,
		PassengerTripID: passenger.ID,
	})

	// The fifth attempt is the last of the budget.
	result, err := f.svc.Validate(context.Background(), driver.ID, 5)
	if err != nil {
		t.Fatalf("expected single-sided result, got: %v", err)
	}

	want := validator.DefaultConfig().SingleSidedConfidence
	if result.Confidence != want {
		t.Errorf("expected confidence %.2f, got %.2f", want, result.Confidence)
	}
	if f.resultRepo.Attempts(driver.ID) != 1 {
		t.Errorf("expected the single-sided attempt persisted, got %d", f.resultRepo.Attempts(driver.ID))
	}
}

func TestValidation_CarpoolPairScoredTogether(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	driver := f.addCarpoolSide("trip-d", domain.RoleDriver, fixtureStart, 25*time.Minute, 0)
	passenger := f.addCarpoolSide("trip-p", domain.RolePassenger,
		fixtureStart.Add(2*time.Minute), 20*time.Minute, 0.0003)
	f.pairRepo.AddPair(&domain.CarpoolPair{
		ReservationID:   "res-1",
		DriverTripID:    driver.ID,
		PassengerTripID: passenger.ID,
	})

	result, err := f.svc.Validate(context.Background(), driver.ID, 1)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.PartnerTrip != passenger.ID {
		t.Errorf("expected partner trip %s recorded, got %q", passenger.ID, result.PartnerTrip)
	}
	if result.Dimension(domain.DimensionProximity) == nil {
		t.Fatal("expected pairing dimensions in the breakdown")
	}
	if !result.Passed {
		t.Errorf("expected co-traveling pair to pass, total %.1f, reasons: %v",
			result.TotalScore, result.Reasons)
	}
	if result.Confidence != 1 {
		t.Errorf("expected full confidence with both sides present, got %.2f", result.Confidence)
	}
}

func TestOverride_RequiresExistingResult(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addWalkingTrip("trip-1")

	_, err := f.svc.OverrideResult(context.Background(), service.OverrideRequest{
		TripID:     "trip-1",
		NewOutcome: domain.TripStatusValidated,
		ActorID:    "ops-1",
		Reason:     "manual review",
	})
	if !errors.Is(err, service.ErrNoResultToOverride) {
		t.Fatalf("expected ErrNoResultToOverride, got: %v", err)
	}
}

func TestOverride_ValidatesRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addWalkingTrip("trip-1")

	testCases := []struct {
		name    string
		req     service.OverrideRequest
		wantErr error
	}{
		{
			name:    "missing actor",
			req:     service.OverrideRequest{TripID: "trip-1", NewOutcome: domain.TripStatusRejected, Reason: "x"},
			wantErr: service.ErrInvalidActorID,
		},
		{
			name:    "missing reason",
			req:     service.OverrideRequest{TripID: "trip-1", NewOutcome: domain.TripStatusRejected, ActorID: "ops-1"},
			wantErr: service.ErrInvalidOverrideReason,
		},
		{
			name:    "non-outcome status",
			req:     service.OverrideRequest{TripID: "trip-1", NewOutcome: domain.TripStatusActive, ActorID: "ops-1", Reason: "x"},
			wantErr: service.ErrInvalidOutcome,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := f.svc.OverrideResult(context.Background(), tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestOverride_RecordsAuditAndFlipsStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addWalkingTrip("trip-1")

	result, err := f.svc.Validate(context.Background(), "trip-1", 1)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	override, err := f.svc.OverrideResult(context.Background(), service.OverrideRequest{
		TripID:     "trip-1",
		NewOutcome: domain.TripStatusRejected,
		ActorID:    "ops-1",
		Reason:     "rider reported the trip never happened",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if override.ResultID != result.ID {
		t.Errorf("expected override to reference result %s, got %s", result.ID, override.ResultID)
	}
	if override.PreviousOutcome != domain.TripStatusValidated {
		t.Errorf("expected previous outcome VALIDATED, got %s", override.PreviousOutcome)
	}
	if got := f.tripRepo.GetTrip("trip-1").Status; got != domain.TripStatusRejected {
		t.Errorf("expected trip status REJECTED, got %s", got)
	}

	// The automated attempt history is untouched.
	if f.resultRepo.Attempts("trip-1") != 1 {
		t.Errorf("expected attempt history preserved, got %d rows", f.resultRepo.Attempts("trip-1"))
	}
	if len(f.resultRepo.Overrides()) != 1 {
		t.Fatalf("expected 1 override row, got %d", len(f.resultRepo.Overrides()))
	}
	if f.cacheStore.InvalidateCallCount != 1 {
		t.Errorf("expected cached result invalidated, got %d calls", f.cacheStore.InvalidateCallCount)
	}
}

func TestGetLatestResult_ServedFromCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cached := &domain.ValidationResult{
		ID:       "res-cached",
		TripID:   "trip-1",
		Attempt:  3,
		Category: domain.CategoryScored,
		Passed:   true,
	}
	f.cacheStore.Seed(cached)

	got, err := f.svc.GetLatestResult(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got.ID != "res-cached" {
		t.Errorf("expected the cached result, got %s", got.ID)
	}
}

func TestScheduleValidation_ArmsTimerAtDueTime(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	trip := f.addWalkingTrip("trip-1")
	// ETA beyond the trip end dominates the due time. Keep it in the
	// future so the timer stays armed for the assertions below.
	trip.EndedOn = time.Now()
	trip.EstimatedArrivalOn = time.Now().Add(time.Hour)
	f.tripRepo.AddTrip(trip)

	due, err := f.svc.ScheduleValidation(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !due.Equal(trip.EstimatedArrivalOn) {
		t.Errorf("expected due at ETA %v, got %v", trip.EstimatedArrivalOn, due)
	}
	if !f.scheduleStore.Has("trip-1") {
		t.Error("expected schedule mirrored to the durable store")
	}

	canceled, err := f.svc.CancelScheduledValidation(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !canceled {
		t.Error("expected pending schedule to be canceled")
	}
	if f.scheduleStore.Has("trip-1") {
		t.Error("expected canceled schedule removed from the store")
	}
}

func TestScheduleValidation_RefusesCanceledTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	trip := f.addWalkingTrip("trip-1")
	trip.Status = domain.TripStatusCanceled
	f.tripRepo.AddTrip(trip)

	_, err := f.svc.ScheduleValidation(context.Background(), "trip-1")
	if !errors.Is(err, service.ErrTripCanceled) {
		t.Fatalf("expected ErrTripCanceled, got: %v", err)
	}
}

func TestRunScheduled_ProducesAttempt(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addWalkingTrip("trip-1")

	f.svc.RunScheduled("trip-1", 1)

	if f.resultRepo.Attempts("trip-1") != 1 {
		t.Errorf("expected the timer callback to record an attempt, got %d", f.resultRepo.Attempts("trip-1"))
	}
}

func TestRunScheduled_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addWalkingTrip("trip-1")
	f.tripRepo.GetError = errors.New("connection refused")

	f.svc.RunScheduled("trip-1", 1)

	if f.resultRepo.Attempts("trip-1") != 0 {
		t.Error("expected no attempt recorded for a failed run")
	}
	if f.registry.Pending() != 1 {
		t.Errorf("expected a retry timer armed, got %d", f.registry.Pending())
	}
	if !f.scheduleStore.Has("trip-1") {
		t.Error("expected the retry mirrored to the schedule store")
	}
}

func TestRunScheduled_UnknownTripIsNotRetried(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.svc.RunScheduled("trip-gone", 1)

	if f.registry.Pending() != 0 {
		t.Errorf("expected no retry for an unknown trip, got %d pending", f.registry.Pending())
	}
	if f.scheduleStore.Has("trip-gone") {
		t.Error("expected no schedule entry for an unknown trip")
	}
}
