package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/howard-metropia/trip-validation/internal/domain"
	"github.com/howard-metropia/trip-validation/internal/redis"
	"github.com/howard-metropia/trip-validation/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	UpdateStatusCallCount int32

	// Error injection
	GetError          error
	UpdateStatusError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{trips: make(map[string]*domain.Trip)}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) UpdateStatus(ctx context.Context, id string, status domain.TripStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	trip.Status = status
	return nil
}

// GetTrip returns a trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// ──────────────────────────────────────────────
// MOCK TRAJECTORY REPOSITORY
// ──────────────────────────────────────────────

// MockTrajectoryRepository is a mock implementation of TrajectoryRepository.
type MockTrajectoryRepository struct {
	mu      sync.RWMutex
	samples map[string][]domain.TrajectorySample

	ListError error
}

// NewMockTrajectoryRepository creates a new mock trajectory repository.
func NewMockTrajectoryRepository() *MockTrajectoryRepository {
	return &MockTrajectoryRepository{samples: make(map[string][]domain.TrajectorySample)}
}

// SetSamples stores a trip's trajectory.
func (m *MockTrajectoryRepository) SetSamples(tripID string, samples []domain.TrajectorySample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[tripID] = samples
}

func (m *MockTrajectoryRepository) ListByTripID(ctx context.Context, tripID string) ([]domain.TrajectorySample, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.TrajectorySample(nil), m.samples[tripID]...), nil
}

// ──────────────────────────────────────────────
// MOCK ROUTE REPOSITORY
// ──────────────────────────────────────────────

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.PlannedRoute
}

// NewMockRouteRepository creates a new mock route repository.
func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{routes: make(map[string]*domain.PlannedRoute)}
}

// SetRoute stores a trip's planned route.
func (m *MockRouteRepository) SetRoute(route *domain.PlannedRoute) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.TripID] = route
}

func (m *MockRouteRepository) GetByTripID(ctx context.Context, tripID string) (*domain.PlannedRoute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[tripID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *route
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK PAIR REPOSITORY
// ──────────────────────────────────────────────

// MockPairRepository is a mock implementation of PairRepository.
type MockPairRepository struct {
	mu    sync.RWMutex
	pairs []*domain.CarpoolPair
}

// NewMockPairRepository creates a new mock pair repository.
func NewMockPairRepository() *MockPairRepository {
	return &MockPairRepository{}
}

// AddPair registers a carpool pairing.
func (m *MockPairRepository) AddPair(pair *domain.CarpoolPair) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs = append(m.pairs, pair)
}

func (m *MockPairRepository) GetByTripID(ctx context.Context, tripID string) (*domain.CarpoolPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.pairs {
		if p.DriverTripID == tripID || p.PassengerTripID == tripID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ──────────────────────────────────────────────
// MOCK RESULT REPOSITORY
// ──────────────────────────────────────────────

// MockResultRepository is a mock implementation of ResultRepository.
type MockResultRepository struct {
	mu        sync.RWMutex
	results   map[string][]*domain.ValidationResult
	overrides []*domain.ResultOverride

	CreateCallCount int32

	CreateError error
}

// NewMockResultRepository creates a new mock result repository.
func NewMockResultRepository() *MockResultRepository {
	return &MockResultRepository{results: make(map[string][]*domain.ValidationResult)}
}

func (m *MockResultRepository) Create(ctx context.Context, result *domain.ValidationResult) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *result
	m.results[result.TripID] = append(m.results[result.TripID], &copy)
	return nil
}

func (m *MockResultRepository) GetLatestByTripID(ctx context.Context, tripID string) (*domain.ValidationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	attempts := m.results[tripID]
	if len(attempts) == 0 {
		return nil, repository.ErrNotFound
	}
	copy := *attempts[len(attempts)-1]
	return &copy, nil
}

func (m *MockResultRepository) ListByTripID(ctx context.Context, tripID string) ([]*domain.ValidationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.ValidationResult, 0, len(m.results[tripID]))
	for _, r := range m.results[tripID] {
		copy := *r
		out = append(out, &copy)
	}
	return out, nil
}

func (m *MockResultRepository) NextAttempt(ctx context.Context, tripID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results[tripID]) + 1, nil
}

func (m *MockResultRepository) CreateOverride(ctx context.Context, override *domain.ResultOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *override
	m.overrides = append(m.overrides, &copy)
	return nil
}

// Overrides returns the recorded overrides for assertions.
func (m *MockResultRepository) Overrides() []*domain.ResultOverride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.ResultOverride(nil), m.overrides...)
}

// Attempts returns the stored attempt count for a trip.
func (m *MockResultRepository) Attempts(tripID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results[tripID])
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	trips map[string]bool
	pairs map[string]bool

	// When true, AcquireTripLock refuses as if another holder exists.
	TripLockHeld bool
	PairLockHeld bool

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		trips: make(map[string]bool),
		pairs: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TripLockHeld || m.trips[tripID] {
		return false, nil
	}
	m.trips[tripID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trips, tripID)
	return nil
}

func (m *MockLockStore) AcquirePairLock(ctx context.Context, pairKey string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PairLockHeld || m.pairs[pairKey] {
		return false, nil
	}
	m.pairs[pairKey] = true
	return true, nil
}

func (m *MockLockStore) ReleasePairLock(ctx context.Context, pairKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pairs, pairKey)
	return nil
}

var _ redis.LockStoreInterface = (*MockLockStore)(nil)

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of CacheStoreInterface.
type MockCacheStore struct {
	mu      sync.RWMutex
	entries map[string]*domain.ValidationResult

	SetCallCount        int32
	InvalidateCallCount int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{entries: make(map[string]*domain.ValidationResult)}
}

func (m *MockCacheStore) GetResult(ctx context.Context, tripID string) (*domain.ValidationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.entries[tripID]
	if !ok {
		return nil, nil
	}
	copy := *result
	return &copy, nil
}

func (m *MockCacheStore) SetResult(ctx context.Context, result *domain.ValidationResult) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *result
	m.entries[result.TripID] = &copy
	return nil
}

func (m *MockCacheStore) InvalidateResult(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, tripID)
	return nil
}

// Seed primes the cache directly.
func (m *MockCacheStore) Seed(result *domain.ValidationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[result.TripID] = result
}

var _ redis.CacheStoreInterface = (*MockCacheStore)(nil)

// ──────────────────────────────────────────────
// MOCK OUTCOME PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published outcome events.
type MockPublisher struct {
	mu        sync.Mutex
	published []*domain.ValidationResult

	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishOutcome(ctx context.Context, trip *domain.Trip, result *domain.ValidationResult) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *result
	m.published = append(m.published, &copy)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Published returns the recorded events.
func (m *MockPublisher) Published() []*domain.ValidationResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.ValidationResult(nil), m.published...)
}

// ──────────────────────────────────────────────
// MOCK SCHEDULE STORE
// ──────────────────────────────────────────────

// MockScheduleStore is an in-memory scheduler.Store.
type MockScheduleStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMockScheduleStore creates a new mock schedule store.
func NewMockScheduleStore() *MockScheduleStore {
	return &MockScheduleStore{entries: make(map[string]time.Time)}
}

func (m *MockScheduleStore) Add(ctx context.Context, tripID string, due time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tripID] = due
	return nil
}

func (m *MockScheduleStore) Remove(ctx context.Context, tripID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, tripID)
	return nil
}

func (m *MockScheduleStore) All(ctx context.Context) (map[string]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]time.Time, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

// Has reports whether a schedule is mirrored for a trip.
func (m *MockScheduleStore) Has(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[tripID]
	return ok
}
