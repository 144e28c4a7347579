package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/example/plantcare/internal/adapters/sqlite"
	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/db"
	"github.com/example/plantcare/internal/logger"
	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/ports/secondary"
)

// ============================================================================
// Test environment backed by an in-memory database
// ============================================================================

// testClock is a settable clock with sequential record IDs.
type testClock struct {
	mu  sync.Mutex
	now time.Time
	seq atomic.Int64
}

func newTestClock(today string) *testClock {
	c := &testClock{}
	c.set(today)
	return c
}

// set moves the clock to noon UTC on the given date.
func (c *testClock) set(today string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = caldate.MustParse(today).Add(12 * time.Hour)
}

func (c *testClock) Clock() Clock {
	return Clock{
		Now: func() time.Time {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.now
		},
		Location: time.UTC,
		NewID: func() string {
			return fmt.Sprintf("id-%04d", c.seq.Add(1))
		},
	}
}

type testEnv struct {
	db       *sql.DB
	clock    *testClock
	stores   Stores
	pipeline *PipelineServiceImpl
}

// newTestEnv creates an in-memory database with the authoritative schema and
// seeded lookups, and a pipeline over it on the given date.
func newTestEnv(t *testing.T, today string) *testEnv {
	t.Helper()

	testDB, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	testDB.SetMaxOpenConns(1)
	t.Cleanup(func() { testDB.Close() })

	_, err = testDB.Exec(db.GetSchemaSQL())
	require.NoError(t, err)
	require.NoError(t, db.SeedLookups(testDB))

	stores := Stores{
		Tx:            sqlite.NewTransactor(testDB),
		Plants:        sqlite.NewPlantRepository(testDB),
		Lookups:       sqlite.NewLookupRepository(testDB),
		Activities:    sqlite.NewActivityRepository(testDB),
		Factors:       sqlite.NewFactorRepository(testDB),
		Contributions: sqlite.NewContributionRepository(testDB),
		Statuses:      sqlite.NewStatusRepository(testDB),
		Schedule:      sqlite.NewScheduleRepository(testDB),
		Alerts:        sqlite.NewAlertRepository(testDB),
		Runs:          sqlite.NewRunRepository(testDB),
	}
	clock := newTestClock(today)
	return &testEnv{
		db:       testDB,
		clock:    clock,
		stores:   stores,
		pipeline: NewPipelineService(stores, nil, clock.Clock(), nil, logger.NewNop()),
	}
}

// seedPlant inserts an active plant named "Plant <id>".
func (e *testEnv) seedPlant(t *testing.T, id, typeID, acquired string) {
	t.Helper()
	var plantType any
	if typeID != "" {
		plantType = typeID
	}
	_, err := e.db.Exec("INSERT INTO plants (id, name, plant_type_id, acquisition_date) VALUES (?, ?, ?, ?)",
		id, "Plant "+id, plantType, acquired)
	require.NoError(t, err)
}

// seedWatering inserts watering events for a plant.
func (e *testEnv) seedWatering(t *testing.T, plantID string, dates ...string) {
	t.Helper()
	for _, d := range dates {
		_, err := e.db.Exec("INSERT INTO activity_history (id, plant_id, activity_kind, activity_date) VALUES (?, ?, 'watering', ?)",
			e.clock.Clock().NewID(), plantID, d)
		require.NoError(t, err)
	}
}

func (e *testEnv) activeFactor(t *testing.T, plantID string) *secondary.ActiveFactorRecord {
	t.Helper()
	active, err := e.stores.Factors.ListActive(context.Background(), secondary.FactorFilters{PlantID: plantID})
	require.NoError(t, err)
	require.Len(t, active, 1)
	return active[0]
}

func (e *testEnv) openAlerts(t *testing.T, plantID string) []*secondary.AlertRecord {
	t.Helper()
	alerts, err := e.stores.Alerts.List(context.Background(), secondary.AlertFilters{PlantID: plantID, OpenOnly: true})
	require.NoError(t, err)
	return alerts
}

func (e *testEnv) currentStatus(t *testing.T, plantID string) *secondary.StatusRecord {
	t.Helper()
	current, err := e.stores.Statuses.ListCurrent(context.Background(), secondary.StatusFilters{PlantID: plantID})
	require.NoError(t, err)
	require.Len(t, current, 1)
	return current[0]
}

// ============================================================================
// Mock Implementations
// ============================================================================

// recordingScheduler implements RecomputeScheduler by recording requests.
type recordingScheduler struct {
	mu       sync.Mutex
	requests []primary.RecomputeRequest
	err      error
}

func (m *recordingScheduler) Schedule(ctx context.Context, req primary.RecomputeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.requests = append(m.requests, req)
	return nil
}

func (m *recordingScheduler) recorded() []primary.RecomputeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]primary.RecomputeRequest(nil), m.requests...)
}

// mockPlantRepository implements secondary.PlantRepository for testing.
type mockPlantRepository struct {
	plants    map[string]*secondary.PlantRecord
	createErr error
}

func newMockPlantRepository(plants ...*secondary.PlantRecord) *mockPlantRepository {
	m := &mockPlantRepository{plants: make(map[string]*secondary.PlantRecord)}
	for _, p := range plants {
		m.plants[p.ID] = p
	}
	return m
}

func (m *mockPlantRepository) Create(ctx context.Context, plant *secondary.PlantRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.plants[plant.ID] = plant
	return nil
}

func (m *mockPlantRepository) GetByID(ctx context.Context, id string) (*secondary.PlantRecord, error) {
	if p, ok := m.plants[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("plant %s not found", id)
}

func (m *mockPlantRepository) List(ctx context.Context, filters secondary.PlantFilters) ([]*secondary.PlantRecord, error) {
	var out []*secondary.PlantRecord
	for _, p := range m.plants {
		if filters.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockPlantRepository) SetActive(ctx context.Context, id string, active bool) error {
	p, ok := m.plants[id]
	if !ok {
		return apperr.NotFound("plant %s not found", id)
	}
	p.IsActive = active
	return nil
}

// mockActivityRepository implements secondary.ActivityRepository for testing.
type mockActivityRepository struct {
	activities []*secondary.ActivityRecord
	createErr  error
}

func (m *mockActivityRepository) Create(ctx context.Context, activity *secondary.ActivityRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.activities = append(m.activities, activity)
	return nil
}

func (m *mockActivityRepository) List(ctx context.Context, filters secondary.ActivityFilters) ([]*secondary.ActivityRecord, error) {
	var out []*secondary.ActivityRecord
	for _, a := range m.activities {
		if filters.PlantID != "" && a.PlantID != filters.PlantID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// mockLookupRepository implements secondary.LookupRepository for testing.
type mockLookupRepository struct {
	types []*secondary.PlantTypeRecord
}

func (m *mockLookupRepository) CreatePlantType(ctx context.Context, pt *secondary.PlantTypeRecord) error {
	m.types = append(m.types, pt)
	return nil
}

func (m *mockLookupRepository) ListPlantTypes(ctx context.Context, includeInactive bool) ([]*secondary.PlantTypeRecord, error) {
	var out []*secondary.PlantTypeRecord
	for _, t := range m.types {
		if !includeInactive && !t.IsActive {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *mockLookupRepository) FactorWeights(ctx context.Context) (map[string]float64, error) {
	return map[string]float64{"watering_due": 1.0}, nil
}

func (m *mockLookupRepository) FactorCategories(ctx context.Context) (map[string]string, error) {
	return map[string]string{"watering_due": "WATERING"}, nil
}
