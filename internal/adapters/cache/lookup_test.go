package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/plantcare/internal/ports/secondary"
)

type mockLookupRepository struct {
	weightCalls atomic.Int32
	typeCalls   atomic.Int32
	gate        chan struct{}
	err         error
}

func (m *mockLookupRepository) CreatePlantType(ctx context.Context, pt *secondary.PlantTypeRecord) error {
	return m.err
}

func (m *mockLookupRepository) ListPlantTypes(ctx context.Context, includeInactive bool) ([]*secondary.PlantTypeRecord, error) {
	m.typeCalls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []*secondary.PlantTypeRecord{{ID: "TYPE-FERN", WateringIntervalDays: 3, IsActive: true}}, nil
}

func (m *mockLookupRepository) FactorWeights(ctx context.Context) (map[string]float64, error) {
	m.weightCalls.Add(1)
	if m.gate != nil {
		<-m.gate
	}
	if m.err != nil {
		return nil, m.err
	}
	return map[string]float64{"watering_due": 1.0}, nil
}

func (m *mockLookupRepository) FactorCategories(ctx context.Context) (map[string]string, error) {
	return map[string]string{"watering_due": "WATERING"}, nil
}

type recordedLookup struct {
	table string
	hit   bool
}

type mockRecorder struct {
	mu     sync.Mutex
	events []recordedLookup
}

func (m *mockRecorder) RecordCacheLookup(table string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedLookup{table, hit})
}

func TestLookupRepository_CachesReads(t *testing.T) {
	next := &mockLookupRepository{}
	rec := &mockRecorder{}
	repo := NewLookupRepository(next, time.Minute, rec)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		weights, err := repo.FactorWeights(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1.0, weights["watering_due"])
	}

	assert.Equal(t, int32(1), next.weightCalls.Load())
	assert.Equal(t, []recordedLookup{
		{keyFactorWeights, false},
		{keyFactorWeights, true},
		{keyFactorWeights, true},
	}, rec.events)
}

func TestLookupRepository_CreateInvalidatesPlantTypes(t *testing.T) {
	next := &mockLookupRepository{}
	repo := NewLookupRepository(next, time.Minute, nil)
	ctx := context.Background()

	_, err := repo.ListPlantTypes(ctx, false)
	require.NoError(t, err)
	_, err = repo.ListPlantTypes(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), next.typeCalls.Load())

	require.NoError(t, repo.CreatePlantType(ctx, &secondary.PlantTypeRecord{ID: "TYPE-NEW"}))

	_, err = repo.ListPlantTypes(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.typeCalls.Load())
}

func TestLookupRepository_ErrorsAreNotCached(t *testing.T) {
	next := &mockLookupRepository{err: errors.New("database is locked")}
	repo := NewLookupRepository(next, time.Minute, nil)
	ctx := context.Background()

	_, err := repo.FactorWeights(ctx)
	require.Error(t, err)

	next.err = nil
	weights, err := repo.FactorWeights(ctx)
	require.NoError(t, err)
	assert.Len(t, weights, 1)
	assert.Equal(t, int32(2), next.weightCalls.Load())
}

func TestLookupRepository_ZeroTTLDisablesCache(t *testing.T) {
	next := &mockLookupRepository{}
	repo := NewLookupRepository(next, 0, nil)
	ctx := context.Background()

	_, _ = repo.FactorWeights(ctx)
	_, _ = repo.FactorWeights(ctx)
	assert.Equal(t, int32(2), next.weightCalls.Load())
}

func TestLookupRepository_ConcurrentMissesShareOneRead(t *testing.T) {
	next := &mockLookupRepository{gate: make(chan struct{})}
	repo := NewLookupRepository(next, time.Minute, nil)
	ctx := context.Background()

	var wg, started sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			_, err := repo.FactorWeights(ctx)
			assert.NoError(t, err)
		}()
	}

	// hold the first read until every caller is waiting on it
	started.Wait()
	require.Eventually(t, func() bool { return next.weightCalls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(next.gate)
	wg.Wait()

	assert.Equal(t, int32(1), next.weightCalls.Load())
}
