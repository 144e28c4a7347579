// Package cache provides read-through caching decorators for secondary ports.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/example/plantcare/internal/ports/secondary"
)

// Cache keys, also used as the table label on cache metrics.
const (
	keyPlantTypes       = "plant_types"
	keyPlantTypesAll    = "plant_types_all"
	keyFactorWeights    = "status_factor_weights"
	keyFactorCategories = "factor_lookup"
)

// Recorder receives cache hit and miss events.
type Recorder interface {
	RecordCacheLookup(table string, hit bool)
}

// LookupRepository decorates a secondary.LookupRepository with a TTL cache.
// Concurrent misses for the same table share one underlying read.
//
// Reads must not be issued from inside a transaction: a shared miss would
// wait on the connection the transaction holds.
type LookupRepository struct {
	next     secondary.LookupRepository
	cache    *gocache.Cache
	group    singleflight.Group
	disabled bool
	recorder Recorder
}

// NewLookupRepository wraps next. A ttl of zero disables caching.
func NewLookupRepository(next secondary.LookupRepository, ttl time.Duration, recorder Recorder) *LookupRepository {
	// The key set is fixed and small, so expired entries are replaced on the
	// next read rather than swept by a janitor goroutine.
	return &LookupRepository{
		next:     next,
		cache:    gocache.New(ttl, 0),
		disabled: ttl <= 0,
		recorder: recorder,
	}
}

// CreatePlantType persists a plant type and invalidates cached type lists.
func (r *LookupRepository) CreatePlantType(ctx context.Context, pt *secondary.PlantTypeRecord) error {
	if err := r.next.CreatePlantType(ctx, pt); err != nil {
		return err
	}
	r.cache.Delete(keyPlantTypes)
	r.cache.Delete(keyPlantTypesAll)
	return nil
}

// ListPlantTypes returns cached plant types.
func (r *LookupRepository) ListPlantTypes(ctx context.Context, includeInactive bool) ([]*secondary.PlantTypeRecord, error) {
	key := keyPlantTypes
	if includeInactive {
		key = keyPlantTypesAll
	}
	return load(r, key, func() ([]*secondary.PlantTypeRecord, error) {
		return r.next.ListPlantTypes(ctx, includeInactive)
	})
}

// FactorWeights returns cached factor weights.
func (r *LookupRepository) FactorWeights(ctx context.Context) (map[string]float64, error) {
	return load(r, keyFactorWeights, func() (map[string]float64, error) {
		return r.next.FactorWeights(ctx)
	})
}

// FactorCategories returns cached factor categories.
func (r *LookupRepository) FactorCategories(ctx context.Context) (map[string]string, error) {
	return load(r, keyFactorCategories, func() (map[string]string, error) {
		return r.next.FactorCategories(ctx)
	})
}

// Flush drops every cached entry.
func (r *LookupRepository) Flush() {
	r.cache.Flush()
}

func load[T any](r *LookupRepository, key string, fetch func() (T, error)) (T, error) {
	if r.disabled {
		return fetch()
	}
	if cached, found := r.cache.Get(key); found {
		if v, ok := cached.(T); ok {
			r.record(key, true)
			return v, nil
		}
	}
	r.record(key, false)

	v, err, _ := r.group.Do(key, func() (any, error) {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		r.cache.Set(key, v, gocache.DefaultExpiration)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (r *LookupRepository) record(table string, hit bool) {
	if r.recorder != nil {
		r.recorder.RecordCacheLookup(table, hit)
	}
}
