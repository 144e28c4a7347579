package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/plantcare/internal/ports/secondary"
)

// LookupRepository implements secondary.LookupRepository with SQLite.
type LookupRepository struct {
	db *sql.DB
}

// NewLookupRepository creates a new SQLite lookup repository.
func NewLookupRepository(db *sql.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// CreatePlantType persists a new plant type.
func (r *LookupRepository) CreatePlantType(ctx context.Context, pt *secondary.PlantTypeRecord) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"INSERT INTO plant_types (id, name, watering_interval_days, is_active) VALUES (?, ?, ?, ?)",
		pt.ID, pt.Name, pt.WateringIntervalDays, boolToInt(pt.IsActive),
	)
	if err != nil {
		return fmt.Errorf("failed to create plant type: %w", err)
	}
	return nil
}

// ListPlantTypes retrieves plant types.
func (r *LookupRepository) ListPlantTypes(ctx context.Context, includeInactive bool) ([]*secondary.PlantTypeRecord, error) {
	query := "SELECT id, name, watering_interval_days, is_active FROM plant_types"
	if !includeInactive {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY id"

	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plant types: %w", err)
	}
	defer rows.Close()

	var types []*secondary.PlantTypeRecord
	for rows.Next() {
		var (
			pt       secondary.PlantTypeRecord
			isActive int
		)
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.WateringIntervalDays, &isActive); err != nil {
			return nil, fmt.Errorf("failed to scan plant type: %w", err)
		}
		pt.IsActive = isActive == 1
		types = append(types, &pt)
	}
	return types, rows.Err()
}

// FactorWeights returns factor code -> status weight.
func (r *LookupRepository) FactorWeights(ctx context.Context) (map[string]float64, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, "SELECT factor_code, weight FROM status_factor_weights")
	if err != nil {
		return nil, fmt.Errorf("failed to load factor weights: %w", err)
	}
	defer rows.Close()

	weights := make(map[string]float64)
	for rows.Next() {
		var (
			code   string
			weight float64
		)
		if err := rows.Scan(&code, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan factor weight: %w", err)
		}
		weights[code] = weight
	}
	return weights, rows.Err()
}

// FactorCategories returns factor code -> category label.
func (r *LookupRepository) FactorCategories(ctx context.Context) (map[string]string, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, "SELECT factor_code, factor_category FROM factor_lookup")
	if err != nil {
		return nil, fmt.Errorf("failed to load factor categories: %w", err)
	}
	defer rows.Close()

	categories := make(map[string]string)
	for rows.Next() {
		var code, category string
		if err := rows.Scan(&code, &category); err != nil {
			return nil, fmt.Errorf("failed to scan factor category: %w", err)
		}
		categories[code] = category
	}
	return categories, rows.Err()
}
