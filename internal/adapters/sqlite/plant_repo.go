package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/ports/secondary"
)

// PlantRepository implements secondary.PlantRepository with SQLite.
type PlantRepository struct {
	db *sql.DB
}

// NewPlantRepository creates a new SQLite plant repository.
func NewPlantRepository(db *sql.DB) *PlantRepository {
	return &PlantRepository{db: db}
}

const plantColumns = "id, name, plant_type_id, acquisition_date, is_active, created_at"

// Create persists a new plant.
func (r *PlantRepository) Create(ctx context.Context, plant *secondary.PlantRecord) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"INSERT INTO plants (id, name, plant_type_id, acquisition_date, is_active) VALUES (?, ?, ?, ?, ?)",
		plant.ID, plant.Name, nullString(plant.PlantTypeID), plant.AcquisitionDate, boolToInt(plant.IsActive),
	)
	if err != nil {
		return fmt.Errorf("failed to create plant: %w", err)
	}
	return nil
}

// GetByID retrieves a plant by its ID.
func (r *PlantRepository) GetByID(ctx context.Context, id string) (*secondary.PlantRecord, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT "+plantColumns+" FROM plants WHERE id = ?", id)

	record, err := scanPlant(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("plant %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plant: %w", err)
	}
	return record, nil
}

// List retrieves plants matching the given filters.
func (r *PlantRepository) List(ctx context.Context, filters secondary.PlantFilters) ([]*secondary.PlantRecord, error) {
	query := "SELECT " + plantColumns + " FROM plants WHERE 1=1"
	args := []any{}

	if filters.ID != "" {
		query += " AND id = ?"
		args = append(args, filters.ID)
	}
	if filters.ActiveOnly {
		query += " AND is_active = 1"
	}

	query += " ORDER BY id"

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}
	defer rows.Close()

	var plants []*secondary.PlantRecord
	for rows.Next() {
		record, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plant: %w", err)
		}
		plants = append(plants, record)
	}
	return plants, rows.Err()
}

// SetActive activates or deactivates a plant.
func (r *PlantRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE plants SET is_active = ? WHERE id = ?", boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("failed to update plant: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("plant %s not found", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlant(s scanner) (*secondary.PlantRecord, error) {
	var (
		record      secondary.PlantRecord
		plantTypeID sql.NullString
		isActive    int
	)
	if err := s.Scan(&record.ID, &record.Name, &plantTypeID, &record.AcquisitionDate, &isActive, &record.CreatedAt); err != nil {
		return nil, err
	}
	record.PlantTypeID = plantTypeID.String
	record.IsActive = isActive == 1
	return &record, nil
}
