package db

import (
	"database/sql"
	"fmt"
)

// SeedLookups populates the reference tables the pipeline joins against:
// factor categories, status weights and a starter set of plant types.
// Safe to run repeatedly.
func SeedLookups(database *sql.DB) error {
	factors := []struct{ code, category, desc string }{
		{"watering_due", "WATERING", "Next watering due date"},
	}
	for _, f := range factors {
		if _, err := database.Exec(
			"INSERT OR IGNORE INTO factor_lookup (factor_code, factor_category, description) VALUES (?, ?, ?)",
			f.code, f.category, f.desc,
		); err != nil {
			return fmt.Errorf("seed factor_lookup: %w", err)
		}
	}

	// Weights sum to 1 across all defined factors.
	weights := []struct {
		code   string
		weight float64
	}{
		{"watering_due", 1.0},
	}
	for _, w := range weights {
		if _, err := database.Exec(
			"INSERT OR IGNORE INTO status_factor_weights (factor_code, weight) VALUES (?, ?)",
			w.code, w.weight,
		); err != nil {
			return fmt.Errorf("seed status_factor_weights: %w", err)
		}
	}

	types := []struct {
		id, name string
		interval int
	}{
		{"TYPE-POTHOS", "Pothos", 7},
		{"TYPE-SNAKE", "Snake Plant", 14},
		{"TYPE-FERN", "Boston Fern", 3},
		{"TYPE-MONSTERA", "Monstera", 7},
		{"TYPE-CACTUS", "Cactus", 21},
	}
	for _, pt := range types {
		if _, err := database.Exec(
			"INSERT OR IGNORE INTO plant_types (id, name, watering_interval_days) VALUES (?, ?, ?)",
			pt.id, pt.name, pt.interval,
		); err != nil {
			return fmt.Errorf("seed plant_types: %w", err)
		}
	}

	return nil
}

// SeedFixtures adds a few development plants on top of SeedLookups.
func SeedFixtures(database *sql.DB, acquisitionDate string) error {
	if err := SeedLookups(database); err != nil {
		return err
	}

	plants := []struct{ id, name, typeID string }{
		{"PLANT-001", "Kitchen Pothos", "TYPE-POTHOS"},
		{"PLANT-002", "Bedroom Snake Plant", "TYPE-SNAKE"},
		{"PLANT-003", "Bathroom Fern", "TYPE-FERN"},
	}
	for _, p := range plants {
		if _, err := database.Exec(
			"INSERT OR IGNORE INTO plants (id, name, plant_type_id, acquisition_date) VALUES (?, ?, ?, ?)",
			p.id, p.name, p.typeID, acquisitionDate,
		); err != nil {
			return fmt.Errorf("seed plants: %w", err)
		}
	}
	return nil
}
