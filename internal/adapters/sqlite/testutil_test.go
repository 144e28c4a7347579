// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB() and
// the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/plantcare/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// The pool is pinned to one connection so every query sees the same :memory:
// database and transactions behave as they do in production.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	if err := db.SeedLookups(testDB); err != nil {
		t.Fatalf("failed to seed lookups: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedPlant inserts a test plant and returns its ID.
func seedPlant(t *testing.T, db *sql.DB, id, typeID, acquired string) string {
	t.Helper()
	if id == "" {
		id = "PLANT-001"
	}
	if acquired == "" {
		acquired = "2025-01-01"
	}
	var plantType any
	if typeID != "" {
		plantType = typeID
	}
	_, err := db.Exec("INSERT INTO plants (id, name, plant_type_id, acquisition_date) VALUES (?, ?, ?, ?)",
		id, "Plant "+id, plantType, acquired)
	if err != nil {
		t.Fatalf("failed to seed plant: %v", err)
	}
	return id
}

// seedAlert inserts an open watering alert and returns its ID.
func seedAlert(t *testing.T, db *sql.DB, id, plantID, severity string) string {
	t.Helper()
	if severity == "" {
		severity = "LOW"
	}
	_, err := db.Exec(`INSERT INTO alerts (id, plant_id, alert_type, alert_category, severity, title, message)
		VALUES (?, ?, 'WATERING_DUE', 'CARE', ?, 'needs watering', 'Water soon')`,
		id, plantID, severity)
	if err != nil {
		t.Fatalf("failed to seed alert: %v", err)
	}
	return id
}

func intp(n int) *int { return &n }
