package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/plantcare/internal/ports/secondary"
)

// StatusRepository implements secondary.StatusRepository with SQLite.
type StatusRepository struct {
	db *sql.DB
}

// NewStatusRepository creates a new SQLite status repository.
func NewStatusRepository(db *sql.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

const statusColumns = "id, plant_id, status_code, calculated_severity, effective_severity, confidence_score, override_reason, valid_from, valid_to, is_current, run_id, calculated_at"

// ListCurrent retrieves the current window of each plant matching the filters.
func (r *StatusRepository) ListCurrent(ctx context.Context, filters secondary.StatusFilters) ([]*secondary.StatusRecord, error) {
	query := "SELECT " + statusColumns + " FROM status_history WHERE is_current = 1"
	args := []any{}
	if filters.PlantID != "" {
		query += " AND plant_id = ?"
		args = append(args, filters.PlantID)
	}
	query += " ORDER BY plant_id"

	return r.query(ctx, query, args...)
}

// Supersede marks the plant's current window not-current as of validTo.
func (r *StatusRepository) Supersede(ctx context.Context, plantID, validTo string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE status_history SET is_current = 0, valid_to = ? WHERE plant_id = ? AND is_current = 1",
		validTo, plantID,
	)
	if err != nil {
		return fmt.Errorf("failed to supersede status: %w", err)
	}
	return nil
}

// Insert persists a new current window.
func (r *StatusRepository) Insert(ctx context.Context, s *secondary.StatusRecord) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO status_history (id, plant_id, status_code, calculated_severity, effective_severity, confidence_score, override_reason, valid_from, is_current, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		s.ID, s.PlantID, s.StatusCode, s.CalculatedSeverity, s.EffectiveSeverity, s.Confidence,
		nullString(s.OverrideReason), s.ValidFrom, s.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert status: %w", err)
	}
	return nil
}

// History retrieves every window of a plant, newest first.
func (r *StatusRepository) History(ctx context.Context, plantID string, limit int) ([]*secondary.StatusRecord, error) {
	query := "SELECT " + statusColumns + " FROM status_history WHERE plant_id = ? ORDER BY calculated_at DESC, rowid DESC"
	args := []any{plantID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(ctx, query, args...)
}

func (r *StatusRepository) query(ctx context.Context, query string, args ...any) ([]*secondary.StatusRecord, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()

	var out []*secondary.StatusRecord
	for rows.Next() {
		var (
			s               secondary.StatusRecord
			reason, validTo sql.NullString
			isCurrent       int
		)
		if err := rows.Scan(&s.ID, &s.PlantID, &s.StatusCode, &s.CalculatedSeverity, &s.EffectiveSeverity,
			&s.Confidence, &reason, &s.ValidFrom, &validTo, &isCurrent, &s.RunID, &s.CalculatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		s.OverrideReason = reason.String
		s.ValidTo = validTo.String
		s.IsCurrent = isCurrent == 1
		out = append(out, &s)
	}
	return out, rows.Err()
}
