package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/plantcare/internal/ports/secondary"
)

// ScheduleRepository implements secondary.ScheduleRepository with SQLite.
type ScheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new SQLite schedule repository.
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListOpen retrieves items that have not been closed, soonest first.
func (r *ScheduleRepository) ListOpen(ctx context.Context, filters secondary.ScheduleFilters) ([]*secondary.ScheduleRecord, error) {
	query := "SELECT id, plant_id, plant_factor_id, factor_code, schedule_date, schedule_label, schedule_severity, run_id, end_date, updated_at FROM schedule WHERE end_date IS NULL"
	args := []any{}

	if filters.PlantID != "" {
		query += " AND plant_id = ?"
		args = append(args, filters.PlantID)
	}
	if filters.Before != "" {
		query += " AND schedule_date IS NOT NULL AND schedule_date <= ?"
		args = append(args, filters.Before)
	}
	// Undated items sort last.
	query += " ORDER BY schedule_date IS NULL, schedule_date, plant_id, factor_code"

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	defer rows.Close()

	var out []*secondary.ScheduleRecord
	for rows.Next() {
		var (
			s                    secondary.ScheduleRecord
			date, label, endDate sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.PlantID, &s.PlantFactorID, &s.FactorCode, &date, &label, &s.Severity, &s.RunID, &endDate, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule item: %w", err)
		}
		s.ScheduleDate = date.String
		s.Label = label.String
		s.EndDate = endDate.String
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Insert persists new open items. An item still open for the same plant and
// factor code is closed as of endDate first; the number closed that way is
// returned.
func (r *ScheduleRepository) Insert(ctx context.Context, records []*secondary.ScheduleRecord, endDate string) (int, error) {
	q := conn(ctx, r.db)
	superseded := 0
	for _, s := range records {
		result, err := q.ExecContext(ctx,
			"UPDATE schedule SET end_date = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE plant_id = ? AND factor_code = ? AND end_date IS NULL",
			endDate, s.PlantID, s.FactorCode,
		)
		if err != nil {
			return superseded, fmt.Errorf("failed to close superseded schedule item: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return superseded, fmt.Errorf("failed to check rows affected: %w", err)
		}
		superseded += int(n)

		_, err = q.ExecContext(ctx,
			`INSERT INTO schedule (id, plant_id, plant_factor_id, factor_code, schedule_date, schedule_label, schedule_severity, run_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.PlantID, s.PlantFactorID, s.FactorCode, nullString(s.ScheduleDate), nullString(s.Label), s.Severity, s.RunID,
		)
		if err != nil {
			return superseded, fmt.Errorf("failed to insert schedule item: %w", err)
		}
	}
	return superseded, nil
}

// UpdateSeverity changes the severity of an open item in place.
func (r *ScheduleRepository) UpdateSeverity(ctx context.Context, id string, severity int, runID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE schedule SET schedule_severity = ?, run_id = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE id = ? AND end_date IS NULL",
		severity, runID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule severity: %w", err)
	}
	return nil
}

// Close ends open items as of endDate.
func (r *ScheduleRepository) Close(ctx context.Context, ids []string, endDate string) error {
	if len(ids) == 0 {
		return nil
	}
	args := append([]any{endDate}, idArgs(ids)...)
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE schedule SET end_date = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE end_date IS NULL AND id IN ("+placeholders(len(ids))+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to close schedule items: %w", err)
	}
	return nil
}
