package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/ports/secondary"
)

// ContributionRepository implements secondary.ContributionRepository with SQLite.
type ContributionRepository struct {
	db *sql.DB
}

// NewContributionRepository creates a new SQLite contribution repository.
func NewContributionRepository(db *sql.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

// AppendHistory inserts history rows.
func (r *ContributionRepository) AppendHistory(ctx context.Context, records []*secondary.ContributionRecord) error {
	q := conn(ctx, r.db)
	for _, c := range records {
		_, err := q.ExecContext(ctx,
			"INSERT INTO contribution_history (id, plant_factor_id, plant_id, factor_code, severity, days_overdue, run_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
			c.ID, c.PlantFactorID, c.PlantID, c.FactorCode, c.Severity, nullInt(c.DaysOverdue), c.RunID,
		)
		if err != nil {
			return fmt.Errorf("failed to append contribution history: %w", err)
		}
	}
	return nil
}

// InsertActive inserts active rows, skipping keys that already have one.
func (r *ContributionRepository) InsertActive(ctx context.Context, records []*secondary.ActiveContributionRecord) (int, error) {
	q := conn(ctx, r.db)
	inserted := 0
	for _, c := range records {
		result, err := q.ExecContext(ctx,
			`INSERT INTO contribution_active (id, plant_factor_id, plant_id, factor_code, severity, days_overdue, history_id, run_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING`,
			c.ID, c.PlantFactorID, c.PlantID, c.FactorCode, c.Severity, nullInt(c.DaysOverdue), c.HistoryID, c.RunID,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert active contribution: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to check rows affected: %w", err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

// PatchActive updates the value of an active row. A row retired meanwhile
// is reported as not found.
func (r *ContributionRepository) PatchActive(ctx context.Context, c *secondary.ActiveContributionRecord) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE contribution_active
		SET plant_factor_id = ?, severity = ?, days_overdue = ?, history_id = ?, run_id = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ? AND is_active = 1`,
		c.PlantFactorID, c.Severity, nullInt(c.DaysOverdue), c.HistoryID, c.RunID, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to patch active contribution: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("active contribution %s not found", c.ID)
	}
	return nil
}

// RetireActive deactivates active rows by ID.
func (r *ContributionRepository) RetireActive(ctx context.Context, ids []string, retiredAt string) error {
	if len(ids) == 0 {
		return nil
	}
	args := append([]any{retiredAt}, idArgs(ids)...)
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE contribution_active SET is_active = 0, retired_at = ? WHERE is_active = 1 AND id IN ("+placeholders(len(ids))+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to retire active contributions: %w", err)
	}
	return nil
}

// ListActive retrieves active rows matching the given filters.
func (r *ContributionRepository) ListActive(ctx context.Context, filters secondary.ContributionFilters) ([]*secondary.ActiveContributionRecord, error) {
	query := "SELECT id, plant_factor_id, plant_id, factor_code, severity, days_overdue, history_id, run_id, updated_at FROM contribution_active WHERE is_active = 1"
	args := []any{}

	if filters.PlantID != "" {
		query += " AND plant_id = ?"
		args = append(args, filters.PlantID)
	}
	if filters.FactorCode != "" {
		query += " AND factor_code = ?"
		args = append(args, filters.FactorCode)
	}
	query += " ORDER BY plant_id, factor_code"

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active contributions: %w", err)
	}
	defer rows.Close()

	var out []*secondary.ActiveContributionRecord
	for rows.Next() {
		var (
			c       secondary.ActiveContributionRecord
			overdue sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.PlantFactorID, &c.PlantID, &c.FactorCode, &c.Severity, &overdue, &c.HistoryID, &c.RunID, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan active contribution: %w", err)
		}
		c.DaysOverdue = intPtr(overdue)
		out = append(out, &c)
	}
	return out, rows.Err()
}
