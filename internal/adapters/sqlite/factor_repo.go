package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/ports/secondary"
)

// FactorRepository implements secondary.FactorRepository with SQLite.
type FactorRepository struct {
	db *sql.DB
}

// NewFactorRepository creates a new SQLite factor repository.
func NewFactorRepository(db *sql.DB) *FactorRepository {
	return &FactorRepository{db: db}
}

// AppendHistory inserts history rows.
func (r *FactorRepository) AppendHistory(ctx context.Context, records []*secondary.FactorRecord) error {
	q := conn(ctx, r.db)
	for _, f := range records {
		source := f.Source
		if source == "" {
			source = "system"
		}
		_, err := q.ExecContext(ctx,
			"INSERT INTO factor_history (id, plant_id, factor_code, factor_date, confidence_score, source, run_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
			f.ID, f.PlantID, f.FactorCode, nullString(f.FactorDate), f.Confidence, source, f.RunID,
		)
		if err != nil {
			return fmt.Errorf("failed to append factor history: %w", err)
		}
	}
	return nil
}

// InsertActive inserts active rows, skipping keys that already have one.
func (r *FactorRepository) InsertActive(ctx context.Context, records []*secondary.ActiveFactorRecord) (int, error) {
	q := conn(ctx, r.db)
	inserted := 0
	for _, f := range records {
		result, err := q.ExecContext(ctx,
			`INSERT INTO factor_active (id, plant_id, factor_code, factor_date, confidence_score, history_id, run_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING`,
			f.ID, f.PlantID, f.FactorCode, nullString(f.FactorDate), f.Confidence, f.HistoryID, f.RunID,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert active factor: %w", err)
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
func (r *FactorRepository) PatchActive(ctx context.Context, f *secondary.ActiveFactorRecord) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE factor_active
		SET factor_date = ?, confidence_score = ?, history_id = ?, run_id = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ? AND is_active = 1`,
		nullString(f.FactorDate), f.Confidence, f.HistoryID, f.RunID, f.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to patch active factor: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("active factor %s not found", f.ID)
	}
	return nil
}

// RetireActive deactivates active rows by ID.
func (r *FactorRepository) RetireActive(ctx context.Context, ids []string, retiredAt string) error {
	if len(ids) == 0 {
		return nil
	}
	args := append([]any{retiredAt}, idArgs(ids)...)
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE factor_active SET is_active = 0, retired_at = ? WHERE is_active = 1 AND id IN ("+placeholders(len(ids))+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to retire active factors: %w", err)
	}
	return nil
}

// ListActive retrieves active rows matching the given filters.
func (r *FactorRepository) ListActive(ctx context.Context, filters secondary.FactorFilters) ([]*secondary.ActiveFactorRecord, error) {
	query := "SELECT id, plant_id, factor_code, factor_date, confidence_score, history_id, run_id, updated_at FROM factor_active WHERE is_active = 1"
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
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active factors: %w", err)
	}
	defer rows.Close()

	var out []*secondary.ActiveFactorRecord
	for rows.Next() {
		var (
			f    secondary.ActiveFactorRecord
			date sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.PlantID, &f.FactorCode, &date, &f.Confidence, &f.HistoryID, &f.RunID, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan active factor: %w", err)
		}
		f.FactorDate = date.String
		out = append(out, &f)
	}
	return out, rows.Err()
}

// ListHistory retrieves history rows matching the given filters, newest first.
func (r *FactorRepository) ListHistory(ctx context.Context, filters secondary.FactorFilters) ([]*secondary.FactorRecord, error) {
	query := "SELECT id, plant_id, factor_code, factor_date, confidence_score, source, run_id, created_at FROM factor_history WHERE 1=1"
	args := []any{}

	if filters.PlantID != "" {
		query += " AND plant_id = ?"
		args = append(args, filters.PlantID)
	}
	if filters.FactorCode != "" {
		query += " AND factor_code = ?"
		args = append(args, filters.FactorCode)
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list factor history: %w", err)
	}
	defer rows.Close()

	var out []*secondary.FactorRecord
	for rows.Next() {
		var (
			f    secondary.FactorRecord
			date sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.PlantID, &f.FactorCode, &date, &f.Confidence, &f.Source, &f.RunID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan factor history: %w", err)
		}
		f.FactorDate = date.String
		out = append(out, &f)
	}
	return out, rows.Err()
}
