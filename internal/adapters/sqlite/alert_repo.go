package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/ports/secondary"
)

// AlertRepository implements secondary.AlertRepository with SQLite.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository creates a new SQLite alert repository.
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, plant_id, alert_type, alert_category, severity, title, message, target_date, due_date,
	is_active, is_snoozed, snooze_days, snooze_until, is_dismissed, dismissed_at, dismiss_type, suppress_until,
	resolved_at, resolve_reason, run_id, created_at, updated_at`

// Create persists a new alert. Returns false when the plant already has a
// non-resolved alert of the same type.
func (r *AlertRepository) Create(ctx context.Context, a *secondary.AlertRecord) (bool, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO alerts (id, plant_id, alert_type, alert_category, severity, title, message, target_date, due_date, is_active, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT DO NOTHING`,
		a.ID, a.PlantID, a.AlertType, a.Category, a.Severity, a.Title, a.Message,
		nullString(a.TargetDate), nullString(a.DueDate), nullString(a.RunID),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create alert: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n == 1, nil
}

// GetByID retrieves an alert by its ID.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*secondary.AlertRecord, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, "SELECT "+alertColumns+" FROM alerts WHERE id = ?", id)
	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("alert %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

// List retrieves alerts matching the given filters, newest first.
func (r *AlertRepository) List(ctx context.Context, filters secondary.AlertFilters) ([]*secondary.AlertRecord, error) {
	query := "SELECT " + alertColumns + " FROM alerts WHERE 1=1"
	args := []any{}

	if filters.PlantID != "" {
		query += " AND plant_id = ?"
		args = append(args, filters.PlantID)
	}
	if filters.AlertType != "" {
		query += " AND alert_type = ?"
		args = append(args, filters.AlertType)
	}
	if filters.OpenOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []*secondary.AlertRecord
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateSeverity changes the bucket and message of an open alert.
func (r *AlertRepository) UpdateSeverity(ctx context.Context, id, severity, message, runID string) error {
	return r.updateOpen(ctx, "update alert severity", id,
		"severity = ?, message = ?, run_id = ?", severity, message, nullString(runID))
}

// Resolve closes an alert.
func (r *AlertRepository) Resolve(ctx context.Context, id, reason, resolvedAt string) error {
	return r.updateOpen(ctx, "resolve alert", id,
		"is_active = 0, resolved_at = ?, resolve_reason = ?", resolvedAt, reason)
}

// MarkSnoozed records a snooze.
func (r *AlertRepository) MarkSnoozed(ctx context.Context, id string, days int, snoozeUntil string) error {
	return r.updateOpen(ctx, "snooze alert", id,
		"is_snoozed = 1, snooze_days = ?, snooze_until = ?", days, snoozeUntil)
}

// MarkDismissed records a dismissal until suppressUntil.
func (r *AlertRepository) MarkDismissed(ctx context.Context, id, dismissedAt, suppressUntil string) error {
	return r.updateOpen(ctx, "dismiss alert", id,
		"is_dismissed = 1, dismissed_at = ?, dismiss_type = 'USER_OVERRIDE', suppress_until = ?", dismissedAt, suppressUntil)
}

// updateOpen applies set to a non-resolved alert. A missing or resolved alert
// is reported as not found.
func (r *AlertRepository) updateOpen(ctx context.Context, op, id, set string, args ...any) error {
	args = append(args, id)
	result, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE alerts SET "+set+", updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE id = ? AND is_active = 1",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("open alert %s not found", id)
	}
	return nil
}

func scanAlert(s scanner) (*secondary.AlertRecord, error) {
	var (
		a                                     secondary.AlertRecord
		targetDate, dueDate                   sql.NullString
		snoozeUntil, dismissedAt, dismissType sql.NullString
		suppressUntil, resolvedAt, resolveWhy sql.NullString
		runID                                 sql.NullString
		snoozeDays                            sql.NullInt64
		isActive, isSnoozed, isDismissed      int
	)
	err := s.Scan(&a.ID, &a.PlantID, &a.AlertType, &a.Category, &a.Severity, &a.Title, &a.Message,
		&targetDate, &dueDate, &isActive, &isSnoozed, &snoozeDays, &snoozeUntil, &isDismissed,
		&dismissedAt, &dismissType, &suppressUntil, &resolvedAt, &resolveWhy, &runID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.TargetDate = targetDate.String
	a.DueDate = dueDate.String
	a.IsActive = isActive == 1
	a.IsSnoozed = isSnoozed == 1
	a.SnoozeDays = int(snoozeDays.Int64)
	a.SnoozeUntil = snoozeUntil.String
	a.IsDismissed = isDismissed == 1
	a.DismissedAt = dismissedAt.String
	a.DismissType = dismissType.String
	a.SuppressUntil = suppressUntil.String
	a.ResolvedAt = resolvedAt.String
	a.ResolveReason = resolveWhy.String
	a.RunID = runID.String
	return &a, nil
}
