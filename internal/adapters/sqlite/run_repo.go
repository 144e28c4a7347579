package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/plantcare/internal/ports/secondary"
)

// RunRepository implements secondary.RunRepository with SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start records a run as started.
func (r *RunRepository) Start(ctx context.Context, run *secondary.RunRecord) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"INSERT INTO pipeline_runs (id, trigger_kind, plant_id, started_at) VALUES (?, ?, ?, ?)",
		run.ID, run.Trigger, nullString(run.PlantID), run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// Finish records the outcome of a run.
func (r *RunRepository) Finish(ctx context.Context, run *secondary.RunRecord) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE pipeline_runs SET finished_at = ?, stats_started = ?, stats_completed = ?, stats_errors = ?, error = ? WHERE id = ?",
		run.FinishedAt, run.Started, run.Completed, run.Errors, nullString(run.Error), run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// List retrieves the most recent runs.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*secondary.RunRecord, error) {
	query := "SELECT id, trigger_kind, plant_id, started_at, finished_at, stats_started, stats_completed, stats_errors, error FROM pipeline_runs ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*secondary.RunRecord
	for rows.Next() {
		var (
			run                         secondary.RunRecord
			plantID, finishedAt, errMsg sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Trigger, &plantID, &run.StartedAt, &finishedAt,
			&run.Started, &run.Completed, &run.Errors, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.PlantID = plantID.String
		run.FinishedAt = finishedAt.String
		run.Error = errMsg.String
		out = append(out, &run)
	}
	return out, rows.Err()
}
