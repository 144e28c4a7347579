package primary

import (
	"context"
	"errors"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/core/run"
)

// ErrBatchInProgress is returned when a batch is requested while one is running.
var ErrBatchInProgress = apperr.New(apperr.KindConflict, "a batch run is already in progress")

// ErrPlantSkipped marks an incremental recompute that had nothing to do
// because the plant is missing, inactive or has no type.
var ErrPlantSkipped = errors.New("plant skipped")

// PipelineService defines the primary port for running the derivation pipeline.
type PipelineService interface {
	// RunBatch recomputes every active plant.
	RunBatch(ctx context.Context, trigger run.Trigger) (*RunResult, error)

	// RecomputePlant recomputes the factors affected by activityKind for one plant.
	RecomputePlant(ctx context.Context, req RecomputeRequest) (*RunResult, error)

	// ListRuns lists the most recent runs.
	ListRuns(ctx context.Context, limit int) ([]*RunSummary, error)
}

// RecomputeRequest identifies an incremental recompute.
type RecomputeRequest struct {
	PlantID      string
	ActivityKind string
	Trigger      run.Trigger
}

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	RunID   string         `json:"run_id"`
	Trigger run.Trigger    `json:"trigger"`
	Today   string         `json:"today"`
	Stats   run.Stats      `json:"stats"`
	Skipped []string       `json:"skipped,omitempty"`
	Changes map[string]int `json:"changes,omitempty"`

	// Conflicts is set when a concurrent recompute had already made some of
	// this run's writes.
	Conflicts bool `json:"conflicts,omitempty"`
}

// RunSummary is a row of the run journal.
type RunSummary struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	PlantID    string    `json:"plant_id,omitempty"`
	StartedAt  string    `json:"started_at"`
	FinishedAt string    `json:"finished_at,omitempty"`
	Stats      run.Stats `json:"stats"`
	Error      string    `json:"error,omitempty"`
}
