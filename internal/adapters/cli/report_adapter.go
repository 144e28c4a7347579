package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/fatih/color"

	"github.com/example/plantcare/internal/core/run"
	"github.com/example/plantcare/internal/ports/primary"
)

// ReportAdapter prints derived state and runs the batch.
type ReportAdapter struct {
	query    primary.QueryService
	pipeline primary.PipelineService
	out      io.Writer
}

// NewReportAdapter creates a new ReportAdapter.
func NewReportAdapter(query primary.QueryService, pipeline primary.PipelineService, out io.Writer) *ReportAdapter {
	return &ReportAdapter{
		query:    query,
		pipeline: pipeline,
		out:      out,
	}
}

// RunBatch runs a manual batch and prints its stats.
func (a *ReportAdapter) RunBatch(ctx context.Context) error {
	result, err := a.pipeline.RunBatch(ctx, run.TriggerManual)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Batch %s for %s: %d stages completed, %d errors\n",
		result.RunID, result.Today, result.Stats.Completed, result.Stats.Errors)
	for _, key := range slices.Sorted(maps.Keys(result.Changes)) {
		fmt.Fprintf(a.out, "  %-28s %d\n", key, result.Changes[key])
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(a.out, "  skipped (no plant type): %d\n", len(result.Skipped))
	}
	return nil
}

// ListRuns prints the run journal.
func (a *ReportAdapter) ListRuns(ctx context.Context, limit int) error {
	runs, err := a.pipeline.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No runs yet")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-38s %-12s %-26s %-6s %s\n", "ID", "TRIGGER", "STARTED", "STAGES", "ERROR")
	fmt.Fprintln(a.out, rule)
	for _, r := range runs {
		fmt.Fprintf(a.out, "%-38s %-12s %-26s %-6d %s\n", r.ID, r.Trigger, r.StartedAt, r.Stats.Completed, r.Error)
	}
	fmt.Fprintln(a.out)
	return nil
}

// ListStatuses prints the current status of every plant.
func (a *ReportAdapter) ListStatuses(ctx context.Context) error {
	statuses, err := a.query.ListStatuses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list statuses: %w", err)
	}
	if len(statuses) == 0 {
		fmt.Fprintln(a.out, "No statuses computed yet")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-38s %-10s %-5s %s\n", "PLANT", "STATUS", "CONF", "NAME")
	fmt.Fprintln(a.out, rule)
	for _, st := range statuses {
		fmt.Fprintf(a.out, "%-38s %s %-5.2f %s\n", st.PlantID, statusLabel(st.Status), st.Confidence, st.PlantName)
	}
	fmt.Fprintln(a.out)
	return nil
}

// ShowStatus prints one plant's status with its factors and recent history.
func (a *ReportAdapter) ShowStatus(ctx context.Context, plantID string, historyLimit int) error {
	st, err := a.query.GetPlantStatus(ctx, plantID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nPlant:      %s", st.PlantID)
	if st.PlantName != "" {
		fmt.Fprintf(a.out, " (%s)", st.PlantName)
	}
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Status:     %s\n", statusLabel(st.Status))
	fmt.Fprintf(a.out, "Severity:   %d calculated, %d effective\n", st.CalculatedSeverity, st.EffectiveSeverity)
	fmt.Fprintf(a.out, "Confidence: %.2f\n", st.Confidence)
	if st.OverrideReason != "" {
		fmt.Fprintf(a.out, "Override:   %s\n", st.OverrideReason)
	}
	fmt.Fprintf(a.out, "Since:      %s\n", st.ValidFrom)

	if len(st.Factors) > 0 {
		fmt.Fprintln(a.out, "\nFactors:")
		for _, f := range st.Factors {
			overdue := ""
			if f.DaysOverdue != nil {
				overdue = fmt.Sprintf(", %d days overdue", *f.DaysOverdue)
			}
			fmt.Fprintf(a.out, "  %-14s %s (severity %d, confidence %.2f%s)\n",
				f.FactorCode, f.FactorDate, f.Severity, f.Confidence, overdue)
		}
	}

	if historyLimit > 0 {
		windows, err := a.query.StatusHistory(ctx, plantID, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to load status history: %w", err)
		}
		fmt.Fprintln(a.out, "\nHistory:")
		for _, w := range windows {
			until := w.ValidTo
			if until == "" {
				until = "now"
			}
			fmt.Fprintf(a.out, "  %-10s %s → %s\n", w.Status, w.ValidFrom, until)
		}
	}
	fmt.Fprintln(a.out)
	return nil
}

// ListSchedule prints open schedule items.
func (a *ReportAdapter) ListSchedule(ctx context.Context, filters primary.ScheduleFilters) error {
	items, err := a.query.ListSchedule(ctx, filters)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Nothing scheduled")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-12s %-10s %-4s %s\n", "DATE", "TASK", "SEV", "PLANT")
	fmt.Fprintln(a.out, rule)
	for _, it := range items {
		name := it.PlantName
		if name == "" {
			name = it.PlantID
		}
		fmt.Fprintf(a.out, "%-12s %-10s %-4d %s\n", it.Date, it.Label, it.Severity, name)
	}
	fmt.Fprintln(a.out)
	return nil
}

func statusLabel(code string) string {
	padded := fmt.Sprintf("%-10s", code)
	switch code {
	case "urgent":
		return color.New(color.FgRed, color.Bold).Sprint(padded)
	case "warning":
		return color.New(color.FgYellow).Sprint(padded)
	case "attention":
		return color.New(color.FgCyan).Sprint(padded)
	case "healthy":
		return color.New(color.FgHiGreen).Sprint(padded)
	default:
		return padded
	}
}
