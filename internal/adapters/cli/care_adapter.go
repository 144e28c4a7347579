package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/plantcare/internal/ports/primary"
)

// CareAdapter translates activity and alert commands to their services.
type CareAdapter struct {
	activities primary.ActivityService
	alerts     primary.AlertService
	out        io.Writer
}

// NewCareAdapter creates a new CareAdapter.
func NewCareAdapter(activities primary.ActivityService, alerts primary.AlertService, out io.Writer) *CareAdapter {
	return &CareAdapter{
		activities: activities,
		alerts:     alerts,
		out:        out,
	}
}

// RecordActivity records a care activity.
func (a *CareAdapter) RecordActivity(ctx context.Context, req primary.SubmitActivityRequest) error {
	resp, err := a.activities.SubmitActivity(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Recorded %s for %s on %s (%s)\n",
		resp.Activity.ActivityType, resp.Activity.PlantID, resp.Activity.ActivityDate, resp.ActivityID)
	return nil
}

// ListAlerts lists alerts.
func (a *CareAdapter) ListAlerts(ctx context.Context, filters primary.AlertFilters) error {
	alerts, err := a.alerts.ListAlerts(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list alerts: %w", err)
	}

	if len(alerts) == 0 {
		fmt.Fprintln(a.out, "No alerts")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-38s %-8s %-10s %-12s %s\n", "ID", "SEVERITY", "STATE", "TARGET", "TITLE")
	fmt.Fprintln(a.out, rule)
	for _, al := range alerts {
		fmt.Fprintf(a.out, "%-38s %s %-10s %-12s %s\n",
			al.ID, bucketLabel(al.Severity), al.State, al.TargetDate, al.Title)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Snooze snoozes an alert.
func (a *CareAdapter) Snooze(ctx context.Context, alertID string, days int) error {
	al, err := a.alerts.SnoozeAlert(ctx, alertID, days)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Snoozed alert %s until %s\n", al.ID, al.SnoozeUntil)
	return nil
}

// Dismiss dismisses an alert until overrideDate.
func (a *CareAdapter) Dismiss(ctx context.Context, alertID, overrideDate string) error {
	al, err := a.alerts.DismissAlert(ctx, alertID, overrideDate)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Dismissed alert %s until %s\n", al.ID, al.SuppressUntil)
	return nil
}

// Done marks the watering behind an alert as done today.
func (a *CareAdapter) Done(ctx context.Context, alertID string) error {
	al, err := a.alerts.MarkAlertDone(ctx, alertID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Marked alert %s done for plant %s\n", al.ID, al.PlantID)
	return nil
}

// bucketLabel pads before colouring so columns stay aligned.
func bucketLabel(bucket string) string {
	padded := fmt.Sprintf("%-8s", bucket)
	switch bucket {
	case "HIGH":
		return color.New(color.FgRed, color.Bold).Sprint(padded)
	case "MEDIUM":
		return color.New(color.FgYellow).Sprint(padded)
	case "LOW":
		return color.New(color.FgCyan).Sprint(padded)
	default:
		return padded
	}
}
