package primary

import "context"

// AlertService defines the primary port for user actions on alerts.
type AlertService interface {
	// ListAlerts lists alerts with optional filters.
	ListAlerts(ctx context.Context, filters AlertFilters) ([]*Alert, error)

	// SnoozeAlert snoozes an alert for 1-3 days. Allowed once per alert.
	SnoozeAlert(ctx context.Context, alertID string, days int) (*Alert, error)

	// DismissAlert suppresses an alert until overrideDate and moves the
	// watering due date to it.
	DismissAlert(ctx context.Context, alertID, overrideDate string) (*Alert, error)

	// MarkAlertDone records the watering as done today and resolves the alert.
	MarkAlertDone(ctx context.Context, alertID string) (*Alert, error)
}

// AlertFilters contains filter options for listing alerts.
type AlertFilters struct {
	PlantID     string
	IncludeDone bool
	Limit       int
}

// Alert is an alert as presented to users.
type Alert struct {
	ID            string `json:"id"`
	PlantID       string `json:"plant_id"`
	Type          string `json:"alert_type"`
	Category      string `json:"alert_category"`
	Severity      string `json:"severity"`
	Title         string `json:"title"`
	Message       string `json:"message"`
	TargetDate    string `json:"target_date,omitempty"`
	State         string `json:"state"`
	SnoozeUntil   string `json:"snooze_until,omitempty"`
	SuppressUntil string `json:"suppress_until,omitempty"`
	ResolvedAt    string `json:"resolved_at,omitempty"`
	ResolveReason string `json:"resolve_reason,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}
