package primary

import "context"

// QueryService defines the primary port for reading derived state.
type QueryService interface {
	// GetPlantStatus returns a plant's current status with its contributions.
	GetPlantStatus(ctx context.Context, plantID string) (*PlantStatus, error)

	// ListStatuses returns the current status of every plant that has one.
	ListStatuses(ctx context.Context) ([]*PlantStatus, error)

	// StatusHistory returns a plant's status windows, newest first.
	StatusHistory(ctx context.Context, plantID string, limit int) ([]*StatusWindow, error)

	// ListSchedule returns open schedule items.
	ListSchedule(ctx context.Context, filters ScheduleFilters) ([]*ScheduleItem, error)
}

// PlantStatus is the current status of a plant.
type PlantStatus struct {
	PlantID            string          `json:"plant_id"`
	PlantName          string          `json:"plant_name,omitempty"`
	Status             string          `json:"status"`
	CalculatedSeverity int             `json:"calculated_severity"`
	EffectiveSeverity  int             `json:"effective_severity"`
	Confidence         float64         `json:"confidence_score"`
	OverrideReason     string          `json:"override_reason,omitempty"`
	ValidFrom          string          `json:"valid_from"`
	Factors            []*FactorDetail `json:"factors,omitempty"`
}

// FactorDetail is one active factor of a plant with its contribution.
type FactorDetail struct {
	FactorCode  string  `json:"factor_code"`
	FactorDate  string  `json:"factor_date"`
	Confidence  float64 `json:"confidence_score"`
	Severity    int     `json:"severity"`
	DaysOverdue *int    `json:"days_overdue,omitempty"`
}

// StatusWindow is one validity window of a plant's status.
type StatusWindow struct {
	Status             string `json:"status"`
	CalculatedSeverity int    `json:"calculated_severity"`
	EffectiveSeverity  int    `json:"effective_severity"`
	OverrideReason     string `json:"override_reason,omitempty"`
	ValidFrom          string `json:"valid_from"`
	ValidTo            string `json:"valid_to,omitempty"`
	RunID              string `json:"run_id"`
}

// ScheduleFilters contains filter options for listing the schedule.
type ScheduleFilters struct {
	PlantID string
	Before  string
}

// ScheduleItem is an open schedule entry.
type ScheduleItem struct {
	ID         string `json:"id"`
	PlantID    string `json:"plant_id"`
	PlantName  string `json:"plant_name,omitempty"`
	FactorCode string `json:"factor_code"`
	Date       string `json:"schedule_date"`
	Label      string `json:"schedule_label"`
	Severity   int    `json:"schedule_severity"`
}
