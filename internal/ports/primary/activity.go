package primary

import (
	"context"

	"github.com/example/plantcare/internal/core/run"
)

// ActivityService defines the primary port for recording care activities.
type ActivityService interface {
	// SubmitActivity validates and records an activity, then schedules an
	// incremental recompute for the plant. It does not wait for the recompute.
	SubmitActivity(ctx context.Context, req SubmitActivityRequest) (*SubmitActivityResponse, error)

	// ListActivities lists a plant's activity history, oldest first.
	ListActivities(ctx context.Context, plantID string) ([]*Activity, error)
}

// SubmitActivityRequest contains parameters for recording an activity.
type SubmitActivityRequest struct {
	PlantID      string   `json:"plant_id"`
	ActivityType string   `json:"activity_type"`
	ActivityDate string   `json:"activity_date"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Unit         string   `json:"unit,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Result       string   `json:"result,omitempty"`
	UserID       string   `json:"user_id,omitempty"`
}

// SubmitActivityResponse is the stats of the submission plus the echoed input.
type SubmitActivityResponse struct {
	Stats      run.Stats             `json:"stats"`
	ActivityID string                `json:"activity_id"`
	Activity   SubmitActivityRequest `json:"activity"`
}

// Activity is a recorded activity event.
type Activity struct {
	ID           string   `json:"id"`
	PlantID      string   `json:"plant_id"`
	ActivityType string   `json:"activity_type"`
	ActivityDate string   `json:"activity_date"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Unit         string   `json:"unit,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Result       string   `json:"result,omitempty"`
	ActorID      string   `json:"actor_id,omitempty"`
}
