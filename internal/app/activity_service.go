package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/factor"
	"github.com/example/plantcare/internal/core/run"
	"github.com/example/plantcare/internal/ctxutil"
	"github.com/example/plantcare/internal/logger"
	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/ports/secondary"
)

// ActivityServiceImpl implements the ActivityService interface.
type ActivityServiceImpl struct {
	plants     secondary.PlantRepository
	activities secondary.ActivityRepository
	scheduler  RecomputeScheduler
	clock      Clock
	log        *logger.Logger
}

// NewActivityService creates a new ActivityService with injected dependencies.
func NewActivityService(stores Stores, scheduler RecomputeScheduler, clock Clock, log *logger.Logger) *ActivityServiceImpl {
	return &ActivityServiceImpl{
		plants:     stores.Plants,
		activities: stores.Activities,
		scheduler:  scheduler,
		clock:      clock,
		log:        log,
	}
}

// SubmitActivity records an activity and schedules a recompute for its plant.
func (s *ActivityServiceImpl) SubmitActivity(ctx context.Context, req primary.SubmitActivityRequest) (*primary.SubmitActivityResponse, error) {
	req.PlantID = strings.TrimSpace(req.PlantID)
	req.ActivityType = strings.ToLower(strings.TrimSpace(req.ActivityType))

	if err := s.validate(req); err != nil {
		return nil, err
	}

	if _, err := s.plants.GetByID(ctx, req.PlantID); err != nil {
		return nil, fmt.Errorf("failed to validate plant: %w", err)
	}

	actor := req.UserID
	if actor == "" {
		actor = ctxutil.ActorFromContext(ctx)
	}
	record := &secondary.ActivityRecord{
		ID:           s.clock.NewID(),
		PlantID:      req.PlantID,
		ActivityKind: req.ActivityType,
		ActivityDate: req.ActivityDate,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Notes:        req.Notes,
		Result:       req.Result,
		ActorID:      actor,
	}
	if err := s.activities.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	s.scheduleRecompute(ctx, req.PlantID, req.ActivityType)

	return &primary.SubmitActivityResponse{
		Stats:      run.Stats{Started: 1, Completed: 1},
		ActivityID: record.ID,
		Activity:   req,
	}, nil
}

// scheduleRecompute defers a recompute for activity kinds that drive factors.
// The activity is already recorded, so a scheduling failure is only logged;
// the next batch run catches up.
func (s *ActivityServiceImpl) scheduleRecompute(ctx context.Context, plantID, activityKind string) {
	if _, err := factor.KindsForActivity(activityKind); err != nil {
		return
	}
	err := s.scheduler.Schedule(ctx, primary.RecomputeRequest{
		PlantID:      plantID,
		ActivityKind: activityKind,
		Trigger:      run.TriggerActivity,
	})
	if err != nil {
		s.log.Warn("failed to schedule recompute", "plant_id", plantID, "activity_kind", activityKind, "error", err)
	}
}

func (s *ActivityServiceImpl) validate(req primary.SubmitActivityRequest) error {
	if req.PlantID == "" {
		return apperr.Validation("plant_id is required")
	}
	switch req.ActivityType {
	case factor.ActivityWatering, factor.ActivityFertilizing:
	case "":
		return apperr.Validation("activity_type is required")
	default:
		return apperr.Validation("unsupported activity_type %q", req.ActivityType)
	}
	if req.ActivityDate == "" {
		return apperr.Validation("activity_date is required")
	}
	date, err := caldate.Parse(req.ActivityDate)
	if err != nil {
		return apperr.Validation("activity_date must be YYYY-MM-DD")
	}
	if date.After(s.clock.Today()) {
		return apperr.Validation("activity_date %s is in the future", req.ActivityDate)
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return apperr.Validation("quantity must not be negative")
	}
	return nil
}

// ListActivities lists a plant's activity history, oldest first.
func (s *ActivityServiceImpl) ListActivities(ctx context.Context, plantID string) ([]*primary.Activity, error) {
	if plantID == "" {
		return nil, apperr.Validation("plant_id is required")
	}
	records, err := s.activities.List(ctx, secondary.ActivityFilters{PlantID: plantID})
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	out := make([]*primary.Activity, 0, len(records))
	for _, r := range records {
		out = append(out, &primary.Activity{
			ID:           r.ID,
			PlantID:      r.PlantID,
			ActivityType: r.ActivityKind,
			ActivityDate: r.ActivityDate,
			Quantity:     r.Quantity,
			Unit:         r.Unit,
			Notes:        r.Notes,
			Result:       r.Result,
			ActorID:      r.ActorID,
		})
	}
	return out, nil
}
