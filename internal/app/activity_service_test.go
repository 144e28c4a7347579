package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/core/run"
	"github.com/example/plantcare/internal/ctxutil"
	"github.com/example/plantcare/internal/logger"
	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/ports/secondary"
)

func newTestActivityService(scheduler RecomputeScheduler) (*ActivityServiceImpl, *mockActivityRepository) {
	plants := newMockPlantRepository(&secondary.PlantRecord{ID: "PLANT-001", Name: "Kitchen Pothos", IsActive: true})
	activities := &mockActivityRepository{}
	stores := Stores{Plants: plants, Activities: activities}
	return NewActivityService(stores, scheduler, newTestClock("2025-01-10").Clock(), logger.NewNop()), activities
}

func quantity(q float64) *float64 { return &q }

func TestActivityService_SubmitActivity(t *testing.T) {
	scheduler := &recordingScheduler{}
	service, activities := newTestActivityService(scheduler)
	ctx := ctxutil.WithActorID(context.Background(), "user-42")

	req := primary.SubmitActivityRequest{
		PlantID:      "PLANT-001",
		ActivityType: "Watering",
		ActivityDate: "2025-01-10",
		Quantity:     quantity(250),
		Unit:         "ml",
	}
	resp, err := service.SubmitActivity(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, run.Stats{Started: 1, Completed: 1, Errors: 0}, resp.Stats)
	assert.Equal(t, "watering", resp.Activity.ActivityType)
	assert.Equal(t, "2025-01-10", resp.Activity.ActivityDate)
	assert.NotEmpty(t, resp.ActivityID)

	require.Len(t, activities.activities, 1)
	recorded := activities.activities[0]
	assert.Equal(t, resp.ActivityID, recorded.ID)
	assert.Equal(t, "watering", recorded.ActivityKind)
	assert.Equal(t, "user-42", recorded.ActorID)
	assert.Equal(t, 250.0, *recorded.Quantity)

	assert.Equal(t, []primary.RecomputeRequest{
		{PlantID: "PLANT-001", ActivityKind: "watering", Trigger: run.TriggerActivity},
	}, scheduler.recorded())
}

func TestActivityService_SubmitActivity_Validation(t *testing.T) {
	tests := []struct {
		name     string
		req      primary.SubmitActivityRequest
		wantKind apperr.Kind
		wantMsg  string
	}{
		{
			name:     "missing plant",
			req:      primary.SubmitActivityRequest{ActivityType: "watering", ActivityDate: "2025-01-10"},
			wantKind: apperr.KindValidation,
			wantMsg:  "plant_id is required",
		},
		{
			name:     "missing activity type",
			req:      primary.SubmitActivityRequest{PlantID: "PLANT-001", ActivityDate: "2025-01-10"},
			wantKind: apperr.KindValidation,
			wantMsg:  "activity_type is required",
		},
		{
			name:     "unsupported activity type",
			req:      primary.SubmitActivityRequest{PlantID: "PLANT-001", ActivityType: "pruning", ActivityDate: "2025-01-10"},
			wantKind: apperr.KindValidation,
			wantMsg:  "unsupported activity_type",
		},
		{
			name:     "missing date",
			req:      primary.SubmitActivityRequest{PlantID: "PLANT-001", ActivityType: "watering"},
			wantKind: apperr.KindValidation,
			wantMsg:  "activity_date is required",
		},
		{
			name:     "malformed date",
			req:      primary.SubmitActivityRequest{PlantID: "PLANT-001", ActivityType: "watering", ActivityDate: "10/01/2025"},
			wantKind: apperr.KindValidation,
			wantMsg:  "YYYY-MM-DD",
		},
		{
			name:     "future date",
			req:      primary.SubmitActivityRequest{PlantID: "PLANT-001", ActivityType: "watering", ActivityDate: "2025-01-11"},
			wantKind: apperr.KindValidation,
			wantMsg:  "in the future",
		},
		{
			name:     "negative quantity",
			req:      primary.SubmitActivityRequest{PlantID: "PLANT-001", ActivityType: "watering", ActivityDate: "2025-01-10", Quantity: quantity(-1)},
			wantKind: apperr.KindValidation,
			wantMsg:  "quantity",
		},
		{
			name:     "unknown plant",
			req:      primary.SubmitActivityRequest{PlantID: "PLANT-404", ActivityType: "watering", ActivityDate: "2025-01-10"},
			wantKind: apperr.KindNotFound,
			wantMsg:  "PLANT-404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler := &recordingScheduler{}
			service, activities := newTestActivityService(scheduler)

			_, err := service.SubmitActivity(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Empty(t, activities.activities)
			assert.Empty(t, scheduler.recorded())
		})
	}
}

func TestActivityService_SubmitActivity_FertilizingIsRecordedOnly(t *testing.T) {
	scheduler := &recordingScheduler{}
	service, activities := newTestActivityService(scheduler)

	_, err := service.SubmitActivity(context.Background(), primary.SubmitActivityRequest{
		PlantID:      "PLANT-001",
		ActivityType: "fertilizing",
		ActivityDate: "2025-01-09",
	})
	require.NoError(t, err)
	assert.Len(t, activities.activities, 1)
	assert.Empty(t, scheduler.recorded())
}

func TestActivityService_SubmitActivity_SchedulingFailureStillRecords(t *testing.T) {
	scheduler := &recordingScheduler{err: ErrQueueFull}
	service, activities := newTestActivityService(scheduler)

	resp, err := service.SubmitActivity(context.Background(), primary.SubmitActivityRequest{
		PlantID:      "PLANT-001",
		ActivityType: "watering",
		ActivityDate: "2025-01-10",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Stats.Completed)
	assert.Len(t, activities.activities, 1)
}

func TestActivityService_SubmitActivity_StoreFailure(t *testing.T) {
	service, activities := newTestActivityService(&recordingScheduler{})
	activities.createErr = errors.New("database is locked")

	_, err := service.SubmitActivity(context.Background(), primary.SubmitActivityRequest{
		PlantID:      "PLANT-001",
		ActivityType: "watering",
		ActivityDate: "2025-01-10",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestActivityService_ListActivities(t *testing.T) {
	service, _ := newTestActivityService(&recordingScheduler{})
	ctx := context.Background()

	for _, d := range []string{"2025-01-01", "2025-01-05"} {
		_, err := service.SubmitActivity(ctx, primary.SubmitActivityRequest{
			PlantID:      "PLANT-001",
			ActivityType: "watering",
			ActivityDate: d,
		})
		require.NoError(t, err)
	}

	list, err := service.ListActivities(ctx, "PLANT-001")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2025-01-01", list[0].ActivityDate)
	assert.Equal(t, "system", list[0].ActorID)

	_, err = service.ListActivities(ctx, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
