package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/plantcare/internal/adapters/sqlite"
	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/ports/secondary"
)

func TestAlertRepository_CreateIsUniquePerPlantAndType(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAlertRepository(db)
	ctx := context.Background()

	alert := &secondary.AlertRecord{
		ID: "ALERT-1", PlantID: "PLANT-001", AlertType: "WATERING_DUE", Category: "CARE",
		Severity: "LOW", Title: "Fern needs watering", Message: "Water today", DueDate: "2025-01-08", RunID: "RUN-1",
	}
	created, err := repo.Create(ctx, alert)
	require.NoError(t, err)
	assert.True(t, created)

	dup := *alert
	dup.ID = "ALERT-2"
	created, err = repo.Create(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, repo.Resolve(ctx, "ALERT-1", "status_improved", "2025-01-09T00:00:00Z"))

	created, err = repo.Create(ctx, &dup)
	require.NoError(t, err)
	assert.True(t, created)

	open, err := repo.List(ctx, secondary.AlertFilters{PlantID: "PLANT-001", OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "ALERT-2", open[0].ID)

	all, err := repo.List(ctx, secondary.AlertFilters{PlantID: "PLANT-001"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAlertRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAlertRepository(db)
	ctx := context.Background()
	seedAlert(t, db, "ALERT-1", "PLANT-001", "LOW")

	require.NoError(t, repo.UpdateSeverity(ctx, "ALERT-1", "HIGH", "Critically overdue", "RUN-2"))
	require.NoError(t, repo.MarkSnoozed(ctx, "ALERT-1", 2, "2025-06-03"))
	require.NoError(t, repo.MarkDismissed(ctx, "ALERT-1", "2025-06-01T10:00:00Z", "2025-06-10"))

	got, err := repo.GetByID(ctx, "ALERT-1")
	require.NoError(t, err)
	assert.Equal(t, "HIGH", got.Severity)
	assert.Equal(t, "Critically overdue", got.Message)
	assert.True(t, got.IsSnoozed)
	assert.Equal(t, 2, got.SnoozeDays)
	assert.Equal(t, "2025-06-03", got.SnoozeUntil)
	assert.True(t, got.IsDismissed)
	assert.Equal(t, "USER_OVERRIDE", got.DismissType)
	assert.Equal(t, "2025-06-10", got.SuppressUntil)
	assert.True(t, got.IsActive)

	require.NoError(t, repo.Resolve(ctx, "ALERT-1", "MARKED_DONE", "2025-06-02T00:00:00Z"))
	got, err = repo.GetByID(ctx, "ALERT-1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "MARKED_DONE", got.ResolveReason)

	// resolved alerts cannot be changed
	err = repo.MarkSnoozed(ctx, "ALERT-1", 1, "2025-06-03")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = repo.GetByID(ctx, "ALERT-404")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestStatusRepository_Windows(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewStatusRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &secondary.StatusRecord{
		ID: "ST-1", PlantID: "PLANT-001", StatusCode: "healthy", ValidFrom: "2025-01-05T00:00:00Z", RunID: "RUN-1",
	}))
	require.NoError(t, repo.Supersede(ctx, "PLANT-001", "2025-01-10T00:00:00Z"))
	require.NoError(t, repo.Insert(ctx, &secondary.StatusRecord{
		ID: "ST-2", PlantID: "PLANT-001", StatusCode: "attention", CalculatedSeverity: 1, EffectiveSeverity: 1,
		Confidence: 0.1, ValidFrom: "2025-01-10T00:00:00Z", RunID: "RUN-2",
	}))

	// a second current window for the same plant violates the partial index
	err := repo.Insert(ctx, &secondary.StatusRecord{
		ID: "ST-3", PlantID: "PLANT-001", StatusCode: "healthy", ValidFrom: "2025-01-10T00:00:00Z", RunID: "RUN-2",
	})
	assert.Error(t, err)

	current, err := repo.ListCurrent(ctx, secondary.StatusFilters{PlantID: "PLANT-001"})
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "ST-2", current[0].ID)
	assert.True(t, current[0].IsCurrent)

	history, err := repo.History(ctx, "PLANT-001", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "ST-2", history[0].ID)
	assert.Equal(t, "2025-01-10T00:00:00Z", history[1].ValidTo)
	assert.False(t, history[1].IsCurrent)
}

func TestScheduleRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewScheduleRepository(db)
	ctx := context.Background()

	n, err := repo.Insert(ctx, []*secondary.ScheduleRecord{
		{ID: "SCH-1", PlantID: "PLANT-001", PlantFactorID: "FH-1", FactorCode: "watering_due", ScheduleDate: "2025-01-08", Label: "WATERING", Severity: 1, RunID: "RUN-1"},
		{ID: "SCH-2", PlantID: "PLANT-002", PlantFactorID: "FH-2", FactorCode: "watering_due", ScheduleDate: "2025-01-20", Label: "WATERING", RunID: "RUN-1"},
		{ID: "SCH-3", PlantID: "PLANT-003", PlantFactorID: "FH-3", FactorCode: "watering_due", Label: "WATERING", RunID: "RUN-1"},
	}, "2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	open, err := repo.ListOpen(ctx, secondary.ScheduleFilters{})
	require.NoError(t, err)
	require.Len(t, open, 3)
	assert.Equal(t, "SCH-1", open[0].ID)
	assert.Equal(t, "SCH-3", open[2].ID)
	assert.Equal(t, "", open[2].ScheduleDate)

	before, err := repo.ListOpen(ctx, secondary.ScheduleFilters{Before: "2025-01-10"})
	require.NoError(t, err)
	require.Len(t, before, 1)

	require.NoError(t, repo.UpdateSeverity(ctx, "SCH-1", 2, "RUN-2"))
	require.NoError(t, repo.Close(ctx, []string{"SCH-2", "SCH-3"}, "2025-01-11"))

	open, err = repo.ListOpen(ctx, secondary.ScheduleFilters{})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, 2, open[0].Severity)
	assert.Equal(t, "RUN-2", open[0].RunID)
}

func TestScheduleRepository_InsertSupersedesOpenItem(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewScheduleRepository(db)
	ctx := context.Background()

	_, err := repo.Insert(ctx, []*secondary.ScheduleRecord{
		{ID: "SCH-1", PlantID: "PLANT-001", PlantFactorID: "FH-1", FactorCode: "watering_due", ScheduleDate: "2025-01-08", Label: "WATERING", RunID: "RUN-1"},
	}, "2025-01-10")
	require.NoError(t, err)

	// A second run that planned against the same snapshot inserts for the same key.
	n, err := repo.Insert(ctx, []*secondary.ScheduleRecord{
		{ID: "SCH-2", PlantID: "PLANT-001", PlantFactorID: "FH-2", FactorCode: "watering_due", ScheduleDate: "2025-01-17", Label: "WATERING", RunID: "RUN-2"},
	}, "2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	open, err := repo.ListOpen(ctx, secondary.ScheduleFilters{PlantID: "PLANT-001"})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "SCH-2", open[0].ID)

	var endDate string
	require.NoError(t, db.QueryRow("SELECT end_date FROM schedule WHERE id = 'SCH-1'").Scan(&endDate))
	assert.Equal(t, "2025-01-10", endDate)
}

func TestRunRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewRunRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Start(ctx, &secondary.RunRecord{ID: "RUN-1", Trigger: "daily", StartedAt: "2025-01-10T06:00:00Z"}))
	require.NoError(t, repo.Start(ctx, &secondary.RunRecord{ID: "RUN-2", Trigger: "activity", PlantID: "PLANT-001", StartedAt: "2025-01-10T07:00:00Z"}))
	require.NoError(t, repo.Finish(ctx, &secondary.RunRecord{ID: "RUN-1", FinishedAt: "2025-01-10T06:00:01Z", Started: 3, Completed: 2, Errors: 1}))

	err := repo.Start(ctx, &secondary.RunRecord{ID: "RUN-3", Trigger: "hourly", StartedAt: "2025-01-10T08:00:00Z"})
	assert.Error(t, err, "unknown trigger violates the check constraint")

	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "RUN-2", runs[0].ID)
	assert.Equal(t, "PLANT-001", runs[0].PlantID)
	assert.Equal(t, "", runs[0].FinishedAt)
	assert.Equal(t, 3, runs[1].Started)
	assert.Equal(t, 2, runs[1].Completed)
	assert.Equal(t, 1, runs[1].Errors)
}
