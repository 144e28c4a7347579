package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/plantcare/internal/adapters/sqlite"
	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/ports/secondary"
)

func TestFactorRepository_ActiveLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewFactorRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AppendHistory(ctx, []*secondary.FactorRecord{
		{ID: "FH-1", PlantID: "PLANT-001", FactorCode: "watering_due", FactorDate: "2025-01-08", Confidence: 0.1, RunID: "RUN-1"},
	}))

	n, err := repo.InsertActive(ctx, []*secondary.ActiveFactorRecord{
		{ID: "FH-1", PlantID: "PLANT-001", FactorCode: "watering_due", FactorDate: "2025-01-08", Confidence: 0.1, HistoryID: "FH-1", RunID: "RUN-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// a second active row for the same key is skipped
	n, err = repo.InsertActive(ctx, []*secondary.ActiveFactorRecord{
		{ID: "FH-2", PlantID: "PLANT-001", FactorCode: "watering_due", FactorDate: "2025-01-09", HistoryID: "FH-2", RunID: "RUN-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, repo.PatchActive(ctx, &secondary.ActiveFactorRecord{
		ID: "FH-1", FactorDate: "2025-01-12", Confidence: 0.3, HistoryID: "FH-3", RunID: "RUN-3",
	}))

	active, err := repo.ListActive(ctx, secondary.FactorFilters{PlantID: "PLANT-001"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "2025-01-12", active[0].FactorDate)
	assert.Equal(t, "FH-3", active[0].HistoryID)
	assert.Equal(t, 0.3, active[0].Confidence)

	require.NoError(t, repo.RetireActive(ctx, []string{"FH-1"}, "2025-01-13T00:00:00Z"))
	active, err = repo.ListActive(ctx, secondary.FactorFilters{PlantID: "PLANT-001"})
	require.NoError(t, err)
	assert.Empty(t, active)

	// once retired, the key can be activated again
	n, err = repo.InsertActive(ctx, []*secondary.ActiveFactorRecord{
		{ID: "FH-4", PlantID: "PLANT-001", FactorCode: "watering_due", HistoryID: "FH-4", RunID: "RUN-4"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = repo.PatchActive(ctx, &secondary.ActiveFactorRecord{ID: "FH-1", HistoryID: "x", RunID: "x"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "retired row: %v", err)
}

func TestFactorRepository_ListHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewFactorRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AppendHistory(ctx, []*secondary.FactorRecord{
		{ID: "FH-1", PlantID: "PLANT-001", FactorCode: "watering_due", FactorDate: "2025-01-08", RunID: "RUN-1"},
		{ID: "FH-2", PlantID: "PLANT-001", FactorCode: "watering_due", FactorDate: "2025-01-20", Source: "user_override", RunID: "RUN-2"},
		{ID: "FH-3", PlantID: "PLANT-002", FactorCode: "watering_due", RunID: "RUN-2"},
	}))

	history, err := repo.ListHistory(ctx, secondary.FactorFilters{PlantID: "PLANT-001"})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "FH-2", history[0].ID)
	assert.Equal(t, "user_override", history[0].Source)
	assert.Equal(t, "system", history[1].Source)

	limited, err := repo.ListHistory(ctx, secondary.FactorFilters{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	undated, err := repo.ListHistory(ctx, secondary.FactorFilters{PlantID: "PLANT-002"})
	require.NoError(t, err)
	require.Len(t, undated, 1)
	assert.Equal(t, "", undated[0].FactorDate)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	tx := sqlite.NewTransactor(db)
	repo := sqlite.NewFactorRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := repo.AppendHistory(ctx, []*secondary.FactorRecord{
			{ID: "FH-1", PlantID: "PLANT-001", FactorCode: "watering_due", RunID: "RUN-1"},
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	history, err := repo.ListHistory(ctx, secondary.FactorFilters{})
	require.NoError(t, err)
	assert.Empty(t, history)

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		// nested calls join the outer transaction
		return tx.WithinTx(ctx, func(ctx context.Context) error {
			return repo.AppendHistory(ctx, []*secondary.FactorRecord{
				{ID: "FH-2", PlantID: "PLANT-001", FactorCode: "watering_due", RunID: "RUN-2"},
			})
		})
	})
	require.NoError(t, err)

	history, err = repo.ListHistory(ctx, secondary.FactorFilters{})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestContributionRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewContributionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AppendHistory(ctx, []*secondary.ContributionRecord{
		{ID: "CH-1", PlantFactorID: "FH-1", PlantID: "PLANT-001", FactorCode: "watering_due", Severity: 1, DaysOverdue: intp(2), RunID: "RUN-1"},
	}))
	n, err := repo.InsertActive(ctx, []*secondary.ActiveContributionRecord{
		{ID: "CH-1", PlantFactorID: "FH-1", PlantID: "PLANT-001", FactorCode: "watering_due", Severity: 1, DaysOverdue: intp(2), HistoryID: "CH-1", RunID: "RUN-1"},
		{ID: "CH-2", PlantFactorID: "FH-2", PlantID: "PLANT-002", FactorCode: "watering_due", Severity: 0, HistoryID: "CH-2", RunID: "RUN-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, repo.PatchActive(ctx, &secondary.ActiveContributionRecord{
		ID: "CH-1", PlantFactorID: "FH-1", Severity: 3, DaysOverdue: intp(9), HistoryID: "CH-3", RunID: "RUN-2",
	}))

	active, err := repo.ListActive(ctx, secondary.ContributionFilters{})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 3, active[0].Severity)
	require.NotNil(t, active[0].DaysOverdue)
	assert.Equal(t, 9, *active[0].DaysOverdue)
	assert.Nil(t, active[1].DaysOverdue)

	require.NoError(t, repo.RetireActive(ctx, []string{"CH-2"}, "2025-01-11T00:00:00Z"))
	active, err = repo.ListActive(ctx, secondary.ContributionFilters{PlantID: "PLANT-002"})
	require.NoError(t, err)
	assert.Empty(t, active)
}
