package app

import (
	"context"
	"fmt"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/core/alert"
	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/factor"
	"github.com/example/plantcare/internal/core/run"
	"github.com/example/plantcare/internal/ctxutil"
	"github.com/example/plantcare/internal/logger"
	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/ports/secondary"
)

// overrideConfidence is the confidence of a factor date set by the user.
const overrideConfidence = 1.0

// AlertServiceImpl implements the AlertService interface.
type AlertServiceImpl struct {
	stores    Stores
	scheduler RecomputeScheduler
	clock     Clock
	log       *logger.Logger
}

// NewAlertService creates a new AlertService with injected dependencies.
func NewAlertService(stores Stores, scheduler RecomputeScheduler, clock Clock, log *logger.Logger) *AlertServiceImpl {
	return &AlertServiceImpl{
		stores:    stores,
		scheduler: scheduler,
		clock:     clock,
		log:       log,
	}
}

// ListAlerts lists alerts, open ones only unless IncludeDone is set.
func (s *AlertServiceImpl) ListAlerts(ctx context.Context, filters primary.AlertFilters) ([]*primary.Alert, error) {
	records, err := s.stores.Alerts.List(ctx, secondary.AlertFilters{
		PlantID:  filters.PlantID,
		OpenOnly: !filters.IncludeDone,
		Limit:    filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	out := make([]*primary.Alert, 0, len(records))
	for _, r := range records {
		out = append(out, recordToAlert(r))
	}
	return out, nil
}

// SnoozeAlert snoozes an alert for days days, starting today.
func (s *AlertServiceImpl) SnoozeAlert(ctx context.Context, alertID string, days int) (*primary.Alert, error) {
	record, err := s.stores.Alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	guard := alert.CanSnooze(alert.SnoozeContext{
		AlertID:     record.ID,
		Days:        days,
		IsActive:    record.IsActive,
		IsSnoozed:   record.IsSnoozed,
		IsDismissed: record.IsDismissed,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	until := alert.SnoozeUntil(s.clock.Today(), days)
	if err := s.stores.Alerts.MarkSnoozed(ctx, record.ID, days, caldate.Format(until)); err != nil {
		return nil, fmt.Errorf("failed to snooze alert: %w", err)
	}
	s.log.Info("alert snoozed", "alert_id", record.ID, "plant_id", record.PlantID,
		"until", caldate.Format(until), "actor", ctxutil.ActorFromContext(ctx))

	return s.afterAction(ctx, record)
}

// DismissAlert suppresses an alert until overrideDate and moves the plant's
// watering due date to it.
func (s *AlertServiceImpl) DismissAlert(ctx context.Context, alertID, overrideDate string) (*primary.Alert, error) {
	date, err := caldate.Parse(overrideDate)
	if err != nil {
		return nil, apperr.Validation("override_date must be YYYY-MM-DD")
	}

	record, err := s.stores.Alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	guard := alert.CanDismiss(alert.DismissContext{
		AlertID:      record.ID,
		OverrideDate: date,
		Today:        s.clock.Today(),
		IsActive:     record.IsActive,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	due := caldate.Format(date)
	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.stores.Alerts.MarkDismissed(ctx, record.ID, instant(s.clock.Now()), due); err != nil {
			return fmt.Errorf("failed to dismiss alert: %w", err)
		}
		return s.overrideWateringDue(ctx, record.PlantID, due)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("alert dismissed", "alert_id", record.ID, "plant_id", record.PlantID,
		"until", due, "actor", ctxutil.ActorFromContext(ctx))

	return s.afterAction(ctx, record)
}

// overrideWateringDue records a user override of the plant's watering due
// date in history and points the active factor at it.
func (s *AlertServiceImpl) overrideWateringDue(ctx context.Context, plantID, due string) error {
	code := string(factor.WateringDue)
	runID := ctxutil.RunIDFromContext(ctx)
	if runID == "" {
		runID = string(run.TriggerUserAction)
	}
	history := &secondary.FactorRecord{
		ID:         s.clock.NewID(),
		PlantID:    plantID,
		FactorCode: code,
		FactorDate: due,
		Confidence: overrideConfidence,
		Source:     string(factor.SourceUserOverride),
		RunID:      runID,
	}
	if err := s.stores.Factors.AppendHistory(ctx, []*secondary.FactorRecord{history}); err != nil {
		return fmt.Errorf("failed to record factor override: %w", err)
	}

	active, err := s.stores.Factors.ListActive(ctx, secondary.FactorFilters{PlantID: plantID, FactorCode: code})
	if err != nil {
		return fmt.Errorf("failed to load active factor: %w", err)
	}
	record := &secondary.ActiveFactorRecord{
		PlantID:    plantID,
		FactorCode: code,
		FactorDate: due,
		Confidence: overrideConfidence,
		HistoryID:  history.ID,
		RunID:      history.RunID,
	}
	if len(active) > 0 {
		record.ID = active[0].ID
		if err := s.stores.Factors.PatchActive(ctx, record); err != nil {
			return fmt.Errorf("failed to override active factor: %w", err)
		}
		return nil
	}
	record.ID = history.ID
	if _, err := s.stores.Factors.InsertActive(ctx, []*secondary.ActiveFactorRecord{record}); err != nil {
		return fmt.Errorf("failed to activate factor override: %w", err)
	}
	return nil
}

// MarkAlertDone records the plant as watered today and resolves the alert.
func (s *AlertServiceImpl) MarkAlertDone(ctx context.Context, alertID string) (*primary.Alert, error) {
	record, err := s.stores.Alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	guard := alert.CanMarkDone(alert.MarkDoneContext{AlertID: record.ID, IsActive: record.IsActive})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.stores.Activities.Create(ctx, &secondary.ActivityRecord{
			ID:           s.clock.NewID(),
			PlantID:      record.PlantID,
			ActivityKind: factor.ActivityWatering,
			ActivityDate: caldate.Format(s.clock.Today()),
			Notes:        "Marked done from alert",
			ActorID:      ctxutil.ActorFromContext(ctx),
		}); err != nil {
			return fmt.Errorf("failed to record watering: %w", err)
		}
		if err := s.stores.Alerts.Resolve(ctx, record.ID, alert.ReasonMarkedDone, instant(s.clock.Now())); err != nil {
			return fmt.Errorf("failed to resolve alert: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("alert marked done", "alert_id", record.ID, "plant_id", record.PlantID,
		"actor", ctxutil.ActorFromContext(ctx))

	return s.afterAction(ctx, record)
}

// afterAction schedules the plant's recompute and returns the alert as
// stored after the action.
func (s *AlertServiceImpl) afterAction(ctx context.Context, record *secondary.AlertRecord) (*primary.Alert, error) {
	err := s.scheduler.Schedule(ctx, primary.RecomputeRequest{
		PlantID:      record.PlantID,
		ActivityKind: factor.ActivityWatering,
		Trigger:      run.TriggerUserAction,
	})
	if err != nil {
		s.log.Warn("failed to schedule recompute", "plant_id", record.PlantID, "error", err)
	}

	updated, err := s.stores.Alerts.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alert: %w", err)
	}
	return recordToAlert(updated), nil
}

func recordToAlert(r *secondary.AlertRecord) *primary.Alert {
	state := alert.StateOf(&alert.Alert{
		IsActive:    r.IsActive,
		IsSnoozed:   r.IsSnoozed,
		IsDismissed: r.IsDismissed,
	})
	return &primary.Alert{
		ID:            r.ID,
		PlantID:       r.PlantID,
		Type:          r.AlertType,
		Category:      r.Category,
		Severity:      r.Severity,
		Title:         r.Title,
		Message:       r.Message,
		TargetDate:    r.TargetDate,
		State:         string(state),
		SnoozeUntil:   r.SnoozeUntil,
		SuppressUntil: r.SuppressUntil,
		ResolvedAt:    r.ResolvedAt,
		ResolveReason: r.ResolveReason,
		CreatedAt:     r.CreatedAt,
	}
}
