package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/changeset"
	"github.com/example/plantcare/internal/ports/secondary"
)

// ChangesetApplier writes a changeset.
// This is the "Imperative Shell" of the pipeline: the only place its writes happen.
type ChangesetApplier interface {
	Apply(ctx context.Context, cs *changeset.Changeset) (*ApplyResult, error)
}

// ApplyResult reports writes that a concurrent recompute made redundant.
type ApplyResult struct {
	// SkippedActive counts active inserts that found their slot already taken
	// and patches of rows another run retired.
	SkippedActive int
	// SkippedAlerts counts alert creates that found an open alert already and
	// updates or resolves of alerts another run resolved.
	SkippedAlerts int
	// SupersededSchedule counts open schedule items another run inserted that
	// were closed to make room for this run's items.
	SupersededSchedule int
}

// Conflicts reports whether any write met a concurrent run's write. A nil
// result, from an empty changeset, has none.
func (r *ApplyResult) Conflicts() bool {
	return r != nil && (r.SkippedActive > 0 || r.SkippedAlerts > 0 || r.SupersededSchedule > 0)
}

// skipIfGone counts a write whose target row another run closed meanwhile.
func skipIfGone(err error, counter *int) error {
	if apperr.Is(err, apperr.KindNotFound) {
		*counter++
		return nil
	}
	return err
}

// DefaultChangesetApplier applies changesets through the secondary ports in a
// single transaction.
type DefaultChangesetApplier struct {
	stores Stores
	newID  func() string
}

// NewChangesetApplier creates a new DefaultChangesetApplier.
func NewChangesetApplier(stores Stores, newID func() string) *DefaultChangesetApplier {
	return &DefaultChangesetApplier{stores: stores, newID: newID}
}

// Apply writes every part of cs or nothing. Within a table, retirements and
// closes run before inserts so a replaced row frees its unique slot first.
func (a *DefaultChangesetApplier) Apply(ctx context.Context, cs *changeset.Changeset) (*ApplyResult, error) {
	result := &ApplyResult{}
	err := a.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		steps := []struct {
			name string
			fn   func(context.Context, *changeset.Changeset, *ApplyResult) error
		}{
			{"factors", a.applyFactors},
			{"contributions", a.applyContributions},
			{"statuses", a.applyStatuses},
			{"schedule", a.applySchedule},
			{"alerts", a.applyAlerts},
		}
		for _, step := range steps {
			if err := step.fn(ctx, cs, result); err != nil {
				return fmt.Errorf("failed to apply %s: %w", step.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *DefaultChangesetApplier) applyFactors(ctx context.Context, cs *changeset.Changeset, res *ApplyResult) error {
	runID := cs.Run.ID
	plan := cs.Factors

	history := make([]*secondary.FactorRecord, 0, len(plan.History))
	for _, h := range plan.History {
		history = append(history, &secondary.FactorRecord{
			ID:         h.ID,
			PlantID:    h.PlantID,
			FactorCode: string(h.Kind),
			FactorDate: caldate.Format(h.DueDate),
			Confidence: h.Confidence,
			Source:     string(h.Source),
			RunID:      runID,
		})
	}
	if err := a.stores.Factors.AppendHistory(ctx, history); err != nil {
		return err
	}

	if err := a.stores.Factors.RetireActive(ctx, plan.Retired, instant(cs.Run.Now)); err != nil {
		return err
	}

	for _, p := range plan.Patches {
		err := a.stores.Factors.PatchActive(ctx, &secondary.ActiveFactorRecord{
			ID:         p.ActiveID,
			PlantID:    p.Key.PlantID,
			FactorCode: string(p.Key.Kind),
			FactorDate: caldate.Format(p.DueDate),
			Confidence: p.Confidence,
			HistoryID:  p.HistoryID,
			RunID:      runID,
		})
		if err := skipIfGone(err, &res.SkippedActive); err != nil {
			return err
		}
	}

	inserts := make([]*secondary.ActiveFactorRecord, 0, len(plan.Inserts))
	for _, f := range plan.Inserts {
		inserts = append(inserts, &secondary.ActiveFactorRecord{
			ID:         f.ID,
			PlantID:    f.PlantID,
			FactorCode: string(f.Kind),
			FactorDate: caldate.Format(f.DueDate),
			Confidence: f.Confidence,
			HistoryID:  f.HistoryID,
			RunID:      runID,
		})
	}
	n, err := a.stores.Factors.InsertActive(ctx, inserts)
	if err != nil {
		return err
	}
	res.SkippedActive += len(inserts) - n
	return nil
}

func (a *DefaultChangesetApplier) applyContributions(ctx context.Context, cs *changeset.Changeset, res *ApplyResult) error {
	runID := cs.Run.ID
	plan := cs.Contributions

	history := make([]*secondary.ContributionRecord, 0, len(plan.History))
	for _, h := range plan.History {
		history = append(history, &secondary.ContributionRecord{
			ID:            h.ID,
			PlantFactorID: h.FactorID,
			PlantID:       h.PlantID,
			FactorCode:    string(h.Kind),
			Severity:      int(h.Severity),
			DaysOverdue:   h.DaysOverdue,
			RunID:         runID,
		})
	}
	if err := a.stores.Contributions.AppendHistory(ctx, history); err != nil {
		return err
	}

	if err := a.stores.Contributions.RetireActive(ctx, plan.Retired, instant(cs.Run.Now)); err != nil {
		return err
	}

	for _, p := range plan.Patches {
		err := a.stores.Contributions.PatchActive(ctx, &secondary.ActiveContributionRecord{
			ID:            p.ActiveID,
			PlantFactorID: p.FactorID,
			PlantID:       p.Key.PlantID,
			FactorCode:    string(p.Key.Kind),
			Severity:      int(p.Severity),
			DaysOverdue:   p.DaysOverdue,
			HistoryID:     p.HistoryID,
			RunID:         runID,
		})
		if err := skipIfGone(err, &res.SkippedActive); err != nil {
			return err
		}
	}

	inserts := make([]*secondary.ActiveContributionRecord, 0, len(plan.Inserts))
	for _, c := range plan.Inserts {
		inserts = append(inserts, &secondary.ActiveContributionRecord{
			ID:            c.ID,
			PlantFactorID: c.FactorID,
			PlantID:       c.PlantID,
			FactorCode:    string(c.Kind),
			Severity:      int(c.Severity),
			DaysOverdue:   c.DaysOverdue,
			HistoryID:     c.HistoryID,
			RunID:         runID,
		})
	}
	n, err := a.stores.Contributions.InsertActive(ctx, inserts)
	if err != nil {
		return err
	}
	res.SkippedActive += len(inserts) - n
	return nil
}

func (a *DefaultChangesetApplier) applyStatuses(ctx context.Context, cs *changeset.Changeset, _ *ApplyResult) error {
	today := caldate.Format(cs.Run.Today)
	for _, w := range cs.Statuses {
		if err := a.stores.Statuses.Supersede(ctx, w.PlantID, today); err != nil {
			return err
		}
		if err := a.stores.Statuses.Insert(ctx, &secondary.StatusRecord{
			ID:                 w.ID,
			PlantID:            w.PlantID,
			StatusCode:         w.Outcome.Label(),
			CalculatedSeverity: int(w.Outcome.Calculated),
			EffectiveSeverity:  int(w.Outcome.Effective),
			Confidence:         w.Confidence,
			OverrideReason:     w.Outcome.OverrideReason,
			ValidFrom:          today,
			RunID:              cs.Run.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (a *DefaultChangesetApplier) applySchedule(ctx context.Context, cs *changeset.Changeset, res *ApplyResult) error {
	diff := cs.Schedule
	today := caldate.Format(cs.Run.Today)
	if err := a.stores.Schedule.Close(ctx, diff.Closes, today); err != nil {
		return err
	}
	for _, u := range diff.SeverityUpdates {
		if err := a.stores.Schedule.UpdateSeverity(ctx, u.ItemID, int(u.Severity), cs.Run.ID); err != nil {
			return err
		}
	}
	inserts := make([]*secondary.ScheduleRecord, 0, len(diff.Inserts))
	for _, item := range diff.Inserts {
		inserts = append(inserts, &secondary.ScheduleRecord{
			ID:            item.ID,
			PlantID:       item.PlantID,
			PlantFactorID: item.FactorID,
			FactorCode:    string(item.Kind),
			ScheduleDate:  caldate.FormatPtr(item.Date),
			Label:         item.Label,
			Severity:      int(item.Severity),
			RunID:         cs.Run.ID,
		})
	}
	superseded, err := a.stores.Schedule.Insert(ctx, inserts, today)
	if err != nil {
		return err
	}
	res.SupersededSchedule += superseded
	return nil
}

func (a *DefaultChangesetApplier) applyAlerts(ctx context.Context, cs *changeset.Changeset, res *ApplyResult) error {
	now := instant(cs.Run.Now)
	for _, change := range cs.Alerts {
		d := change.Decision
		if d.Resolve != nil {
			err := a.stores.Alerts.Resolve(ctx, d.Resolve.AlertID, d.Resolve.Reason, now)
			if err := skipIfGone(err, &res.SkippedAlerts); err != nil {
				return err
			}
		}
		if d.Update != nil {
			err := a.stores.Alerts.UpdateSeverity(ctx, d.Update.AlertID, string(d.Update.Bucket), d.Update.Message, cs.Run.ID)
			if err := skipIfGone(err, &res.SkippedAlerts); err != nil {
				return err
			}
		}
		if d.Create != nil {
			created, err := a.stores.Alerts.Create(ctx, &secondary.AlertRecord{
				ID:         a.newID(),
				PlantID:    d.Create.PlantID,
				AlertType:  d.Create.Type,
				Category:   d.Create.Category,
				Severity:   string(d.Create.Bucket),
				Title:      d.Create.Title,
				Message:    d.Create.Message,
				TargetDate: caldate.Format(d.Create.TargetDate),
				DueDate:    caldate.FormatPtr(d.Create.DueDate),
				RunID:      cs.Run.ID,
			})
			if err != nil {
				return err
			}
			if !created {
				res.SkippedAlerts++
			}
		}
	}
	return nil
}

func instant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
