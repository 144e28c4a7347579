package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/core/alert"
	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/changeset"
	"github.com/example/plantcare/internal/core/contribution"
	"github.com/example/plantcare/internal/core/factor"
	"github.com/example/plantcare/internal/core/run"
	"github.com/example/plantcare/internal/core/schedule"
	"github.com/example/plantcare/internal/core/severity"
	"github.com/example/plantcare/internal/core/status"
	"github.com/example/plantcare/internal/ctxutil"
	"github.com/example/plantcare/internal/logger"
	"github.com/example/plantcare/internal/metrics"
	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/ports/secondary"
)

// Pipeline stages, in execution order. Used in errors, logs and metrics.
const (
	StageLoad         = "load"
	StageFactor       = "factor"
	StageContribution = "contribution"
	StageStatus       = "status"
	StageSchedule     = "schedule"
	StageAlert        = "alert"
	StagePersist      = "persist"
)

// PipelineServiceImpl implements the PipelineService interface.
type PipelineServiceImpl struct {
	stores  Stores
	applier ChangesetApplier
	clock   Clock
	metrics *metrics.PipelineMetrics
	log     *logger.Logger

	batchRunning atomic.Bool
}

// NewPipelineService creates a new PipelineService with injected dependencies.
// A nil applier applies changesets through stores.
func NewPipelineService(stores Stores, applier ChangesetApplier, clock Clock, m *metrics.PipelineMetrics, log *logger.Logger) *PipelineServiceImpl {
	if applier == nil {
		applier = NewChangesetApplier(stores, clock.NewID)
	}
	return &PipelineServiceImpl{
		stores:  stores,
		applier: applier,
		clock:   clock,
		metrics: m,
		log:     log,
	}
}

// scope selects the plants and factor kinds a run recomputes. An empty plantID
// is a batch over every active plant.
type scope struct {
	plantID string
	kinds   []factor.Kind
}

func (s scope) batch() bool { return s.plantID == "" }

func (s scope) includes(plantID string) bool { return s.batch() || s.plantID == plantID }

// RunBatch recomputes every active plant. Only one batch runs at a time.
func (s *PipelineServiceImpl) RunBatch(ctx context.Context, trigger run.Trigger) (*primary.RunResult, error) {
	if !s.batchRunning.CompareAndSwap(false, true) {
		return nil, primary.ErrBatchInProgress
	}
	defer s.batchRunning.Store(false)

	if trigger == "" {
		trigger = run.TriggerManual
	}
	return s.execute(ctx, run.New(s.clock.NewID(), trigger, s.clock.Now(), s.clock.Location), scope{kinds: factor.Kinds()})
}

// RecomputePlant recomputes the factors an activity kind affects for one
// plant. A missing, inactive or untyped plant, or an activity kind without
// factors, is reported as ErrPlantSkipped.
func (s *PipelineServiceImpl) RecomputePlant(ctx context.Context, req primary.RecomputeRequest) (*primary.RunResult, error) {
	kinds, err := factor.KindsForActivity(req.ActivityKind)
	if err != nil {
		s.metrics.RecordRun(string(req.Trigger), metrics.OutcomeSkipped, 0)
		return nil, fmt.Errorf("%w: %v", primary.ErrPlantSkipped, err)
	}

	plant, err := s.stores.Plants.GetByID(ctx, req.PlantID)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		s.metrics.RecordRun(string(req.Trigger), metrics.OutcomeSkipped, 0)
		return nil, fmt.Errorf("%w: plant %s not found", primary.ErrPlantSkipped, req.PlantID)
	case err != nil:
		return nil, fmt.Errorf("failed to load plant: %w", err)
	case !plant.IsActive:
		s.metrics.RecordRun(string(req.Trigger), metrics.OutcomeSkipped, 0)
		return nil, fmt.Errorf("%w: plant %s is inactive", primary.ErrPlantSkipped, req.PlantID)
	case plant.PlantTypeID == "":
		s.metrics.RecordRun(string(req.Trigger), metrics.OutcomeSkipped, 0)
		return nil, fmt.Errorf("%w: plant %s has no plant type", primary.ErrPlantSkipped, req.PlantID)
	}

	trigger := req.Trigger
	if trigger == "" {
		trigger = run.TriggerActivity
	}
	r := run.New(s.clock.NewID(), trigger, s.clock.Now(), s.clock.Location)
	return s.execute(ctx, r, scope{plantID: req.PlantID, kinds: kinds})
}

// ListRuns lists the most recent runs.
func (s *PipelineServiceImpl) ListRuns(ctx context.Context, limit int) ([]*primary.RunSummary, error) {
	records, err := s.stores.Runs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	out := make([]*primary.RunSummary, 0, len(records))
	for _, r := range records {
		out = append(out, &primary.RunSummary{
			ID:         r.ID,
			Trigger:    r.Trigger,
			PlantID:    r.PlantID,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			Stats:      run.Stats{Started: r.Started, Completed: r.Completed, Errors: r.Errors},
			Error:      r.Error,
		})
	}
	return out, nil
}

// execute runs every stage for r and records the run in the journal.
func (s *PipelineServiceImpl) execute(ctx context.Context, r run.Run, sc scope) (*primary.RunResult, error) {
	ctx = ctxutil.WithRunID(ctx, r.ID)
	log := s.log.With("run_id", r.ID, "trigger", string(r.Trigger))
	if !sc.batch() {
		log = log.With("plant_id", sc.plantID)
	}

	result := &primary.RunResult{
		RunID:   r.ID,
		Trigger: r.Trigger,
		Today:   caldate.Format(r.Today),
		Stats:   run.Stats{Started: 1},
	}

	if err := s.stores.Runs.Start(ctx, &secondary.RunRecord{
		ID:        r.ID,
		Trigger:   string(r.Trigger),
		PlantID:   sc.plantID,
		StartedAt: instant(r.Now),
	}); err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}
	log.Info("run started", "today", result.Today)

	runErr := s.runStages(ctx, r, sc, result, log)

	finished := s.clock.Now()
	record := &secondary.RunRecord{
		ID:         r.ID,
		FinishedAt: instant(finished),
		Started:    result.Stats.Started,
		Completed:  result.Stats.Completed,
		Errors:     result.Stats.Errors,
	}
	if runErr != nil {
		record.Error = runErr.Error()
	}
	// The journal is written outside the run's context so a cancelled run is
	// still recorded.
	if err := s.stores.Runs.Finish(context.WithoutCancel(ctx), record); err != nil {
		log.Error("failed to record run finish", "error", err)
	}

	duration := finished.Sub(r.Now)
	if runErr != nil {
		s.metrics.RecordRun(string(r.Trigger), metrics.OutcomeFailure, duration)
		log.Error("run failed", "stage", apperr.StageOf(runErr), "error", runErr, "stats", result.Stats)
		return result, runErr
	}
	s.metrics.RecordRun(string(r.Trigger), metrics.OutcomeSuccess, duration)
	log.Info("run completed", "stats", result.Stats, "changes", result.Changes, "skipped", len(result.Skipped))
	return result, nil
}

// runStages builds the changeset stage by stage and applies it. The first
// failing stage aborts the run.
func (s *PipelineServiceImpl) runStages(ctx context.Context, r run.Run, sc scope, result *primary.RunResult, log *logger.Logger) error {
	st := &stageState{run: r, scope: sc}
	cs := &changeset.Changeset{Run: r}

	stages := []struct {
		name string
		fn   func(context.Context, *stageState, *changeset.Changeset) error
	}{
		{StageLoad, s.load},
		{StageFactor, s.computeFactors},
		{StageContribution, s.computeContributions},
		{StageStatus, s.computeStatuses},
		{StageSchedule, s.computeSchedule},
		{StageAlert, s.computeAlerts},
		{StagePersist, s.persist},
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return apperr.Stage(stage.name, err)
		}
		if err := stage.fn(ctx, st, cs); err != nil {
			result.Stats.Errors++
			s.metrics.RecordStageError(stage.name)
			return apperr.Stage(stage.name, err)
		}
		result.Stats.Completed++
		log.Debug("stage completed", "stage", stage.name)
	}

	result.Skipped = st.skipped
	result.Changes = make(map[string]int)
	for _, c := range cs.Counts() {
		result.Changes[c.Table+"."+c.Op] = c.N
	}
	result.Conflicts = st.applied.Conflicts()
	if result.Conflicts {
		log.Info("concurrent recompute already wrote some records",
			"skipped_active", st.applied.SkippedActive, "skipped_alerts", st.applied.SkippedAlerts,
			"superseded_schedule", st.applied.SupersededSchedule)
	}
	return nil
}

// stageState carries the snapshot loaded for a run and the intermediate
// results stages hand to each other.
type stageState struct {
	run   run.Run
	scope scope

	plants     []*secondary.PlantRecord // active plants in scope
	types      map[string]*secondary.PlantTypeRecord
	weights    map[factor.Kind]float64
	categories map[string]string
	// events holds activity dates by plant and activity kind.
	events        map[string]map[string][]time.Time
	factors       []factor.Active
	contributions []contribution.Active
	statuses      map[string]*status.Current
	openSchedule  []schedule.Item
	openAlerts    map[string]*alert.Alert

	// contribsByPlant holds the planned active contributions, grouped once
	// for the status and alert stages.
	contribsByPlant map[string][]contribution.Active
	effective       map[string]severity.Level
	skipped         []string
	applied         *ApplyResult
}

func (s *PipelineServiceImpl) load(ctx context.Context, st *stageState, _ *changeset.Changeset) error {
	sc := st.scope
	today := st.run.Today

	plants, err := s.stores.Plants.List(ctx, secondary.PlantFilters{ID: sc.plantID, ActiveOnly: true})
	if err != nil {
		return err
	}
	st.plants = plants

	types, err := s.stores.Lookups.ListPlantTypes(ctx, true)
	if err != nil {
		return err
	}
	st.types = make(map[string]*secondary.PlantTypeRecord, len(types))
	for _, t := range types {
		st.types[t.ID] = t
	}

	weights, err := s.stores.Lookups.FactorWeights(ctx)
	if err != nil {
		return err
	}
	st.weights = make(map[factor.Kind]float64, len(weights))
	for code, w := range weights {
		if k, err := factor.ParseKind(code); err == nil {
			st.weights[k] = w
		}
	}

	if st.categories, err = s.stores.Lookups.FactorCategories(ctx); err != nil {
		return err
	}

	st.events = make(map[string]map[string][]time.Time)
	for _, k := range sc.kinds {
		calc, err := factor.CalculatorFor(k)
		if err != nil {
			return err
		}
		activities, err := s.stores.Activities.List(ctx, secondary.ActivityFilters{
			PlantID:      sc.plantID,
			ActivityKind: calc.ActivityKind(),
		})
		if err != nil {
			return err
		}
		for _, a := range activities {
			d, err := caldate.Parse(a.ActivityDate)
			if err != nil {
				return fmt.Errorf("activity %s: %w", a.ID, err)
			}
			if st.events[a.PlantID] == nil {
				st.events[a.PlantID] = make(map[string][]time.Time)
			}
			st.events[a.PlantID][a.ActivityKind] = append(st.events[a.PlantID][a.ActivityKind], d)
		}
	}

	if err := s.loadActive(ctx, st); err != nil {
		return err
	}

	currents, err := s.stores.Statuses.ListCurrent(ctx, secondary.StatusFilters{PlantID: sc.plantID})
	if err != nil {
		return err
	}
	st.statuses = make(map[string]*status.Current, len(currents))
	for _, c := range currents {
		st.statuses[c.PlantID] = &status.Current{
			ID:             c.ID,
			Calculated:     severity.Level(c.CalculatedSeverity),
			Effective:      severity.Level(c.EffectiveSeverity),
			Confidence:     c.Confidence,
			OverrideReason: c.OverrideReason,
		}
	}

	open, err := s.stores.Schedule.ListOpen(ctx, secondary.ScheduleFilters{PlantID: sc.plantID})
	if err != nil {
		return err
	}
	for _, o := range open {
		k, err := factor.ParseKind(o.FactorCode)
		if err != nil {
			// Items of unsupported kinds are left alone; the scope never builds them.
			continue
		}
		date, err := caldate.ParseOptional(o.ScheduleDate)
		if err != nil {
			return fmt.Errorf("schedule item %s: %w", o.ID, err)
		}
		st.openSchedule = append(st.openSchedule, schedule.Item{
			ID:       o.ID,
			PlantID:  o.PlantID,
			FactorID: o.PlantFactorID,
			Kind:     k,
			Date:     date,
			Label:    o.Label,
			Severity: severity.Level(o.Severity),
		})
	}

	alerts, err := s.stores.Alerts.List(ctx, secondary.AlertFilters{
		PlantID:   sc.plantID,
		AlertType: alert.TypeWateringDue,
		OpenOnly:  true,
	})
	if err != nil {
		return err
	}
	st.openAlerts = make(map[string]*alert.Alert, len(alerts))
	for _, a := range alerts {
		la, err := toLifecycleAlert(a)
		if err != nil {
			return err
		}
		st.openAlerts[a.PlantID] = la
	}

	// A dismissal in force pins the plant's active factors to the override date.
	for i, f := range st.factors {
		if a, ok := st.openAlerts[f.PlantID]; ok && a.DismissInForce(today) {
			st.factors[i].Pinned = true
		}
	}
	return nil
}

func (s *PipelineServiceImpl) loadActive(ctx context.Context, st *stageState) error {
	factors, err := s.stores.Factors.ListActive(ctx, secondary.FactorFilters{PlantID: st.scope.plantID})
	if err != nil {
		return err
	}
	for _, f := range factors {
		k, err := factor.ParseKind(f.FactorCode)
		if err != nil {
			continue
		}
		due, err := caldate.Parse(f.FactorDate)
		if err != nil {
			return fmt.Errorf("active factor %s: %w", f.ID, err)
		}
		st.factors = append(st.factors, factor.Active{
			ID:         f.ID,
			PlantID:    f.PlantID,
			Kind:       k,
			DueDate:    due,
			Confidence: f.Confidence,
			HistoryID:  f.HistoryID,
		})
	}

	contribs, err := s.stores.Contributions.ListActive(ctx, secondary.ContributionFilters{PlantID: st.scope.plantID})
	if err != nil {
		return err
	}
	for _, c := range contribs {
		k, err := factor.ParseKind(c.FactorCode)
		if err != nil {
			continue
		}
		st.contributions = append(st.contributions, contribution.Active{
			ID:          c.ID,
			FactorID:    c.PlantFactorID,
			PlantID:     c.PlantID,
			Kind:        k,
			Severity:    severity.Level(c.Severity),
			DaysOverdue: c.DaysOverdue,
			HistoryID:   c.HistoryID,
		})
	}
	return nil
}

func (s *PipelineServiceImpl) computeFactors(_ context.Context, st *stageState, cs *changeset.Changeset) error {
	var computed []factor.Record
	active := make(map[string]bool, len(st.plants))

	for _, p := range st.plants {
		active[p.ID] = true
		acquired, err := caldate.Parse(p.AcquisitionDate)
		if err != nil {
			return fmt.Errorf("plant %s: %w", p.ID, err)
		}
		pt, hasType := st.types[p.PlantTypeID]
		for _, k := range st.scope.kinds {
			calc, err := factor.CalculatorFor(k)
			if err != nil {
				return err
			}
			in := factor.PlantInput{
				PlantID:         p.ID,
				AcquisitionDate: acquired,
				HasType:         hasType,
				Events:          st.events[p.ID][calc.ActivityKind()],
			}
			if hasType {
				in.DefaultIntervalDays = pt.WateringIntervalDays
			}
			est, ok := calc.Estimate(in)
			if !ok {
				st.skipped = append(st.skipped, p.ID)
				continue
			}
			computed = append(computed, factor.Record{
				ID:         s.clock.NewID(),
				PlantID:    p.ID,
				Kind:       est.Kind,
				DueDate:    est.DueDate,
				Confidence: est.Confidence,
				Source:     factor.SourceSystem,
			})
		}
	}

	cs.Factors = factor.PlanActivation(computed, st.factors)
	if st.scope.batch() {
		// Plants deactivated since the last run lose their active factors.
		cs.Factors.Retire(func(a factor.Active) bool { return active[a.PlantID] })
	}
	return nil
}

func (s *PipelineServiceImpl) computeContributions(_ context.Context, st *stageState, cs *changeset.Changeset) error {
	var inputs []contribution.FactorInput
	for _, a := range cs.Factors.Active() {
		if !st.scope.includes(a.PlantID) {
			continue
		}
		due := a.DueDate
		inputs = append(inputs, contribution.FactorInput{
			FactorID: a.ID,
			PlantID:  a.PlantID,
			Kind:     a.Kind,
			DueDate:  &due,
		})
	}
	computed := contribution.Compute(inputs, st.run.Today, s.clock.NewID)
	cs.Contributions = contribution.Reconcile(computed, st.contributions, func(k factor.Key) bool {
		_, ok := cs.Factors.Lookup(k)
		return ok
	})
	return nil
}

func (s *PipelineServiceImpl) computeStatuses(_ context.Context, st *stageState, cs *changeset.Changeset) error {
	st.contribsByPlant = cs.Contributions.ByPlant()
	st.effective = make(map[string]severity.Level, len(st.plants))
	for _, p := range st.plants {
		var contribs []status.Contribution
		for _, c := range st.contribsByPlant[p.ID] {
			sc := status.Contribution{Kind: c.Kind, Severity: c.Severity}
			if f, ok := cs.Factors.Lookup(c.Key()); ok {
				sc.Confidence = f.Confidence
			}
			contribs = append(contribs, sc)
		}
		agg := status.Combine(contribs, st.weights)

		var sup status.Suppression
		if a, ok := st.openAlerts[p.ID]; ok {
			if a.IsSnoozed {
				sup.SnoozeUntil = a.SnoozeUntil
			}
			if a.IsDismissed {
				sup.SuppressUntil = a.SuppressUntil
			}
		}
		outcome := status.ApplyOverrides(agg.Severity, sup, st.run.Today)
		st.effective[p.ID] = outcome.Effective

		if status.NeedsNewWindow(st.statuses[p.ID], outcome, agg.Confidence) {
			cs.Statuses = append(cs.Statuses, changeset.StatusWindow{
				ID:         s.clock.NewID(),
				PlantID:    p.ID,
				Outcome:    outcome,
				Confidence: agg.Confidence,
			})
		}
	}
	return nil
}

func (s *PipelineServiceImpl) computeSchedule(_ context.Context, st *stageState, cs *changeset.Changeset) error {
	var inputs []schedule.FactorInput
	for _, a := range cs.Factors.Active() {
		if !st.scope.includes(a.PlantID) {
			continue
		}
		due := a.DueDate
		inputs = append(inputs, schedule.FactorInput{
			FactorID: a.ID,
			PlantID:  a.PlantID,
			Kind:     a.Kind,
			DueDate:  &due,
			Category: st.categories[string(a.Kind)],
		})
	}
	built := schedule.Build(inputs, st.run.Today, s.clock.NewID)
	cs.Schedule = schedule.Reconcile(st.openSchedule, built, st.scope.includes)
	return nil
}

func (s *PipelineServiceImpl) computeAlerts(_ context.Context, st *stageState, cs *changeset.Changeset) error {
	active := make(map[string]bool, len(st.plants))
	for _, p := range st.plants {
		active[p.ID] = true

		var watering *alert.WateringDetail
		key := factor.Key{PlantID: p.ID, Kind: factor.WateringDue}
		for _, c := range st.contribsByPlant[p.ID] {
			if c.Key() != key {
				continue
			}
			watering = &alert.WateringDetail{Severity: c.Severity, DaysOverdue: c.DaysOverdue}
			if f, ok := cs.Factors.Lookup(key); ok {
				due := f.DueDate
				watering.DueDate = &due
			}
		}

		d := alert.Evaluate(alert.EvaluateInput{
			PlantID:   p.ID,
			PlantName: p.Name,
			Effective: st.effective[p.ID],
			Watering:  watering,
			Open:      st.openAlerts[p.ID],
			Today:     st.run.Today,
		})
		switch d.Action {
		case alert.ActionNone, alert.ActionSuppressed:
			continue
		}
		cs.Alerts = append(cs.Alerts, changeset.AlertChange{PlantID: p.ID, Decision: d})
	}

	if st.scope.batch() {
		for plantID, a := range st.openAlerts {
			if active[plantID] {
				continue
			}
			cs.Alerts = append(cs.Alerts, changeset.AlertChange{
				PlantID: plantID,
				Decision: alert.Decision{
					Action:  alert.ActionResolve,
					Resolve: &alert.Resolution{AlertID: a.ID, Reason: alert.ReasonPlantInactive},
				},
			})
		}
	}
	return nil
}

func (s *PipelineServiceImpl) persist(ctx context.Context, st *stageState, cs *changeset.Changeset) error {
	if cs.IsEmpty() {
		return nil
	}
	applied, err := s.applier.Apply(ctx, cs)
	if err != nil {
		return err
	}
	st.applied = applied
	for _, c := range cs.Counts() {
		s.metrics.RecordChangeset(c.Table, c.Op, c.N)
	}
	return nil
}

// toLifecycleAlert converts a stored alert to its lifecycle view.
func toLifecycleAlert(a *secondary.AlertRecord) (*alert.Alert, error) {
	snoozeUntil, err := caldate.ParseOptional(a.SnoozeUntil)
	if err != nil {
		return nil, fmt.Errorf("alert %s snooze_until: %w", a.ID, err)
	}
	suppressUntil, err := caldate.ParseOptional(a.SuppressUntil)
	if err != nil {
		return nil, fmt.Errorf("alert %s suppress_until: %w", a.ID, err)
	}
	return &alert.Alert{
		ID:            a.ID,
		PlantID:       a.PlantID,
		Type:          a.AlertType,
		Bucket:        severity.AlertBucket(a.Severity),
		IsActive:      a.IsActive,
		IsSnoozed:     a.IsSnoozed,
		IsDismissed:   a.IsDismissed,
		SnoozeUntil:   snoozeUntil,
		SuppressUntil: suppressUntil,
	}, nil
}

// IsSkip reports whether err only means a recompute had nothing to do.
func IsSkip(err error) bool {
	return errors.Is(err, primary.ErrPlantSkipped)
}
