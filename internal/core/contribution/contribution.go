// Package contribution turns active factors into severity contributions as of
// a run's date, and reconciles them against the active contribution set.
package contribution

import (
	"sort"
	"time"

	"github.com/example/plantcare/internal/core/factor"
	"github.com/example/plantcare/internal/core/severity"
)

// FactorInput is an active factor as seen by the contribution stage.
type FactorInput struct {
	FactorID string
	PlantID  string
	Kind     factor.Kind
	DueDate  *time.Time
}

// Record is one computed contribution. Every record goes to history.
type Record struct {
	ID          string
	FactorID    string
	PlantID     string
	Kind        factor.Kind
	Severity    severity.Level
	DaysOverdue *int
}

// Key returns the active slot of r.
func (r Record) Key() factor.Key { return factor.Key{PlantID: r.PlantID, Kind: r.Kind} }

// Compute derives one contribution per factor. An unknown due date yields an
// unknown elapsed value and Healthy.
func Compute(factors []FactorInput, today time.Time, newID func() string) []Record {
	out := make([]Record, 0, len(factors))
	for _, f := range factors {
		overdue := severity.DaysOverdueOptional(today, f.DueDate)
		out = append(out, Record{
			ID:          newID(),
			FactorID:    f.FactorID,
			PlantID:     f.PlantID,
			Kind:        f.Kind,
			Severity:    severity.FromOptional(overdue),
			DaysOverdue: overdue,
		})
	}
	return out
}

// Active is the current active contribution for a key.
type Active struct {
	ID          string
	FactorID    string
	PlantID     string
	Kind        factor.Kind
	Severity    severity.Level
	DaysOverdue *int
	HistoryID   string
}

// Key returns the active slot of a.
func (a Active) Key() factor.Key { return factor.Key{PlantID: a.PlantID, Kind: a.Kind} }

// Patch updates the value of an existing active contribution in place.
type Patch struct {
	ActiveID    string
	HistoryID   string
	FactorID    string
	Key         factor.Key
	Severity    severity.Level
	DaysOverdue *int
}

// Plan is the set of writes needed to record a batch of contributions.
type Plan struct {
	History []Record
	Inserts []Active
	Patches []Patch
	Retired []string

	active map[factor.Key]Active
}

// Reconcile merges computed contributions into the current active set using
// replace-by-code: a computed contribution replaces the active one with the
// same plant and kind (inserting when absent), and any current active
// contribution whose key is not live is retired. live reports whether an
// active factor backs a key after the factor stage.
func Reconcile(computed []Record, current []Active, live func(factor.Key) bool) Plan {
	plan := Plan{active: make(map[factor.Key]Active, len(current)+len(computed))}
	for _, a := range current {
		plan.active[a.Key()] = a
	}

	for _, rec := range computed {
		plan.History = append(plan.History, rec)

		existing, ok := plan.active[rec.Key()]
		if !ok {
			a := Active{
				ID:          rec.ID,
				FactorID:    rec.FactorID,
				PlantID:     rec.PlantID,
				Kind:        rec.Kind,
				Severity:    rec.Severity,
				DaysOverdue: rec.DaysOverdue,
				HistoryID:   rec.ID,
			}
			plan.Inserts = append(plan.Inserts, a)
			plan.active[rec.Key()] = a
			continue
		}

		if existing.FactorID == rec.FactorID && existing.Severity == rec.Severity &&
			sameDays(existing.DaysOverdue, rec.DaysOverdue) {
			continue
		}

		plan.Patches = append(plan.Patches, Patch{
			ActiveID:    existing.ID,
			HistoryID:   rec.ID,
			FactorID:    rec.FactorID,
			Key:         rec.Key(),
			Severity:    rec.Severity,
			DaysOverdue: rec.DaysOverdue,
		})
		existing.FactorID = rec.FactorID
		existing.Severity = rec.Severity
		existing.DaysOverdue = rec.DaysOverdue
		existing.HistoryID = rec.ID
		plan.active[rec.Key()] = existing
	}

	for _, a := range current {
		if live(a.Key()) {
			continue
		}
		if cur, ok := plan.active[a.Key()]; ok && cur.ID == a.ID {
			plan.Retired = append(plan.Retired, a.ID)
			delete(plan.active, a.Key())
		}
	}

	return plan
}

// ByPlant groups the active contributions after the plan by plant, each
// group ordered by kind.
func (p Plan) ByPlant() map[string][]Active {
	out := make(map[string][]Active)
	for _, a := range p.active {
		out[a.PlantID] = append(out[a.PlantID], a)
	}
	for _, group := range out {
		sort.Slice(group, func(i, j int) bool { return group[i].Kind < group[j].Kind })
	}
	return out
}

func sameDays(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
