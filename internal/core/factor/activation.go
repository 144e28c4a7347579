package factor

import (
	"sort"
	"time"

	"github.com/example/plantcare/internal/core/caldate"
)

// Source records who produced a factor value.
type Source string

const (
	SourceSystem       Source = "system"
	SourceUserOverride Source = "user_override"
)

// Record is one computed factor value. Every record goes to history.
type Record struct {
	ID         string
	PlantID    string
	Kind       Kind
	DueDate    time.Time
	Confidence float64
	Source     Source
}

// Key returns the active slot of r.
func (r Record) Key() Key { return Key{PlantID: r.PlantID, Kind: r.Kind} }

// Active is the current active factor for a key.
type Active struct {
	ID         string
	PlantID    string
	Kind       Kind
	DueDate    time.Time
	Confidence float64
	HistoryID  string
	// Pinned is set while a user dismissal is in force. The active date then
	// holds the user's override date and computed values do not replace it.
	Pinned bool
}

// Key returns the active slot of a.
func (a Active) Key() Key { return Key{PlantID: a.PlantID, Kind: a.Kind} }

// Patch updates the value of an existing active row in place.
type Patch struct {
	ActiveID   string
	HistoryID  string
	Key        Key
	DueDate    time.Time
	Confidence float64
}

// ActivationPlan is the set of writes needed to record a batch of computed
// factors.
type ActivationPlan struct {
	History []Record
	Inserts []Active
	Patches []Patch
	Retired []string

	// active is the view of active rows after the plan is applied.
	active map[Key]Active
}

// PlanActivation appends every computed record to history and activates it
// only when no active row exists for its key. When an active row exists and
// holds a different value, it is patched, unless it is pinned by a user
// override. current is the active set loaded before the run.
func PlanActivation(computed []Record, current []Active) ActivationPlan {
	plan := ActivationPlan{active: make(map[Key]Active, len(current)+len(computed))}
	for _, a := range current {
		plan.active[a.Key()] = a
	}

	for _, rec := range computed {
		rec.DueDate = caldate.Normalize(rec.DueDate)
		plan.History = append(plan.History, rec)

		existing, ok := plan.active[rec.Key()]
		if !ok {
			a := Active{
				ID:         rec.ID,
				PlantID:    rec.PlantID,
				Kind:       rec.Kind,
				DueDate:    rec.DueDate,
				Confidence: rec.Confidence,
				HistoryID:  rec.ID,
			}
			plan.Inserts = append(plan.Inserts, a)
			plan.active[rec.Key()] = a
			continue
		}

		if existing.Pinned || sameValue(existing, rec) {
			continue
		}

		plan.Patches = append(plan.Patches, Patch{
			ActiveID:   existing.ID,
			HistoryID:  rec.ID,
			Key:        rec.Key(),
			DueDate:    rec.DueDate,
			Confidence: rec.Confidence,
		})
		existing.DueDate = rec.DueDate
		existing.Confidence = rec.Confidence
		existing.HistoryID = rec.ID
		plan.active[rec.Key()] = existing
	}

	return plan
}

// Retire deactivates every active row for which keep returns false.
func (p *ActivationPlan) Retire(keep func(Active) bool) {
	for _, a := range p.Active() {
		if keep(a) {
			continue
		}
		p.Retired = append(p.Retired, a.ID)
		delete(p.active, a.Key())
	}
}

// Active returns the active view after the plan, ordered by plant then kind.
func (p ActivationPlan) Active() []Active {
	out := make([]Active, 0, len(p.active))
	for _, a := range p.active {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlantID != out[j].PlantID {
			return out[i].PlantID < out[j].PlantID
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Lookup returns the active row for k after the plan.
func (p ActivationPlan) Lookup(k Key) (Active, bool) {
	a, ok := p.active[k]
	return a, ok
}

func sameValue(a Active, r Record) bool {
	const eps = 1e-9
	diff := a.Confidence - r.Confidence
	return caldate.Normalize(a.DueDate).Equal(r.DueDate) && diff < eps && diff > -eps
}
