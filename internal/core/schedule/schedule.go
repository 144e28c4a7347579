// Package schedule projects active factors into user-facing schedule items and
// diffs them against the open items already persisted.
package schedule

import (
	"sort"
	"time"

	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/factor"
	"github.com/example/plantcare/internal/core/severity"
)

// FactorInput is an active factor joined to its category label.
type FactorInput struct {
	FactorID string
	PlantID  string
	Kind     factor.Kind
	DueDate  *time.Time
	Category string
}

// Item is a schedule entry. Severity decays with elapsed time as of today and
// ignores the factor's confidence.
type Item struct {
	ID       string
	PlantID  string
	FactorID string
	Kind     factor.Kind
	Date     *time.Time
	Label    string
	Severity severity.Level
}

// Key returns the plant and kind the item belongs to.
func (i Item) Key() factor.Key { return factor.Key{PlantID: i.PlantID, Kind: i.Kind} }

// Build emits one item per factor.
func Build(factors []FactorInput, today time.Time, newID func() string) []Item {
	items := make([]Item, 0, len(factors))
	for _, f := range factors {
		items = append(items, Item{
			ID:       newID(),
			PlantID:  f.PlantID,
			FactorID: f.FactorID,
			Kind:     f.Kind,
			Date:     f.DueDate,
			Label:    f.Category,
			Severity: severity.FromOptional(severity.DaysOverdueOptional(today, f.DueDate)),
		})
	}
	return items
}

// SeverityUpdate changes the severity of an open item in place.
type SeverityUpdate struct {
	ItemID   string
	Severity severity.Level
}

// Diff is the set of writes that brings open items in line with built ones.
type Diff struct {
	Inserts         []Item
	SeverityUpdates []SeverityUpdate
	// Closes are open item IDs to end as of today.
	Closes []string
}

// IsEmpty reports whether the diff has no writes.
func (d Diff) IsEmpty() bool {
	return len(d.Inserts) == 0 && len(d.SeverityUpdates) == 0 && len(d.Closes) == 0
}

// Reconcile compares built items with the open items of the plants in scope.
// Unchanged items produce nothing; a severity-only change is an in-place
// update; any other change closes the old item and inserts the new one. Open
// items in scope with no built counterpart are closed.
func Reconcile(open, built []Item, inScope func(plantID string) bool) Diff {
	var d Diff
	byKey := make(map[factor.Key]Item, len(open))
	for _, o := range open {
		if !inScope(o.PlantID) {
			continue
		}
		if dup, ok := byKey[o.Key()]; ok {
			// Two open items for one key can only come from a lost race; keep one.
			d.Closes = append(d.Closes, dup.ID)
		}
		byKey[o.Key()] = o
	}

	seen := make(map[factor.Key]bool, len(built))
	for _, b := range built {
		seen[b.Key()] = true
		o, ok := byKey[b.Key()]
		switch {
		case !ok:
			d.Inserts = append(d.Inserts, b)
		case o.FactorID != b.FactorID || o.Label != b.Label || !sameDate(o.Date, b.Date):
			d.Closes = append(d.Closes, o.ID)
			d.Inserts = append(d.Inserts, b)
		case o.Severity != b.Severity:
			d.SeverityUpdates = append(d.SeverityUpdates, SeverityUpdate{ItemID: o.ID, Severity: b.Severity})
		}
	}

	var stale []string
	for k, o := range byKey {
		if !seen[k] {
			stale = append(stale, o.ID)
		}
	}
	sort.Strings(stale)
	d.Closes = append(d.Closes, stale...)
	return d
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return caldate.Normalize(*a).Equal(caldate.Normalize(*b))
}
