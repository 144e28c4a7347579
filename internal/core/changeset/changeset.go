// Package changeset describes, as data, every write one pipeline run makes.
// Orchestrators build a Changeset from pure stage outputs; the shell applies
// it in a single transaction.
package changeset

import (
	"github.com/example/plantcare/internal/core/alert"
	"github.com/example/plantcare/internal/core/contribution"
	"github.com/example/plantcare/internal/core/factor"
	"github.com/example/plantcare/internal/core/run"
	"github.com/example/plantcare/internal/core/schedule"
	"github.com/example/plantcare/internal/core/status"
)

// StatusWindow is a new current status row for a plant. The plant's previous
// current row, if any, is superseded as of the run's date.
type StatusWindow struct {
	ID         string
	PlantID    string
	Outcome    status.Outcome
	Confidence float64
}

// AlertChange is an alert decision for one plant.
type AlertChange struct {
	PlantID  string
	Decision alert.Decision
}

// Changeset is the complete set of writes for one run.
type Changeset struct {
	Run           run.Run
	Factors       factor.ActivationPlan
	Contributions contribution.Plan
	Statuses      []StatusWindow
	Schedule      schedule.Diff
	Alerts        []AlertChange
}

// Count is the number of records written to one table by one operation.
type Count struct {
	Table string
	Op    string
	N     int
}

// Counts summarizes the changeset per table and operation. Zero counts are
// omitted.
func (c *Changeset) Counts() []Count {
	var creates, updates, resolves int
	for _, a := range c.Alerts {
		if a.Decision.Create != nil {
			creates++
		}
		if a.Decision.Update != nil {
			updates++
		}
		if a.Decision.Resolve != nil {
			resolves++
		}
	}

	all := []Count{
		{"factor_history", "insert", len(c.Factors.History)},
		{"factor_active", "insert", len(c.Factors.Inserts)},
		{"factor_active", "patch", len(c.Factors.Patches)},
		{"factor_active", "retire", len(c.Factors.Retired)},
		{"contribution_history", "insert", len(c.Contributions.History)},
		{"contribution_active", "insert", len(c.Contributions.Inserts)},
		{"contribution_active", "patch", len(c.Contributions.Patches)},
		{"contribution_active", "retire", len(c.Contributions.Retired)},
		{"status_history", "insert", len(c.Statuses)},
		{"schedule", "insert", len(c.Schedule.Inserts)},
		{"schedule", "update", len(c.Schedule.SeverityUpdates)},
		{"schedule", "close", len(c.Schedule.Closes)},
		{"alerts", "insert", creates},
		{"alerts", "update", updates},
		{"alerts", "resolve", resolves},
	}

	out := make([]Count, 0, len(all))
	for _, n := range all {
		if n.N > 0 {
			out = append(out, n)
		}
	}
	return out
}

// IsEmpty reports whether the changeset writes nothing.
func (c *Changeset) IsEmpty() bool {
	return len(c.Counts()) == 0
}
