// Package run defines the per-execution context of the pipeline. A Run is
// created once per execution and passed to every stage, so all stages observe
// the same instant and calendar date.
package run

import (
	"time"

	"github.com/example/plantcare/internal/core/caldate"
)

// Trigger names what started a run.
type Trigger string

const (
	TriggerDaily      Trigger = "daily"
	TriggerManual     Trigger = "manual"
	TriggerActivity   Trigger = "activity"
	TriggerUserAction Trigger = "user_action"
)

// Run is one pipeline execution.
type Run struct {
	ID      string
	Trigger Trigger
	// Now is the instant the run started; Today is its calendar date in the
	// configured timezone.
	Now   time.Time
	Today time.Time
}

// New creates a run observing now in loc.
func New(id string, trigger Trigger, now time.Time, loc *time.Location) Run {
	return Run{
		ID:      id,
		Trigger: trigger,
		Now:     now,
		Today:   caldate.Of(now, loc),
	}
}

// Stats counts the units of work of a run. Completed counts finished stages.
type Stats struct {
	Started   int `json:"started"`
	Completed int `json:"completed"`
	Errors    int `json:"errors"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Started += o.Started
	s.Completed += o.Completed
	s.Errors += o.Errors
}
