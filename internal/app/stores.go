// Package app contains the application layer: service implementations, the
// pipeline orchestrator and the changeset applier.
package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/ports/secondary"
)

// Stores bundles the secondary ports the services drive.
type Stores struct {
	Tx            secondary.Transactor
	Plants        secondary.PlantRepository
	Lookups       secondary.LookupRepository
	Activities    secondary.ActivityRepository
	Factors       secondary.FactorRepository
	Contributions secondary.ContributionRepository
	Statuses      secondary.StatusRepository
	Schedule      secondary.ScheduleRepository
	Alerts        secondary.AlertRepository
	Runs          secondary.RunRepository
}

// Clock supplies the current instant, the timezone calendar dates are taken
// in, and new record IDs.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
	NewID    func() string
}

// SystemClock returns a Clock on the wall clock with UUID record IDs.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Location: loc, NewID: uuid.NewString}
}

// Today returns the current calendar date in the clock's timezone.
func (c Clock) Today() time.Time {
	return caldate.Of(c.Now(), c.Location)
}
