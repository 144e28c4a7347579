// Package severity maps elapsed time past a due date to the four-tier neglect
// scale used by contributions, statuses, schedule items and alerts.
package severity

import (
	"time"

	"github.com/example/plantcare/internal/core/caldate"
)

// Level is a severity tier in [Healthy, Urgent].
type Level int

const (
	Healthy   Level = 0
	Attention Level = 1
	Warning   Level = 2
	Urgent    Level = 3
)

// Status labels, stored in status_history.status_code.
const (
	LabelHealthy   = "healthy"
	LabelAttention = "attention"
	LabelWarning   = "warning"
	LabelUrgent    = "urgent"
)

// FromElapsed maps days elapsed past due to a level. Defined for every int:
//
//	<= 0 -> Healthy, 1-2 -> Attention, 3-6 -> Warning, >= 7 -> Urgent
func FromElapsed(days int) Level {
	switch {
	case days <= 0:
		return Healthy
	case days <= 2:
		return Attention
	case days <= 6:
		return Warning
	default:
		return Urgent
	}
}

// FromOptional is FromElapsed for an elapsed value that may be unknown.
// Unknown maps to Healthy.
func FromOptional(days *int) Level {
	if days == nil {
		return Healthy
	}
	return FromElapsed(*days)
}

// Clamp forces l into [Healthy, Urgent].
func (l Level) Clamp() Level {
	if l < Healthy {
		return Healthy
	}
	if l > Urgent {
		return Urgent
	}
	return l
}

// Label returns the status label for l. Out-of-range values are clamped first.
func (l Level) Label() string {
	switch l.Clamp() {
	case Attention:
		return LabelAttention
	case Warning:
		return LabelWarning
	case Urgent:
		return LabelUrgent
	default:
		return LabelHealthy
	}
}

// Min returns the lower of two levels.
func Min(a, b Level) Level {
	if a < b {
		return a
	}
	return b
}

// AlertBucket is the user-facing severity of an alert.
type AlertBucket string

const (
	BucketLow    AlertBucket = "LOW"
	BucketMedium AlertBucket = "MEDIUM"
	BucketHigh   AlertBucket = "HIGH"
)

// Bucket maps a level to an alert bucket. Healthy has no bucket.
func Bucket(l Level) (AlertBucket, bool) {
	switch l.Clamp() {
	case Attention:
		return BucketLow, true
	case Warning:
		return BucketMedium, true
	case Urgent:
		return BucketHigh, true
	default:
		return "", false
	}
}

// DaysOverdue returns today minus due in whole calendar days. Negative means
// not yet due.
func DaysOverdue(today, due time.Time) int {
	return caldate.DaysBetween(due, today)
}

// DaysOverdueOptional is DaysOverdue for an optional due date.
func DaysOverdueOptional(today time.Time, due *time.Time) *int {
	if due == nil {
		return nil
	}
	d := DaysOverdue(today, *due)
	return &d
}
