// Package alert contains the pure business logic for the alert lifecycle:
// deciding what happens to a plant's watering alert on each run and guarding
// the user actions snooze, dismiss and done.
package alert

import (
	"fmt"
	"time"

	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/severity"
)

// Alert types and categories.
const (
	TypeWateringDue = "WATERING_DUE"
	CategoryCare    = "CARE"
)

// Resolve reasons and dismiss types.
const (
	ReasonStatusImproved     = "status_improved"
	ReasonSuppressionExpired = "suppression_expired"
	ReasonPlantInactive      = "plant_inactive"
	ReasonMarkedDone         = "MARKED_DONE"

	DismissUserOverride = "USER_OVERRIDE"
)

// State is the lifecycle state of an alert.
type State string

const (
	StateNone      State = "none"
	StateActive    State = "active"
	StateSnoozed   State = "snoozed"
	StateDismissed State = "dismissed"
	StateResolved  State = "resolved"
)

// Alert is the lifecycle view of a persisted alert.
type Alert struct {
	ID            string
	PlantID       string
	Type          string
	Bucket        severity.AlertBucket
	IsActive      bool
	IsSnoozed     bool
	IsDismissed   bool
	SnoozeUntil   *time.Time
	SuppressUntil *time.Time
}

// StateOf derives the lifecycle state from an alert's flags. A nil alert is
// StateNone.
func StateOf(a *Alert) State {
	switch {
	case a == nil:
		return StateNone
	case !a.IsActive:
		return StateResolved
	case a.IsDismissed:
		return StateDismissed
	case a.IsSnoozed:
		return StateSnoozed
	default:
		return StateActive
	}
}

// SnoozeInForce reports whether the alert is snoozed and today <= snooze_until.
func (a Alert) SnoozeInForce(today time.Time) bool {
	return a.IsActive && a.IsSnoozed && a.SnoozeUntil != nil &&
		!caldate.Normalize(today).After(caldate.Normalize(*a.SnoozeUntil))
}

// DismissInForce reports whether the alert is dismissed and today <= suppress_until.
func (a Alert) DismissInForce(today time.Time) bool {
	return a.IsActive && a.IsDismissed && a.SuppressUntil != nil &&
		!caldate.Normalize(today).After(caldate.Normalize(*a.SuppressUntil))
}

// Title returns the alert title for a plant.
func Title(plantName string) string {
	if plantName == "" {
		plantName = "Plant"
	}
	return fmt.Sprintf("%s needs watering", plantName)
}

// WateringMessage describes how far a plant is from its watering due date.
func WateringMessage(daysOverdue *int) string {
	if daysOverdue == nil {
		return "No watering data available"
	}
	d := *daysOverdue
	switch {
	case d == 0:
		return "Watering due today"
	case d == -1:
		return "Next watering due in 1 day"
	case d < 0:
		return fmt.Sprintf("Next watering due in %d days", -d)
	case d == 1:
		return "Watering overdue by 1 day"
	case severity.FromElapsed(d) < severity.Urgent:
		return fmt.Sprintf("Watering overdue by %d days", d)
	default:
		return fmt.Sprintf("Critically overdue by %d days - water immediately!", d)
	}
}
