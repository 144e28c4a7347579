package alert

import (
	"fmt"
	"time"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/core/caldate"
)

// Snooze bounds in days.
const (
	MinSnoozeDays = 1
	MaxSnoozeDays = 3
)

// Sentinel errors carried by failed guards. Match with errors.Is.
var (
	ErrInvalidSnoozeDays   = apperr.New(apperr.KindValidation, "invalid snooze days")
	ErrAlreadySnoozed      = apperr.New(apperr.KindConflict, "alert already snoozed")
	ErrInvalidOverrideDate = apperr.New(apperr.KindValidation, "invalid override date")
	ErrAlertResolved       = apperr.New(apperr.KindConflict, "alert is resolved")
	ErrAlertDismissed      = apperr.New(apperr.KindConflict, "alert is dismissed")
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	// Sentinel is the error class of a failed guard.
	Sentinel *apperr.Error
}

// Error converts the guard result to an error if not allowed. The error keeps
// the sentinel's kind and matches it with errors.Is.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Sentinel == nil {
		return fmt.Errorf("%s", r.Reason)
	}
	return &apperr.Error{Kind: r.Sentinel.Kind, Message: r.Reason, Err: r.Sentinel}
}

func deny(sentinel *apperr.Error, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...), Sentinel: sentinel}
}

// SnoozeContext provides context for snooze guards.
type SnoozeContext struct {
	AlertID     string
	Days        int
	IsActive    bool
	IsSnoozed   bool
	IsDismissed bool
}

// CanSnooze evaluates whether an alert can be snoozed.
// Rules:
// - Days must be within [MinSnoozeDays, MaxSnoozeDays]
// - Alert must not be resolved
// - Alert may be snoozed only once in its lifetime
// - Dismissed alerts cannot be snoozed
func CanSnooze(ctx SnoozeContext) GuardResult {
	if ctx.Days < MinSnoozeDays || ctx.Days > MaxSnoozeDays {
		return deny(ErrInvalidSnoozeDays, "Snooze days must be between %d and %d", MinSnoozeDays, MaxSnoozeDays)
	}
	if !ctx.IsActive {
		return deny(ErrAlertResolved, "alert %s is resolved and cannot be snoozed", ctx.AlertID)
	}
	if ctx.IsSnoozed {
		return deny(ErrAlreadySnoozed, "This alert has already been snoozed. Please water the plant or dismiss with a new date.")
	}
	if ctx.IsDismissed {
		return deny(ErrAlertDismissed, "alert %s is dismissed and cannot be snoozed", ctx.AlertID)
	}
	return GuardResult{Allowed: true}
}

// SnoozeUntil returns the last day a snooze started today stays in force.
func SnoozeUntil(today time.Time, days int) time.Time {
	return caldate.AddDays(today, days)
}

// DismissContext provides context for dismiss guards.
type DismissContext struct {
	AlertID      string
	OverrideDate time.Time
	Today        time.Time
	IsActive     bool
}

// CanDismiss evaluates whether an alert can be dismissed until OverrideDate.
// Rules:
// - Alert must not be resolved
// - Override date must be strictly after today
func CanDismiss(ctx DismissContext) GuardResult {
	if !ctx.IsActive {
		return deny(ErrAlertResolved, "alert %s is resolved and cannot be dismissed", ctx.AlertID)
	}
	if !caldate.Normalize(ctx.OverrideDate).After(caldate.Normalize(ctx.Today)) {
		return deny(ErrInvalidOverrideDate, "Override date must be in the future")
	}
	return GuardResult{Allowed: true}
}

// MarkDoneContext provides context for mark-done guards.
type MarkDoneContext struct {
	AlertID  string
	IsActive bool
}

// CanMarkDone evaluates whether an alert can be marked done.
// Rules:
// - Alert must not be resolved
func CanMarkDone(ctx MarkDoneContext) GuardResult {
	if !ctx.IsActive {
		return deny(ErrAlertResolved, "alert %s is already resolved", ctx.AlertID)
	}
	return GuardResult{Allowed: true}
}
