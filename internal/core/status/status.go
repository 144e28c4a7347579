// Package status aggregates a plant's active contributions into one overall
// severity, layers user suppressions on top and decides when a new validity
// window has to be written.
package status

import (
	"math"
	"time"

	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/factor"
	"github.com/example/plantcare/internal/core/severity"
)

// Contribution is one active contribution joined to its factor's confidence.
type Contribution struct {
	Kind       factor.Kind
	Severity   severity.Level
	Confidence float64
}

// Aggregate is the weighted combination of a plant's contributions.
type Aggregate struct {
	Severity   severity.Level
	Confidence float64
}

// Combine computes round(sum(severity*weight) / sum(weight)), clamped to the
// severity range. No contributions, or a zero weight sum, is Healthy. Kinds
// missing from weights count with weight zero. Rounding is half away from
// zero.
func Combine(contribs []Contribution, weights map[factor.Kind]float64) Aggregate {
	var sumW, sumSW, sumCW float64
	for _, c := range contribs {
		w := weights[c.Kind]
		if w <= 0 {
			continue
		}
		sumW += w
		sumSW += float64(c.Severity) * w
		sumCW += c.Confidence * w
	}
	if sumW == 0 {
		return Aggregate{Severity: severity.Healthy}
	}
	return Aggregate{
		Severity:   severity.Level(math.Round(sumSW / sumW)).Clamp(),
		Confidence: math.Round(sumCW/sumW*100) / 100,
	}
}

// Suppression is the user override state for one plant, taken from its
// non-resolved alerts.
type Suppression struct {
	SnoozeUntil   *time.Time
	SuppressUntil *time.Time
}

// SnoozeInForce reports whether today <= snooze_until.
func (s Suppression) SnoozeInForce(today time.Time) bool {
	return s.SnoozeUntil != nil && !caldate.Normalize(today).After(caldate.Normalize(*s.SnoozeUntil))
}

// DismissInForce reports whether today <= suppress_until.
func (s Suppression) DismissInForce(today time.Time) bool {
	return s.SuppressUntil != nil && !caldate.Normalize(today).After(caldate.Normalize(*s.SuppressUntil))
}

// Outcome is a calculated severity with overrides applied.
type Outcome struct {
	Calculated     severity.Level
	Effective      severity.Level
	OverrideReason string
}

// Label is the status label of the effective severity.
func (o Outcome) Label() string { return o.Effective.Label() }

// Override reasons are prefixes; the suppression end date is appended.
const (
	ReasonSnoozedPrefix   = "user_snoozed_until_"
	ReasonDismissedPrefix = "user_dismissed_until_"
)

// ApplyOverrides layers suppressions on a calculated severity. A dismissal in
// force zeroes the effective severity; otherwise a snooze in force caps it at
// Attention. The calculated value is always kept.
func ApplyOverrides(calculated severity.Level, s Suppression, today time.Time) Outcome {
	out := Outcome{Calculated: calculated, Effective: calculated}
	switch {
	case s.DismissInForce(today):
		out.Effective = severity.Healthy
		out.OverrideReason = ReasonDismissedPrefix + caldate.Format(*s.SuppressUntil)
	case s.SnoozeInForce(today):
		out.Effective = severity.Min(calculated, severity.Attention)
		out.OverrideReason = ReasonSnoozedPrefix + caldate.Format(*s.SnoozeUntil)
	}
	return out
}

// Current is the persisted current status window of a plant.
type Current struct {
	ID             string
	Calculated     severity.Level
	Effective      severity.Level
	Confidence     float64
	OverrideReason string
}

// NeedsNewWindow reports whether next differs from the current window. A
// plant without a current window always needs one.
func NeedsNewWindow(current *Current, next Outcome, confidence float64) bool {
	if current == nil {
		return true
	}
	const eps = 1e-9
	d := current.Confidence - confidence
	return current.Calculated != next.Calculated ||
		current.Effective != next.Effective ||
		current.OverrideReason != next.OverrideReason ||
		d > eps || d < -eps
}
