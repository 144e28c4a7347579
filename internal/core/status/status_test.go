package status

import (
	"testing"
	"time"

	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/factor"
	"github.com/example/plantcare/internal/core/severity"
)

const humidity factor.Kind = "humidity_low"

func TestCombine(t *testing.T) {
	tests := []struct {
		name     string
		contribs []Contribution
		weights  map[factor.Kind]float64
		want     severity.Level
	}{
		{
			name: "weighted average rounds 1.8 to 2",
			contribs: []Contribution{
				{Kind: factor.WateringDue, Severity: severity.Attention},
				{Kind: humidity, Severity: severity.Urgent},
			},
			weights: map[factor.Kind]float64{factor.WateringDue: 0.6, humidity: 0.4},
			want:    severity.Warning,
		},
		{
			name:     "single watering factor passes through",
			contribs: []Contribution{{Kind: factor.WateringDue, Severity: severity.Attention}},
			weights:  map[factor.Kind]float64{factor.WateringDue: 1.0},
			want:     severity.Attention,
		},
		{
			name:    "no contributions is healthy",
			weights: map[factor.Kind]float64{factor.WateringDue: 1.0},
			want:    severity.Healthy,
		},
		{
			name:     "zero weight sum is healthy",
			contribs: []Contribution{{Kind: factor.WateringDue, Severity: severity.Urgent}},
			weights:  map[factor.Kind]float64{},
			want:     severity.Healthy,
		},
		{
			name: "half rounds away from zero",
			contribs: []Contribution{
				{Kind: factor.WateringDue, Severity: severity.Attention},
				{Kind: humidity, Severity: severity.Warning},
			},
			weights: map[factor.Kind]float64{factor.WateringDue: 0.5, humidity: 0.5},
			want:    severity.Warning,
		},
		{
			name:     "out of range severity is clamped",
			contribs: []Contribution{{Kind: factor.WateringDue, Severity: severity.Level(9)}},
			weights:  map[factor.Kind]float64{factor.WateringDue: 1.0},
			want:     severity.Urgent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Combine(tt.contribs, tt.weights).Severity; got != tt.want {
				t.Errorf("Combine = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCombineConfidence(t *testing.T) {
	got := Combine([]Contribution{
		{Kind: factor.WateringDue, Severity: severity.Attention, Confidence: 0.4},
		{Kind: humidity, Severity: severity.Attention, Confidence: 0.7},
	}, map[factor.Kind]float64{factor.WateringDue: 0.5, humidity: 0.5})

	if got.Confidence != 0.55 {
		t.Errorf("Confidence = %v, want 0.55", got.Confidence)
	}
}

func datePtr(s string) *time.Time {
	d := caldate.MustParse(s)
	return &d
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name          string
		calculated    severity.Level
		suppression   Suppression
		today         string
		wantEffective severity.Level
		wantReason    string
	}{
		{
			name:          "no suppression",
			calculated:    severity.Urgent,
			today:         "2025-06-01",
			wantEffective: severity.Urgent,
		},
		{
			name:          "snooze caps at attention",
			calculated:    severity.Urgent,
			suppression:   Suppression{SnoozeUntil: datePtr("2025-06-03")},
			today:         "2025-06-03",
			wantEffective: severity.Attention,
			wantReason:    "user_snoozed_until_2025-06-03",
		},
		{
			name:          "snooze does not raise healthy",
			calculated:    severity.Healthy,
			suppression:   Suppression{SnoozeUntil: datePtr("2025-06-03")},
			today:         "2025-06-02",
			wantEffective: severity.Healthy,
			wantReason:    "user_snoozed_until_2025-06-03",
		},
		{
			name:          "expired snooze has no effect",
			calculated:    severity.Urgent,
			suppression:   Suppression{SnoozeUntil: datePtr("2025-06-03")},
			today:         "2025-06-04",
			wantEffective: severity.Urgent,
		},
		{
			name:          "dismiss forces healthy through the override date",
			calculated:    severity.Urgent,
			suppression:   Suppression{SuppressUntil: datePtr("2025-06-10")},
			today:         "2025-06-10",
			wantEffective: severity.Healthy,
			wantReason:    "user_dismissed_until_2025-06-10",
		},
		{
			name:          "dismiss wins over snooze",
			calculated:    severity.Warning,
			suppression:   Suppression{SnoozeUntil: datePtr("2025-06-03"), SuppressUntil: datePtr("2025-06-10")},
			today:         "2025-06-02",
			wantEffective: severity.Healthy,
			wantReason:    "user_dismissed_until_2025-06-10",
		},
		{
			name:          "expired dismiss has no effect",
			calculated:    severity.Warning,
			suppression:   Suppression{SuppressUntil: datePtr("2025-06-10")},
			today:         "2025-06-11",
			wantEffective: severity.Warning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyOverrides(tt.calculated, tt.suppression, caldate.MustParse(tt.today))
			if got.Calculated != tt.calculated {
				t.Errorf("Calculated = %d, want %d", got.Calculated, tt.calculated)
			}
			if got.Effective != tt.wantEffective {
				t.Errorf("Effective = %d, want %d", got.Effective, tt.wantEffective)
			}
			if got.OverrideReason != tt.wantReason {
				t.Errorf("OverrideReason = %q, want %q", got.OverrideReason, tt.wantReason)
			}
		})
	}
}

func TestNeedsNewWindow(t *testing.T) {
	base := Outcome{Calculated: severity.Attention, Effective: severity.Attention}
	current := &Current{ID: "s-1", Calculated: severity.Attention, Effective: severity.Attention, Confidence: 0.4}

	tests := []struct {
		name       string
		current    *Current
		next       Outcome
		confidence float64
		want       bool
	}{
		{name: "no current window", current: nil, next: base, confidence: 0.4, want: true},
		{name: "unchanged", current: current, next: base, confidence: 0.4, want: false},
		{name: "calculated changed", current: current, next: Outcome{Calculated: severity.Warning, Effective: severity.Warning}, confidence: 0.4, want: true},
		{name: "override added", current: current, next: Outcome{Calculated: severity.Attention, Effective: severity.Attention, OverrideReason: "user_snoozed_until_2025-06-03"}, confidence: 0.4, want: true},
		{name: "confidence changed", current: current, next: base, confidence: 0.45, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsNewWindow(tt.current, tt.next, tt.confidence); got != tt.want {
				t.Errorf("NeedsNewWindow = %v, want %v", got, tt.want)
			}
		})
	}
}
