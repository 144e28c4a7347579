package factor

import (
	"fmt"
	"sort"
	"time"

	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/confidence"
)

// MinObservationsForMeanGap is the history length at which the mean gap
// between events replaces the type default interval.
const MinObservationsForMeanGap = 5

// Rule records which due-date rule produced an estimate.
type Rule int

const (
	RuleAcquisitionPlusDefault Rule = iota + 1
	RuleLastEventPlusDefault
	RuleLastEventPlusMeanGap
)

func (r Rule) String() string {
	switch r {
	case RuleAcquisitionPlusDefault:
		return "acquisition_plus_default"
	case RuleLastEventPlusDefault:
		return "last_event_plus_default"
	case RuleLastEventPlusMeanGap:
		return "last_event_plus_mean_gap"
	}
	return "unknown"
}

// PlantInput is everything a calculator needs for one plant. All values are
// pre-fetched by the caller.
type PlantInput struct {
	PlantID         string
	AcquisitionDate time.Time
	// DefaultIntervalDays comes from the plant type; HasType is false when the
	// type lookup row is missing.
	DefaultIntervalDays int
	HasType             bool
	// Events are the dates of the activity kind the factor tracks, any order.
	Events []time.Time
}

// Estimate is a computed due date for one plant.
type Estimate struct {
	PlantID          string
	Kind             Kind
	DueDate          time.Time
	Confidence       float64
	Rule             Rule
	ObservationCount int
}

// Calculator derives a due date for one factor kind.
type Calculator interface {
	Kind() Kind
	// ActivityKind is the activity history kind the estimate is based on.
	ActivityKind() string
	// Estimate returns false when the plant lacks the data needed and must be
	// skipped.
	Estimate(in PlantInput) (Estimate, bool)
}

// CalculatorFor returns the calculator for k.
func CalculatorFor(k Kind) (Calculator, error) {
	switch k {
	case WateringDue:
		return wateringCalculator{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFactor, string(k))
}

type wateringCalculator struct{}

func (wateringCalculator) Kind() Kind           { return WateringDue }
func (wateringCalculator) ActivityKind() string { return ActivityWatering }

// Estimate applies, in order:
//  1. no events: acquisition date + default interval
//  2. fewer than MinObservationsForMeanGap events: last event + default interval
//  3. otherwise: last event + mean gap between consecutive events, truncated
//     to whole days
func (wateringCalculator) Estimate(in PlantInput) (Estimate, bool) {
	if !in.HasType || in.DefaultIntervalDays <= 0 {
		return Estimate{}, false
	}

	est := Estimate{
		PlantID:          in.PlantID,
		Kind:             WateringDue,
		ObservationCount: len(in.Events),
		Confidence:       confidence.Capped(len(in.Events), confidence.DefaultIntervalCap),
	}

	if len(in.Events) == 0 {
		est.Rule = RuleAcquisitionPlusDefault
		est.DueDate = caldate.AddDays(in.AcquisitionDate, in.DefaultIntervalDays)
		return est, true
	}

	events := sortedDates(in.Events)
	last := events[len(events)-1]

	if len(events) < MinObservationsForMeanGap {
		est.Rule = RuleLastEventPlusDefault
		est.DueDate = caldate.AddDays(last, in.DefaultIntervalDays)
		return est, true
	}

	est.Rule = RuleLastEventPlusMeanGap
	est.DueDate = caldate.AddDays(last, MeanGapDays(events))
	return est, true
}

// MeanGapDays returns the mean gap in days between consecutive dates with any
// fractional day dropped, so a 1.5 day mean is 1. The input must be sorted
// ascending and hold at least two dates; otherwise it returns 0.
func MeanGapDays(sorted []time.Time) int {
	if len(sorted) < 2 {
		return 0
	}
	total := 0
	for i := 1; i < len(sorted); i++ {
		total += caldate.DaysBetween(sorted[i-1], sorted[i])
	}
	return total / (len(sorted) - 1)
}

func sortedDates(in []time.Time) []time.Time {
	out := make([]time.Time, len(in))
	for i, d := range in {
		out[i] = caldate.Normalize(d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
