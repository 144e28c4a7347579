// Package factor contains the pure business logic for factor computation:
// the closed set of factor kinds, their calculators and the activation planner
// that keeps at most one active factor per plant and kind.
package factor

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFactor is returned for factor codes or activity kinds that have
// no calculator.
var ErrUnsupportedFactor = errors.New("unsupported factor")

// Kind identifies a care dimension. The set is closed; adding a kind means
// adding a case to CalculatorFor and KindsForActivity.
type Kind string

const (
	WateringDue Kind = "watering_due"
)

// Activity kinds recorded in activity history.
const (
	ActivityWatering    = "watering"
	ActivityFertilizing = "fertilizing"
)

// Kinds lists every supported factor kind.
func Kinds() []Kind {
	return []Kind{WateringDue}
}

// ParseKind converts a stored factor code to a Kind.
func ParseKind(code string) (Kind, error) {
	switch Kind(code) {
	case WateringDue:
		return WateringDue, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFactor, code)
}

// KindsForActivity returns the factor kinds affected by an activity kind.
// Fertilizing is recorded but has no factor yet.
func KindsForActivity(activityKind string) ([]Kind, error) {
	switch activityKind {
	case ActivityWatering:
		return []Kind{WateringDue}, nil
	}
	return nil, fmt.Errorf("%w: no factors defined for activity type %q", ErrUnsupportedFactor, activityKind)
}

// Key identifies an active record slot: one per plant and factor kind.
type Key struct {
	PlantID string
	Kind    Kind
}

func (k Key) String() string {
	return k.PlantID + "/" + string(k.Kind)
}
