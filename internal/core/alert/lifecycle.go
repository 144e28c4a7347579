package alert

import (
	"time"

	"github.com/example/plantcare/internal/core/severity"
)

// Action is the kind of change a Decision makes.
type Action string

const (
	ActionNone       Action = "none"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionResolve    Action = "resolve"
	ActionReplace    Action = "replace" // resolve the open alert, then create
	ActionSuppressed Action = "suppressed"
)

// WateringDetail is the plant's active watering contribution.
type WateringDetail struct {
	Severity    severity.Level
	DueDate     *time.Time
	DaysOverdue *int
}

// EvaluateInput contains everything needed to decide a plant's alert change.
// All values are pre-fetched by the caller.
type EvaluateInput struct {
	PlantID   string
	PlantName string
	Effective severity.Level
	Watering  *WateringDetail
	// Open is the plant's non-resolved watering alert, if any.
	Open  *Alert
	Today time.Time
}

// NewAlert describes an alert to create.
type NewAlert struct {
	PlantID    string
	Type       string
	Category   string
	Bucket     severity.AlertBucket
	Title      string
	Message    string
	TargetDate time.Time
	DueDate    *time.Time
}

// BucketUpdate changes the bucket and message of an open alert.
type BucketUpdate struct {
	AlertID string
	Bucket  severity.AlertBucket
	Message string
}

// Resolution closes an alert.
type Resolution struct {
	AlertID string
	Reason  string
}

// Decision is the outcome of Evaluate. Resolve and Create may both be set when
// an expired dismissal is replaced by a fresh alert.
type Decision struct {
	Action  Action
	Resolve *Resolution
	Create  *NewAlert
	Update  *BucketUpdate
}

// Evaluate runs the alert state machine for one plant.
//
// Healthy effective severity resolves the open alert (status_improved), except
// a dismissed alert whose suppression is still in force, which stays open
// until the override date passes. A non-healthy severity needs a watering
// contribution; then a suppression in force keeps the alert as is, an expired
// dismissal is replaced, an open alert gets its bucket updated and a plant
// without an open alert gets a new one.
func Evaluate(in EvaluateInput) Decision {
	open := in.Open
	if open != nil && !open.IsActive {
		open = nil
	}

	if in.Effective <= severity.Healthy {
		if open == nil {
			return Decision{Action: ActionNone}
		}
		if open.DismissInForce(in.Today) {
			return Decision{Action: ActionSuppressed}
		}
		return Decision{
			Action:  ActionResolve,
			Resolve: &Resolution{AlertID: open.ID, Reason: ReasonStatusImproved},
		}
	}

	if in.Watering == nil {
		return Decision{Action: ActionNone}
	}

	level := in.Watering.Severity
	if level <= severity.Healthy {
		level = in.Effective
	}
	bucket, _ := severity.Bucket(level)
	message := WateringMessage(in.Watering.DaysOverdue)

	if open == nil {
		return Decision{Action: ActionCreate, Create: newAlert(in, bucket, message)}
	}

	switch {
	case open.DismissInForce(in.Today), open.SnoozeInForce(in.Today):
		return Decision{Action: ActionSuppressed}
	case open.IsDismissed:
		return Decision{
			Action:  ActionReplace,
			Resolve: &Resolution{AlertID: open.ID, Reason: ReasonSuppressionExpired},
			Create:  newAlert(in, bucket, message),
		}
	case open.Bucket != bucket:
		return Decision{
			Action: ActionUpdate,
			Update: &BucketUpdate{AlertID: open.ID, Bucket: bucket, Message: message},
		}
	}
	return Decision{Action: ActionNone}
}

func newAlert(in EvaluateInput, bucket severity.AlertBucket, message string) *NewAlert {
	a := &NewAlert{
		PlantID:    in.PlantID,
		Type:       TypeWateringDue,
		Category:   CategoryCare,
		Bucket:     bucket,
		Title:      Title(in.PlantName),
		Message:    message,
		TargetDate: in.Today,
		DueDate:    in.Watering.DueDate,
	}
	if in.Watering.DueDate != nil {
		a.TargetDate = *in.Watering.DueDate
	}
	return a
}
