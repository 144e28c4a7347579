package changeset

import (
	"testing"

	"github.com/example/plantcare/internal/core/alert"
	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/factor"
	"github.com/example/plantcare/internal/core/schedule"
)

func TestCountsOmitsZeroes(t *testing.T) {
	cs := &Changeset{}
	if !cs.IsEmpty() {
		t.Fatalf("empty changeset reports counts: %+v", cs.Counts())
	}

	cs.Factors = factor.PlanActivation([]factor.Record{
		{ID: "f-1", PlantID: "p-1", Kind: factor.WateringDue, DueDate: caldate.MustParse("2025-01-08")},
	}, nil)
	cs.Schedule = schedule.Diff{Closes: []string{"old"}}
	cs.Alerts = []AlertChange{{
		PlantID: "p-1",
		Decision: alert.Decision{
			Action:  alert.ActionReplace,
			Resolve: &alert.Resolution{AlertID: "a-1", Reason: alert.ReasonSuppressionExpired},
			Create:  &alert.NewAlert{PlantID: "p-1"},
		},
	}}

	want := map[string]int{
		"factor_history/insert": 1,
		"factor_active/insert":  1,
		"schedule/close":        1,
		"alerts/insert":         1,
		"alerts/resolve":        1,
	}

	got := cs.Counts()
	if len(got) != len(want) {
		t.Fatalf("Counts = %+v, want %d entries", got, len(want))
	}
	for _, c := range got {
		if want[c.Table+"/"+c.Op] != c.N {
			t.Errorf("%s/%s = %d, want %d", c.Table, c.Op, c.N, want[c.Table+"/"+c.Op])
		}
	}
	if cs.IsEmpty() {
		t.Error("IsEmpty = true for non-empty changeset")
	}
}
