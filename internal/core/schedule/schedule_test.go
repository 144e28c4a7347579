package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/factor"
	"github.com/example/plantcare/internal/core/severity"
)

func datePtr(s string) *time.Time {
	d := caldate.MustParse(s)
	return &d
}

func ids() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("sch-%d", n)
	}
}

func TestBuild(t *testing.T) {
	today := caldate.MustParse("2025-01-10")
	items := Build([]FactorInput{
		{FactorID: "f-1", PlantID: "p-1", Kind: factor.WateringDue, DueDate: datePtr("2025-01-08"), Category: "WATERING"},
		{FactorID: "f-2", PlantID: "p-2", Kind: factor.WateringDue, DueDate: datePtr("2025-01-20"), Category: "WATERING"},
		{FactorID: "f-3", PlantID: "p-3", Kind: factor.WateringDue, DueDate: nil, Category: "WATERING"},
	}, today, ids())

	want := []severity.Level{severity.Attention, severity.Healthy, severity.Healthy}
	if len(items) != len(want) {
		t.Fatalf("len = %d, want %d", len(items), len(want))
	}
	for i, item := range items {
		if item.Severity != want[i] {
			t.Errorf("item %d severity = %d, want %d", i, item.Severity, want[i])
		}
		if item.Label != "WATERING" {
			t.Errorf("item %d label = %q", i, item.Label)
		}
		if item.ID == "" {
			t.Errorf("item %d has no ID", i)
		}
	}
}

func TestReconcile(t *testing.T) {
	open := Item{ID: "old", PlantID: "p-1", FactorID: "f-1", Kind: factor.WateringDue, Date: datePtr("2025-01-08"), Label: "WATERING", Severity: severity.Attention}
	everything := func(string) bool { return true }

	tests := []struct {
		name        string
		open        []Item
		built       []Item
		inScope     func(string) bool
		wantInserts int
		wantUpdates int
		wantCloses  []string
	}{
		{
			name:        "nothing open inserts",
			built:       []Item{{ID: "new", PlantID: "p-1", FactorID: "f-1", Kind: factor.WateringDue, Date: datePtr("2025-01-08"), Label: "WATERING", Severity: severity.Attention}},
			inScope:     everything,
			wantInserts: 1,
		},
		{
			name:    "unchanged produces nothing",
			open:    []Item{open},
			built:   []Item{{ID: "new", PlantID: "p-1", FactorID: "f-1", Kind: factor.WateringDue, Date: datePtr("2025-01-08"), Label: "WATERING", Severity: severity.Attention}},
			inScope: everything,
		},
		{
			name:        "severity only updates in place",
			open:        []Item{open},
			built:       []Item{{ID: "new", PlantID: "p-1", FactorID: "f-1", Kind: factor.WateringDue, Date: datePtr("2025-01-08"), Label: "WATERING", Severity: severity.Warning}},
			inScope:     everything,
			wantUpdates: 1,
		},
		{
			name:        "date change closes and inserts",
			open:        []Item{open},
			built:       []Item{{ID: "new", PlantID: "p-1", FactorID: "f-1", Kind: factor.WateringDue, Date: datePtr("2025-01-17"), Label: "WATERING", Severity: severity.Healthy}},
			inScope:     everything,
			wantInserts: 1,
			wantCloses:  []string{"old"},
		},
		{
			name:       "open item without factor is closed",
			open:       []Item{open},
			inScope:    everything,
			wantCloses: []string{"old"},
		},
		{
			name:    "out of scope items are left alone",
			open:    []Item{open},
			inScope: func(id string) bool { return id == "p-2" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Reconcile(tt.open, tt.built, tt.inScope)
			if len(d.Inserts) != tt.wantInserts {
				t.Errorf("Inserts = %d, want %d", len(d.Inserts), tt.wantInserts)
			}
			if len(d.SeverityUpdates) != tt.wantUpdates {
				t.Errorf("SeverityUpdates = %d, want %d", len(d.SeverityUpdates), tt.wantUpdates)
			}
			if fmt.Sprint(d.Closes) != fmt.Sprint(tt.wantCloses) {
				t.Errorf("Closes = %v, want %v", d.Closes, tt.wantCloses)
			}
		})
	}
}

func TestReconcileDuplicateOpenItems(t *testing.T) {
	a := Item{ID: "a", PlantID: "p-1", FactorID: "f-1", Kind: factor.WateringDue, Date: datePtr("2025-01-08"), Severity: severity.Attention}
	b := a
	b.ID = "b"

	d := Reconcile([]Item{a, b}, []Item{a}, func(string) bool { return true })

	if len(d.Closes) != 1 || d.Closes[0] != "a" {
		t.Errorf("Closes = %v, want [a]", d.Closes)
	}
	if !(len(d.Inserts) == 0 && len(d.SeverityUpdates) == 0) {
		t.Errorf("unexpected writes: %+v", d)
	}
}
