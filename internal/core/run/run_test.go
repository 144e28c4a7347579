package run

import (
	"testing"
	"time"

	"github.com/example/plantcare/internal/core/caldate"
)

func TestNewComputesTodayInLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	now := time.Date(2025, 1, 11, 3, 0, 0, 0, time.UTC)

	r := New("run-1", TriggerDaily, now, loc)

	if caldate.Format(r.Today) != "2025-01-10" {
		t.Errorf("Today = %s, want 2025-01-10", caldate.Format(r.Today))
	}
	if !r.Now.Equal(now) {
		t.Errorf("Now = %v, want %v", r.Now, now)
	}
	if r.ID != "run-1" || r.Trigger != TriggerDaily {
		t.Errorf("run = %+v", r)
	}
}

func TestStatsAdd(t *testing.T) {
	s := Stats{Started: 1, Completed: 2}
	s.Add(Stats{Started: 1, Completed: 5, Errors: 1})

	if s != (Stats{Started: 2, Completed: 7, Errors: 1}) {
		t.Errorf("Stats = %+v", s)
	}
}
