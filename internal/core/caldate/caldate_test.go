package caldate

import (
	"testing"
	"time"
)

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want int
	}{
		{name: "same day", from: "2025-01-08", to: "2025-01-08", want: 0},
		{name: "two days later", from: "2025-01-08", to: "2025-01-10", want: 2},
		{name: "before due", from: "2025-01-10", to: "2025-01-08", want: -2},
		{name: "across leap day", from: "2024-02-28", to: "2024-03-01", want: 2},
		{name: "across year", from: "2024-12-31", to: "2025-01-01", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaysBetween(MustParse(tt.from), MustParse(tt.to))
			if got != tt.want {
				t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOfUsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	// 02:30 UTC on June 2nd is still June 1st in New York.
	instant := time.Date(2025, 6, 2, 2, 30, 0, 0, time.UTC)

	if got := Format(Of(instant, ny)); got != "2025-06-01" {
		t.Errorf("Of(ny) = %s, want 2025-06-01", got)
	}
	if got := Format(Of(instant, nil)); got != "2025-06-02" {
		t.Errorf("Of(nil) = %s, want 2025-06-02", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain date", input: "2025-06-10", want: "2025-06-10"},
		{name: "rfc3339 keeps written date", input: "2025-06-10T23:30:00-04:00", want: "2025-06-10"},
		{name: "garbage", input: "next tuesday", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && Format(got) != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, Format(got), tt.want)
			}
		})
	}
}

func TestParseOptional(t *testing.T) {
	got, err := ParseOptional("")
	if err != nil || got != nil {
		t.Errorf("ParseOptional(\"\") = %v, %v; want nil, nil", got, err)
	}

	got, err = ParseOptional("2025-01-08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatPtr(got) != "2025-01-08" {
		t.Errorf("FormatPtr = %s, want 2025-01-08", FormatPtr(got))
	}
}

func TestAddDays(t *testing.T) {
	if got := Format(AddDays(MustParse("2025-01-01"), 7)); got != "2025-01-08" {
		t.Errorf("AddDays = %s, want 2025-01-08", got)
	}
	if got := Format(AddDays(MustParse("2025-03-01"), -1)); got != "2025-02-28" {
		t.Errorf("AddDays = %s, want 2025-02-28", got)
	}
}
