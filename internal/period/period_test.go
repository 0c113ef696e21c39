package period

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Period
		wantErr bool
	}{
		{name: "days", input: "P3D", want: Period{Days: 3}},
		{name: "hours", input: "PT1H", want: Period{Hours: 1}},
		{name: "minutes", input: "PT30M", want: Period{Minutes: 30}},
		{name: "mixed", input: "P1DT12H", want: Period{Days: 1, Hours: 12}},
		{name: "weeks", input: "P2W", want: Period{Weeks: 2}},
		{name: "month and minute share a letter", input: "P1MT1M", want: Period{Months: 1, Minutes: 1}},
		{name: "negative", input: "-PT15M", want: Period{Minutes: -15}},
		{name: "lowercase", input: "p14d", want: Period{Days: 14}},
		{name: "empty designator", input: "P", wantErr: true},
		{name: "dangling time designator", input: "P1DT", wantErr: true},
		{name: "garbage", input: "three days", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPeriod) {
					t.Errorf("Parse(%q) error = %v, want ErrInvalidPeriod", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPeriodString(t *testing.T) {
	for _, s := range []string{"P3D", "PT1H", "PT30M", "P1DT12H", "-PT15M", "P1Y2M"} {
		if got := MustParse(s).String(); got != s {
			t.Errorf("String() = %q, want %q", got, s)
		}
	}
	if got := (Period{}).String(); got != "PT0S" {
		t.Errorf("zero String() = %q, want PT0S", got)
	}
}

func TestAddToAcrossDSTKeepsWallClock(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// DST starts 2023-03-12 02:00 local.
	start := time.Date(2023, 3, 11, 9, 0, 0, 0, la)

	got := MustParse("P1D").AddTo(start)
	if got.Hour() != 9 || got.Day() != 12 {
		t.Errorf("P1D across DST = %v, want 2023-03-12 09:00 local", got)
	}
	if got.Sub(start) != 23*time.Hour {
		t.Errorf("elapsed = %v, want 23h", got.Sub(start))
	}

	raw := MustParse("PT24H").AddTo(start)
	if raw.Hour() != 10 {
		t.Errorf("PT24H across DST hour = %d, want 10", raw.Hour())
	}
}

func TestIsDaily(t *testing.T) {
	if !MustParse("P1D").IsDaily() {
		t.Error("P1D should be daily")
	}
	if MustParse("P2D").IsDaily() {
		t.Error("P2D should not be daily")
	}
	if MustParse("PT1H").IsDaily() {
		t.Error("PT1H should not be daily")
	}
}
