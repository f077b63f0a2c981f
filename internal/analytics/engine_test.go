package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDayKey_SameLocalDate(t *testing.T) {
	e := testEngine(t, "2025-06-15 12:00:00")

	morning := at(t, e, "2025-06-15 00:00:01")
	night := at(t, e, "2025-06-15 23:59:59")

	if e.DayKey(morning) != e.DayKey(night) {
		t.Errorf("same local date produced different keys: %q vs %q",
			e.DayKey(morning), e.DayKey(night))
	}
	if got := e.DayKey(night); got != "2025-06-15" {
		t.Errorf("DayKey = %q, want 2025-06-15", got)
	}
}

func TestDayKey_MidnightBoundary(t *testing.T) {
	e := testEngine(t, "2025-06-15 12:00:00")

	before := at(t, e, "2025-06-15 23:59:59")
	after := at(t, e, "2025-06-16 00:00:01")

	if e.DayKey(before) == e.DayKey(after) {
		t.Errorf("timestamps across local midnight share key %q", e.DayKey(before))
	}
}

func TestDayKey_UsesLocalDateNotUTC(t *testing.T) {
	e := testEngine(t, "2025-03-10 12:00:00")

	// 03:30 UTC is 23:30 the previous day in America/New_York (EDT).
	utc := time.Date(2025, 3, 10, 3, 30, 0, 0, time.UTC)
	if got := e.DayKey(utc); got != "2025-03-09" {
		t.Errorf("DayKey(%v) = %q, want 2025-03-09 (local date, not UTC date)", utc, got)
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"17.4", 17},
		{"17.5", 18},
		{"17.6", 18},
		{"0", 0},
		{"-0.5", 0},
		{"-16.67", -17},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.in)
		if err != nil {
			t.Fatalf("bad decimal %q: %v", tc.in, err)
		}
		if got := roundHalfUp(d); got != tc.want {
			t.Errorf("roundHalfUp(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestPercentOf_ZeroDenominator(t *testing.T) {
	if got := percentOf(5, 0); got != 0 {
		t.Errorf("percentOf(5, 0) = %d, want 0", got)
	}
}

func TestPercentOf_Rounding(t *testing.T) {
	// 1/3 -> 33, 2/3 -> 67
	if got := percentOf(1, 3); got != 33 {
		t.Errorf("percentOf(1, 3) = %d, want 33", got)
	}
	if got := percentOf(2, 3); got != 67 {
		t.Errorf("percentOf(2, 3) = %d, want 67", got)
	}
}
