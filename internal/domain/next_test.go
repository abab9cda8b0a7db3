package domain

import (
	"testing"
	"time"
)

func TestNextAfter_OnceHasNoNext(t *testing.T) {
	r := &Reminder{Kind: KindOnce, AnchorUTC: time.Now().UTC(), TZ: "UTC"}
	if _, ok := r.NextAfter(time.Now()); ok {
		t.Fatal("once reminder must not have a next occurrence")
	}
}

func TestNextAfter_IntervalStepsFromAnchor(t *testing.T) {
	anchor := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	r := &Reminder{Kind: KindInterval, AnchorUTC: anchor, IntervalSec: 3600, TZ: "UTC"}

	next, ok := r.NextAfter(anchor)
	if !ok || !next.Equal(anchor.Add(time.Hour)) {
		t.Fatalf("want %v, got %v (ok=%v)", anchor.Add(time.Hour), next, ok)
	}
}

func TestNextAfter_IntervalSkipsMissedOccurrences(t *testing.T) {
	anchor := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	r := &Reminder{Kind: KindInterval, AnchorUTC: anchor, IntervalSec: 3600, TZ: "UTC"}

	// Process was down for five and a half intervals; the next fire is the
	// first future one, not a burst of five stale ones.
	now := anchor.Add(5*time.Hour + 30*time.Minute)
	next, ok := r.NextAfter(now)
	if !ok || !next.Equal(anchor.Add(6*time.Hour)) {
		t.Fatalf("want %v, got %v (ok=%v)", anchor.Add(6*time.Hour), next, ok)
	}
}

func TestNextAfter_DailyKeepsWallClockAcrossDST(t *testing.T) {
	tz := "Europe/Bucharest"
	anchor := mustLocalUTC(t, tz, 2025, time.March, 29, 9, 0) // 07:00 UTC, EET
	r := &Reminder{Kind: KindDaily, AnchorUTC: anchor, TZ: tz}

	next, ok := r.NextAfter(anchor)
	if !ok {
		t.Fatal("daily must recur")
	}
	// The next morning is EEST; 09:00 local is now 06:00 UTC.
	want := time.Date(2025, time.March, 30, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("want %v, got %v", want, next)
	}
}

func TestNextAfter_WeeklySkipsToAllowedDay(t *testing.T) {
	tz := "Europe/Bucharest"
	// 2025-01-10 is a Friday.
	anchor := mustLocalUTC(t, tz, 2025, time.January, 10, 9, 0)
	r := &Reminder{
		Kind:       KindWeekly,
		AnchorUTC:  anchor,
		DaysOfWeek: []int{int(time.Monday), int(time.Friday)},
		TZ:         tz,
	}

	next, ok := r.NextAfter(anchor)
	if !ok {
		t.Fatal("weekly must recur")
	}
	if want := mustLocalUTC(t, tz, 2025, time.January, 13, 9, 0); !next.Equal(want) {
		t.Fatalf("want Monday %v, got %v", want, next)
	}
}

func TestNextAfter_MonthlyClampAndReturn(t *testing.T) {
	tz := "Europe/Bucharest"
	anchor := mustLocalUTC(t, tz, 2025, time.January, 31, 10, 0)
	r := &Reminder{Kind: KindMonthly, AnchorUTC: anchor, DayOfMonth: 31, TZ: tz}

	// January 31 -> February 28 (2025 is not a leap year).
	next, ok := r.NextAfter(anchor)
	if !ok {
		t.Fatal("monthly must recur")
	}
	if want := mustLocalUTC(t, tz, 2025, time.February, 28, 10, 0); !next.Equal(want) {
		t.Fatalf("feb: want %v, got %v", want, next)
	}

	// After the clamped fire the reminder returns to the 31st in March.
	r.AnchorUTC = next
	next, ok = r.NextAfter(next)
	if !ok {
		t.Fatal("monthly must recur")
	}
	if want := mustLocalUTC(t, tz, 2025, time.March, 31, 10, 0); !next.Equal(want) {
		t.Fatalf("mar: want %v, got %v", want, next)
	}
}

func TestClampDay(t *testing.T) {
	cases := []struct {
		y    int
		m    time.Month
		day  int
		want int
	}{
		{2025, time.February, 31, 28},
		{2024, time.February, 31, 29},
		{2025, time.April, 31, 30},
		{2025, time.March, 31, 31},
		{2025, time.July, 15, 15},
	}
	for _, c := range cases {
		if got := clampDay(c.y, c.m, c.day); got != c.want {
			t.Fatalf("clampDay(%d, %s, %d): want %d, got %d", c.y, c.m, c.day, c.want, got)
		}
	}
}
