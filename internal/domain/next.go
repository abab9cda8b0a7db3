package domain

import "time"

// Recurrence math. Daily, Weekly and Monthly reminders keep a wall-clock
// time in the reminder's timezone, so every step is computed on local wall
// time and only then converted to UTC. That keeps a "zilnic 09:00" reminder
// at 09:00 across daylight-saving transitions.

// nextWallClock returns the first instant strictly after now (UTC) whose
// local time in loc reads hh:mm.
func nextWallClock(now time.Time, loc *time.Location, hh, mm int) time.Time {
	local := now.In(loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), hh, mm, 0, 0, loc)
	if !at.After(local) {
		at = time.Date(local.Year(), local.Month(), local.Day()+1, hh, mm, 0, 0, loc)
	}
	return at.UTC()
}

// nextWeekday is nextWallClock restricted to the given weekday ordinals.
func nextWeekday(now time.Time, loc *time.Location, hh, mm int, days []int) time.Time {
	allowed := make(map[int]bool, len(days))
	for _, d := range days {
		allowed[d] = true
	}
	local := now.In(loc)
	for add := 0; add <= 7; add++ {
		at := time.Date(local.Year(), local.Month(), local.Day()+add, hh, mm, 0, 0, loc)
		if at.After(local) && allowed[int(at.Weekday())] {
			return at.UTC()
		}
	}
	// Unreachable for a non-empty day set; keep a sane fallback anyway.
	return nextWallClock(now, loc, hh, mm)
}

// nextMonthly returns the first instant strictly after now falling on the
// given day of month (clamped to the month's last day) at hh:mm in loc.
func nextMonthly(now time.Time, loc *time.Location, day, hh, mm int) time.Time {
	local := now.In(loc)
	y, mo := local.Year(), local.Month()
	for i := 0; i < 13; i++ {
		at := time.Date(y, mo, clampDay(y, mo, day), hh, mm, 0, 0, loc)
		if at.After(local) {
			return at.UTC()
		}
		y, mo = nextMonth(y, mo)
	}
	return nextWallClock(now, loc, hh, mm)
}

// clampDay clamps a requested day of month to the last day the month has,
// so a day-31 reminder fires on Feb 28/29 and Apr 30 rather than skipping
// short months.
func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// NextAfter computes the reminder's next occurrence strictly after t.
// Returns false for one-shot reminders, which have no next occurrence.
// For calendar kinds the stored anchor supplies the wall-clock time of day
// in the reminder's timezone.
func (r *Reminder) NextAfter(t time.Time) (time.Time, bool) {
	t = t.UTC()
	loc := r.Location()
	anchorLocal := r.AnchorUTC.In(loc)
	hh, mm := anchorLocal.Hour(), anchorLocal.Minute()

	switch r.Kind {
	case KindInterval:
		step := time.Duration(r.IntervalSec) * time.Second
		if step <= 0 {
			return time.Time{}, false
		}
		next := r.AnchorUTC
		if !next.After(t) {
			elapsed := t.Sub(r.AnchorUTC)
			next = r.AnchorUTC.Add((elapsed/step + 1) * step)
		}
		return next, true
	case KindDaily:
		return nextWallClock(t, loc, hh, mm), true
	case KindWeekly:
		return nextWeekday(t, loc, hh, mm, r.DaysOfWeek), true
	case KindMonthly:
		return nextMonthly(t, loc, r.DayOfMonth, hh, mm), true
	}
	return time.Time{}, false
}
