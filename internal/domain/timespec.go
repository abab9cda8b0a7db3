package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrValidation marks every rejected time specification or reminder field.
// Callers match it with errors.Is and show the message verbatim.
var ErrValidation = errors.New("specificație invalidă")

// AcceptedForms is echoed to the caller on every parse rejection.
const AcceptedForms = "forme acceptate: «în N ore/minute», «la fiecare N ore/minute», " +
	"«zilnic HH:MM», «zilnic HH:MM lun,mie,vin», «lunar ZZ HH:MM», «ZZ-LL-AAAA HH:MM»"

// Schedule is the normalized result of parsing a time specification.
// Exactly the fields relevant to Kind are set.
type Schedule struct {
	Kind        Kind
	AnchorUTC   time.Time // first (or only) fire, UTC
	IntervalSec int       // Interval
	DaysOfWeek  []int     // Weekly, time.Weekday ordinals, sorted
	DayOfMonth  int       // Monthly
}

var (
	relativeRe = regexp.MustCompile(`^(?:în|in)\s+(\d+)\s+(\pL+)$`)
	everyRe    = regexp.MustCompile(`^la\s+fiecare\s+(\d+)\s+(\pL+)$`)
	dailyRe    = regexp.MustCompile(`^(?:zilnic|daily)\s+(\d{1,2}):(\d{2})(?:\s+(.+))?$`)
	monthlyRe  = regexp.MustCompile(`^lunar\s+(\d{1,2})\s+(\d{1,2}):(\d{2})$`)
	absoluteRe = regexp.MustCompile(`^(\d{2})[-.](\d{2})[-.](\d{4})\s+(\d{1,2}):(\d{2})$`)
)

// ParseTimeSpec parses a free-form time specification into a Schedule.
// The text is resolved in loc (the caller's timezone) and the resulting
// anchor converted to UTC, so daylight-saving shifts never move a persisted
// time. Grammars are tried in order; the first match wins; anything else is
// rejected with ErrValidation and the accepted forms.
func ParseTimeSpec(text string, loc *time.Location, now time.Time) (Schedule, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return Schedule{}, fmt.Errorf("%w: lipsește specificația de timp; %s", ErrValidation, AcceptedForms)
	}
	now = now.UTC()

	if m := relativeRe.FindStringSubmatch(s); m != nil {
		d, err := parseAmount(m[1], m[2])
		if err != nil {
			return Schedule{}, err
		}
		return Schedule{Kind: KindOnce, AnchorUTC: now.Add(d).Truncate(time.Second)}, nil
	}

	if m := everyRe.FindStringSubmatch(s); m != nil {
		d, err := parseAmount(m[1], m[2])
		if err != nil {
			return Schedule{}, err
		}
		if d < time.Minute {
			return Schedule{}, fmt.Errorf("%w: intervalul minim este un minut", ErrValidation)
		}
		return Schedule{
			Kind:        KindInterval,
			AnchorUTC:   now.Add(d).Truncate(time.Second),
			IntervalSec: int(d / time.Second),
		}, nil
	}

	if m := dailyRe.FindStringSubmatch(s); m != nil {
		hh, mm, err := parseClock(m[1], m[2])
		if err != nil {
			return Schedule{}, err
		}
		first := nextWallClock(now, loc, hh, mm)
		if m[3] == "" {
			return Schedule{Kind: KindDaily, AnchorUTC: first}, nil
		}
		days, err := parseWeekdays(m[3])
		if err != nil {
			return Schedule{}, err
		}
		first = nextWeekday(now, loc, hh, mm, days)
		return Schedule{Kind: KindWeekly, AnchorUTC: first, DaysOfWeek: days}, nil
	}

	if m := monthlyRe.FindStringSubmatch(s); m != nil {
		day, err := strconv.Atoi(m[1])
		if err != nil || day < 1 || day > 31 {
			return Schedule{}, fmt.Errorf("%w: zi a lunii invalidă %q", ErrValidation, m[1])
		}
		hh, mm, err := parseClock(m[2], m[3])
		if err != nil {
			return Schedule{}, err
		}
		first := nextMonthly(now, loc, day, hh, mm)
		return Schedule{Kind: KindMonthly, AnchorUTC: first, DayOfMonth: day}, nil
	}

	if m := absoluteRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		hh, mm, err := parseClock(m[4], m[5])
		if err != nil {
			return Schedule{}, err
		}
		if month < 1 || month > 12 {
			return Schedule{}, fmt.Errorf("%w: lună invalidă %02d", ErrValidation, month)
		}
		at := time.Date(year, time.Month(month), day, hh, mm, 0, 0, loc)
		// time.Date normalizes 31-02 into March; treat that as a bad date.
		if at.Day() != day || at.Month() != time.Month(month) {
			return Schedule{}, fmt.Errorf("%w: data %02d-%02d-%04d nu există", ErrValidation, day, month, year)
		}
		if !at.UTC().After(now) {
			return Schedule{}, fmt.Errorf("%w: momentul %s este în trecut", ErrValidation, at.Format("02-01-2006 15:04"))
		}
		return Schedule{Kind: KindOnce, AnchorUTC: at.UTC()}, nil
	}

	return Schedule{}, fmt.Errorf("%w: nu înțeleg %q; %s", ErrValidation, text, AcceptedForms)
}

func parseAmount(num, unit string) (time.Duration, error) {
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: număr invalid %q", ErrValidation, num)
	}
	switch unit {
	case "ore", "oră", "ora", "hours", "hour", "h":
		return time.Duration(n) * time.Hour, nil
	case "minute", "minut", "min", "minutes", "m":
		return time.Duration(n) * time.Minute, nil
	}
	return 0, fmt.Errorf("%w: unitate necunoscută %q (ore sau minute)", ErrValidation, unit)
}

func parseClock(hs, ms string) (int, int, error) {
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("%w: oră invalidă %q", ErrValidation, hs)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("%w: minut invalid %q", ErrValidation, ms)
	}
	return h, m, nil
}

var weekdayTokens = map[string]time.Weekday{
	"duminică": time.Sunday, "duminica": time.Sunday, "dum": time.Sunday, "sun": time.Sunday,
	"luni": time.Monday, "lun": time.Monday, "mon": time.Monday,
	"marți": time.Tuesday, "marti": time.Tuesday, "mar": time.Tuesday, "tue": time.Tuesday,
	"miercuri": time.Wednesday, "mie": time.Wednesday, "wed": time.Wednesday,
	"joi": time.Thursday, "thu": time.Thursday,
	"vineri": time.Friday, "vin": time.Friday, "fri": time.Friday,
	"sâmbătă": time.Saturday, "sambata": time.Saturday, "sâm": time.Saturday, "sam": time.Saturday, "sat": time.Saturday,
}

// parseWeekdays parses a comma- or space-separated weekday list into sorted,
// deduplicated time.Weekday ordinals.
func parseWeekdays(list string) ([]int, error) {
	fields := strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' })
	seen := make(map[int]bool)
	for _, f := range fields {
		wd, ok := weekdayTokens[strings.TrimSpace(f)]
		if !ok {
			return nil, fmt.Errorf("%w: zi a săptămânii necunoscută %q", ErrValidation, f)
		}
		seen[int(wd)] = true
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: lipsesc zilele săptămânii", ErrValidation)
	}
	days := make([]int, 0, len(seen))
	for d := 0; d < 7; d++ {
		if seen[d] {
			days = append(days, d)
		}
	}
	return days, nil
}
