package domain

import (
	"fmt"
	"strings"
	"time"
)

// Scope says whether a reminder addresses the whole group or one member.
type Scope string

const (
	ScopeGroup Scope = "group"
	ScopeUser  Scope = "user"
)

// Kind is the recurrence category of a reminder.
type Kind string

const (
	KindOnce     Kind = "once"
	KindInterval Kind = "interval"
	KindDaily    Kind = "daily"
	KindWeekly   Kind = "weekly"
	KindMonthly  Kind = "monthly"
)

// Reminder is the durable unit of scheduled work. It is persisted as one
// entry of the reminders JSON document; field names below are the document
// schema. All times are stored in UTC, never in local time.
type Reminder struct {
	ID             int64     `json:"id"`
	TargetScope    Scope     `json:"target_scope"`
	TargetUserID   int64     `json:"target_user_id,omitempty"`
	TargetUsername string    `json:"target_username,omitempty"`
	ChatID         int64     `json:"chat_id"`
	Message        string    `json:"message"`
	Kind           Kind      `json:"kind"`
	AnchorUTC      time.Time `json:"anchor_utc"`
	IntervalSec    int       `json:"interval_seconds,omitempty"` // Interval only
	DaysOfWeek     []int     `json:"days_of_week,omitempty"`     // Weekly only; time.Weekday ordinals
	DayOfMonth     int       `json:"day_of_month,omitempty"`     // Monthly only
	TZ             string    `json:"tz"`                         // IANA name; recurrence keeps wall-clock time here
	JobName        string    `json:"job_name"`
}

// Recurring reports whether the reminder survives a fire.
func (r *Reminder) Recurring() bool {
	return r.Kind != KindOnce
}

// JobName derives the deterministic scheduler identifier for a reminder.
// Two reminders with the same chat, kind and first anchor collide here on
// purpose; the store rejects such duplicates before they are armed.
func JobName(chatID int64, kind Kind, anchor time.Time) string {
	return fmt.Sprintf("reminder-%d-%s-%d", chatID, kind, anchor.UTC().Unix())
}

// Validate checks the per-kind field invariants.
func (r *Reminder) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("%w: empty message", ErrValidation)
	}
	if r.AnchorUTC.IsZero() {
		return fmt.Errorf("%w: missing anchor time", ErrValidation)
	}
	switch r.Kind {
	case KindOnce, KindDaily:
	case KindInterval:
		if r.IntervalSec < 60 {
			return fmt.Errorf("%w: interval below one minute", ErrValidation)
		}
	case KindWeekly:
		if len(r.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: weekly reminder without weekdays", ErrValidation)
		}
	case KindMonthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return fmt.Errorf("%w: day of month out of range", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrValidation, r.Kind)
	}
	return nil
}

// Location resolves the reminder's timezone, falling back to UTC when the
// stored name no longer loads (e.g. the document came from another host).
func (r *Reminder) Location() *time.Location {
	loc, err := time.LoadLocation(r.TZ)
	if err != nil {
		return time.UTC
	}
	return loc
}
