package scheduler

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Cristinuc/telegram-weather-bot/internal/dispatch"
	"github.com/Cristinuc/telegram-weather-bot/internal/domain"
	"github.com/Cristinuc/telegram-weather-bot/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	chats []int64
}

func (n *fakeNotifier) Notify(chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("transport down")
	}
	n.sent = append(n.sent, text)
	n.chats = append(n.chats, chatID)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func newTestScheduler(t *testing.T, clock Clock, notifier *fakeNotifier) (*Scheduler, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "reminders.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	disp := dispatch.New(notifier, zap.NewNop())
	s := New(st, disp, zap.NewNop(), Options{
		SweepInterval: time.Second,
		OnceGrace:     24 * time.Hour,
		Clock:         clock,
	})
	return s, st
}

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestSweep_FiresDueOnceAndRemovesIt(t *testing.T) {
	clock := &fakeClock{now: utc(2025, time.June, 1, 9, 0)}
	notifier := &fakeNotifier{}
	s, st := newTestScheduler(t, clock, notifier)

	_, err := s.Arm(domain.Reminder{
		TargetScope: domain.ScopeGroup,
		ChatID:      -1,
		Message:     "o dată",
		Kind:        domain.KindOnce,
		AnchorUTC:   utc(2025, time.June, 1, 10, 0),
		TZ:          "UTC",
	})
	if err != nil {
		t.Fatal(err)
	}

	s.Sweep()
	if notifier.count() != 0 {
		t.Fatal("fired before its anchor")
	}

	clock.Set(utc(2025, time.June, 1, 10, 0))
	s.Sweep()
	if notifier.count() != 1 {
		t.Fatalf("want 1 fire, got %d", notifier.count())
	}
	if got := len(st.List()); got != 0 {
		t.Fatalf("once reminder must be removed after firing, got %d records", got)
	}

	// Another sweep finds nothing.
	s.Sweep()
	if notifier.count() != 1 {
		t.Fatalf("fired twice for one occurrence: %d", notifier.count())
	}
}

func TestSweep_DailyAdvancesAnchorSameID(t *testing.T) {
	clock := &fakeClock{now: utc(2025, time.June, 1, 9, 0)}
	notifier := &fakeNotifier{}
	s, st := newTestScheduler(t, clock, notifier)

	stored, err := s.Arm(domain.Reminder{
		TargetScope: domain.ScopeGroup,
		ChatID:      -1,
		Message:     "zilnic",
		Kind:        domain.KindDaily,
		AnchorUTC:   utc(2025, time.June, 1, 9, 0),
		TZ:          "UTC",
	})
	if err != nil {
		t.Fatal(err)
	}

	s.Sweep()
	if notifier.count() != 1 {
		t.Fatalf("want 1 fire, got %d", notifier.count())
	}

	all := st.List()
	if len(all) != 1 {
		t.Fatalf("want exactly one record, got %d", len(all))
	}
	if all[0].ID != stored.ID {
		t.Fatalf("id changed on reschedule: %d -> %d", stored.ID, all[0].ID)
	}
	if want := utc(2025, time.June, 2, 9, 0); !all[0].AnchorUTC.Equal(want) {
		t.Fatalf("anchor: want %v, got %v", want, all[0].AnchorUTC)
	}
}

func TestCatchUp_PastDueOnceFiresExactlyOnce(t *testing.T) {
	clock := &fakeClock{now: utc(2025, time.June, 1, 13, 0)}
	notifier := &fakeNotifier{}
	s, st := newTestScheduler(t, clock, notifier)

	// Stored anchor three hours in the past, as after a process restart.
	if _, err := st.Add(domain.Reminder{
		TargetScope: domain.ScopeGroup,
		ChatID:      -1,
		Message:     "ratat",
		Kind:        domain.KindOnce,
		AnchorUTC:   utc(2025, time.June, 1, 10, 0),
		TZ:          "UTC",
	}); err != nil {
		t.Fatal(err)
	}

	s.CatchUp()
	s.Sweep()
	if notifier.count() != 1 {
		t.Fatalf("want exactly one late fire, got %d", notifier.count())
	}
	if got := len(st.List()); got != 0 {
		t.Fatalf("fired once reminder must be removed, got %d", got)
	}
}

func TestCatchUp_StaleOnceBeyondGraceIsDropped(t *testing.T) {
	clock := &fakeClock{now: utc(2025, time.June, 3, 13, 0)}
	notifier := &fakeNotifier{}
	s, st := newTestScheduler(t, clock, notifier)

	if _, err := st.Add(domain.Reminder{
		TargetScope: domain.ScopeGroup,
		ChatID:      -1,
		Message:     "fosilă",
		Kind:        domain.KindOnce,
		AnchorUTC:   utc(2025, time.June, 1, 10, 0), // 2+ days ago
		TZ:          "UTC",
	}); err != nil {
		t.Fatal(err)
	}

	s.CatchUp()
	s.Sweep()
	if notifier.count() != 0 {
		t.Fatalf("stale one-shot beyond grace must not fire, got %d", notifier.count())
	}
	if got := len(st.List()); got != 0 {
		t.Fatalf("stale one-shot must be removed, got %d", got)
	}
}

func TestCatchUp_RecurringReAnchorsWithoutBurst(t *testing.T) {
	clock := &fakeClock{now: utc(2025, time.June, 5, 13, 0)}
	notifier := &fakeNotifier{}
	s, st := newTestScheduler(t, clock, notifier)

	// Daily 09:00, missed for four days.
	if _, err := st.Add(domain.Reminder{
		TargetScope: domain.ScopeGroup,
		ChatID:      -1,
		Message:     "zilnic",
		Kind:        domain.KindDaily,
		AnchorUTC:   utc(2025, time.June, 1, 9, 0),
		TZ:          "UTC",
	}); err != nil {
		t.Fatal(err)
	}

	s.CatchUp()
	s.Sweep()
	if notifier.count() != 1 {
		t.Fatalf("want one catch-up fire, got %d", notifier.count())
	}
	all := st.List()
	if len(all) != 1 {
		t.Fatalf("want one record, got %d", len(all))
	}
	// Next future occurrence, not the day after the missed one.
	if want := utc(2025, time.June, 6, 9, 0); !all[0].AnchorUTC.Equal(want) {
		t.Fatalf("anchor: want %v, got %v", want, all[0].AnchorUTC)
	}
}

func TestCancel_RemovesPendingFire(t *testing.T) {
	clock := &fakeClock{now: utc(2025, time.June, 1, 9, 0)}
	notifier := &fakeNotifier{}
	s, st := newTestScheduler(t, clock, notifier)

	stored, err := s.Arm(domain.Reminder{
		TargetScope: domain.ScopeGroup,
		ChatID:      -1,
		Message:     "anulat",
		Kind:        domain.KindOnce,
		AnchorUTC:   utc(2025, time.June, 1, 10, 0),
		TZ:          "UTC",
	})
	if err != nil {
		t.Fatal(err)
	}

	if ok, err := s.Cancel(stored.ID); err != nil || !ok {
		t.Fatalf("cancel: ok=%v err=%v", ok, err)
	}

	// The fire time passes; the late sweep finds nothing.
	clock.Set(utc(2025, time.June, 1, 10, 5))
	s.Sweep()
	if notifier.count() != 0 {
		t.Fatalf("cancelled reminder fired %d times", notifier.count())
	}
	if got := len(st.List()); got != 0 {
		t.Fatalf("store must be empty, got %d", got)
	}

	// Cancelling again loses the race gracefully.
	if ok, err := s.Cancel(stored.ID); err != nil || ok {
		t.Fatalf("second cancel must be a no-op: ok=%v err=%v", ok, err)
	}
}

func TestSweep_NotifyFailureStillAdvances(t *testing.T) {
	clock := &fakeClock{now: utc(2025, time.June, 1, 9, 0)}
	notifier := &fakeNotifier{fail: true}
	s, st := newTestScheduler(t, clock, notifier)

	if _, err := s.Arm(domain.Reminder{
		TargetScope: domain.ScopeGroup,
		ChatID:      -1,
		Message:     "zilnic",
		Kind:        domain.KindDaily,
		AnchorUTC:   utc(2025, time.June, 1, 9, 0),
		TZ:          "UTC",
	}); err != nil {
		t.Fatal(err)
	}

	s.Sweep()

	// The occurrence counts as attempted; the schedule moves on so one bad
	// occurrence cannot cause a retry storm.
	all := st.List()
	if len(all) != 1 {
		t.Fatalf("want one record, got %d", len(all))
	}
	if want := utc(2025, time.June, 2, 9, 0); !all[0].AnchorUTC.Equal(want) {
		t.Fatalf("anchor: want %v, got %v", want, all[0].AnchorUTC)
	}
}

func TestReschedule_MovesFireTime(t *testing.T) {
	clock := &fakeClock{now: utc(2025, time.June, 1, 9, 0)}
	notifier := &fakeNotifier{}
	s, _ := newTestScheduler(t, clock, notifier)

	stored, err := s.Arm(domain.Reminder{
		TargetScope: domain.ScopeGroup,
		ChatID:      -1,
		Message:     "mutat",
		Kind:        domain.KindOnce,
		AnchorUTC:   utc(2025, time.June, 1, 10, 0),
		TZ:          "UTC",
	})
	if err != nil {
		t.Fatal(err)
	}

	if ok, err := s.Reschedule(stored.ID, utc(2025, time.June, 1, 12, 0)); err != nil || !ok {
		t.Fatalf("reschedule: ok=%v err=%v", ok, err)
	}

	// The old fire time passes without a notification.
	clock.Set(utc(2025, time.June, 1, 10, 5))
	s.Sweep()
	if notifier.count() != 0 {
		t.Fatal("fired at the old anchor after a reschedule")
	}

	clock.Set(utc(2025, time.June, 1, 12, 0))
	s.Sweep()
	if notifier.count() != 1 {
		t.Fatalf("want 1 fire at the new anchor, got %d", notifier.count())
	}

	if ok, err := s.Reschedule(99, utc(2025, time.June, 2, 9, 0)); err != nil || ok {
		t.Fatalf("rescheduling an unknown id must be a no-op: ok=%v err=%v", ok, err)
	}
}

func TestArm_RejectsDuplicates(t *testing.T) {
	clock := &fakeClock{now: utc(2025, time.June, 1, 9, 0)}
	s, _ := newTestScheduler(t, clock, &fakeNotifier{})

	r := domain.Reminder{
		TargetScope: domain.ScopeGroup,
		ChatID:      -1,
		Message:     "dublu",
		Kind:        domain.KindOnce,
		AnchorUTC:   utc(2025, time.June, 1, 10, 0),
		TZ:          "UTC",
	}
	if _, err := s.Arm(r); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Arm(r); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
}
