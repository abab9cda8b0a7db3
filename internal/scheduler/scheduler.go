package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Cristinuc/telegram-weather-bot/internal/dispatch"
	"github.com/Cristinuc/telegram-weather-bot/internal/domain"
	"github.com/Cristinuc/telegram-weather-bot/internal/store"
)

// Clock abstracts time.Now so tests can drive the sweep with virtual time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the real-time clock used in production.
var SystemClock Clock = systemClock{}

// Options tunes the sweep loop.
type Options struct {
	SweepInterval time.Duration // how often due reminders are checked
	OnceGrace     time.Duration // missed one-shots older than this are dropped
	Clock         Clock
}

// Scheduler fires due reminders. It owns no reminder state of its own: every
// sweep reads the store, so a delete needs no timer bookkeeping: the late
// fire simply finds nothing due. At most one sweep runs at a time.
type Scheduler struct {
	store *store.Store
	disp  *dispatch.Dispatcher
	log   *zap.Logger
	opts  Options
	wake  chan struct{}
}

func New(st *store.Store, d *dispatch.Dispatcher, log *zap.Logger, opts Options) *Scheduler {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 20 * time.Second
	}
	if opts.OnceGrace <= 0 {
		opts.OnceGrace = 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	return &Scheduler{
		store: st,
		disp:  d,
		log:   log,
		opts:  opts,
		wake:  make(chan struct{}, 1),
	}
}

// Arm validates, persists and schedules a new reminder. The store assigns
// the id and job name; the next sweep picks the reminder up, so no separate
// timer registration exists to get out of sync.
func (s *Scheduler) Arm(r domain.Reminder) (domain.Reminder, error) {
	stored, err := s.store.Add(r)
	if err != nil {
		return domain.Reminder{}, err
	}
	s.kick()
	return stored, nil
}

// Cancel deletes a reminder and, with it, its pending fire. Returns false
// when the id was already gone.
func (s *Scheduler) Cancel(id int64) (bool, error) {
	return s.store.Delete(id)
}

// Reschedule moves a reminder's next fire time.
func (s *Scheduler) Reschedule(id int64, next time.Time) (bool, error) {
	ok, err := s.store.UpdateAnchor(id, next)
	if err == nil && ok {
		s.kick()
	}
	return ok, err
}

// Run executes the startup catch-up, then sweeps until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	s.CatchUp()
	s.Sweep()

	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.Sweep()
		case <-s.wake:
			s.Sweep()
		}
	}
}

// CatchUp handles reminders that came due while the process was down.
// One-shots older than the grace window are dropped with a log line instead
// of firing absurdly late; everything else past due fires exactly once on
// the first sweep, and recurring kinds re-anchor strictly after "now", so a
// long outage yields one catch-up notification, never a burst of stale ones.
func (s *Scheduler) CatchUp() {
	now := s.opts.Clock.Now().UTC()
	for _, r := range s.store.List() {
		if r.Recurring() {
			continue
		}
		if now.Sub(r.AnchorUTC) <= s.opts.OnceGrace {
			continue
		}
		if _, err := s.store.Delete(r.ID); err != nil {
			s.log.Error("drop stale reminder failed", zap.Error(err), zap.Int64("id", r.ID))
			continue
		}
		s.log.Warn("dropped stale one-shot reminder",
			zap.Int64("id", r.ID),
			zap.Time("anchor", r.AnchorUTC),
		)
	}
}

// Sweep fires every due reminder once and applies its state transition.
// Failures are per-reminder: a bad notify or a failed persist never stops
// the remaining due reminders from firing.
func (s *Scheduler) Sweep() {
	now := s.opts.Clock.Now().UTC()
	for _, r := range s.store.ListDue(now) {
		s.fire(r, now)
	}
}

// fire dispatches one occurrence and then persists the transition:
// notify first, advance or delete immediately after, regardless of the
// notify outcome. A crash between the two replays the occurrence on
// restart: at-least-once dispatch; the replay is bounded to one occurrence
// because deletes and anchor advances are idempotent by id.
func (s *Scheduler) fire(r domain.Reminder, now time.Time) {
	res := s.disp.Fire(r)
	if res.Delivered {
		s.log.Info("reminder fired",
			zap.Int64("id", r.ID),
			zap.String("kind", string(r.Kind)),
			zap.String("job", r.JobName),
		)
	}

	next, ok := r.NextAfter(now)
	if !ok {
		if _, err := s.store.Delete(r.ID); err != nil {
			s.log.Error("remove fired reminder failed", zap.Error(err), zap.Int64("id", r.ID))
		}
		return
	}
	if _, err := s.store.UpdateAnchor(r.ID, next); err != nil {
		s.log.Error("reschedule failed", zap.Error(err), zap.Int64("id", r.ID))
	}
}

// kick requests a prompt sweep without blocking; a pending kick is enough.
func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
