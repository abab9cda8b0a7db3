package dispatch

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Cristinuc/telegram-weather-bot/internal/domain"
)

// Notifier is the single capability consumed from the messaging transport.
type Notifier interface {
	Notify(chatID int64, text string) error
}

// Result reports the outcome of one dispatch attempt. Err is informational:
// the scheduler advances the reminder's state either way, because schedule
// correctness must not depend on transport availability.
type Result struct {
	Delivered bool
	Err       error
}

// Dispatcher resolves a reminder into a message and hands it to the
// transport. It never lets a transport failure escape into the sweep loop.
type Dispatcher struct {
	notifier Notifier
	log      *zap.Logger
}

func New(n Notifier, log *zap.Logger) *Dispatcher {
	return &Dispatcher{notifier: n, log: log}
}

// Fire sends the reminder's notification.
func (d *Dispatcher) Fire(r domain.Reminder) Result {
	text := renderText(r)
	if err := d.notifier.Notify(r.ChatID, text); err != nil {
		d.log.Error("notify failed",
			zap.Error(err),
			zap.Int64("id", r.ID),
			zap.String("job", r.JobName),
		)
		return Result{Delivered: false, Err: err}
	}
	return Result{Delivered: true}
}

// renderText builds the display text, prefixing a mention for user-scoped
// reminders. Falls back to a numeric mention token when the username is
// unknown at fire time.
func renderText(r domain.Reminder) string {
	if r.TargetScope != domain.ScopeUser {
		return "⏰ " + r.Message
	}
	switch {
	case r.TargetUsername != "":
		return fmt.Sprintf("⏰ @%s %s", r.TargetUsername, r.Message)
	case r.TargetUserID != 0:
		return fmt.Sprintf("⏰ tg://user?id=%d %s", r.TargetUserID, r.Message)
	default:
		return "⏰ " + r.Message
	}
}
