package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Cristinuc/telegram-weather-bot/internal/analysis"
	"github.com/Cristinuc/telegram-weather-bot/internal/domain"
	"github.com/Cristinuc/telegram-weather-bot/internal/history"
	"github.com/Cristinuc/telegram-weather-bot/internal/store"
	"github.com/Cristinuc/telegram-weather-bot/internal/weather"
)

const (
	summaryDefaultHours = 12
	moodSampleSize      = 100
)

// handleRemind parses the creation grammar, runs the time-spec parser in
// the group's timezone and arms the reminder.
func (r *Router) handleRemind(msg *tgbotapi.Message) {
	req, err := ParseRemindArgs(msg.CommandArguments())
	if err != nil {
		r.sendText(err.Error())
		return
	}

	sched, err := domain.ParseTimeSpec(req.Spec, r.deps.Location, time.Now())
	if err != nil {
		r.sendText(err.Error())
		return
	}

	rem := domain.Reminder{
		TargetScope:    req.Scope,
		TargetUsername: req.Username,
		ChatID:         msg.Chat.ID,
		Message:        req.Message,
		Kind:           sched.Kind,
		AnchorUTC:      sched.AnchorUTC,
		IntervalSec:    sched.IntervalSec,
		DaysOfWeek:     sched.DaysOfWeek,
		DayOfMonth:     sched.DayOfMonth,
		TZ:             r.deps.Location.String(),
	}

	stored, err := r.deps.Scheduler.Arm(rem)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		r.sendText(duplicateText)
		return
	case errors.Is(err, domain.ErrValidation):
		r.sendText(err.Error())
		return
	case err != nil:
		// Persistence failure: the reminder was never durably recorded,
		// so the caller must know the request failed.
		r.log.Error("arm reminder failed", zap.Error(err))
		r.sendText(persistFailedText)
		return
	}

	local := stored.AnchorUTC.In(r.deps.Location)
	r.sendText(fmt.Sprintf("Memento #%d programat: %s (%s).",
		stored.ID, local.Format("02-01-2006 15:04"), kindLabel(stored.Kind)))
}

func (r *Router) handleReminders() {
	all := r.deps.Reminders.List()
	if len(all) == 0 {
		r.sendText(noRemindersText)
		return
	}

	var b strings.Builder
	b.WriteString("Memento-uri programate:\n")
	for _, rem := range all {
		local := rem.AnchorUTC.In(r.deps.Location)
		target := "grup"
		if rem.TargetScope == domain.ScopeUser {
			target = "@" + rem.TargetUsername
		}
		fmt.Fprintf(&b, "#%d %s %s — %s (%s)\n",
			rem.ID, target, rem.Message, local.Format("02-01-2006 15:04"), kindLabel(rem.Kind))
	}
	r.sendText(b.String())
}

func (r *Router) handleDelRemind(args string) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || id <= 0 {
		r.sendText("Folosește: /delremind <id>.")
		return
	}
	rem, found := r.deps.Reminders.Get(id)
	if !found {
		r.sendText(fmt.Sprintf("Memento #%d nu există.", id))
		return
	}
	ok, err := r.deps.Scheduler.Cancel(id)
	if err != nil {
		r.log.Error("cancel reminder failed", zap.Error(err), zap.Int64("id", id))
		r.sendText(persistFailedText)
		return
	}
	if !ok {
		// Fired and removed between the lookup and the cancel.
		r.sendText(fmt.Sprintf("Memento #%d nu există.", id))
		return
	}
	r.sendText(fmt.Sprintf("Șters memento #%d (%s).", id, rem.Message))
}

func (r *Router) handleWeather(ctx context.Context, args string) {
	if r.deps.Weather == nil {
		r.sendText(weatherDisabled)
		return
	}
	city := strings.TrimSpace(args)
	if city == "" {
		r.sendText(weatherMissingCity)
		return
	}

	cond, err := r.deps.Weather.Current(ctx, city)
	if errors.Is(err, weather.ErrCityNotFound) {
		r.sendText(weatherNotFound)
		return
	}
	if err != nil {
		r.log.Error("weather lookup failed", zap.Error(err), zap.String("city", city))
		r.sendText("Serviciul meteo nu răspunde.")
		return
	}
	r.sendText(fmt.Sprintf("%s. %.0f°C. %s.", cond.City, cond.TempC, cond.Description))
}

// handleSummary mirrors the original semantics: a numeric argument up to 24
// is a window in hours, anything larger is a message count.
func (r *Router) handleSummary(ctx context.Context, args string) {
	msgs, err := r.summaryMessages(ctx, strings.TrimSpace(args))
	if err != nil {
		r.log.Error("history read failed", zap.Error(err))
		r.sendText(nothingToSummarize)
		return
	}
	if len(msgs) == 0 {
		r.sendText(nothingToSummarize)
		return
	}

	top := analysis.TopWords(msgs, 5)
	if len(top) == 0 {
		r.sendText(nothingToSummarize)
		return
	}

	var b strings.Builder
	b.WriteString("Subiecte frecvente:\n")
	for _, wc := range top {
		fmt.Fprintf(&b, "- %s\n", wc.Word)
	}
	r.sendText(b.String())
}

// summaryMessages selects the slice of history the summary runs over.
func (r *Router) summaryMessages(ctx context.Context, arg string) ([]history.Message, error) {
	now := time.Now().UTC()
	if arg != "" {
		if val, err := strconv.Atoi(arg); err == nil && val > 0 {
			if val <= 24 {
				return r.deps.History.Since(ctx, r.deps.GroupID, now.Add(-time.Duration(val)*time.Hour))
			}
			return r.deps.History.Recent(ctx, r.deps.GroupID, val)
		}
	}
	return r.deps.History.Since(ctx, r.deps.GroupID, now.Add(-summaryDefaultHours*time.Hour))
}

func (r *Router) handleMood(ctx context.Context) {
	msgs, err := r.deps.History.Recent(ctx, r.deps.GroupID, moodSampleSize)
	if err != nil {
		r.log.Error("history read failed", zap.Error(err))
		return
	}
	mood := analysis.Mood(analysis.MoodScore(msgs))
	r.sendText(fmt.Sprintf("Ton general: %s.", mood))
}

// handleText records the message and answers trigger words with a joke.
func (r *Router) handleText(ctx context.Context, msg *tgbotapi.Message) {
	text := msg.Text
	if text == "" {
		return
	}

	userName := ""
	if msg.From != nil {
		userName = msg.From.UserName
	}
	rec := history.Message{
		ChatID:   msg.Chat.ID,
		UserName: userName,
		Text:     text,
		SentAt:   time.Now().UTC(),
	}
	if err := r.deps.History.Record(ctx, rec); err != nil {
		r.log.Error("record message failed", zap.Error(err))
	}

	lower := strings.ToLower(text)
	for _, trigger := range jokeTriggers {
		if trigger.MatchString(lower) {
			lang := analysis.DetectLang(text)
			pool := jokes[lang]
			r.sendText(pool[int(time.Now().Unix())%len(pool)])
			return
		}
	}
}

func kindLabel(k domain.Kind) string {
	switch k {
	case domain.KindOnce:
		return "o singură dată"
	case domain.KindInterval:
		return "repetat la interval"
	case domain.KindDaily:
		return "zilnic"
	case domain.KindWeekly:
		return "săptămânal"
	case domain.KindMonthly:
		return "lunar"
	}
	return string(k)
}
