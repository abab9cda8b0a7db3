package telegram

import (
	"context"
	"regexp"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Cristinuc/telegram-weather-bot/internal/history"
	"github.com/Cristinuc/telegram-weather-bot/internal/scheduler"
	"github.com/Cristinuc/telegram-weather-bot/internal/store"
	"github.com/Cristinuc/telegram-weather-bot/internal/weather"
)

// Sender adapts the bot API to the dispatcher's Notifier capability.
type Sender struct{ bot *tgbotapi.BotAPI }

func NewSender(bot *tgbotapi.BotAPI) *Sender {
	return &Sender{bot: bot}
}

// Notify sends a plain text message to the given chat.
func (s *Sender) Notify(chatID int64, text string) error {
	_, err := s.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// Trigger words that earn a joke instead of silence.
var jokeTriggers = []*regexp.Regexp{
	regexp.MustCompile(`\bpula\b`),
	regexp.MustCompile(`\bpizda\b`),
	regexp.MustCompile(`\bcoaie\b`),
	regexp.MustCompile(`\bmuie\b`),
}

// Deps are the collaborators the router dispatches into.
type Deps struct {
	Reminders *store.Store
	Scheduler *scheduler.Scheduler
	History   *history.Store
	Weather   *weather.Client // nil when WEATHER_API_KEY is unset
	GroupID   int64
	Location  *time.Location // group timezone for parsing and display
}

// Router wires Telegram updates to handlers. The bot serves exactly one
// private group; updates from anywhere else are dropped.
type Router struct {
	bot  *tgbotapi.BotAPI
	log  *zap.Logger
	deps Deps
}

func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, deps Deps) *Router {
	return &Router{bot: bot, log: log, deps: deps}
}

// HandleUpdate routes one update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	if msg.Chat.ID != r.deps.GroupID {
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			r.sendText(startText)
		case "help":
			r.sendText(helpText)
		case "ping":
			r.sendText(pingText)
		case "remind":
			r.handleRemind(msg)
		case "reminders":
			r.handleReminders()
		case "delremind":
			r.handleDelRemind(msg.CommandArguments())
		case "weather":
			r.handleWeather(ctx, msg.CommandArguments())
		case "summary":
			r.handleSummary(ctx, msg.CommandArguments())
		case "mood":
			r.handleMood(ctx)
		}
		return
	}

	r.handleText(ctx, msg)
}

func (r *Router) sendText(text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(r.deps.GroupID, text)); err != nil {
		r.log.Error("send failed", zap.Error(err))
	}
}
