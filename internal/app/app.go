package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Cristinuc/telegram-weather-bot/internal/config"
	"github.com/Cristinuc/telegram-weather-bot/internal/dispatch"
	"github.com/Cristinuc/telegram-weather-bot/internal/history"
	"github.com/Cristinuc/telegram-weather-bot/internal/scheduler"
	"github.com/Cristinuc/telegram-weather-bot/internal/store"
	"github.com/Cristinuc/telegram-weather-bot/internal/telegram"
	"github.com/Cristinuc/telegram-weather-bot/internal/weather"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	hist    *history.Store
	router  *telegram.Router
	sched   *scheduler.Scheduler
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting group bot",
		zap.Int64("group", a.cfg.GroupID),
		zap.String("http", a.cfg.HTTPAddr),
	)

	loc, err := time.LoadLocation(a.cfg.DefaultTZ)
	if err != nil {
		a.log.Error("invalid DEFAULT_TZ", zap.Error(err), zap.String("tz", a.cfg.DefaultTZ))
		return err
	}

	reminders, err := store.Open(a.cfg.RemindersPath)
	if err != nil {
		a.log.Error("open reminder store failed", zap.Error(err))
		return err
	}
	a.log.Info("reminder store ready", zap.Int("pending", len(reminders.List())))

	hist, err := history.Open(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open history failed", zap.Error(err))
		return err
	}
	a.hist = hist
	a.log.Info("history store ready")

	var wc *weather.Client
	if a.cfg.WeatherAPIKey != "" {
		wc = weather.New(a.cfg.WeatherAPIKey)
	}

	disp := dispatch.New(telegram.NewSender(a.bot), a.log)
	a.sched = scheduler.New(reminders, disp, a.log, scheduler.Options{
		SweepInterval: a.cfg.SweepInterval,
		OnceGrace:     a.cfg.OnceGrace,
	})

	a.router = telegram.NewRouter(a.bot, a.log, telegram.Deps{
		Reminders: reminders,
		Scheduler: a.sched,
		History:   hist,
		Weather:   wc,
		GroupID:   a.cfg.GroupID,
		Location:  loc,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.sched.Run(ctx)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.hist != nil {
				_ = a.hist.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
