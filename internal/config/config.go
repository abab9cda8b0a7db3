package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken      string        `envconfig:"BOT_TOKEN" required:"true"`
	GroupID       int64         `envconfig:"GROUP_ID" required:"true"` // private group the bot answers in
	RemindersPath string        `envconfig:"REMINDERS_PATH" default:"./data/reminders.json"`
	DBPath        string        `envconfig:"DB_PATH" default:"./data/history.db"`
	DefaultTZ     string        `envconfig:"DEFAULT_TZ" default:"Europe/Bucharest"`
	WeatherAPIKey string        `envconfig:"WEATHER_API_KEY"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr      string        `envconfig:"HTTP_ADDR" default:":8080"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"20s"`
	OnceGrace     time.Duration `envconfig:"ONCE_GRACE" default:"24h"` // missed one-shot reminders older than this are dropped
}

// Load reads an optional .env file, then environment variables into Config.
func Load() (Config, error) {
	// Missing .env is fine; real env vars win either way.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
