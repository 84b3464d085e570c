package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST" env-default:"localhost"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Backend struct {
		BaseURL string        `env:"BACKEND_BASE_URL" env-default:"http://localhost:3000"`
		Timeout time.Duration `env:"BACKEND_TIMEOUT" env-default:"10s"`
	}
	Identity struct {
		URL           string        `env:"IDENTITY_URL" env-description:"Base URL of the hosted project, without /auth/v1"`
		AnonKey       string        `env:"IDENTITY_ANON_KEY"`
		JWTSecret     string        `env:"IDENTITY_JWT_SECRET" env-description:"Verifies access tokens when set"`
		Timeout       time.Duration `env:"IDENTITY_TIMEOUT" env-default:"10s"`
		RefreshWindow time.Duration `env:"IDENTITY_REFRESH_WINDOW" env-default:"5m"`
		RefreshEvery  time.Duration `env:"IDENTITY_REFRESH_EVERY" env-default:"1m"`
	}
	Telegram struct {
		BotToken          string `env:"TELEGRAM_BOT_TOKEN"`
		ModeratorChatID   int64  `env:"TELEGRAM_MODERATOR_CHAT_ID"`
		UpdateTimeoutSecs int    `env:"TELEGRAM_UPDATE_TIMEOUT" env-default:"60"`
		// Outgoing call budget; Telegram answers 429 above roughly these.
		GlobalRate float64 `env:"TELEGRAM_GLOBAL_RATE" env-default:"30"`
		ChatRate   float64 `env:"TELEGRAM_CHAT_RATE" env-default:"1"`
		ChatBurst  int     `env:"TELEGRAM_CHAT_BURST" env-default:"5"`
	}
	View struct {
		IdleMinutes int `env:"VIEW_IDLE_MINUTES" env-default:"30"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}

// GetDSN returns the lib/pq style connection string used by goose.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("dbname=%s user=%s password=%s host=%s port=%d sslmode=%s",
		c.Postgres.Name, c.Postgres.User, c.Postgres.Pass, c.Postgres.Host, c.Postgres.Port, c.Postgres.SslMode,
	)
}

// GetURL returns the pgx connection URL.
func (c *Config) GetURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Pass,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.Name,
		c.Postgres.SslMode,
	)
}
