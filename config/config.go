package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		// Port the HTTP server listens on
		Port int `env:"PORT" envDefault:"5250"`

		// Gin mode: debug, release or test
		GinMode string `env:"GIN_MODE" envDefault:"release"`

		// Origins allowed by the CORS middleware
		CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`

		ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}

	Database struct {
		// sqlite or postgres
		Driver string `env:"DB_DRIVER" envDefault:"sqlite"`

		// File path for sqlite, connection string for postgres
		DSN string `env:"DB_DSN" envDefault:"database/properties.db"`

		MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
		MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	}

	Auth struct {
		JWTSecret string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
		Issuer    string        `env:"JWT_ISSUER" envDefault:"property-management"`
		TokenTTL  time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`
	}

	Cache struct {
		// Empty disables the analytics cache
		RedisURL     string        `env:"REDIS_URL"`
		AnalyticsTTL time.Duration `env:"ANALYTICS_CACHE_TTL" envDefault:"5m"`
	}

	Telegram struct {
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
		APIBase  string `env:"TELEGRAM_API_BASE" envDefault:"https://api.telegram.org"`
	}

	Notifications struct {
		QueueSize  int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"100"`
		Workers    int           `env:"NOTIFY_WORKERS" envDefault:"2"`
		MaxRetries int           `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`
		RetryDelay time.Duration `env:"NOTIFY_RETRY_DELAY" envDefault:"2s"`
	}

	Scheduler struct {
		Enabled       bool `env:"SCHEDULER_ENABLED" envDefault:"true"`
		ReconcileHour int  `env:"SCHEDULER_RECONCILE_HOUR" envDefault:"3"`
		DigestHour    int  `env:"SCHEDULER_DIGEST_HOUR" envDefault:"8"`

		// Look-ahead window of the due-maintenance digest
		DigestDays int `env:"SCHEDULER_DIGEST_DAYS" envDefault:"7"`
	}

	Geocoding struct {
		Enabled      bool          `env:"GEOCODING_ENABLED" envDefault:"false"`
		BaseURL      string        `env:"GEOCODING_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`
		UserAgent    string        `env:"GEOCODING_USER_AGENT" envDefault:"property-management/1.0"`
		CountryCodes string        `env:"GEOCODING_COUNTRY_CODES"`
		CacheDir     string        `env:"GEOCODING_CACHE_DIR" envDefault:"database/geocode_cache"`
		MinInterval  time.Duration `env:"GEOCODING_MIN_INTERVAL" envDefault:"1s"`
	}

	Log struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
	}
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	for name, hour := range map[string]int{
		"SCHEDULER_RECONCILE_HOUR": c.Scheduler.ReconcileHour,
		"SCHEDULER_DIGEST_HOUR":    c.Scheduler.DigestHour,
	} {
		if hour < 0 || hour > 23 {
			return fmt.Errorf("%s must be between 0 and 23, got %d", name, hour)
		}
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TOKEN_TTL must be positive")
	}
	return nil
}
