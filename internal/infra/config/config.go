package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config aggregates application configuration values loaded from environment variables.
// Empty backend addresses select the in-memory implementations.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	Currency string `envconfig:"CURRENCY" default:"KES"`

	MongoURI string `envconfig:"MONGO_URI"`
	MongoDB  string `envconfig:"MONGO_DB" default:"rentals"`

	KafkaBrokers       []string        `envconfig:"KAFKA_BROKERS"`
	KafkaTopicPrefix   string          `envconfig:"KAFKA_TOPIC_PREFIX"`
	OutboxPollInterval time.Duration   `envconfig:"OUTBOX_POLL_INTERVAL" default:"500ms"`
	RetryBackoff       []time.Duration `envconfig:"RETRY_BACKOFF" default:"1s,5s,30s"`
	IdempotencyTTL     time.Duration   `envconfig:"IDEMP_TTL" default:"168h"`

	Redis    RedisConfig
	Referral ReferralConfig
	Location LocationConfig

	LookupDebounce   time.Duration `envconfig:"LOOKUP_DEBOUNCE" default:"300ms"`
	BookingsFixtures string        `envconfig:"BOOKINGS_FIXTURES"`
	CORSOrigins      []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type ReferralConfig struct {
	URL      string        `envconfig:"REFERRAL_URL"`
	CacheTTL time.Duration `envconfig:"REFERRAL_CACHE_TTL" default:"10m"`
	RPS      float64       `envconfig:"REFERRAL_RPS" default:"5"`
	Timeout  time.Duration `envconfig:"REFERRAL_TIMEOUT" default:"3s"`
}

type LocationConfig struct {
	URL     string        `envconfig:"LOCATION_URL"`
	RPS     float64       `envconfig:"LOCATION_RPS" default:"5"`
	Timeout time.Duration `envconfig:"LOCATION_TIMEOUT" default:"3s"`
}

// Load parses configuration from the current environment after applying the
// given dotenv files. Missing files are skipped; variables already set win.
func Load(dotenv ...string) (Config, error) {
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if len(c.Currency) != 3 {
		return fmt.Errorf("config: CURRENCY must be a 3-letter code, got %q", c.Currency)
	}
	for _, d := range c.RetryBackoff {
		if d <= 0 {
			return fmt.Errorf("config: RETRY_BACKOFF components must be positive")
		}
	}
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("config: OUTBOX_POLL_INTERVAL must be positive")
	}
	if c.LookupDebounce < 0 {
		return fmt.Errorf("config: LOOKUP_DEBOUNCE must not be negative")
	}
	return nil
}

func (c Config) UseMongo() bool { return c.MongoURI != "" }

func (c Config) UseKafka() bool { return len(c.KafkaBrokers) > 0 }

func (c Config) UseRedis() bool { return c.Redis.Addr != "" }
