package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores service settings.
type Config struct {
	Port             int
	LogFormat        string
	LogLevel         string
	OperationTimeout time.Duration

	DB         DB
	Redis      Redis
	Kafka      Kafka
	Stripe     Stripe
	Geocode    Geocode
	Assignment Assignment
	Tracking   Tracking
	Notify     Notify
	RateLimit  RateLimit
	Jobs       Jobs
	Pprof      Pprof
}

// DB stores Postgres connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN returns a postgres connection URL.
func (d DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Pass),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Redis stores tracking cache settings. An empty URL selects the in-process cache.
type Redis struct {
	URL string
}

// Kafka stores notification queue settings. No brokers selects the in-process queue.
type Kafka struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Enabled reports whether Kafka is configured.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != "" && k.GroupID != ""
}

// Stripe stores payment processor settings.
type Stripe struct {
	APIKey        string
	WebhookSecret string
}

// Geocode stores geocoding provider settings. An empty key disables geocoding.
type Geocode struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Assignment stores assignment engine settings.
type Assignment struct {
	DriverCapacity int
}

// Tracking stores tracking cache expiry settings.
type Tracking struct {
	SettledTTL time.Duration
	ActiveTTL  time.Duration
}

// Notify stores notification delivery settings.
type Notify struct {
	MaxAttempts int
	Backoff     time.Duration
	Workers     int
	QueueSize   int
}

// RateLimit stores HTTP rate limiter settings.
// DriverRate and DriverBurst apply to driver principals.
type RateLimit struct {
	Enabled     bool
	Rate        float64
	Burst       int
	DriverRate  float64
	DriverBurst int
	TTL         time.Duration
	MaxBuckets  int
}

// Jobs stores scheduled job settings.
type Jobs struct {
	StatusMetricsSchedule string
}

// Pprof stores profiler settings. Remote access needs both credentials.
type Pprof struct {
	Enabled bool
	User    string
	Pass    string
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:             defaultPort,
		LogFormat:        envString("LOG_FORMAT", "slog"),
		LogLevel:         envString("LOG_LEVEL", "info"),
		OperationTimeout: defaultOperationTimeout,
		DB: DB{
			Host: envString("POSTGRES_HOST", defaultDB.Host),
			Port: envString("POSTGRES_PORT", defaultDB.Port),
			User: envString("POSTGRES_USER", defaultDB.User),
			Pass: envString("POSTGRES_PASSWORD", defaultDB.Pass),
			Name: envString("POSTGRES_DB", defaultDB.Name),
		},
		Redis: Redis{URL: envString("REDIS_URL", "")},
		Kafka: Kafka{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envString("KAFKA_NOTIFICATIONS_TOPIC", defaultKafka.Topic),
			GroupID: envString("KAFKA_GROUP_ID", defaultKafka.GroupID),
		},
		Stripe: Stripe{
			APIKey:        envString("STRIPE_API_KEY", ""),
			WebhookSecret: envString("STRIPE_WEBHOOK_SECRET", ""),
		},
		Geocode: Geocode{
			APIKey:  envString("GEOCODE_API_KEY", ""),
			BaseURL: envString("GEOCODE_BASE_URL", defaultGeocode.BaseURL),
			Timeout: defaultGeocode.Timeout,
		},
		Assignment: defaultAssignment,
		Tracking:   defaultTracking,
		Notify:     defaultNotify,
		RateLimit:  defaultRateLimit,
		Jobs: Jobs{
			StatusMetricsSchedule: envString("STATUS_METRICS_SCHEDULE", defaultStatusMetricsSchedule),
		},
		Pprof: Pprof{
			User: envString("PPROF_USER", ""),
			Pass: envString("PPROF_PASS", ""),
		},
	}

	p := parser{}
	p.int("PORT", &cfg.Port)
	p.duration("OPERATION_TIMEOUT", &cfg.OperationTimeout)
	p.duration("GEOCODE_TIMEOUT", &cfg.Geocode.Timeout)
	p.int("DRIVER_CAPACITY", &cfg.Assignment.DriverCapacity)
	p.duration("TRACKING_TTL_TERMINAL", &cfg.Tracking.SettledTTL)
	p.duration("TRACKING_TTL_ACTIVE", &cfg.Tracking.ActiveTTL)
	p.int("NOTIFY_MAX_ATTEMPTS", &cfg.Notify.MaxAttempts)
	p.duration("NOTIFY_BACKOFF", &cfg.Notify.Backoff)
	p.int("NOTIFY_WORKERS", &cfg.Notify.Workers)
	p.int("NOTIFY_QUEUE_SIZE", &cfg.Notify.QueueSize)
	p.bool("RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled)
	p.float("RATE_LIMIT_RATE", &cfg.RateLimit.Rate)
	p.int("RATE_LIMIT_BURST", &cfg.RateLimit.Burst)
	p.float("RATE_LIMIT_DRIVER_RATE", &cfg.RateLimit.DriverRate)
	p.int("RATE_LIMIT_DRIVER_BURST", &cfg.RateLimit.DriverBurst)
	p.duration("RATE_LIMIT_TTL", &cfg.RateLimit.TTL)
	p.int("RATE_LIMIT_MAX_BUCKETS", &cfg.RateLimit.MaxBuckets)
	p.bool("PPROF_ENABLED", &cfg.Pprof.Enabled)
	if p.err != nil {
		return nil, p.err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.IntVar(&cfg.Assignment.DriverCapacity, "driver-capacity", cfg.Assignment.DriverCapacity,
		"maximum active parcels per driver")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if p, err := strconv.Atoi(c.DB.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid POSTGRES_PORT: %q", c.DB.Port)
	}
	if c.Assignment.DriverCapacity <= 0 {
		return fmt.Errorf("invalid DRIVER_CAPACITY: %d", c.Assignment.DriverCapacity)
	}
	if c.Tracking.SettledTTL <= 0 || c.Tracking.ActiveTTL <= 0 {
		return fmt.Errorf("tracking ttl must be positive")
	}
	if c.Notify.MaxAttempts <= 0 {
		return fmt.Errorf("invalid NOTIFY_MAX_ATTEMPTS: %d", c.Notify.MaxAttempts)
	}
	if c.Notify.Backoff < 0 {
		return fmt.Errorf("invalid NOTIFY_BACKOFF: %s", c.Notify.Backoff)
	}
	if c.Notify.Workers <= 0 {
		return fmt.Errorf("invalid NOTIFY_WORKERS: %d", c.Notify.Workers)
	}
	switch c.LogFormat {
	case "slog", "zap":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %q", c.LogFormat)
	}
	return nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser keeps the first env parse error.
type parser struct{ err error }

func (p *parser) lookup(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (p *parser) int(key string, dst *int) {
	if v, ok := p.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.err = fmt.Errorf("invalid %s: %w", key, err)
			return
		}
		*dst = n
	}
}

func (p *parser) float(key string, dst *float64) {
	if v, ok := p.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.err = fmt.Errorf("invalid %s: %w", key, err)
			return
		}
		*dst = f
	}
}

func (p *parser) bool(key string, dst *bool) {
	if v, ok := p.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			p.err = fmt.Errorf("invalid %s: %w", key, err)
			return
		}
		*dst = b
	}
}

func (p *parser) duration(key string, dst *time.Duration) {
	if v, ok := p.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			p.err = fmt.Errorf("invalid %s: %w", key, err)
			return
		}
		*dst = d
	}
}
