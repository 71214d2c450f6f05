package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the API server configuration.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Port     int    `envconfig:"APP_PORT" default:"8080"`
	DB       DBConfig
	CORS     CORSConfig
	JWT      JWTConfig
	Gmail    GmailConfig
	Reminder ReminderConfig
	Calendar CalendarConfig
	Limiter  RateLimiterConfig
}

type DBConfig struct {
	DSN          string        `envconfig:"DATABASE_URL" default:"host=localhost user=postgres password=password dbname=interviews port=5432 sslmode=disable"`
	MaxOpenConns int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int           `envconfig:"DB_MAX_IDLE_CONNS" default:"25"`
	MaxIdleTime  time.Duration `envconfig:"DB_MAX_IDLE_TIME" default:"15m"`
}

// RateLimiterConfig applies per client IP.
type RateLimiterConfig struct {
	RPS     float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst   int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
	Enabled bool    `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

type CORSConfig struct {
	TrustedOrigins []string `envconfig:"CORS_TRUSTED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type JWTConfig struct {
	Secret         string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"24h"`
}

// GmailConfig points at the OAuth client file and the cached user token.
// Reminders are disabled unless Enabled is set.
type GmailConfig struct {
	Enabled         bool   `envconfig:"GMAIL_ENABLED" default:"false"`
	CredentialsFile string `envconfig:"GMAIL_CREDENTIALS_FILE" default:"credential.json"`
	TokenFile       string `envconfig:"GMAIL_TOKEN_FILE" default:"token.json"`
	Sender          string `envconfig:"GMAIL_SENDER" default:"me"`
}

type ReminderConfig struct {
	Interval time.Duration `envconfig:"REMINDER_INTERVAL" default:"15m"`
	Lead     time.Duration `envconfig:"REMINDER_LEAD" default:"24h"`
}

type CalendarConfig struct {
	// Used when a calendar request carries no tz parameter.
	DefaultTimezone string `envconfig:"CALENDAR_DEFAULT_TZ" default:"UTC"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// a missing .env is fine outside development
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.DB.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) cannot exceed DB_MAX_OPEN_CONNS (%d)",
			c.DB.MaxIdleConns, c.DB.MaxOpenConns)
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.JWT.AccessTokenTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TOKEN_TTL must be positive")
	}
	if len(c.CORSOrigins()) == 0 {
		return fmt.Errorf("at least one trusted origin must be specified")
	}
	if c.Limiter.Enabled && (c.Limiter.RPS <= 0 || c.Limiter.Burst < 1) {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive and RATE_LIMIT_BURST at least 1")
	}
	if c.Reminder.Interval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	if _, err := time.LoadLocation(c.Calendar.DefaultTimezone); err != nil {
		return fmt.Errorf("CALENDAR_DEFAULT_TZ: %w", err)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// CORSOrigins returns the trimmed, non-empty trusted origins.
func (c *Config) CORSOrigins() []string {
	origins := make([]string, 0, len(c.CORS.TrustedOrigins))
	for _, origin := range c.CORS.TrustedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// DefaultLocation is safe to call after Validate.
func (c *Config) DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, Port=%d, DB.MaxOpenConns=%d, CORS.Origins=%d, "+
		"JWT.AccessTokenTTL=%s, Gmail.Enabled=%t, Reminder.Interval=%s, Calendar.DefaultTimezone=%s, "+
		"Limiter.Enabled=%t}",
		c.Env, c.Port, c.DB.MaxOpenConns, len(c.CORS.TrustedOrigins),
		c.JWT.AccessTokenTTL, c.Gmail.Enabled, c.Reminder.Interval, c.Calendar.DefaultTimezone,
		c.Limiter.Enabled)
}

// AgendaConfig configures the terminal agenda client. Flags override it.
type AgendaConfig struct {
	BaseURL         string        `envconfig:"AGENDA_API_URL" default:"http://localhost:8080/api/v1"`
	Token           string        `envconfig:"AGENDA_TOKEN"`
	Role            string        `envconfig:"AGENDA_ROLE" default:"job_seeker"`
	Timezone        string        `envconfig:"AGENDA_TZ" default:"Local"`
	RefreshInterval time.Duration `envconfig:"AGENDA_REFRESH_INTERVAL" default:"30s"`
	Timeout         time.Duration `envconfig:"AGENDA_HTTP_TIMEOUT" default:"10s"`
}

func LoadAgenda() (*AgendaConfig, error) {
	_ = godotenv.Load()

	var cfg AgendaConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *AgendaConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("AGENDA_API_URL must not be empty")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("AGENDA_REFRESH_INTERVAL must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("AGENDA_HTTP_TIMEOUT must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("AGENDA_TZ: %w", err)
	}
	return nil
}

func (c *AgendaConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
