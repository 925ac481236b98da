// Package config loads the console configuration from defaults, an optional
// YAML file and COMPCONSOLE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "COMPCONSOLE_"

// PathEnv names the variable holding the YAML config path
const PathEnv = EnvPrefix + "CONFIG"

// Storage types
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config is the full console configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" envPrefix:"SERVER_"`
	Log         LogConfig         `yaml:"log" envPrefix:"LOG_"`
	Storage     StorageConfig     `yaml:"storage" envPrefix:"STORAGE_"`
	Auth        AuthConfig        `yaml:"auth" envPrefix:"AUTH_"`
	Competition CompetitionConfig `yaml:"competition" envPrefix:"COMPETITION_"`
	Events      EventsConfig      `yaml:"events" envPrefix:"EVENTS_"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"CORS_ORIGINS"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"FORMAT"` // json or text
}

// StorageConfig selects and configures the backend
type StorageConfig struct {
	Type        string `yaml:"type" env:"TYPE"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`
	SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	PostgresURL string `yaml:"postgres_url" env:"POSTGRES_URL"`
}

// AuthConfig holds admin session settings
type AuthConfig struct {
	SessionDuration time.Duration `yaml:"session_duration" env:"SESSION_DURATION"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"CLEANUP_INTERVAL"`
}

// CompetitionConfig holds the timing rules
type CompetitionConfig struct {
	SessionCap    int           `yaml:"session_cap" env:"SESSION_CAP"` // seconds
	Days          int           `yaml:"days" env:"DAYS"`
	ClampOnStop   bool          `yaml:"clamp_on_stop" env:"CLAMP_ON_STOP"`
	AutoStopAtCap bool          `yaml:"auto_stop_at_cap" env:"AUTO_STOP_AT_CAP"`
	WatchInterval time.Duration `yaml:"watch_interval" env:"WATCH_INTERVAL"`
}

// EventsConfig controls change notification
type EventsConfig struct {
	// NATSURL enables the shared NATS change feed when set
	NATSURL      string        `yaml:"nats_url" env:"NATS_URL"`
	SSEKeepalive time.Duration `yaml:"sse_keepalive" env:"SSE_KEEPALIVE"`
}

// Default returns the configuration used when nothing overrides it
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // SSE streams stay open
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Type:       StorageMemory,
			SQLitePath: "compconsole.db",
		},
		Auth: AuthConfig{
			SessionDuration: 24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Competition: CompetitionConfig{
			SessionCap:    600,
			Days:          3,
			WatchInterval: time.Second,
		},
		Events: EventsConfig{
			SSEKeepalive: 15 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the process environment
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// load is Load with an explicit environment; nil means the process environment
func load(path string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config file: %w", err)
		}
		defer f.Close()
		if err := decodeYAML(f, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks the configuration for values the console cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("storage.redis_url required when storage.type is redis"))
		}
	case StorageSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			errs = append(errs, errors.New("storage.sqlite_path required when storage.type is sqlite"))
		}
	case StoragePostgres:
		if c.Storage.PostgresURL == "" {
			errs = append(errs, errors.New("storage.postgres_url required when storage.type is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage.type %q: must be memory, redis, sqlite or postgres", c.Storage.Type))
	}

	if c.Competition.SessionCap <= 0 {
		errs = append(errs, errors.New("competition.session_cap must be positive"))
	}
	if c.Competition.Days < 1 {
		errs = append(errs, errors.New("competition.days must be at least 1"))
	}
	if c.Competition.WatchInterval <= 0 {
		errs = append(errs, errors.New("competition.watch_interval must be positive"))
	}
	if c.Auth.SessionDuration <= 0 {
		errs = append(errs, errors.New("auth.session_duration must be positive"))
	}

	return errors.Join(errs...)
}

// SlogLevel parses the configured log level
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, fmt.Errorf("invalid log.level %q", l.Level)
	}
	return level, nil
}

// NewLogger builds the application logger writing to w
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
