package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
)

const envPrefix = "SCHEDULER_"

// StoreKind selects the booking store implementation.
type StoreKind string

const (
	StoreMemory    StoreKind = "memory"
	StoreSQLite    StoreKind = "sqlite"
	StoreFirestore StoreKind = "firestore"
)

// AuthMode selects how bearer tokens are verified.
type AuthMode string

const (
	AuthFirebase AuthMode = "firebase"
	AuthLocal    AuthMode = "local"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort  int       `env:"HTTP_PORT" envDefault:"8080"`
	Store     StoreKind `env:"STORE" envDefault:"sqlite"`
	SQLiteDSN string    `env:"SQLITE_DSN" envDefault:"file:scheduler.db?_pragma=foreign_keys(1)"`

	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`

	AuthMode      AuthMode      `env:"AUTH_MODE" envDefault:"local"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// Timezone names the zone naive wall-clock times are interpreted in.
	Timezone        string        `env:"TIMEZONE" envDefault:"Local"`
	MaxSeriesSpan   time.Duration `env:"MAX_SERIES_SPAN" envDefault:"8784h"`
	RefreshSchedule string        `env:"REFRESH_SCHEDULE" envDefault:"@every 5m"`
	WriteRateLimit  float64       `env:"WRITE_RATE_LIMIT" envDefault:"5"`
	WriteBurst      int           `env:"WRITE_BURST" envDefault:"10"`
	ClassroomsFile  string        `env:"CLASSROOMS_FILE"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	// Location is resolved from Timezone by Load.
	Location *time.Location `env:"-"`
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses configuration from environ, or from the process
// environment when environ is nil. Missing and invalid variables are
// reported together by name.
func LoadFrom(environ map[string]string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix:      envPrefix,
		Environment: environ,
	})
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, envPrefix+"HTTP_PORT")
	}

	switch cfg.Store {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(cfg.SQLiteDSN) == "" {
			missing = append(missing, envPrefix+"SQLITE_DSN")
		}
	case StoreFirestore:
		if strings.TrimSpace(cfg.FirebaseProjectID) == "" {
			missing = append(missing, envPrefix+"FIREBASE_PROJECT_ID")
		}
	default:
		invalid = append(invalid, envPrefix+"STORE")
	}

	switch cfg.AuthMode {
	case AuthLocal:
		if strings.TrimSpace(cfg.SessionSecret) == "" {
			missing = append(missing, envPrefix+"SESSION_SECRET")
		}
		if cfg.SessionTTL <= 0 {
			invalid = append(invalid, envPrefix+"SESSION_TTL")
		}
	case AuthFirebase:
		if strings.TrimSpace(cfg.FirebaseProjectID) == "" && cfg.Store != StoreFirestore {
			missing = append(missing, envPrefix+"FIREBASE_PROJECT_ID")
		}
	default:
		invalid = append(invalid, envPrefix+"AUTH_MODE")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		invalid = append(invalid, envPrefix+"TIMEZONE")
	}
	cfg.Location = loc

	if cfg.MaxSeriesSpan <= 0 {
		invalid = append(invalid, envPrefix+"MAX_SERIES_SPAN")
	}
	if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
		invalid = append(invalid, envPrefix+"REFRESH_SCHEDULE")
	}
	if cfg.WriteRateLimit <= 0 {
		invalid = append(invalid, envPrefix+"WRITE_RATE_LIMIT")
	}
	if cfg.WriteBurst <= 0 {
		invalid = append(invalid, envPrefix+"WRITE_BURST")
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, envPrefix+"LOG_LEVEL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
