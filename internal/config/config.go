package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Poll modes.
const (
	ModeContinuous = "continuous"
	ModeOnce       = "once"
)

// Roster sources.
const (
	RosterSourceFile = "file"
	RosterSourceDB   = "db"
)

// Database drivers.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// MonitorConfig is the vendor monitoring endpoint connection.
type MonitorConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	IssueState   string        `yaml:"issue_state"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	LoginTimeout time.Duration `yaml:"login_timeout"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

// FetchConfig is the per-terminal status fetch policy.
type FetchConfig struct {
	Workers        int           `yaml:"workers"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	RetryCount     int           `yaml:"retry_count"`
	RetryWaitMin   time.Duration `yaml:"retry_wait_min"`
	RetryWaitMax   time.Duration `yaml:"retry_wait_max"`
}

// DatabaseConfig selects the persistence backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RosterConfig selects where the terminal roster comes from.
type RosterConfig struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
}

// PollConfig is the run cadence.
type PollConfig struct {
	Mode     string        `yaml:"mode"`
	Interval time.Duration `yaml:"interval"`
}

// MetricsConfig is the observability listener. An empty address disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the full pipeline configuration.
type Config struct {
	Monitor  MonitorConfig  `yaml:"monitor"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Database DatabaseConfig `yaml:"database"`
	Roster   RosterConfig   `yaml:"roster"`
	Poll     PollConfig     `yaml:"poll"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	LogLevel string         `yaml:"log_level"`
}

// Load parses and validates the configuration.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse builds the configuration from environment variables, overlaid by an
// optional YAML file pointed to by ATMWATCH_CONFIG. Callers that layer CLI
// flag overrides on top validate afterwards; everyone else uses Load.
func Parse() (Config, error) {
	cfg := Config{
		Monitor: MonitorConfig{
			BaseURL:      os.Getenv("MONITOR_BASE_URL"),
			Username:     os.Getenv("MONITOR_USERNAME"),
			Password:     os.Getenv("MONITOR_PASSWORD"),
			IssueState:   getenvDefault("MONITOR_ISSUE_STATE", "ALL"),
			ProbeTimeout: getenvDuration("MONITOR_PROBE_TIMEOUT", 10*time.Second),
			LoginTimeout: getenvDuration("MONITOR_LOGIN_TIMEOUT", 30*time.Second),
			SessionTTL:   getenvDuration("MONITOR_SESSION_TTL", 15*time.Minute),
		},
		Fetch: FetchConfig{
			Workers:        getenvIntDefault("FETCH_WORKERS", 4),
			ConnectTimeout: getenvDuration("FETCH_CONNECT_TIMEOUT", 15*time.Second),
			ReadTimeout:    getenvDuration("FETCH_READ_TIMEOUT", 30*time.Second),
			RetryCount:     getenvIntDefault("FETCH_RETRY_COUNT", 2),
			RetryWaitMin:   getenvDuration("FETCH_RETRY_WAIT", time.Second),
			RetryWaitMax:   getenvDuration("FETCH_RETRY_WAIT_MAX", 5*time.Second),
		},
		Database: DatabaseConfig{
			Driver: getenvDefault("DATABASE_DRIVER", DriverPostgres),
			DSN:    getenvDefault("DATABASE_URL", os.Getenv("PG_DSN")),
		},
		Roster: RosterConfig{
			Source: getenvDefault("ROSTER_SOURCE", RosterSourceFile),
			Path:   os.Getenv("ROSTER_PATH"),
		},
		Poll: PollConfig{
			Mode:     getenvDefault("POLL_MODE", ModeContinuous),
			Interval: getenvDuration("POLL_INTERVAL", time.Minute),
		},
		Metrics: MetricsConfig{
			Addr: getenvDefault("METRICS_ADDR", ":9184"),
		},
		LogLevel: getenvDefault("LOG_LEVEL", "info"),
	}

	if path := os.Getenv("ATMWATCH_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Validate checks required fields and mode values.
func (c Config) Validate() error {
	if c.Monitor.BaseURL == "" {
		return errors.New("config: MONITOR_BASE_URL is required")
	}
	if c.Monitor.Username == "" || c.Monitor.Password == "" {
		return errors.New("config: monitor credentials are required")
	}
	if c.Database.Driver != DriverPostgres && c.Database.Driver != DriverSQLite {
		return errors.New("config: database driver must be pgx or sqlite")
	}
	if c.Database.DSN == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	switch c.Roster.Source {
	case RosterSourceFile:
		if c.Roster.Path == "" {
			return errors.New("config: ROSTER_PATH is required for file rosters")
		}
	case RosterSourceDB:
	default:
		return errors.New("config: roster source must be file or db")
	}
	if c.Poll.Mode != ModeContinuous && c.Poll.Mode != ModeOnce {
		return errors.New("config: poll mode must be continuous or once")
	}
	if c.Poll.Interval <= 0 {
		return errors.New("config: poll interval must be positive")
	}
	if c.Fetch.Workers <= 0 {
		return errors.New("config: fetch workers must be positive")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
