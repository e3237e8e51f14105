package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Data        DataConfig        `yaml:"data"`
	Hermes      HermesConfig      `yaml:"hermes"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Constraints ConstraintsConfig `yaml:"constraints"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
	RateLimit   int `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// DataConfig points at a snapshot file used when no database is configured.
type DataConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type ScoringConfig struct {
	Weights          ScoringWeights `yaml:"weights"`
	DefaultStrategy  string         `yaml:"default_strategy"`
	ExpertFraction   float64        `yaml:"expert_fraction"`
	Workers          int            `yaml:"workers"`
	ParetoEnabled    bool           `yaml:"pareto_enabled"`
	ParetoObjectives []string       `yaml:"pareto_objectives"`
	ParetoTimeoutMs  int            `yaml:"pareto_timeout_ms"`
}

type ScoringWeights struct {
	Skill       float64 `yaml:"skill"`
	Experience  float64 `yaml:"experience"`
	Progression float64 `yaml:"progression"`
	Context     float64 `yaml:"context"`
}

type ConstraintsConfig struct {
	CheckMandatory    bool    `yaml:"check_mandatory"`
	CheckAvailability bool    `yaml:"check_availability"`
	DepartmentLimit   int     `yaml:"department_limit"`
	DepartmentPenalty float64 `yaml:"department_penalty"`
}

// RefreshConfig drives periodic re-ranking of open activities. Zero disables it.
type RefreshConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh.IntervalMs) * time.Millisecond
}

func (c *Config) ParetoTimeout() time.Duration {
	return time.Duration(c.Scoring.ParetoTimeoutMs) * time.Millisecond
}

// SlogLevel maps logging.level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			RateLimit:   120,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Scoring: ScoringConfig{
			Weights: ScoringWeights{
				Skill:       0.50,
				Experience:  0.20,
				Progression: 0.15,
				Context:     0.15,
			},
			DefaultStrategy:  "balanced",
			ExpertFraction:   0.3,
			Workers:          0,
			ParetoEnabled:    false,
			ParetoObjectives: []string{"skill", "experience", "progression", "context"},
			ParetoTimeoutMs:  2000,
		},
		Constraints: ConstraintsConfig{
			CheckMandatory:    true,
			CheckAvailability: true,
			DepartmentPenalty: 15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate catches settings that would only fail later at request time.
func (c *Config) validate() error {
	if c.Scoring.Workers < 0 {
		return fmt.Errorf("config: scoring.workers must be >= 0, got %d", c.Scoring.Workers)
	}
	if f := c.Scoring.ExpertFraction; f < 0 || f > 1 {
		return fmt.Errorf("config: scoring.expert_fraction must be in [0,1], got %g", f)
	}
	if c.Constraints.DepartmentLimit < 0 {
		return fmt.Errorf("config: constraints.department_limit must be >= 0, got %d", c.Constraints.DepartmentLimit)
	}
	if c.Refresh.IntervalMs < 0 {
		return fmt.Errorf("config: refresh.interval_ms must be >= 0, got %d", c.Refresh.IntervalMs)
	}
	return nil
}

func applyEnv(cfg *Config) {
	envInt("MATCHER_PORT", &cfg.Server.Port)
	envInt("MATCHER_METRICS_PORT", &cfg.Server.MetricsPort)
	envInt("MATCHER_RATE_LIMIT", &cfg.Server.RateLimit)
	envString("MATCHER_DATABASE_URL", &cfg.Database.URL)
	envString("MATCHER_SNAPSHOT_PATH", &cfg.Data.SnapshotPath)
	envString("MATCHER_HERMES_URL", &cfg.Hermes.URL)
	envString("MATCHER_DEFAULT_STRATEGY", &cfg.Scoring.DefaultStrategy)
	envFloat("MATCHER_EXPERT_FRACTION", &cfg.Scoring.ExpertFraction)
	envInt("MATCHER_WORKERS", &cfg.Scoring.Workers)
	envBool("MATCHER_PARETO_ENABLED", &cfg.Scoring.ParetoEnabled)
	envInt("MATCHER_PARETO_TIMEOUT_MS", &cfg.Scoring.ParetoTimeoutMs)
	envBool("MATCHER_CHECK_AVAILABILITY", &cfg.Constraints.CheckAvailability)
	envInt("MATCHER_DEPARTMENT_LIMIT", &cfg.Constraints.DepartmentLimit)
	envInt("MATCHER_REFRESH_INTERVAL_MS", &cfg.Refresh.IntervalMs)
	envString("MATCHER_LOG_LEVEL", &cfg.Logging.Level)
	envString("MATCHER_LOG_FORMAT", &cfg.Logging.Format)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
