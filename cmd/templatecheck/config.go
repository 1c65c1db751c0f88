package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/artpar/templatecheck/internal/core/bundle"
	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/artpar/templatecheck/internal/shell/remote"
	"github.com/artpar/templatecheck/internal/shell/report"
	"github.com/artpar/templatecheck/internal/shell/runner"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Remote  RemoteConfig  `mapstructure:"remote"`
	Run     RunConfig     `mapstructure:"run"`
	Log     LogConfig     `mapstructure:"log"`
	Report  ReportConfig  `mapstructure:"report"`
	History HistoryConfig `mapstructure:"history"`
}

// RemoteConfig holds the template service endpoints.
type RemoteConfig struct {
	ValidateURL       string        `mapstructure:"validate_url"`
	DeployURL         string        `mapstructure:"deploy_url"` // defaults to ValidateURL
	Timeout           time.Duration `mapstructure:"timeout"`
	DeployTimeout     time.Duration `mapstructure:"deploy_timeout"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// ClientConfig converts to the remote client's configuration.
func (c RemoteConfig) ClientConfig() remote.Config {
	return remote.Config{
		ValidateURL:       c.ValidateURL,
		DeployURL:         c.DeployURL,
		Timeout:           c.Timeout,
		DeployTimeout:     c.DeployTimeout,
		HeartbeatInterval: c.HeartbeatInterval,
	}
}

// RunConfig holds what a run covers and how it is batched.
type RunConfig struct {
	Root         string `mapstructure:"root"`
	GroupSize    int    `mapstructure:"group_size"`
	OnlyChanged  bool   `mapstructure:"only_changed"`
	ValidateOnly bool   `mapstructure:"validate_only"`
	BaseRef      string `mapstructure:"base_ref"`
	RepoDir      string `mapstructure:"repo_dir"` // defaults to Root
}

// RepositoryDir returns the directory git is run in. Any directory inside
// the working tree works; changed paths are resolved against its top level.
func (c RunConfig) RepositoryDir() string {
	if c.RepoDir != "" {
		return c.RepoDir
	}
	return c.Root
}

// Options converts to runner options.
func (c RunConfig) Options() runner.Options {
	return runner.Options{
		Root:         c.Root,
		GroupSize:    c.GroupSize,
		OnlyChanged:  c.OnlyChanged,
		ValidateOnly: c.ValidateOnly,
	}
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReportConfig selects the report format and an optional output file.
type ReportConfig struct {
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// HistoryConfig holds the run history database. An empty DSN disables it.
type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// =============================================================================
// Config Loading
// =============================================================================

const envPrefix = "TEMPLATECHECK"

// legacyVar is an environment name older CI pipelines set for a config key.
type legacyVar struct {
	Name      string
	Normalize func(raw string) any // nil keeps the raw string
}

// legacyEnv maps config keys to their legacy environment variables.
// VALIDATE_MODIFIED_ONLY is a presence flag: any non-empty value enables it.
var legacyEnv = map[string]legacyVar{
	"remote.validate_url": {Name: "VALIDATION_HOST"},
	"run.only_changed":    {Name: "VALIDATE_MODIFIED_ONLY", Normalize: func(string) any { return true }},
	"run.group_size":      {Name: "PARALLEL_DEPLOYMENT_NUMBER"},
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"validate-url":       "remote.validate_url",
	"deploy-url":         "remote.deploy_url",
	"timeout":            "remote.timeout",
	"deploy-timeout":     "remote.deploy_timeout",
	"heartbeat-interval": "remote.heartbeat_interval",
	"group-size":         "run.group_size",
	"only-changed":       "run.only_changed",
	"validate-only":      "run.validate_only",
	"base-ref":           "run.base_ref",
	"repo-dir":           "run.repo_dir",
	"log-level":          "log.level",
	"log-format":         "log.format",
	"format":             "report.format",
	"output":             "report.output",
	"history-dsn":        "history.dsn",
}

// LoadConfig loads configuration from defaults, an optional file, the
// environment and any of flags that were set, in increasing precedence.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("remote.validate_url", "")
	v.SetDefault("remote.deploy_url", "")
	v.SetDefault("remote.timeout", "30s")
	v.SetDefault("remote.deploy_timeout", "1h")
	v.SetDefault("remote.heartbeat_interval", "30s")
	v.SetDefault("run.root", ".")
	v.SetDefault("run.group_size", bundle.DefaultGroupSize)
	v.SetDefault("run.only_changed", false)
	v.SetDefault("run.validate_only", false)
	v.SetDefault("run.base_ref", "")
	v.SetDefault("run.repo_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("report.format", report.FormatText)
	v.SetDefault("report.output", "")
	v.SetDefault("history.dsn", "")

	// An explicitly named file must exist.
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	overridden := map[string]bool{}
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
				overridden[key] = overridden[key] || f.Changed
			}
		}
	}

	// Legacy names rank below the prefixed variable and any set flag.
	for key, legacy := range legacyEnv {
		raw := os.Getenv(legacy.Name)
		if raw == "" || overridden[key] || os.Getenv(envName(key)) != "" {
			continue
		}
		if legacy.Normalize != nil {
			v.Set(key, legacy.Normalize(raw))
		} else {
			v.Set(key, raw)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// envName returns the prefixed environment variable for a config key.
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// =============================================================================
// Validation
// =============================================================================

// ValidateLocal checks the settings needed by commands that never contact
// the remote service.
func (c *Config) ValidateLocal() error {
	var errs []error
	if c.Run.GroupSize < 1 {
		errs = append(errs, domain.NewConfigError("run.group_size", fmt.Sprintf("must be at least 1 (got %d)", c.Run.GroupSize)))
	}
	if c.Run.Root == "" {
		errs = append(errs, domain.NewConfigError("run.root", "is required"))
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, domain.NewConfigError("log.format", fmt.Sprintf("must be text or json (got %q)", c.Log.Format)))
	}
	if !slices.Contains(report.Formats(), strings.ToLower(c.Report.Format)) {
		errs = append(errs, domain.NewConfigError("report.format", fmt.Sprintf("must be one of %s (got %q)", strings.Join(report.Formats(), ", "), c.Report.Format)))
	}
	return errors.Join(errs...)
}

// Validate checks everything a run needs.
func (c *Config) Validate() error {
	errs := []error{c.ValidateLocal()}

	if strings.TrimSpace(c.Remote.ValidateURL) == "" {
		errs = append(errs, domain.NewConfigError("remote.validate_url", "is required (set "+envName("remote.validate_url")+" or VALIDATION_HOST)"))
	} else if err := checkURL(c.Remote.ValidateURL); err != nil {
		errs = append(errs, domain.NewConfigError("remote.validate_url", err.Error()))
	}
	if c.Remote.DeployURL != "" {
		if err := checkURL(c.Remote.DeployURL); err != nil {
			errs = append(errs, domain.NewConfigError("remote.deploy_url", err.Error()))
		}
	}
	if c.Remote.Timeout <= 0 {
		errs = append(errs, domain.NewConfigError("remote.timeout", "must be positive"))
	}
	if c.Remote.DeployTimeout <= 0 {
		errs = append(errs, domain.NewConfigError("remote.deploy_timeout", "must be positive"))
	}
	if c.Remote.HeartbeatInterval <= 0 {
		errs = append(errs, domain.NewConfigError("remote.heartbeat_interval", "must be positive"))
	}
	return errors.Join(errs...)
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http or https URL (got %q)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
// Logs go to w so that reports on stdout stay clean.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
