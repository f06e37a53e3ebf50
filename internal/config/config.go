// Package config provides configuration data structures for cargo-upgrade.
package config

import (
	"net/url"
	"time"

	"github.com/wexinc/cargo-upgrade/internal/logging"
)

// Config represents the complete cargo-upgrade configuration loaded from
// .cargo-upgrade.yaml.
type Config struct {
	Registry RegistryConfig `yaml:"registry" json:"registry" mapstructure:"registry"`
	Upgrade  UpgradeConfig  `yaml:"upgrade"  json:"upgrade"  mapstructure:"upgrade"`
	Output   OutputConfig   `yaml:"output"   json:"output"   mapstructure:"output"`
	Log      LogConfig      `yaml:"log"      json:"log"      mapstructure:"log"`
}

// RegistryConfig configures how published versions are looked up.
type RegistryConfig struct {
	// IndexURL is the sparse index to query (default: crates.io).
	IndexURL string `yaml:"index_url" json:"index_url" mapstructure:"index_url"`
	// LocalIndex is a directory holding an index copy. When set, no network
	// requests are made.
	LocalIndex string `yaml:"local_index" json:"local_index" mapstructure:"local_index"`
	// Timeout bounds each HTTP request (default: 30s).
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
	// Retries is the number of retries after the first attempt of a lookup (default: 3).
	Retries int `yaml:"retries" json:"retries" mapstructure:"retries"`
	// Concurrency bounds parallel lookups (default: 8).
	Concurrency int `yaml:"concurrency" json:"concurrency" mapstructure:"concurrency"`
	// UserAgent is sent with every registry request.
	UserAgent string `yaml:"user_agent" json:"user_agent" mapstructure:"user_agent"`
}

// UpgradeConfig holds defaults for upgrade runs.
type UpgradeConfig struct {
	// AllowPrerelease lets prerelease versions be selected.
	AllowPrerelease bool `yaml:"allow_prerelease" json:"allow_prerelease" mapstructure:"allow_prerelease"`
	// Exclude names dependencies that are never upgraded.
	Exclude []string `yaml:"exclude" json:"exclude" mapstructure:"exclude"`
}

// OutputFormat selects how results are reported.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// ColorMode controls colored output.
type ColorMode string

const (
	// ColorAuto colors output when writing to a terminal.
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// OutputConfig configures result reporting.
type OutputConfig struct {
	Format OutputFormat `yaml:"format" json:"format" mapstructure:"format"`
	Color  ColorMode    `yaml:"color"  json:"color"  mapstructure:"color"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	// Level is the minimum level written (default: warn).
	Level string `yaml:"level" json:"level" mapstructure:"level"`
	// Dir is where log files are written. Empty disables file logging.
	Dir string `yaml:"dir" json:"dir" mapstructure:"dir"`
	// JSON writes log files as JSON lines.
	JSON bool `yaml:"json" json:"json" mapstructure:"json"`
}

// Default values.
const (
	DefaultIndexURL    = "https://index.crates.io/"
	DefaultTimeout     = 30 * time.Second
	DefaultRetries     = 3
	DefaultConcurrency = 8
	DefaultUserAgent   = "cargo-upgrade"
	DefaultLogLevel    = "warn"
)

// NewConfig returns a new Config with default values applied.
func NewConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			IndexURL:    DefaultIndexURL,
			Timeout:     DefaultTimeout,
			Retries:     DefaultRetries,
			Concurrency: DefaultConcurrency,
			UserAgent:   DefaultUserAgent,
		},
		Upgrade: UpgradeConfig{
			Exclude: []string{},
		},
		Output: OutputConfig{
			Format: OutputText,
			Color:  ColorAuto,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// ApplyDefaults applies default values to any unset fields.
// This is used after loading config from file to fill in missing values.
func (c *Config) ApplyDefaults() {
	defaults := NewConfig()

	if c.Registry.IndexURL == "" {
		c.Registry.IndexURL = defaults.Registry.IndexURL
	}
	if c.Registry.Timeout == 0 {
		c.Registry.Timeout = defaults.Registry.Timeout
	}
	if c.Registry.Retries == 0 {
		c.Registry.Retries = defaults.Registry.Retries
	}
	if c.Registry.Concurrency == 0 {
		c.Registry.Concurrency = defaults.Registry.Concurrency
	}
	if c.Registry.UserAgent == "" {
		c.Registry.UserAgent = defaults.Registry.UserAgent
	}

	if c.Upgrade.Exclude == nil {
		c.Upgrade.Exclude = []string{}
	}

	if c.Output.Format == "" {
		c.Output.Format = defaults.Output.Format
	}
	if c.Output.Color == "" {
		c.Output.Color = defaults.Output.Color
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := "multiple validation errors:"
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Registry.LocalIndex == "" {
		if u, err := url.Parse(c.Registry.IndexURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, &ValidationError{Field: "registry.index_url", Message: "must be an http or https URL"})
		}
	}
	if c.Registry.Timeout < 0 {
		errs = append(errs, &ValidationError{Field: "registry.timeout", Message: "must be non-negative"})
	}
	if c.Registry.Retries < 0 {
		errs = append(errs, &ValidationError{Field: "registry.retries", Message: "must be non-negative"})
	}
	if c.Registry.Concurrency < 0 {
		errs = append(errs, &ValidationError{Field: "registry.concurrency", Message: "must be non-negative"})
	}

	if c.Output.Format != "" {
		switch c.Output.Format {
		case OutputText, OutputJSON, OutputYAML:
			// valid
		default:
			errs = append(errs, &ValidationError{
				Field:   "output.format",
				Message: "must be 'text', 'json', or 'yaml'",
			})
		}
	}

	if c.Output.Color != "" {
		switch c.Output.Color {
		case ColorAuto, ColorAlways, ColorNever:
			// valid
		default:
			errs = append(errs, &ValidationError{
				Field:   "output.color",
				Message: "must be 'auto', 'always', or 'never'",
			})
		}
	}

	if c.Log.Level != "" {
		if _, err := logging.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, &ValidationError{
				Field:   "log.level",
				Message: "must be 'debug', 'info', 'warn', or 'error'",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LoggerConfig converts the log settings into a logger configuration.
// verbose lowers the level to debug.
func (c LogConfig) LoggerConfig(verbose bool) (*logging.Config, error) {
	lc := logging.DefaultConfig()
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	lc.Level = level
	if verbose {
		lc.Level = logging.LevelDebug
	}
	lc.LogDir = c.Dir
	lc.JSONFormat = c.JSON
	return lc, nil
}
