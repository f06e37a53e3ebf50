package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wexinc/cargo-upgrade/internal/logging"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	// Verify registry defaults
	if cfg.Registry.IndexURL != DefaultIndexURL {
		t.Errorf("expected IndexURL %q, got %q", DefaultIndexURL, cfg.Registry.IndexURL)
	}
	if cfg.Registry.Timeout != DefaultTimeout {
		t.Errorf("expected Timeout %v, got %v", DefaultTimeout, cfg.Registry.Timeout)
	}
	if cfg.Registry.Retries != DefaultRetries {
		t.Errorf("expected Retries %d, got %d", DefaultRetries, cfg.Registry.Retries)
	}
	if cfg.Registry.Concurrency != DefaultConcurrency {
		t.Errorf("expected Concurrency %d, got %d", DefaultConcurrency, cfg.Registry.Concurrency)
	}

	// Verify upgrade defaults
	if cfg.Upgrade.AllowPrerelease {
		t.Error("expected AllowPrerelease to be false by default")
	}
	if cfg.Upgrade.Exclude == nil {
		t.Error("expected Exclude to be initialized, got nil")
	}

	// Verify output defaults
	if cfg.Output.Format != OutputText {
		t.Errorf("expected Format %q, got %q", OutputText, cfg.Output.Format)
	}
	if cfg.Output.Color != ColorAuto {
		t.Errorf("expected Color %q, got %q", ColorAuto, cfg.Output.Color)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Registry.IndexURL != DefaultIndexURL {
		t.Errorf("expected IndexURL %q, got %q", DefaultIndexURL, cfg.Registry.IndexURL)
	}
	if cfg.Registry.UserAgent != DefaultUserAgent {
		t.Errorf("expected UserAgent %q, got %q", DefaultUserAgent, cfg.Registry.UserAgent)
	}
	if cfg.Output.Format != OutputText || cfg.Output.Color != ColorAuto {
		t.Errorf("unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("expected log level %q, got %q", DefaultLogLevel, cfg.Log.Level)
	}
}

func TestConfig_ApplyDefaultsPreservesValues(t *testing.T) {
	cfg := &Config{
		Registry: RegistryConfig{Timeout: 5 * time.Second, Retries: 1},
		Output:   OutputConfig{Format: OutputJSON},
	}
	cfg.ApplyDefaults()

	if cfg.Registry.Timeout != 5*time.Second {
		t.Errorf("expected Timeout 5s, got %v", cfg.Registry.Timeout)
	}
	if cfg.Registry.Retries != 1 {
		t.Errorf("expected Retries 1, got %d", cfg.Registry.Retries)
	}
	if cfg.Output.Format != OutputJSON {
		t.Errorf("expected Format json, got %q", cfg.Output.Format)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "bad index url",
			modify:  func(c *Config) { c.Registry.IndexURL = "ftp://example.com" },
			wantErr: "registry.index_url",
		},
		{
			name: "index url ignored with local index",
			modify: func(c *Config) {
				c.Registry.IndexURL = "not a url"
				c.Registry.LocalIndex = "/srv/index"
			},
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Registry.Timeout = -time.Second },
			wantErr: "registry.timeout",
		},
		{
			name:    "negative retries",
			modify:  func(c *Config) { c.Registry.Retries = -1 },
			wantErr: "registry.retries",
		},
		{
			name:    "negative concurrency",
			modify:  func(c *Config) { c.Registry.Concurrency = -2 },
			wantErr: "registry.concurrency",
		},
		{
			name:    "unknown output format",
			modify:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: "output.format",
		},
		{
			name:    "unknown color mode",
			modify:  func(c *Config) { c.Output.Color = "sometimes" },
			wantErr: "output.color",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: "log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidationErrors_Multiple(t *testing.T) {
	cfg := NewConfig()
	cfg.Output.Format = "xml"
	cfg.Registry.Retries = -1

	err := cfg.Validate()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(verrs))
	}
	if !strings.HasPrefix(err.Error(), "multiple validation errors:") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestLogConfig_LoggerConfig(t *testing.T) {
	lc, err := LogConfig{Level: "info", Dir: "/var/log/cu", JSON: true}.LoggerConfig(false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lc.Level != logging.LevelInfo || lc.LogDir != "/var/log/cu" || !lc.JSONFormat {
		t.Errorf("unexpected logger config: %+v", lc)
	}

	lc, err = LogConfig{Level: "error"}.LoggerConfig(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lc.Level != logging.LevelDebug {
		t.Errorf("verbose should select debug, got %v", lc.Level)
	}

	if _, err := (LogConfig{Level: "loud"}).LoggerConfig(false); err == nil {
		t.Error("expected error for unknown level")
	}
}
