package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// FileName is the name of the per-project config file, looked up in
	// the manifest directory and its parents.
	FileName = ".cargo-upgrade.yaml"

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "CARGO_UPGRADE"
)

// Loader handles loading configuration from files and environment.
type Loader struct {
	v      *viper.Viper
	getenv func(string) string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, getenv: os.Getenv}
}

// LoadConfig loads configuration from the specified path, applies defaults,
// merges environment variables, and validates the result. An empty path
// loads the defaults and the environment only.
func (l *Loader) LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, &LoadError{
				Path:    path,
				Message: "config file not found",
				Err:     err,
			}
		}

		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, &LoadError{
				Path:    path,
				Message: "failed to read config file",
				Err:     err,
			}
		}

		if err := l.v.Unmarshal(cfg, viperDecodeHook); err != nil {
			return nil, &LoadError{
				Path:    path,
				Message: "failed to parse config file",
				Err:     err,
			}
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, &LoadError{
			Path:    path,
			Message: "invalid environment override",
			Err:     err,
		}
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{
			Path:    path,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads the config file that applies to dir: the nearest
// .cargo-upgrade.yaml in dir or its parents, else the user config file.
// Defaults are used when there is neither.
func (l *Loader) LoadConfigFromDir(dir string) (*Config, error) {
	path, err := l.Discover(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Message: "failed to look up config file", Err: err}
	}
	return l.LoadConfig(path)
}

// Discover returns the config file that applies to dir, or "" when there
// is none.
func (l *Loader) Discover(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for d := abs; ; d = filepath.Dir(d) {
		p := filepath.Join(d, FileName)
		if ok, err := isFile(p); err != nil {
			return "", err
		} else if ok {
			return p, nil
		}
		if filepath.Dir(d) == d {
			break
		}
	}

	if user := l.userConfigPath(); user != "" {
		if ok, err := isFile(user); err != nil {
			return "", err
		} else if ok {
			return user, nil
		}
	}
	return "", nil
}

// userConfigPath returns $XDG_CONFIG_HOME/cargo-upgrade/config.yaml,
// falling back to ~/.config.
func (l *Loader) userConfigPath() string {
	base := l.getenv("XDG_CONFIG_HOME")
	if base == "" {
		home := l.getenv("HOME")
		if home == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "cargo-upgrade", "config.yaml")
}

func isFile(p string) (bool, error) {
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	env := func(name string) string { return l.getenv(EnvPrefix + "_" + name) }

	// Registry settings
	if v := env("REGISTRY_INDEX_URL"); v != "" {
		cfg.Registry.IndexURL = v
	}
	if v := env("REGISTRY_LOCAL_INDEX"); v != "" {
		cfg.Registry.LocalIndex = v
	}
	if v := env("REGISTRY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s_REGISTRY_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Registry.Timeout = d
	}
	if v := env("REGISTRY_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s_REGISTRY_RETRIES: %w", EnvPrefix, err)
		}
		cfg.Registry.Retries = n
	}
	if v := env("REGISTRY_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s_REGISTRY_CONCURRENCY: %w", EnvPrefix, err)
		}
		cfg.Registry.Concurrency = n
	}
	if v := env("REGISTRY_USER_AGENT"); v != "" {
		cfg.Registry.UserAgent = v
	}

	// Upgrade settings
	if v := env("UPGRADE_ALLOW_PRERELEASE"); v != "" {
		cfg.Upgrade.AllowPrerelease = parseBool(v)
	}
	if v := env("UPGRADE_EXCLUDE"); v != "" {
		cfg.Upgrade.Exclude = splitList(v)
	}

	// Output settings
	if v := env("OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = OutputFormat(strings.ToLower(v))
	}
	if v := env("OUTPUT_COLOR"); v != "" {
		cfg.Output.Color = ColorMode(strings.ToLower(v))
	}

	// Log settings
	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("LOG_DIR"); v != "" {
		cfg.Log.Dir = v
	}
	if v := env("LOG_JSON"); v != "" {
		cfg.Log.JSON = parseBool(v)
	}
	return nil
}

// parseBool parses a string as a boolean value.
// Returns true for "true", "1", "yes" (case-insensitive).
// Returns false for anything else.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// viperDecodeHook provides custom decoding for viper unmarshaling.
// It composes the standard mapstructure hooks with our custom ones.
func viperDecodeHook(dc *mapstructure.DecoderConfig) {
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToCustomTypeHookFunc(),
	)
}

// stringToCustomTypeHookFunc creates a decode hook for our custom types.
func stringToCustomTypeHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}

		switch to {
		case reflect.TypeOf(OutputFormat("")):
			return OutputFormat(strings.ToLower(data.(string))), nil
		case reflect.TypeOf(ColorMode("")):
			return ColorMode(strings.ToLower(data.(string))), nil
		}

		return data, nil
	}
}

// LoadError represents an error that occurred while loading configuration.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load is a convenience function that creates a new Loader and loads configuration.
// An empty path loads the defaults and the environment only.
func Load(path string) (*Config, error) {
	return NewLoader().LoadConfig(path)
}

// LoadFromDir is a convenience function that loads the configuration that
// applies to a directory.
func LoadFromDir(dir string) (*Config, error) {
	return NewLoader().LoadConfigFromDir(dir)
}
