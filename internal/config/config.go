// Package config resolves runtime settings for the survivalform CLI. Values
// come from built-in defaults, then an optional YAML file, then the
// environment; command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Config.Output.
var outputs = []string{"text", "json", "html"}

// LegacyBaseURLVar is read when SURVIVALFORM_BACKEND_URL is unset.
const LegacyBaseURLVar = "NEXT_PUBLIC_BACKEND_URL"

// Config holds the CLI settings.
type Config struct {
	BaseURL        string        `yaml:"backend_url" env:"SURVIVALFORM_BACKEND_URL"`
	FloorDelay     time.Duration `yaml:"floor_delay" env:"SURVIVALFORM_FLOOR_DELAY"`
	DelayThreshold time.Duration `yaml:"delay_threshold" env:"SURVIVALFORM_DELAY_THRESHOLD"`
	// RequestTimeout bounds each prediction call; zero means no bound.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SURVIVALFORM_REQUEST_TIMEOUT"`
	Output         string        `yaml:"output" env:"SURVIVALFORM_OUTPUT"`
	LogLevel       string        `yaml:"log_level" env:"SURVIVALFORM_LOG_LEVEL"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:        "http://localhost:8000",
		FloorDelay:     time.Second,
		DelayThreshold: 2 * time.Second,
		Output:         "text",
		LogLevel:       "info",
	}
}

// Load layers the YAML file at path (when non-empty) and the environment over
// the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := decodeFile(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if _, set := os.LookupEnv("SURVIVALFORM_BACKEND_URL"); !set {
		if legacy := strings.TrimSpace(os.Getenv(LegacyBaseURLVar)); legacy != "" {
			cfg.BaseURL = legacy
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(data []byte, cfg *Config) error {
	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	for key := range probe {
		if !knownKey(key) {
			return fmt.Errorf("unknown key %q", key)
		}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

func knownKey(key string) bool {
	switch key {
	case "backend_url", "floor_delay", "delay_threshold", "request_timeout", "output", "log_level":
		return true
	default:
		return false
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error

	base := strings.TrimSpace(c.BaseURL)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		errs = append(errs, fmt.Errorf("backend url %q must use http or https", c.BaseURL))
	}
	if c.FloorDelay < 0 {
		errs = append(errs, errors.New("floor delay cannot be negative"))
	}
	if c.DelayThreshold < 0 {
		errs = append(errs, errors.New("delay threshold cannot be negative"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout cannot be negative"))
	}
	if !validOutput(c.Output) {
		errs = append(errs, fmt.Errorf("output %q must be one of %s", c.Output, strings.Join(outputs, ", ")))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func validOutput(value string) bool {
	for _, candidate := range outputs {
		if value == candidate {
			return true
		}
	}
	return false
}
