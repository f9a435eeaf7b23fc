// Package config loads service settings from defaults, an optional YAML or TOML file and
// OXYSHOT_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort          = "8888"
	DefaultMaxUploadSize = 256 << 20
	DefaultPreviewWidth  = 640
	DefaultPreviewHeight = 360

	envPrefix = "OXYSHOT_"
)

var (
	// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
	ErrUnsupportedFormat = errors.New("unsupported config file format")

	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Duration is a time.Duration read from strings such as "300ms" in config files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config holds every setting of the service and the CLI.
type Config struct {
	Port          string                  `yaml:"port" toml:"port"`
	LogLevel      string                  `yaml:"log_level" toml:"log_level"`
	Viewport      pipeline.ViewportConfig `yaml:"viewport" toml:"viewport"`
	SettleDelay   Duration                `yaml:"settle_delay" toml:"settle_delay"`
	PollInterval  Duration                `yaml:"poll_interval" toml:"poll_interval"`
	PreviewWidth  int                     `yaml:"preview_width" toml:"preview_width"`
	PreviewHeight int                     `yaml:"preview_height" toml:"preview_height"`
	MaxUploadSize int64                   `yaml:"max_upload_size" toml:"max_upload_size"`
	Workers       int                     `yaml:"workers" toml:"workers"`
	WatchDir      string                  `yaml:"watch_dir" toml:"watch_dir"`
	OutDir        string                  `yaml:"out_dir" toml:"out_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:          DefaultPort,
		LogLevel:      "info",
		Viewport:      pipeline.DefaultViewport(),
		SettleDelay:   Duration(pipeline.DefaultSettleDelay),
		PollInterval:  Duration(pipeline.DefaultPollInterval),
		PreviewWidth:  DefaultPreviewWidth,
		PreviewHeight: DefaultPreviewHeight,
		MaxUploadSize: DefaultMaxUploadSize,
		Workers:       max(runtime.NumCPU()-1, 1),
	}
}

// Load builds the configuration: defaults, then the file at path (skipped when empty),
// then environment overrides. The result is validated.
//
// Parameters:
//   - path: a .yaml, .yml or .toml file, or "" for none
//
// Returns:
//   - Config: the merged configuration
//   - error: read, decode or validation errors
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from OXYSHOT_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	envInt := func(key string, dst *int) error {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = n
		}
		return nil
	}

	if v, ok := get("PORT"); ok {
		c.Port = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("BACKGROUND"); ok {
		c.Viewport.Background = v
	}
	if v, ok := get("OPACITY"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sOPACITY: %w", envPrefix, err)
		}
		c.Viewport.Opacity = f
	}
	if err := envInt("WIDTH", &c.Viewport.Width); err != nil {
		return err
	}
	if err := envInt("HEIGHT", &c.Viewport.Height); err != nil {
		return err
	}
	if err := envInt("WORKERS", &c.Workers); err != nil {
		return err
	}
	if v, ok := get("SETTLE_DELAY"); ok {
		if err := c.SettleDelay.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%sSETTLE_DELAY: %w", envPrefix, err)
		}
	}
	return nil
}

// Validate checks the viewport and the numeric limits.
func (c Config) Validate() error {
	if err := c.Viewport.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Port == "" {
		return fmt.Errorf("%w: port is empty", ErrInvalidConfig)
	}
	if c.SettleDelay < 0 || c.PollInterval < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if c.PreviewWidth <= 0 || c.PreviewHeight <= 0 {
		return fmt.Errorf("%w: preview size %dx%d", ErrInvalidConfig, c.PreviewWidth, c.PreviewHeight)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("%w: max upload size %d", ErrInvalidConfig, c.MaxUploadSize)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ParseLevel converts "debug", "info", "warn" or "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// ControllerOptions maps the configuration onto pipeline controller options.
func (c Config) ControllerOptions(logger *slog.Logger) []pipeline.ControllerBuilderOption {
	return []pipeline.ControllerBuilderOption{
		pipeline.WithLogger(logger),
		pipeline.WithViewport(c.Viewport),
		pipeline.WithSettleDelay(time.Duration(c.SettleDelay)),
		pipeline.WithPollInterval(time.Duration(c.PollInterval)),
		pipeline.WithPreviewSize(c.PreviewWidth, c.PreviewHeight),
		pipeline.WithWorkers(c.Workers),
		pipeline.WithMaxAssetSize(c.MaxUploadSize),
	}
}
