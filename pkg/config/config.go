// Package config loads mosaic runtime configuration from YAML files and the
// environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/odvcencio/mosaic/pkg/errors"
)

const (
	BackendTcell = "tcell"
	BackendSim   = "sim"

	// LogOff disables the log file.
	LogOff = "off"
)

// Config is the top-level mosaic configuration.
type Config struct {
	Frame   FrameConfig   `yaml:"frame"`
	Backend BackendConfig `yaml:"backend"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Trace   TraceConfig   `yaml:"trace"`
}

// FrameConfig controls frame pacing and phase parallelism.
type FrameConfig struct {
	MaxFPS      int           `yaml:"max_fps"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
	Workers     int           `yaml:"workers"`
}

// BackendConfig selects the terminal backend.
type BackendConfig struct {
	Kind   string `yaml:"kind"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MetricsConfig enables a prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// TraceConfig enables span export to File when set.
type TraceConfig struct {
	File string `yaml:"file"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Frame: FrameConfig{
			MaxFPS:      60,
			PollTimeout: 10 * time.Millisecond,
			Workers:     4,
		},
		Backend: BackendConfig{
			Kind:   BackendTcell,
			Width:  80,
			Height: 24,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Dir returns the user config directory, honoring MOSAIC_CONFIG_DIR.
func Dir() string {
	if dir := os.Getenv("MOSAIC_CONFIG_DIR"); dir != "" {
		return dir
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home := os.Getenv("HOME")
		if home == "" {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mosaic")
}

// UserConfigPath is the path of the user config file, or "" when no
// config directory can be determined.
func UserConfigPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load loads configuration from default locations with proper precedence:
// defaults, then the user config, then ./.mosaic/config.yaml, then the
// environment.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := UserConfigPath(); path != "" {
		if err := loadAndMerge(cfg, path); err != nil && !os.IsNotExist(err) {
			return nil, loadError(err, path)
		}
	}

	projectConfigPath := filepath.Join(".", ".mosaic", "config.yaml")
	if err := loadAndMerge(cfg, projectConfigPath); err != nil && !os.IsNotExist(err) {
		return nil, loadError(err, projectConfigPath)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path. Unlike Load, a
// missing file is an error.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadAndMerge(cfg, path); err != nil {
		return nil, loadError(err, path)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadError(err error, path string) error {
	if apperrors.IsCode(err, apperrors.ErrCodeConfigParse) {
		return err
	}
	return apperrors.Wrap(err, apperrors.ErrCodeConfigLoad, "loading config").
		WithContext("path", path)
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := envInt("MOSAIC_MAX_FPS"); ok {
		cfg.Frame.MaxFPS = v
	}
	if v, ok := envDuration("MOSAIC_POLL_TIMEOUT"); ok {
		cfg.Frame.PollTimeout = v
	}
	if v, ok := envInt("MOSAIC_WORKERS"); ok {
		cfg.Frame.Workers = v
	}
	if v := os.Getenv("MOSAIC_BACKEND"); v != "" {
		cfg.Backend.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("MOSAIC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MOSAIC_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("MOSAIC_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("MOSAIC_TRACE_FILE"); v != "" {
		cfg.Trace.File = v
	}
}

func envInt(key string) (int, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(key string) (time.Duration, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return 0, false
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, false
	}
	return d, true
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return apperrors.Newf(apperrors.ErrCodeConfigInvalid, format, args...)
	}

	if c.Frame.MaxFPS < 0 {
		return invalid("frame.max_fps must be >= 0, got %d", c.Frame.MaxFPS)
	}
	if c.Frame.PollTimeout < 0 {
		return invalid("frame.poll_timeout must be >= 0, got %s", c.Frame.PollTimeout)
	}
	if c.Frame.Workers < 1 {
		return invalid("frame.workers must be >= 1, got %d", c.Frame.Workers)
	}

	switch c.Backend.Kind {
	case BackendTcell, BackendSim:
	default:
		return invalid("invalid backend kind: %s (valid: tcell, sim)", c.Backend.Kind)
	}
	if c.Backend.Kind == BackendSim && (c.Backend.Width < 1 || c.Backend.Height < 1) {
		return invalid("backend size must be positive, got %dx%d", c.Backend.Width, c.Backend.Height)
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}

	return nil
}

// LogPath resolves the log file location. An empty Log.File falls back to
// DefaultLogPath, "off" disables file logging and yields "".
func (c *Config) LogPath() string {
	switch strings.TrimSpace(c.Log.File) {
	case LogOff:
		return ""
	case "":
		return DefaultLogPath()
	default:
		return expandHomeDir(c.Log.File)
	}
}

// DefaultLogPath is $XDG_STATE_HOME/mosaic/mosaic.log, falling back to
// ~/.local/state.
func DefaultLogPath() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "mosaic", "mosaic.log")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".local", "state", "mosaic", "mosaic.log")
}

func expandHomeDir(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
