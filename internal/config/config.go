package config

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/modelview/internal/config/loader"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MODELVIEW_"

// Config is the complete configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" toml:"log"`
	Viewer  ViewerConfig  `yaml:"viewer" toml:"viewer"`
	Loop    LoopConfig    `yaml:"loop" toml:"loop"`
	Jobs    JobsConfig    `yaml:"jobs" toml:"jobs"`
	State   StateConfig   `yaml:"state" toml:"state"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" toml:"level"`
	// Format is text or json.
	Format    string `yaml:"format" toml:"format"`
	AddSource bool   `yaml:"add_source" toml:"add_source"`
}

// ViewerConfig configures the viewer.
type ViewerConfig struct {
	// AutoExpand expands levels below it as content arrives; -1 expands
	// everything.
	AutoExpand int `yaml:"auto_expand" toml:"auto_expand"`
	// Width is the client width used when rendering without a terminal.
	Width int `yaml:"width" toml:"width"`
}

// LoopConfig configures the UI loop.
type LoopConfig struct {
	Capacity int `yaml:"capacity" toml:"capacity"`
}

// JobsConfig configures the model worker pool.
type JobsConfig struct {
	Workers   int           `yaml:"workers" toml:"workers"`
	QueueSize int           `yaml:"queue_size" toml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout" toml:"timeout"`
}

// StateConfig configures viewer state persistence.
type StateConfig struct {
	// Path is the state database directory. Empty disables persistence.
	Path     string `yaml:"path" toml:"path"`
	InMemory bool   `yaml:"in_memory" toml:"in_memory"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Addr    string `yaml:"addr" toml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Viewer:  ViewerConfig{AutoExpand: 0, Width: 100},
		Loop:    LoopConfig{Capacity: 1 << 16},
		Jobs:    JobsConfig{Workers: 4, QueueSize: 1024, Timeout: 30 * time.Second},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9464"},
	}
}

// Load builds the configuration from the defaults, the file at path (skipped
// when path is empty or the file does not exist) and the environment. The
// result is validated.
func Load(path string) (*Config, error) {
	return LoadFS(loader.DefaultFS(), path)
}

// LoadFS is Load reading the file from fsys.
func LoadFS(fsys loader.FileSystem, path string) (*Config, error) {
	var merged map[string]any
	if path != "" {
		l, err := loader.ForPath(fsys, path)
		if err != nil {
			return nil, err
		}
		merged, err = l.Load()
		if err != nil {
			return nil, err
		}
	}
	env, err := loader.NewEnvLoader(EnvPrefix).Load()
	if err != nil {
		return nil, err
	}
	merged = loader.DeepMerge(merged, env)

	cfg := Default()
	if err := decode(merged, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays values onto cfg. Unknown settings are rejected.
func decode(values map[string]any, cfg *Config) error {
	if len(values) == 0 {
		return nil
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decoding settings: %w", err)
	}
	return nil
}

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, path, msg string, v any) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		check(false, "log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	check(c.Log.Format == "text" || c.Log.Format == "json", "log.format", "must be text or json", c.Log.Format)
	check(c.Viewer.AutoExpand >= -1, "viewer.auto_expand", "must be -1 or greater", c.Viewer.AutoExpand)
	check(c.Viewer.Width > 0, "viewer.width", "must be positive", c.Viewer.Width)
	check(c.Loop.Capacity > 0, "loop.capacity", "must be positive", c.Loop.Capacity)
	check(c.Jobs.Workers > 0, "jobs.workers", "must be positive", c.Jobs.Workers)
	check(c.Jobs.QueueSize > 0, "jobs.queue_size", "must be positive", c.Jobs.QueueSize)
	check(c.Jobs.Timeout >= 0, "jobs.timeout", "must not be negative", c.Jobs.Timeout)
	check(!c.Metrics.Enabled || c.Metrics.Addr != "", "metrics.addr", "required when metrics are enabled", c.Metrics.Addr)

	return errors.Join(errs...)
}
