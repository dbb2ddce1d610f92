package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/component"
	"github.com/vango-dev/weft/pkg/markup"
	"github.com/vango-dev/weft/pkg/preserve"
	"github.com/vango-dev/weft/pkg/scheduler"
)

const (
	// DefaultDevtoolsAddr is the default devtools listen address.
	DefaultDevtoolsAddr = "localhost:7070"

	// DefaultEventBuffer is the default number of events devtools keeps.
	DefaultEventBuffer = 256

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "weft"
)

// FileNames are the configuration file names Load looks for in a
// directory, in order.
var FileNames = []string{"weft.json", "weft.yaml", "weft.yml"}

// Config is the complete weft configuration.
type Config struct {
	// MaxReloadDepth bounds chains of reloads.
	MaxReloadDepth int `json:"maxReloadDepth,omitempty" yaml:"maxReloadDepth,omitempty"`

	// FrameInterval is the loop's frame period (e.g., "16ms").
	FrameInterval Duration `json:"frameInterval,omitempty" yaml:"frameInterval,omitempty"`

	// WrapperTag is the tag of each component's root element.
	WrapperTag string `json:"wrapperTag,omitempty" yaml:"wrapperTag,omitempty"`

	// KeyAttribute is lifted into tree keys at compile time.
	KeyAttribute string `json:"keyAttribute,omitempty" yaml:"keyAttribute,omitempty"`

	// RefAttribute names refs at compile time.
	RefAttribute string `json:"refAttribute,omitempty" yaml:"refAttribute,omitempty"`

	// ScrollAttribute marks elements whose scroll offsets are preserved.
	ScrollAttribute string `json:"scrollAttribute,omitempty" yaml:"scrollAttribute,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Devtools contains inspector configuration.
	Devtools DevtoolsConfig `json:"devtools,omitempty" yaml:"devtools,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Enabled turns metrics collection on (default: true).
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// DevtoolsConfig contains inspector settings.
type DevtoolsConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// EventBuffer is the number of recent events kept for /events.
	EventBuffer int `json:"eventBuffer,omitempty" yaml:"eventBuffer,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	enabled := true
	return &Config{
		MaxReloadDepth:  scheduler.DefaultMaxDepth,
		FrameInterval:   Duration(scheduler.DefaultFrameInterval),
		WrapperTag:      markup.DefaultWrapperTag,
		KeyAttribute:    markup.DefaultKeyAttribute,
		RefAttribute:    component.DefaultRefAttribute,
		ScrollAttribute: preserve.DefaultScrollAttribute,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
			Enabled:   &enabled,
		},
		Devtools: DevtoolsConfig{
			Addr:        DefaultDevtoolsAddr,
			EventBuffer: DefaultEventBuffer,
		},
	}
}

// Load reads configuration from path. A directory is searched for the
// names in FileNames.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("cannot read " + path).
			Wrap(err)
	}
	if !info.IsDir() {
		return LoadFile(path)
	}
	for _, name := range FileNames {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return LoadFile(candidate)
		}
	}
	return nil, errors.New(errors.CodeConfigInvalid).
		WithDetail("no weft.json or weft.yaml found in " + path).
		WithSuggestion("Create weft.json, or run without --config to use the defaults")
}

// LoadFile reads configuration from the specified file. The format follows
// the extension: .yaml and .yml are YAML, anything else is JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("cannot read " + path).
			Wrap(err)
	}
	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes data in the given format ("json" or "yaml"), applies
// defaults and validates the result.
func Parse(data []byte, format string) (*Config, error) {
	cfg := New()
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, cfg)
	case "json":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetailf("unknown config format %q", format)
	}
	if err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetailf("failed to parse %s config", format).
			WithSuggestion("Check that the file is valid " + strings.ToUpper(format)).
			Wrap(err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to path in the format of its extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if formatOf(path) == "yaml" {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.MaxReloadDepth == 0 {
		c.MaxReloadDepth = d.MaxReloadDepth
	}
	if c.FrameInterval == 0 {
		c.FrameInterval = d.FrameInterval
	}
	if c.WrapperTag == "" {
		c.WrapperTag = d.WrapperTag
	}
	if c.KeyAttribute == "" {
		c.KeyAttribute = d.KeyAttribute
	}
	if c.RefAttribute == "" {
		c.RefAttribute = d.RefAttribute
	}
	if c.ScrollAttribute == "" {
		c.ScrollAttribute = d.ScrollAttribute
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Metrics.Enabled == nil {
		c.Metrics.Enabled = d.Metrics.Enabled
	}
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = d.Devtools.Addr
	}
	if c.Devtools.EventBuffer == 0 {
		c.Devtools.EventBuffer = d.Devtools.EventBuffer
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.CodeConfigInvalid).WithDetailf(format, args...)
	}
	switch {
	case c.MaxReloadDepth < 1:
		return invalid("maxReloadDepth must be at least 1, got %d", c.MaxReloadDepth)
	case c.FrameInterval < 0:
		return invalid("frameInterval must not be negative, got %s", c.FrameInterval)
	case c.Devtools.EventBuffer < 1:
		return invalid("devtools.eventBuffer must be at least 1, got %d", c.Devtools.EventBuffer)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	for name, attr := range map[string]string{
		"keyAttribute":    c.KeyAttribute,
		"refAttribute":    c.RefAttribute,
		"scrollAttribute": c.ScrollAttribute,
		"wrapperTag":      c.WrapperTag,
	} {
		if strings.ContainsAny(attr, " \t\n\"'<>=/") {
			return invalid("%s %q is not a valid name", name, attr)
		}
	}
	return nil
}

// MetricsEnabled reports whether metrics are collected.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

// Component returns the rendering settings for component contexts.
func (c *Config) Component() component.Config {
	return component.Config{
		MaxReloadDepth:  c.MaxReloadDepth,
		WrapperTag:      c.WrapperTag,
		KeyAttribute:    c.KeyAttribute,
		RefAttribute:    c.RefAttribute,
		ScrollAttribute: c.ScrollAttribute,
	}
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// Logger builds a logger writing to w in the configured format and level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, errors.New(errors.CodeConfigInvalid).
			WithDetailf("log.level %q is not one of debug, info, warn, error", s)
	}
	return level, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Duration is a time.Duration written as a string such as "16ms".
type Duration time.Duration

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a duration string or a number of milliseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("duration must be a string or milliseconds: %s", data)
	}
	*d = Duration(ms * float64(time.Millisecond))
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts a duration string or a number of milliseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!int" || value.Tag == "!!float" {
		var ms float64
		if err := value.Decode(&ms); err != nil {
			return err
		}
		*d = Duration(ms * float64(time.Millisecond))
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
