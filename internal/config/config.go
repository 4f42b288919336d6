// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for rigrun-stream.
//
// Configuration file locations (in order of precedence):
//   - the path passed to Load (the --config flag)
//   - $RIGRUN_STREAM_CONFIG
//   - ~/.rigrun-stream/config.toml
//   - ~/.rigrun-stream/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/rigrun-stream/internal/stream"
)

// ConfigEnvVar names an explicit config file path.
const ConfigEnvVar = "RIGRUN_STREAM_CONFIG"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigrun-stream configuration.
type Config struct {
	// Stream processor settings
	Stream StreamConfig `toml:"stream" json:"stream"`

	// HTTP source settings
	Source SourceConfig `toml:"source" json:"source"`

	// Logging settings
	Log LogConfig `toml:"log" json:"log"`

	// Terminal output settings
	Output OutputConfig `toml:"output" json:"output"`
}

// StreamConfig contains processor configuration.
type StreamConfig struct {
	TimeoutSecs    int    `toml:"timeout_secs" json:"timeout_secs"`
	ContentMarker  string `toml:"content_marker" json:"content_marker"`
	CrisisMarker   string `toml:"crisis_marker" json:"crisis_marker"`
	SentinelMaxLen int    `toml:"sentinel_max_len" json:"sentinel_max_len"`
	MaxLineBytes   int    `toml:"max_line_bytes" json:"max_line_bytes"`
	Charset        string `toml:"charset" json:"charset"`
	ReadBufferSize int    `toml:"read_buffer_size" json:"read_buffer_size"`
}

// SourceConfig contains HTTP source configuration.
type SourceConfig struct {
	URL                string            `toml:"url" json:"url"`
	Method             string            `toml:"method" json:"method"`
	ConnectTimeoutSecs int               `toml:"connect_timeout_secs" json:"connect_timeout_secs"`
	Headers            map[string]string `toml:"headers" json:"headers,omitempty"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level      string `toml:"level" json:"level"`
	Format     string `toml:"format" json:"format"`
	File       string `toml:"file" json:"file"` // empty logs to stderr
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days"`
	Compress   bool   `toml:"compress" json:"compress"`
}

// OutputConfig contains terminal output configuration.
type OutputConfig struct {
	MaxFPS int    `toml:"max_fps" json:"max_fps"`
	Color  string `toml:"color" json:"color"` // auto, always, never
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Stream: StreamConfig{
			TimeoutSecs:    int(stream.DefaultTimeout / time.Second),
			ContentMarker:  stream.DefaultContentMarker,
			CrisisMarker:   stream.DefaultCrisisMarker,
			SentinelMaxLen: stream.DefaultSentinelMaxLen,
			MaxLineBytes:   stream.DefaultMaxLineBytes,
			Charset:        stream.DefaultCharset,
			ReadBufferSize: stream.DefaultReadBufferSize,
		},
		Source: SourceConfig{
			Method:             "GET",
			ConnectTimeoutSecs: 10,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Output: OutputConfig{
			MaxFPS: 30,
			Color:  "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigrun-stream configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigrun-stream"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration. An explicit path (or $RIGRUN_STREAM_CONFIG) must
// exist; otherwise the default TOML then JSON locations are tried, falling
// back to built-in defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}
	if path != "" {
		return LoadFromPath(path)
	}

	for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		p, err := candidate()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(p); statErr == nil {
			return LoadFromPath(p)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
// Files ending in .json are decoded as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	cfg := &Config{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.SetDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills in any missing values with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	// Stream
	if c.Stream.TimeoutSecs == 0 {
		c.Stream.TimeoutSecs = defaults.Stream.TimeoutSecs
	}
	if c.Stream.ContentMarker == "" {
		c.Stream.ContentMarker = defaults.Stream.ContentMarker
	}
	if c.Stream.CrisisMarker == "" {
		c.Stream.CrisisMarker = defaults.Stream.CrisisMarker
	}
	if c.Stream.SentinelMaxLen == 0 {
		c.Stream.SentinelMaxLen = defaults.Stream.SentinelMaxLen
	}
	if c.Stream.MaxLineBytes == 0 {
		c.Stream.MaxLineBytes = defaults.Stream.MaxLineBytes
	}
	if c.Stream.Charset == "" {
		c.Stream.Charset = defaults.Stream.Charset
	}
	if c.Stream.ReadBufferSize == 0 {
		c.Stream.ReadBufferSize = defaults.Stream.ReadBufferSize
	}

	// Source
	if c.Source.Method == "" {
		c.Source.Method = defaults.Source.Method
	}
	if c.Source.ConnectTimeoutSecs == 0 {
		c.Source.ConnectTimeoutSecs = defaults.Source.ConnectTimeoutSecs
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = defaults.Log.MaxAgeDays
	}

	// Output
	if c.Output.MaxFPS == 0 {
		c.Output.MaxFPS = defaults.Output.MaxFPS
	}
	if c.Output.Color == "" {
		c.Output.Color = defaults.Output.Color
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Stream
	if c.Stream.TimeoutSecs < 1 || c.Stream.TimeoutSecs > 3600 {
		add("stream.timeout_secs", "must be between 1 and 3600, got %d", c.Stream.TimeoutSecs)
	}
	if c.Stream.ContentMarker == "" {
		add("stream.content_marker", "must not be empty")
	}
	if c.Stream.CrisisMarker == "" {
		add("stream.crisis_marker", "must not be empty")
	}
	if c.Stream.ContentMarker != "" && c.Stream.ContentMarker == c.Stream.CrisisMarker {
		add("stream.crisis_marker", "must differ from stream.content_marker")
	}
	if c.Stream.SentinelMaxLen < 1 {
		add("stream.sentinel_max_len", "must be positive, got %d", c.Stream.SentinelMaxLen)
	}
	if c.Stream.MaxLineBytes < 1 {
		add("stream.max_line_bytes", "must be positive, got %d", c.Stream.MaxLineBytes)
	}
	if _, err := stream.LookupCharset(c.Stream.Charset); err != nil {
		add("stream.charset", "unknown charset '%s'", c.Stream.Charset)
	}
	if c.Stream.ReadBufferSize < 1 {
		add("stream.read_buffer_size", "must be positive, got %d", c.Stream.ReadBufferSize)
	}

	// Source
	if c.Source.URL != "" {
		u, err := url.Parse(c.Source.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("source.url", "invalid URL '%s', must be http(s)://host[/path]", c.Source.URL)
		}
	}
	switch strings.ToUpper(c.Source.Method) {
	case "GET", "POST":
	default:
		add("source.method", "invalid method '%s', must be GET or POST", c.Source.Method)
	}
	if c.Source.ConnectTimeoutSecs < 1 {
		add("source.connect_timeout_secs", "must be positive, got %d", c.Source.ConnectTimeoutSecs)
	}

	// Log
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "invalid level '%s'", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		add("log.format", "invalid format '%s', must be text or json", c.Log.Format)
	}
	if c.Log.MaxSizeMB < 1 {
		add("log.max_size_mb", "must be positive, got %d", c.Log.MaxSizeMB)
	}
	if c.Log.MaxBackups < 0 {
		add("log.max_backups", "must not be negative, got %d", c.Log.MaxBackups)
	}
	if c.Log.MaxAgeDays < 0 {
		add("log.max_age_days", "must not be negative, got %d", c.Log.MaxAgeDays)
	}

	// Output
	if c.Output.MaxFPS < 1 || c.Output.MaxFPS > 240 {
		add("output.max_fps", "must be between 1 and 240, got %d", c.Output.MaxFPS)
	}
	switch strings.ToLower(c.Output.Color) {
	case "auto", "always", "never":
	default:
		add("output.color", "invalid color mode '%s', must be one of: auto, always, never", c.Output.Color)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IsValidationError reports whether err carries configuration validation errors.
func IsValidationError(err error) bool {
	var errs ValidateErrors
	return errors.As(err, &errs)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RIGRUN_STREAM_TIMEOUT: seconds ("45") or a duration ("1m30s")
//   - RIGRUN_STREAM_CONTENT_MARKER: overrides stream.content_marker
//   - RIGRUN_STREAM_CRISIS_MARKER: overrides stream.crisis_marker
//   - RIGRUN_STREAM_CHARSET: overrides stream.charset
//   - RIGRUN_STREAM_URL: overrides source.url
//   - RIGRUN_LOG_LEVEL: overrides log.level
//   - RIGRUN_LOG_FILE: overrides log.file
//   - NO_COLOR: any value forces output.color to "never"
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RIGRUN_STREAM_TIMEOUT"); v != "" {
		if secs, ok := parseSeconds(v); ok {
			c.Stream.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("RIGRUN_STREAM_CONTENT_MARKER"); v != "" {
		c.Stream.ContentMarker = v
	}
	if v := os.Getenv("RIGRUN_STREAM_CRISIS_MARKER"); v != "" {
		c.Stream.CrisisMarker = v
	}
	if v := os.Getenv("RIGRUN_STREAM_CHARSET"); v != "" {
		c.Stream.Charset = v
	}
	if v := os.Getenv("RIGRUN_STREAM_URL"); v != "" {
		c.Source.URL = v
	}
	if v := os.Getenv("RIGRUN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RIGRUN_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if os.Getenv("NO_COLOR") != "" {
		c.Output.Color = "never"
	}
}

// parseSeconds accepts a whole number of seconds or a Go duration string.
func parseSeconds(v string) (int, bool) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	if d, err := time.ParseDuration(v); err == nil {
		return int(d / time.Second), true
	}
	return 0, false
}

// =============================================================================
// CONVERSION
// =============================================================================

// ToStreamConfig maps the stream section onto a processor configuration.
// A nil logger leaves the processor's default in place.
func (c *Config) ToStreamConfig(logger logrus.FieldLogger) *stream.Config {
	return &stream.Config{
		Timeout:        time.Duration(c.Stream.TimeoutSecs) * time.Second,
		ContentMarker:  c.Stream.ContentMarker,
		CrisisMarker:   c.Stream.CrisisMarker,
		SentinelMaxLen: c.Stream.SentinelMaxLen,
		MaxLineBytes:   c.Stream.MaxLineBytes,
		Charset:        c.Stream.Charset,
		ReadBufferSize: c.Stream.ReadBufferSize,
		Logger:         logger,
	}
}

// ConnectTimeout returns the source connect timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Source.ConnectTimeoutSecs) * time.Second
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return fmt.Sprintf("<config encode error: %v>", err)
	}
	return sb.String()
}
