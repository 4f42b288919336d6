// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// PROCESSOR CONFIGURATION
// =============================================================================

// Default values for Config fields.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultContentMarker  = "data: "
	DefaultCrisisMarker   = "crisis: "
	DefaultSentinelMaxLen = 10
	DefaultMaxLineBytes   = 64 * 1024
	DefaultCharset        = "utf-8"
	DefaultReadBufferSize = 4096
)

// Config holds configuration options for a Processor.
type Config struct {
	// Timeout bounds the whole read loop (default: 30s)
	Timeout time.Duration

	// ContentMarker prefixes ordinary payload lines (default: "data: ")
	ContentMarker string

	// CrisisMarker prefixes crisis event lines (default: "crisis: ")
	CrisisMarker string

	// SentinelMaxLen is the exclusive length bound for numeric sentinels (default: 10)
	SentinelMaxLen int

	// MaxLineBytes rejects longer lines as malformed (default: 64KB)
	MaxLineBytes int

	// Charset names the source encoding (default: "utf-8")
	Charset string

	// ReadBufferSize is the fragment size read from the source (default: 4096)
	ReadBufferSize int

	// Logger receives line-level failures and lifecycle events (default: logrus standard logger)
	Logger logrus.FieldLogger
}

// DefaultConfig returns the default processor configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		ContentMarker:  DefaultContentMarker,
		CrisisMarker:   DefaultCrisisMarker,
		SentinelMaxLen: DefaultSentinelMaxLen,
		MaxLineBytes:   DefaultMaxLineBytes,
		Charset:        DefaultCharset,
		ReadBufferSize: DefaultReadBufferSize,
		Logger:         logrus.StandardLogger(),
	}
}

// fillDefaults replaces zero values with defaults.
func (c *Config) fillDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ContentMarker == "" {
		c.ContentMarker = DefaultContentMarker
	}
	if c.CrisisMarker == "" {
		c.CrisisMarker = DefaultCrisisMarker
	}
	if c.SentinelMaxLen <= 0 {
		c.SentinelMaxLen = DefaultSentinelMaxLen
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = DefaultMaxLineBytes
	}
	if c.Charset == "" {
		c.Charset = DefaultCharset
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = DefaultReadBufferSize
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
}
