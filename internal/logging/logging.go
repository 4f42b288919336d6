// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jeranaias/rigrun-stream/internal/config"
)

// nopCloser is returned when logging to stderr.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger from the log section of the configuration.
func New(cfg config.LogConfig) (*logrus.Logger, io.Closer, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is like New but logs to w when no file is configured.
func NewWithWriter(cfg config.LogConfig, w io.Writer) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(orDefault(cfg.Level, "info"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch strings.ToLower(orDefault(cfg.Format, "text")) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
			// Rotated files never contain color codes.
			DisableColors: cfg.File != "",
		})
	default:
		return nil, nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	if cfg.File == "" {
		logger.SetOutput(w)
		return logger, nopCloser{}, nil
	}

	out := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
	logger.SetOutput(out)
	return logger, out, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
