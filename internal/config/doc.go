// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for rigrun-stream.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Sections
//
//   - stream: timeout, line markers, charset and buffer sizes for the processor
//   - source: URL and request settings for HTTP stream sources
//   - log: level, format and optional rotating log file
//   - output: live preview frame rate and color mode
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	proc, err := stream.NewProcessorWithConfig(cfg.ToStreamConfig(logger))
package config
