// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the structured logger used by rigrun-stream.
//
// Loggers write to stderr, or to a size-rotated file when log.file is set.
// The returned io.Closer releases the file and must be closed on exit.
//
//	logger, closer, err := logging.New(cfg.Log)
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
package logging
