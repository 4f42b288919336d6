// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error display and exit codes for rigrun-stream commands.
//
// Commands always return errors and let Execute decide how to show them.
// A command that has already reported its outcome returns an ExitError
// with no wrapped error so nothing is printed twice.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/rigrun-stream/internal/config"
	"github.com/jeranaias/rigrun-stream/internal/stream"
	"github.com/jeranaias/rigrun-stream/internal/transport"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitInvalidMessage indicates validate found malformed messages
	ExitInvalidMessage = 4
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
	// ExitCrisis indicates the stream ended with a crisis event
	ExitCrisis = 6
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
	// ExitCanceled indicates the run was interrupted
	ExitCanceled = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ExitError carries a specific exit code. Err is nil when the command has
// already reported the failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// UsageError is returned for bad flags or arguments.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	if config.IsValidationError(err) {
		return ExitConfigError
	}

	var streamErr *stream.StreamError
	if errors.As(err, &streamErr) {
		switch streamErr.Kind {
		case stream.KindTimeout:
			return ExitTimeoutError
		case stream.KindCanceled:
			return ExitCanceled
		case stream.KindConnection:
			return ExitNetworkError
		}
		return ExitGeneralError
	}

	switch {
	case transport.IsTimeout(err):
		return ExitTimeoutError
	case transport.IsNotRunning(err), transport.IsBadStatus(err):
		return ExitNetworkError
	}

	return ExitGeneralError
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// userMessage picks the text shown for err. Stream errors carry their own
// user-facing wording.
func userMessage(err error) string {
	var streamErr *stream.StreamError
	if errors.As(err, &streamErr) {
		return streamErr.UserMessage()
	}
	return err.Error()
}

// DisplayError writes an error in a consistent format.
// In JSON mode, outputs a structured JSON error.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}

	if jsonMode {
		output := map[string]any{
			"success":   false,
			"error":     userMessage(err),
			"exit_code": GetExitCode(err),
		}
		var streamErr *stream.StreamError
		if errors.As(err, &streamErr) {
			output["error_kind"] = streamErr.Kind.String()
			if streamErr.Cause != nil {
				output["underlying_error"] = streamErr.Cause.Error()
			}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.Encode(output)
		return
	}

	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), userMessage(err))
}
