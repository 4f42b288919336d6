// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes stream errors for handling.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindCanceled
	KindConnection
)

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// StreamError represents a failure while processing a stream.
type StreamError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// UserMessage returns text suitable for showing to the person waiting on the
// response.
func (e *StreamError) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "The response took too long to arrive. Please try again."
	case KindCanceled:
		return "The response was cancelled."
	case KindConnection:
		return "Unable to reach the server. Check your connection and try again."
	default:
		return "Something went wrong while receiving the response. Please try again."
	}
}

// Sentinel errors for easy checking.
var (
	// ErrNoSource is returned by Run when there is nothing to read from.
	ErrNoSource = errors.New("stream: no source to read from")

	ErrTimeout  = &StreamError{Kind: KindTimeout, Message: "stream timed out"}
	ErrCanceled = &StreamError{Kind: KindCanceled, Message: "stream canceled"}
)

// LineError is a failure confined to a single line. The line is skipped and
// the stream continues.
type LineError struct {
	Line string
	Err  error
}

func (e *LineError) Error() string {
	return "malformed line: " + e.Err.Error()
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

var (
	timeoutHints    = []string{"timeout", "timed out", "deadline exceeded"}
	connectionHints = []string{"network", "connection", "connect", "fetch", "broken pipe", "no such host", "unexpected eof"}
)

// ClassifyError maps an arbitrary transport error onto a StreamError.
func ClassifyError(err error) *StreamError {
	if err == nil {
		return nil
	}

	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return streamErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &StreamError{Kind: KindTimeout, Message: ErrTimeout.Message, Cause: err}
	case errors.Is(err, context.Canceled):
		return &StreamError{Kind: KindCanceled, Message: ErrCanceled.Message, Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &StreamError{Kind: KindTimeout, Message: ErrTimeout.Message, Cause: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return &StreamError{Kind: KindConnection, Message: "connection failed", Cause: err}
	}

	msg := strings.ToLower(err.Error())
	if containsAny(msg, timeoutHints) {
		return &StreamError{Kind: KindTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	if containsAny(msg, connectionHints) {
		return &StreamError{Kind: KindConnection, Message: "connection failed", Cause: err}
	}

	return &StreamError{Kind: KindUnknown, Message: "stream failed", Cause: err}
}

// IsTimeout checks if an error is a stream timeout.
func IsTimeout(err error) bool {
	return kindOf(err) == KindTimeout
}

// IsCanceled checks if an error is a stream cancellation.
func IsCanceled(err error) bool {
	return kindOf(err) == KindCanceled
}

// IsConnection checks if an error is a connection failure.
func IsConnection(err error) bool {
	return kindOf(err) == KindConnection
}

func kindOf(err error) ErrorKind {
	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return streamErr.Kind
	}
	return KindUnknown
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}
