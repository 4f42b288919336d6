// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error opening a stream source.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeBadStatus
	ErrTypeInvalidRequest
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning = &ClientError{Type: ErrTypeNotRunning, Message: "stream source is not reachable"}
	ErrTimeout    = &ClientError{Type: ErrTypeTimeout, Message: "connecting to stream source timed out"}
	ErrNoURL      = &ClientError{Type: ErrTypeInvalidRequest, Message: "no stream source URL configured"}
)

// maxErrorBody bounds how much of a failed response is kept for the message.
const maxErrorBody = 512

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the stream client.
type ClientConfig struct {
	// URL of the streaming endpoint
	URL string

	// Method is the HTTP method (default: GET)
	Method string

	// Body is sent with POST requests
	Body []byte

	// Headers are added to every request
	Headers map[string]string

	// ConnectTimeout bounds dialing and waiting for response headers (default: 10s)
	ConnectTimeout time.Duration

	// Logger receives connection lifecycle events (default: logrus standard logger)
	Logger logrus.FieldLogger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Method:         http.MethodGet,
		ConnectTimeout: 10 * time.Second,
		Logger:         logrus.StandardLogger(),
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client opens HTTP stream sources.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new client with default configuration.
func NewClient(url string) *Client {
	config := DefaultConfig()
	config.URL = url
	return NewClientWithConfig(config)
}

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.Method == "" {
		config.Method = http.MethodGet
	}
	config.Method = strings.ToUpper(config.Method)
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}

	// No overall client timeout: the body is read for as long as the
	// stream lasts and the processor enforces its own budget.
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = (&net.Dialer{Timeout: config.ConnectTimeout}).DialContext
	tr.TLSHandshakeTimeout = config.ConnectTimeout
	tr.ResponseHeaderTimeout = config.ConnectTimeout

	return &Client{
		config:     config,
		httpClient: &http.Client{Transport: tr},
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// =============================================================================
// OPEN
// =============================================================================

// Open issues the request and returns the response body for streaming.
// The caller owns the body and must close it.
func (c *Client) Open(ctx context.Context) (io.ReadCloser, error) {
	if c.config.URL == "" {
		return nil, ErrNoURL
	}

	var body io.Reader
	if len(c.config.Body) > 0 {
		body = bytes.NewReader(c.config.Body)
	}

	req, err := http.NewRequestWithContext(ctx, c.config.Method, c.config.URL, body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "text/event-stream, text/plain")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	log := c.config.Logger.WithField("url", c.config.URL)
	log.Debug("opening stream source")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyDoError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer drainAndClose(resp.Body)
		msg := "stream request failed: " + resp.Status
		if detail := readErrorBody(resp.Body); detail != "" {
			msg += " (" + detail + ")"
		}
		log.WithField("status", resp.StatusCode).Warn("stream source rejected request")
		return nil, &ClientError{Type: ErrTypeBadStatus, Message: msg}
	}

	log.WithField("status", resp.StatusCode).Debug("stream source connected")
	return resp.Body, nil
}

// classifyDoError maps transport failures onto client error types.
func classifyDoError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ClientError{Type: ErrTypeUnknown, Message: "request canceled", Cause: err}
	}
	return &ClientError{Type: ErrTypeNotRunning, Message: ErrNotRunning.Message, Cause: err}
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}

// =============================================================================
// ERROR CHECKS
// =============================================================================

// IsNotRunning checks if an error indicates the source is unreachable.
func IsNotRunning(err error) bool {
	return hasType(err, ErrTypeNotRunning)
}

// IsTimeout checks if an error is a connect timeout.
func IsTimeout(err error) bool {
	return hasType(err, ErrTypeTimeout)
}

// IsBadStatus checks if the source answered with a non-2xx status.
func IsBadStatus(err error) bool {
	return hasType(err, ErrTypeBadStatus)
}

func hasType(err error, t ErrorType) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == t
	}
	return false
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
