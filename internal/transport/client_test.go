// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-stream/internal/stream"
)

func newTestClient(t *testing.T, cfg *ClientConfig) *Client {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	cfg.Logger = logger
	return NewClientWithConfig(cfg)
}

// =============================================================================
// CONFIGURATION TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{URL: "http://example.com", Method: "post"})
	cfg := c.GetConfig()
	require.Equal(t, http.MethodPost, cfg.Method)
	require.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	require.NotNil(t, cfg.Logger)

	c = NewClientWithConfig(nil)
	require.Equal(t, http.MethodGet, c.GetConfig().Method)
}

func TestNewClient(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/stream")
	require.Equal(t, "http://127.0.0.1:1/stream", c.GetConfig().URL)
}

// =============================================================================
// OPEN TESTS
// =============================================================================

func TestOpen_StreamsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: Hello\n")
		w.(http.Flusher).Flush()
		io.WriteString(w, "data: world\n0\n")
	}))
	defer server.Close()

	client := newTestClient(t, &ClientConfig{
		URL:     server.URL,
		Headers: map[string]string{"Authorization": "secret"},
	})
	body, err := client.Open(context.Background())
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "data: Hello\ndata: world\n0\n", string(data))
}

func TestOpen_PostBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		payload, _ := io.ReadAll(r.Body)
		io.WriteString(w, "data: "+string(payload)+"\n")
	}))
	defer server.Close()

	client := newTestClient(t, &ClientConfig{
		URL:    server.URL,
		Method: "POST",
		Body:   []byte(`{"prompt":"hi"}`),
	})
	body, err := client.Open(context.Background())
	require.NoError(t, err)
	defer body.Close()

	data, _ := io.ReadAll(body)
	require.Equal(t, "data: {\"prompt\":\"hi\"}\n", string(data))
}

func TestOpen_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such conversation", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, &ClientConfig{URL: server.URL})
	_, err := client.Open(context.Background())
	require.Error(t, err)
	require.True(t, IsBadStatus(err))
	require.Contains(t, err.Error(), "404")
	require.Contains(t, err.Error(), "no such conversation")
}

func TestOpen_NotRunning(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := newTestClient(t, &ClientConfig{URL: url, ConnectTimeout: time.Second})
	_, err := client.Open(context.Background())
	require.Error(t, err)
	require.True(t, IsNotRunning(err))
	require.False(t, IsTimeout(err))
}

func TestOpen_HeaderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(t, &ClientConfig{URL: server.URL, ConnectTimeout: 50 * time.Millisecond})
	_, err := client.Open(context.Background())
	require.Error(t, err)
	require.True(t, IsTimeout(err), "err = %v", err)
}

func TestOpen_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, &ClientConfig{URL: server.URL})
	_, err := client.Open(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestOpen_NoURL(t *testing.T) {
	client := newTestClient(t, &ClientConfig{})
	_, err := client.Open(context.Background())
	require.ErrorIs(t, err, ErrNoURL)
}

func TestOpen_InvalidMethod(t *testing.T) {
	client := newTestClient(t, &ClientConfig{URL: "http://example.com", Method: "BAD METHOD"})
	_, err := client.Open(context.Background())
	var clientErr *ClientError
	require.True(t, errors.As(err, &clientErr))
	require.Equal(t, ErrTypeInvalidRequest, clientErr.Type)
}

// =============================================================================
// PROCESSOR INTEGRATION
// =============================================================================

func TestOpen_FeedsProcessor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, part := range []string{"data: ```go\n", "data: x := 1\n", "data: ```\n", "42\n"} {
			io.WriteString(w, part)
			w.(http.Flusher).Flush()
		}
	}))
	defer server.Close()

	logger, _ := logtest.NewNullLogger()
	client := newTestClient(t, &ClientConfig{URL: server.URL})
	body, err := client.Open(context.Background())
	require.NoError(t, err)

	proc, err := stream.NewProcessorWithConfig(&stream.Config{Logger: logger, Timeout: 5 * time.Second})
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		final string
	)
	err = proc.Run(context.Background(), body, stream.Callbacks{
		OnComplete: func(text string) {
			mu.Lock()
			final = text
			mu.Unlock()
		},
		OnError: func(err error) { t.Errorf("unexpected error: %v", err) },
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "```go\nx := 1\n```\n", final)
}
