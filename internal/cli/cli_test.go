// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-stream/internal/stream"
	"github.com/jeranaias/rigrun-stream/internal/transport"
)

// isolate keeps user config and environment out of command tests.
func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, key := range []string{
		"RIGRUN_STREAM_CONFIG",
		"RIGRUN_STREAM_TIMEOUT",
		"RIGRUN_STREAM_CONTENT_MARKER",
		"RIGRUN_STREAM_CRISIS_MARKER",
		"RIGRUN_STREAM_CHARSET",
		"RIGRUN_STREAM_URL",
		"RIGRUN_LOG_LEVEL",
		"RIGRUN_LOG_FILE",
		"FORCE_COLOR",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("NO_COLOR", "1")
}

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, stdin io.Reader, args ...string) result {
	t.Helper()
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	var stdout, stderr bytes.Buffer
	code := ExecuteArgs(context.Background(), args, stdin, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type jsonEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Command string          `json:"command"`
}

func decodeEnvelope(t *testing.T, out string) jsonEnvelope {
	t.Helper()
	var env jsonEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	return env
}

// =============================================================================
// FORMAT
// =============================================================================

func TestFormat_Stdin(t *testing.T) {
	isolate(t)
	res := run(t, strings.NewReader("data: Hello\ndata: world\n0\n"), "format")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	require.Equal(t, "Hello\nworld\n", res.stdout)
}

func TestFormat_FileInSmallChunks(t *testing.T) {
	isolate(t)
	path := writeTemp(t, "stream.txt", "data: héllo wörld 日本\n\ndata: ```go\ndata: x := 1\n")

	res := run(t, nil, "format", "--chunk-size", "1", path)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	require.Equal(t, "héllo wörld 日本\n```go\nx := 1\n\n```\n", res.stdout)
}

func TestFormat_JSON(t *testing.T) {
	isolate(t)
	res := run(t, strings.NewReader("data: - item\n"), "format", "--json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	env := decodeEnvelope(t, res.stdout)
	require.True(t, env.Success)
	require.Equal(t, "format", env.Command)

	var data struct {
		Text     string `json:"text"`
		Complete bool   `json:"complete"`
		Crisis   bool   `json:"crisis"`
		Message  struct {
			Sender string `json:"sender"`
			Text   string `json:"text"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "- item\n", data.Text)
	require.True(t, data.Complete)
	require.False(t, data.Crisis)
	require.Equal(t, "assistant", data.Message.Sender)
	require.Equal(t, "- item\n", data.Message.Text)
}

func TestFormat_JSONEmptyStreamHasNoMessage(t *testing.T) {
	isolate(t)
	res := run(t, strings.NewReader("data: 42\n\n"), "format", "--json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	env := decodeEnvelope(t, res.stdout)
	require.True(t, env.Success)
	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "\n", data["text"])
	require.NotContains(t, data, "message")
}

func TestFormat_Crisis(t *testing.T) {
	isolate(t)
	res := run(t, strings.NewReader("data: partial\ncrisis: Please call 988 now\ndata: ignored\n"), "format")
	require.Equal(t, ExitCrisis, res.code)
	require.Contains(t, res.stdout, "CRISIS")
	require.Contains(t, res.stdout, "Please call 988 now")
	require.NotContains(t, res.stdout, "ignored")
}

func TestFormat_CrisisJSON(t *testing.T) {
	isolate(t)
	res := run(t, strings.NewReader(`crisis: {"message":"Reach out for help"}`+"\n"), "format", "--json")
	require.Equal(t, ExitCrisis, res.code)

	env := decodeEnvelope(t, res.stdout)
	var data FormatData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.True(t, data.Crisis)
	require.False(t, data.Complete)
	require.Equal(t, "Reach out for help", data.Text)
}

func TestFormat_OutputFile(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "msg.md")

	res := run(t, strings.NewReader("data: saved\n"), "format", "--output", out)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	require.Empty(t, res.stdout)
	require.Contains(t, res.stderr, out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "saved\n", string(data))
}

func TestFormat_Sanitize(t *testing.T) {
	isolate(t)
	res := run(t, strings.NewReader("data: hi<script>x()</script> there\n"), "format", "--sanitize")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	require.Equal(t, "hi there\n", res.stdout)
}

func TestFormat_URL(t *testing.T) {
	isolate(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: from the **server**\n1\n")
	}))
	defer server.Close()

	res := run(t, nil, "format", "--url", server.URL)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	require.Equal(t, "from the **server**\n", res.stdout)
}

func TestFormat_ConfiguredURL(t *testing.T) {
	isolate(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: configured\n")
	}))
	defer server.Close()
	t.Setenv("RIGRUN_STREAM_URL", server.URL)

	res := run(t, nil, "format")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	require.Equal(t, "configured\n", res.stdout)

	// An explicit "-" still reads stdin.
	res = run(t, strings.NewReader("data: local\n"), "format", "-")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	require.Equal(t, "local\n", res.stdout)
}

func TestFormat_URLUnreachable(t *testing.T) {
	isolate(t)
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	res := run(t, nil, "format", "--url", url)
	require.Equal(t, ExitNetworkError, res.code)
	require.Contains(t, res.stderr, "[ERROR]")
}

func TestFormat_Timeout(t *testing.T) {
	isolate(t)
	cfgPath := writeTemp(t, "c.toml", "[stream]\ntimeout_secs = 1\n")
	pr, pw := io.Pipe()
	defer pw.Close()

	res := run(t, pr, "--config", cfgPath, "format")
	require.Equal(t, ExitTimeoutError, res.code)
	require.Contains(t, res.stderr, "took too long")
}

func TestFormat_UsageErrors(t *testing.T) {
	isolate(t)
	require.Equal(t, ExitUsageError, run(t, nil, "format", "a", "b").code)
	require.Equal(t, ExitUsageError, run(t, nil, "format", "--chunk-size", "-1").code)
	require.Equal(t, ExitUsageError, run(t, nil, "format", "--no-such-flag").code)
	require.Equal(t, ExitUsageError, run(t, nil, "format", "--url", "http://x", "file").code)
}

func TestFormat_MissingFile(t *testing.T) {
	isolate(t)
	res := run(t, nil, "format", filepath.Join(t.TempDir(), "missing.txt"))
	require.Equal(t, ExitGeneralError, res.code)
	require.Contains(t, res.stderr, "open input")
}

func TestFormat_BadConfig(t *testing.T) {
	isolate(t)
	cfgPath := writeTemp(t, "bad.toml", "[output]\ncolor = \"rainbow\"\n")
	res := run(t, strings.NewReader("data: x\n"), "--config", cfgPath, "format")
	require.Equal(t, ExitConfigError, res.code)
	require.Contains(t, res.stderr, "output.color")
}

// =============================================================================
// MESSAGE COMMANDS
// =============================================================================

func TestSanitizeCmd(t *testing.T) {
	isolate(t)
	res := run(t, strings.NewReader(`<a href="javascript:go()" onclick="x()">link</a>`), "sanitize")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	require.Equal(t, `<a href="go()" "x()">link</a>`, res.stdout)
}

func TestCheckCmd_JSON(t *testing.T) {
	isolate(t)
	res := run(t, strings.NewReader("Error: Network timeout\n\n\n```sh\nretry"), "check", "--json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	env := decodeEnvelope(t, res.stdout)
	var data CheckData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.True(t, data.IsErrorResponse)
	require.Equal(t, "Network timeout", data.ErrorMessage)
	require.True(t, data.IncompleteMarkdown)
	require.Equal(t, 1, data.CodeFences)
	require.Equal(t, "Error: Network timeout\n```sh\nretry", data.Normalized)
}

func TestCheckCmd_Text(t *testing.T) {
	isolate(t)
	res := run(t, strings.NewReader("all good"), "check")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	require.Contains(t, res.stdout, "[OK]")
	require.NotContains(t, res.stdout, "[WARN]")
	require.Contains(t, res.stdout, "all good")
}

func TestValidateCmd(t *testing.T) {
	isolate(t)

	valid := `[{"text":"hi","sender":"user","timestamp":1714564800000},
	           {"text":"yo","sender":"assistant","timestamp":"2024-05-01T12:00:00Z"}]`
	res := run(t, strings.NewReader(valid), "validate")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	require.Equal(t, 2, strings.Count(res.stdout, "[OK]"))
	require.Contains(t, res.stdout, "message 1 (You)")
	require.Contains(t, res.stdout, "message 2 (Assistant)")

	invalid := `[{"text":"hi","sender":"user","timestamp":1}, {"text":5}]`
	res = run(t, strings.NewReader(invalid), "validate", "--json")
	require.Equal(t, ExitInvalidMessage, res.code)
	env := decodeEnvelope(t, res.stdout)
	require.False(t, env.Success)
	var data ValidateData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, ValidateData{Total: 2, Valid: 1, Invalid: []int{2}}, data)

	res = run(t, strings.NewReader("not json"), "validate")
	require.Equal(t, ExitInvalidMessage, res.code)
	require.Contains(t, res.stderr, "[ERROR]")
}

func TestVersionCmd(t *testing.T) {
	isolate(t)
	res := run(t, nil, "version")
	require.Equal(t, ExitSuccess, res.code)
	require.True(t, strings.HasPrefix(res.stdout, "rigrun-stream "+Version))

	// version works even when the config is broken.
	t.Setenv("RIGRUN_STREAM_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	require.Equal(t, ExitSuccess, run(t, nil, "version").code)
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitGeneralError},
		{"explicit", &ExitError{Code: ExitCrisis}, ExitCrisis},
		{"usage", &UsageError{Message: "bad"}, ExitUsageError},
		{"stream timeout", &stream.StreamError{Kind: stream.KindTimeout}, ExitTimeoutError},
		{"stream canceled", &stream.StreamError{Kind: stream.KindCanceled}, ExitCanceled},
		{"stream connection", &stream.StreamError{Kind: stream.KindConnection}, ExitNetworkError},
		{"stream unknown", &stream.StreamError{Kind: stream.KindUnknown}, ExitGeneralError},
		{"transport down", transport.ErrNotRunning, ExitNetworkError},
		{"transport timeout", transport.ErrTimeout, ExitTimeoutError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, GetExitCode(tc.err))
		})
	}
}

func TestDisplayError_JSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, &stream.StreamError{Kind: stream.KindTimeout, Message: "deadline"}, true)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, false, out["success"])
	require.Equal(t, "timeout", out["error_kind"])
	require.Equal(t, float64(ExitTimeoutError), out["exit_code"])
}
