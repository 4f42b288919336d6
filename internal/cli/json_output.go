// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output support for scripting.
//
// Every command accepts --json and then writes exactly one JSONResponse
// to stdout; human-readable hints go to stderr.

package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/rigrun-stream/internal/model"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data any `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC3339 time when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponseStr creates an error JSON response that still carries data.
func NewJSONErrorResponseStr(command string, data any, errMsg string) *JSONResponse {
	return &JSONResponse{
		Success:   false,
		Data:      data,
		Error:     &errMsg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the JSON response to w.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// FormatData is returned by the format command.
type FormatData struct {
	Text      string         `json:"text"`
	Complete  bool           `json:"complete"`
	Crisis    bool           `json:"crisis"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Message   *model.Message `json:"message,omitempty"`
}

// CheckData is returned by the check command.
type CheckData struct {
	Normalized         string `json:"normalized"`
	IsErrorResponse    bool   `json:"is_error_response"`
	ErrorMessage       string `json:"error_message,omitempty"`
	IncompleteMarkdown bool   `json:"incomplete_markdown"`
	CodeFences         int    `json:"code_fences"`
}

// ValidateData is returned by the validate command.
type ValidateData struct {
	Total   int   `json:"total"`
	Valid   int   `json:"valid"`
	Invalid []int `json:"invalid"`
}
