// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// CLASSIFIED LINES
// =============================================================================

// Line is the classification of one complete stream line.
type Line interface {
	isLine()
}

// ContentLine is ordinary payload with the content marker removed.
type ContentLine struct {
	Text string
}

// CrisisEvent is an out-of-band alert to show immediately.
type CrisisEvent struct {
	Payload string
}

// SentinelLine is a stream-control marker such as an echoed session id.
type SentinelLine struct {
	Value string
}

// BlankLine is noise: empty lines and lines without a known marker.
type BlankLine struct{}

func (ContentLine) isLine()  {}
func (CrisisEvent) isLine()  {}
func (SentinelLine) isLine() {}
func (BlankLine) isLine()    {}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classifier sorts complete lines by their marker.
type Classifier struct {
	contentMarker  string
	crisisMarker   string
	sentinelMaxLen int
	maxLineBytes   int
}

// NewClassifier creates a classifier from cfg. Zero fields take defaults.
func NewClassifier(cfg Config) *Classifier {
	cfg.fillDefaults()
	return &Classifier{
		contentMarker:  cfg.ContentMarker,
		crisisMarker:   cfg.CrisisMarker,
		sentinelMaxLen: cfg.SentinelMaxLen,
		maxLineBytes:   cfg.MaxLineBytes,
	}
}

// Classify classifies a single line without its line break.
// A non-nil error is always a *LineError.
func (c *Classifier) Classify(line string) (Line, error) {
	line = strings.TrimSuffix(line, "\r")

	if len(line) > c.maxLineBytes {
		return nil, &LineError{
			Line: line,
			Err:  fmt.Errorf("line is %d bytes, limit is %d", len(line), c.maxLineBytes),
		}
	}

	switch {
	case strings.HasPrefix(line, c.crisisMarker):
		payload, err := parseCrisisPayload(line[len(c.crisisMarker):])
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		if payload == "" {
			return BlankLine{}, nil
		}
		return CrisisEvent{Payload: payload}, nil

	case strings.HasPrefix(line, c.contentMarker):
		content := line[len(c.contentMarker):]
		if trimmed := strings.TrimSpace(content); c.isSentinel(trimmed) {
			return SentinelLine{Value: trimmed}, nil
		}
		return ContentLine{Text: content}, nil
	}

	return BlankLine{}, nil
}

// isSentinel reports whether trimmed content is empty or a short number.
func (c *Classifier) isSentinel(trimmed string) bool {
	if trimmed == "" {
		return true
	}
	if len(trimmed) >= c.sentinelMaxLen {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] < '0' || trimmed[i] > '9' {
			return false
		}
	}
	return true
}

// parseCrisisPayload extracts the alert text. A JSON object payload carries
// the text in "message" or "text".
func parseCrisisPayload(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return raw, nil
	}

	var event struct {
		Message string `json:"message"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return "", fmt.Errorf("invalid crisis payload: %w", err)
	}
	if event.Message != "" {
		return strings.TrimSpace(event.Message), nil
	}
	return strings.TrimSpace(event.Text), nil
}
