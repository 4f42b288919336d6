// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/jeranaias/rigrun-stream/internal/formatter"
	"github.com/jeranaias/rigrun-stream/internal/model"
)

// UnknownErrorMessage is returned by ExtractErrorMessage for empty input.
const UnknownErrorMessage = "Unknown error occurred"

// sanitizeTimeout bounds each sanitizer pass over hostile input.
const sanitizeTimeout = 250 * time.Millisecond

// errorKeywords mark text as an error response.
var errorKeywords = []string{"error", "failed", "exception", "timeout"}

var (
	newlineRuns = regexp.MustCompile(`\n{2,}`)
	errorPrefix = regexp.MustCompile(`(?i)^\s*error\b\s*:?\s*([^:\s].*)`)
)

// The element pattern needs a backreference to pair opening and closing
// tags, which RE2 cannot express.
var sanitizers = []*regexp2.Regexp{
	mustSanitizer(`<(script|iframe)\b[^>]*>.*?</\1\s*>`),
	mustSanitizer(`</?(script|iframe)\b[^>]*>`),
	mustSanitizer(`javascript\s*:`),
	mustSanitizer(`\bon\w+\s*=`),
}

func mustSanitizer(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.IgnoreCase|regexp2.Singleline)
	re.MatchTimeout = sanitizeTimeout
	return re
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizeMessage trims surrounding whitespace and collapses every run of
// newlines to a single newline.
func NormalizeMessage(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return ""
	}
	return newlineRuns.ReplaceAllString(text, "\n")
}

// HasIncompleteMarkdown reports whether text has an odd number of code fences.
func HasIncompleteMarkdown(text string) bool {
	return formatter.CountFences(text)%2 != 0
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateMessage reports whether v is a well-formed message: string text,
// string sender and a timestamp that is a time value or a number.
// It accepts model.Message, *model.Message and decoded JSON objects.
func ValidateMessage(v any) bool {
	switch m := v.(type) {
	case model.Message:
		return true
	case *model.Message:
		return m != nil
	case map[string]any:
		if m == nil {
			return false
		}
		if _, ok := m["text"].(string); !ok {
			return false
		}
		if _, ok := m["sender"].(string); !ok {
			return false
		}
		return isTimestamp(m["timestamp"])
	default:
		return false
	}
}

func isTimestamp(v any) bool {
	switch ts := v.(type) {
	case time.Time:
		return true
	case *time.Time:
		return ts != nil
	case json.Number:
		_, err := ts.Float64()
		return err == nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// =============================================================================
// SANITIZATION
// =============================================================================

// SanitizeMessage removes script and iframe elements with their content,
// javascript: URI schemes and inline on*= event handler attributes.
//
// If a pass fails (match timeout on pathological input) the whole text is
// HTML-escaped instead, which is never less safe than the stripped form.
func SanitizeMessage(text string) string {
	out := text
	for _, re := range sanitizers {
		replaced, err := re.Replace(out, "", -1, -1)
		if err != nil {
			return html.EscapeString(text)
		}
		out = replaced
	}
	return out
}

// =============================================================================
// ERROR RESPONSES
// =============================================================================

// IsErrorResponse reports whether text looks like an error report.
func IsErrorResponse(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range errorKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractErrorMessage pulls a human-readable message out of an error report.
//
// "Error: Network timeout" yields "Network timeout". Otherwise the first
// line is used when it reads as an error, then the whole trimmed text.
func ExtractErrorMessage(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return UnknownErrorMessage
	}

	if m := errorPrefix.FindStringSubmatch(trimmed); m != nil {
		if rest := strings.TrimSpace(m[1]); rest != "" {
			return rest
		}
	}

	first, _, _ := strings.Cut(trimmed, "\n")
	first = strings.TrimSpace(first)
	if IsErrorResponse(first) {
		return first
	}
	return trimmed
}
