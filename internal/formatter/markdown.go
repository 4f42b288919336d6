// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package formatter

import (
	"regexp"
	"strings"
)

// =============================================================================
// MARKDOWN REPAIR
// =============================================================================

// CodeFence is the triple-backtick fence delimiter.
const CodeFence = "```"

// indent is the accidental indentation stripped outside code blocks.
const indent = "    "

var (
	// listItemPattern matches a single bullet list item.
	listItemPattern = regexp.MustCompile(`^\s*[-+*]\s+\S+`)

	// paragraphBreaks matches three or more consecutive newlines.
	paragraphBreaks = regexp.MustCompile(`\n{3,}`)
)

// FormatMarkdown derives display text from raw accumulated text.
//
// The transform is pure and idempotent: FormatMarkdown(FormatMarkdown(s))
// equals FormatMarkdown(s) for every s.
func FormatMarkdown(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	// Close an unterminated code block. Derived from scratch on every call.
	if CountFences(text)%2 != 0 {
		text += "\n" + CodeFence
	}

	// Keep the last list item from merging with whatever arrives next.
	if !strings.HasSuffix(text, "\n") && listItemPattern.MatchString(lastLine(text)) {
		text += "\n"
	}

	lines := strings.Split(text, "\n")
	inCode := false
	for i, line := range lines {
		if isFenceLine(line) {
			inCode = !inCode
			continue
		}
		if !inCode && hasExactIndent(line) {
			lines[i] = line[len(indent):]
		}
	}

	return strings.Join(lines, "\n")
}

// CountFences returns the number of triple-backtick fences in text.
func CountFences(text string) int {
	return strings.Count(text, CodeFence)
}

// FinalizeText applies the terminal normalization to display text: outer
// whitespace is trimmed, runs of three or more newlines collapse to a
// paragraph break, and the result ends with exactly one newline.
func FinalizeText(text string) string {
	text = strings.TrimSpace(text)
	text = paragraphBreaks.ReplaceAllString(text, "\n\n")
	return text + "\n"
}

func lastLine(text string) string {
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		return text[i+1:]
	}
	return text
}

func isFenceLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), CodeFence)
}

// hasExactIndent reports whether line starts with four spaces that are not
// followed by a fifth.
func hasExactIndent(line string) bool {
	if !strings.HasPrefix(line, indent) {
		return false
	}
	return len(line) == len(indent) || line[len(indent)] != ' '
}
