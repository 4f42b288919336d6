// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package formatter

// =============================================================================
// TYPES
// =============================================================================

// StreamChunk is one fragment of message content.
// Complete marks end-of-stream for the message.
type StreamChunk struct {
	Data     string
	Complete bool
}

// FormattedMessage is the output of a processing step.
// NeedsUpdate is true iff Text differs from the previously returned text;
// callers should skip rendering when it is false.
type FormattedMessage struct {
	Text        string
	Complete    bool
	NeedsUpdate bool
}

// State is the whole formatter state. The zero value is a fresh message.
type State struct {
	// Buffer holds raw accumulated content. Append-only until Reset.
	Buffer string
	// CurrentText is the last computed display text.
	CurrentText string
	// Complete is the terminal flag. Nothing leaves the complete state.
	Complete bool
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Step applies a chunk to s and returns the next state with the step result.
//
// A final chunk always reports NeedsUpdate. A chunk arriving after the state
// is complete is ignored.
func Step(s State, chunk StreamChunk) (State, FormattedMessage) {
	if s.Complete {
		return s, FormattedMessage{Text: s.CurrentText, Complete: true}
	}

	s.Buffer += chunk.Data

	if chunk.Complete {
		s.Complete = true
		s.CurrentText = FormatMarkdown(s.Buffer)
		return s, FormattedMessage{Text: s.CurrentText, Complete: true, NeedsUpdate: true}
	}

	text := FormatMarkdown(s.Buffer)
	if text == s.CurrentText {
		return s, FormattedMessage{Text: s.CurrentText}
	}
	s.CurrentText = text
	return s, FormattedMessage{Text: text, NeedsUpdate: true}
}

// Finalize marks s complete and returns the canonical final text.
// Finalizing an already complete state yields the same text again.
func Finalize(s State) (State, string) {
	s.Complete = true
	return s, FinalizeText(s.CurrentText)
}

// =============================================================================
// MESSAGE FORMATTER
// =============================================================================

// MessageFormatter drives a State for a single logical message.
// It is not safe for concurrent use.
type MessageFormatter struct {
	state State
}

// New creates a formatter for a fresh message.
func New() *MessageFormatter {
	return &MessageFormatter{}
}

// ProcessChunk feeds one chunk to the formatter.
func (f *MessageFormatter) ProcessChunk(chunk StreamChunk) FormattedMessage {
	var msg FormattedMessage
	f.state, msg = Step(f.state, chunk)
	return msg
}

// Finalize completes the message and returns its final text.
func (f *MessageFormatter) Finalize() string {
	var text string
	f.state, text = Finalize(f.state)
	return text
}

// Reset returns the formatter to its freshly constructed state.
func (f *MessageFormatter) Reset() {
	f.state = State{}
}

// State returns a copy of the current state.
func (f *MessageFormatter) State() State {
	return f.state
}

// Text returns the last computed display text.
func (f *MessageFormatter) Text() string {
	return f.state.CurrentText
}

// IsComplete reports whether the message has been finalized.
func (f *MessageFormatter) IsComplete() bool {
	return f.state.Complete
}
