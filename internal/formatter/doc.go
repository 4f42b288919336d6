// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package formatter turns accumulated assistant output into display text.
//
// The formatter is a small state machine. Every non-final chunk is appended
// to an append-only buffer and the display text is re-derived from the whole
// buffer, so repairs such as closing an unterminated code fence are never
// remembered as state: a later chunk that closes the fence simply makes the
// synthetic one disappear on the next recompute.
//
// # Key Types
//
//   - State: the explicit value {Buffer, CurrentText, Complete}
//   - StreamChunk: one fragment of content plus the end-of-stream flag
//   - FormattedMessage: the result of a step, including NeedsUpdate
//   - MessageFormatter: a mutable wrapper around State for callers that
//     prefer methods over threading values
//
// # Usage
//
//	f := formatter.New()
//	msg := f.ProcessChunk(formatter.StreamChunk{Data: "```go\nfmt.Println()\n"})
//	if msg.NeedsUpdate {
//	    render(msg.Text)
//	}
//	final := f.Finalize()
//
// A MessageFormatter must only be driven by one caller at a time. Distinct
// instances share nothing and need no locking.
package formatter
