// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream drives a chunked, line-oriented response stream through the
// message formatter.
//
// Data flows one way:
//
//	source -> Decoder -> line split -> Classifier -> formatter -> callbacks
//
// The Decoder carries split multi-byte sequences across fragments, the line
// splitter carries the unterminated tail, and the Classifier sorts complete
// lines into content, crisis events, sentinels and noise.
//
// # Line protocol
//
//   - "data: <text>"      content line (marker configurable)
//   - "data: 12345"       session sentinel, dropped (numeric, shorter than 10)
//   - "crisis: <text>"    crisis event, delivered at once as a final update
//   - anything else       ignored
//
// # Usage
//
//	p := stream.NewProcessor()
//	err := p.Run(ctx, resp.Body, stream.Callbacks{
//	    OnUpdate:   func(text string, complete bool) { render(text) },
//	    OnError:    func(err error) { showError(err) },
//	    OnComplete: func(final string) { save(final) },
//	})
//
// Run returns an error only when the stream could not be started. Every
// started stream ends with exactly one terminal outcome: OnComplete, OnError,
// or a crisis OnUpdate with complete set.
package stream
