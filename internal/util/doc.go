// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides stateless helpers for chat message text.
//
// Nothing here touches the streaming state machine; these functions are safe
// to call from anywhere and never panic on odd input.
//
// # Key Functions
//
// Message Utilities:
//   - NormalizeMessage: trim and collapse newline runs
//   - HasIncompleteMarkdown: detect an unterminated code fence
//   - ValidateMessage: check the shape of a message value
//   - SanitizeMessage: strip script/iframe elements, javascript: URIs and
//     inline event handlers
//   - IsErrorResponse, ExtractErrorMessage: recognize and summarize errors
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: display-width truncation for terminal output
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	clean := util.SanitizeMessage(untrusted)
//	if util.IsErrorResponse(clean) {
//	    showError(util.ExtractErrorMessage(clean))
//	}
package util
