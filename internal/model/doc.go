// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages.
//
// # Key Types
//
//   - Message: a finished chat message with sender, text and timestamp
//   - Role: well-known sender values (user, assistant, system)
//
// # Usage
//
// Build the message for a completed stream:
//
//	msg := model.NewMessage(model.RoleAssistant, final)
//	data, _ := json.Marshal(msg)
//
// Decode untyped message values for validation:
//
//	values, err := model.DecodeMessages(data)
package model
