// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a complete chat message.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(sender Role, text string) *Message {
	return &Message{
		ID:        generateID(),
		Sender:    sender.String(),
		Text:      text,
		Timestamp: time.Now(),
	}
}

// IsEmpty returns true if the message has no visible text.
func (m *Message) IsEmpty() bool {
	return m == nil || strings.TrimSpace(m.Text) == ""
}

// =============================================================================
// DECODING
// =============================================================================

// ErrNoMessages is returned when input holds neither an object nor an array.
var ErrNoMessages = errors.New("input is not a JSON object or array")

// DecodeMessages decodes a single JSON object or an array of them into
// untyped values. Numbers are kept as json.Number so timestamps survive
// without float rounding. Array elements that are not objects come back
// as nil maps so a validator can reject them by position.
func DecodeMessages(data []byte) ([]map[string]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoMessages
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	switch data[0] {
	case '{':
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		return []map[string]any{obj}, nil
	case '[':
		var raw []any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode messages: %w", err)
		}
		out := make([]map[string]any, len(raw))
		for i, v := range raw {
			if obj, ok := v.(map[string]any); ok {
				out[i] = obj
			}
		}
		return out, nil
	default:
		return nil, ErrNoMessages
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.NewString()
}
