// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Assistant"},
		{RoleSystem, "System"},
		{Role("bot"), "bot"},
	}
	for _, tc := range tests {
		if got := tc.role.DisplayName(); got != tc.want {
			t.Errorf("%q.DisplayName() = %q, want %q", tc.role, got, tc.want)
		}
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	before := time.Now()
	msg := NewMessage(RoleAssistant, "hello")

	require.Equal(t, "assistant", msg.Sender)
	require.Equal(t, "hello", msg.Text)
	require.True(t, strings.HasPrefix(msg.ID, "msg_"), "ID = %q", msg.ID)
	require.False(t, msg.Timestamp.Before(before))
	require.False(t, msg.IsEmpty())

	other := NewMessage(RoleAssistant, "hello")
	require.NotEqual(t, msg.ID, other.ID)
}

func TestMessage_IsEmpty(t *testing.T) {
	var nilMsg *Message
	require.True(t, nilMsg.IsEmpty())
	require.True(t, (&Message{Sender: "user"}).IsEmpty())
	require.True(t, (&Message{Sender: "assistant", Text: "\n"}).IsEmpty())
}

func TestMessage_JSON(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(&Message{Sender: "user", Text: "hi", Timestamp: ts})
	require.NoError(t, err)
	require.JSONEq(t, `{"sender":"user","text":"hi","timestamp":"2024-05-01T12:00:00Z"}`, string(data))
}

// =============================================================================
// DECODE TESTS
// =============================================================================

func TestDecodeMessages_Object(t *testing.T) {
	got, err := DecodeMessages([]byte(` {"text":"hi","sender":"user","timestamp":1714564800000} `))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "hi", got[0]["text"])
	require.Equal(t, json.Number("1714564800000"), got[0]["timestamp"])
}

func TestDecodeMessages_Array(t *testing.T) {
	got, err := DecodeMessages([]byte(`[{"text":"a"}, 42, {"text":"b"}]`))
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "a", got[0]["text"])
	require.Nil(t, got[1])
	require.Equal(t, "b", got[2]["text"])
}

func TestDecodeMessages_Errors(t *testing.T) {
	_, err := DecodeMessages(nil)
	require.True(t, errors.Is(err, ErrNoMessages))

	_, err = DecodeMessages([]byte(`"just a string"`))
	require.True(t, errors.Is(err, ErrNoMessages))

	_, err = DecodeMessages([]byte(`{"text":`))
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNoMessages))
}
