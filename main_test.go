// treeline TUI - a terminal client for tree-structured chat rooms.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/treeline-tui/internal/store"
	"github.com/jeranaias/treeline-tui/internal/ui/chat"
	"github.com/jeranaias/treeline-tui/internal/vault"
)

func TestDeliverMarksOwnMessagesSeen(t *testing.T) {
	ctx := context.Background()
	v, err := vault.Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	defer v.Close()
	require.NoError(t, v.JoinRoom(ctx, "general"))
	room := v.Room("general")

	a := app{room: room, ids: &store.IDSource{}, nick: "alice"}

	msg := a.deliver(chat.ComposedMsg{SendID: "send-1", Content: "hello"})()
	sent, ok := msg.(chat.SentMsg)
	require.True(t, ok, "delivery failed: %v", msg)
	assert.Equal(t, "send-1", sent.SendID)

	// The author's own message never shows as unread.
	m, found, err := room.Msg(ctx, sent.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, m.Seen())

	unseen, err := room.UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, unseen)

	// Replies go through the same path.
	msg = a.deliver(chat.ComposedMsg{SendID: "send-2", Parent: &sent.ID, Content: "again"})()
	reply, ok := msg.(chat.SentMsg)
	require.True(t, ok, "delivery failed: %v", msg)

	m, found, err = room.Msg(ctx, reply.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, m.Seen())

	unseen, err = room.UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, unseen)
}
