// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vault

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/treeline-tui/internal/store"
)

func openTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return v
}

func openTestRoom(t *testing.T, name string) *RoomVault {
	t.Helper()
	v := openTestVault(t)
	require.NoError(t, v.JoinRoom(context.Background(), name))
	return v.Room(name)
}

func insert(t *testing.T, r *RoomVault, msg *store.Message) {
	t.Helper()
	require.NoError(t, r.InsertMessage(context.Background(), msg))
}

func TestVault_Rooms(t *testing.T) {
	ctx := context.Background()
	v := openTestVault(t)

	rooms, err := v.Rooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	require.NoError(t, v.JoinRoom(ctx, "general"))
	require.NoError(t, v.JoinRoom(ctx, "announce"))
	require.NoError(t, v.JoinRoom(ctx, "general")) // idempotent

	rooms, err = v.Rooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"announce", "general"}, rooms)

	require.NoError(t, v.ForgetRoom(ctx, "announce"))
	rooms, err = v.Rooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"general"}, rooms)
}

func TestVault_ForgetRoomDropsMessages(t *testing.T) {
	ctx := context.Background()
	v := openTestVault(t)
	require.NoError(t, v.JoinRoom(ctx, "general"))
	r := v.Room("general")

	insert(t, r, store.NewMessage(1, "alice", "hi"))
	insert(t, r, store.NewReply(2, 1, "bob", "hello"))

	require.NoError(t, v.ForgetRoom(ctx, "general"))
	require.NoError(t, v.JoinRoom(ctx, "general"))

	_, found, err := r.Msg(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)

	n, err := r.UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// =============================================================================
// ROOT SET MAINTENANCE
// =============================================================================

func TestRoomVault_RootSetOrderIndependent(t *testing.T) {
	ctx := context.Background()

	// Insert a reply before its parent in one room, after in the other.
	// The resulting root sets must be identical.
	early := openTestRoom(t, "early")
	insert(t, early, store.NewMessage(1, "alice", "root"))
	insert(t, early, store.NewReply(2, 1, "bob", "reply"))

	late := openTestRoom(t, "late")
	insert(t, late, store.NewReply(2, 1, "bob", "reply"))
	roots, err := late.RootIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.MessageID{1}, roots, "unknown parent becomes a placeholder root")

	insert(t, late, store.NewMessage(1, "alice", "root"))

	for _, r := range []*RoomVault{early, late} {
		roots, err := r.RootIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []store.MessageID{1}, roots)
	}
}

func TestRoomVault_RootRetractedWhenParentArrives(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	// 3 arrives orphaned, then its parent 2 arrives also orphaned, then
	// the true root 1. Each backfill step retracts exactly one root.
	insert(t, r, store.NewReply(3, 2, "carol", "grandchild"))
	roots, err := r.RootIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.MessageID{2}, roots)

	insert(t, r, store.NewReply(2, 1, "bob", "child"))
	roots, err = r.RootIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.MessageID{1}, roots)

	insert(t, r, store.NewMessage(1, "alice", "root"))
	roots, err = r.RootIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.MessageID{1}, roots)
}

func TestRoomVault_ReinsertKeepsRootSet(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	insert(t, r, store.NewMessage(1, "alice", "root"))
	insert(t, r, store.NewReply(2, 1, "bob", "reply"))
	insert(t, r, store.NewReply(2, 1, "bob", "edited"))

	roots, err := r.RootIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.MessageID{1}, roots)

	msg, found, err := r.Msg(ctx, 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "edited", msg.Content())
}

// =============================================================================
// PATH AND TREE
// =============================================================================

func TestRoomVault_Path(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	insert(t, r, store.NewMessage(1, "alice", "root"))
	insert(t, r, store.NewReply(2, 1, "bob", "child"))
	insert(t, r, store.NewReply(4, 2, "carol", "grandchild"))

	path, err := r.Path(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []store.MessageID{1, 2, 4}, path.Segments())
	assert.Equal(t, store.MessageID(1), path.First())
}

func TestRoomVault_PathStopsAtPlaceholder(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	// 2's parent 1 never arrived; the path starts at the placeholder.
	insert(t, r, store.NewReply(2, 1, "bob", "child"))
	insert(t, r, store.NewReply(4, 2, "carol", "grandchild"))

	path, err := r.Path(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []store.MessageID{1, 2, 4}, path.Segments())
}

func TestRoomVault_Tree(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	insert(t, r, store.NewMessage(1, "alice", "root"))
	insert(t, r, store.NewReply(3, 1, "bob", "second child"))
	insert(t, r, store.NewReply(2, 1, "carol", "first child"))
	insert(t, r, store.NewReply(4, 2, "dave", "grandchild"))
	insert(t, r, store.NewMessage(9, "eve", "other tree"))

	tree, err := r.Tree(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, store.MessageID(1), tree.Root())
	assert.Equal(t, 4, tree.Len())
	assert.Equal(t, []store.MessageID{2, 3}, tree.Children(1))
	assert.Equal(t, []store.MessageID{4}, tree.Children(2))
	// Descendants only, the root itself is not counted.
	assert.Equal(t, 3, tree.SubtreeSize(1))
}

func TestRoomVault_TreeWithPlaceholderRoot(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	insert(t, r, store.NewReply(2, 1, "bob", "child"))
	insert(t, r, store.NewReply(3, 1, "carol", "child"))

	tree, err := r.Tree(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, store.MessageID(1), tree.Root())
	assert.Equal(t, 2, tree.Len())
	_, found := tree.Msg(1)
	assert.False(t, found, "placeholder root has no message")
	assert.Equal(t, []store.MessageID{2, 3}, tree.Children(1))
}

// =============================================================================
// NAVIGATION
// =============================================================================

func TestRoomVault_RootNavigation(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	insert(t, r, store.NewMessage(10, "alice", "a"))
	insert(t, r, store.NewMessage(20, "bob", "b"))
	insert(t, r, store.NewReply(25, 20, "carol", "reply"))
	insert(t, r, store.NewMessage(30, "dave", "c"))

	first, found, err := r.FirstRootID(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(10), first)

	last, found, err := r.LastRootID(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(30), last)

	next, found, err := r.NextRootID(ctx, 10)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(20), next)

	prev, found, err := r.PrevRootID(ctx, 30)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(20), prev)

	_, found, err = r.NextRootID(ctx, 30)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = r.PrevRootID(ctx, 10)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRoomVault_TotalOrderNavigation(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	_, found, err := r.OldestMsgID(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	insert(t, r, store.NewMessage(10, "alice", "a"))
	insert(t, r, store.NewReply(15, 10, "bob", "b"))
	insert(t, r, store.NewMessage(20, "carol", "c"))

	oldest, found, err := r.OldestMsgID(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(10), oldest)

	newest, found, err := r.NewestMsgID(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(20), newest)

	// Total order crosses tree boundaries.
	newer, found, err := r.NewerMsgID(ctx, 15)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(20), newer)

	older, found, err := r.OlderMsgID(ctx, 20)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(15), older)

	_, found, err = r.NewerMsgID(ctx, 20)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRoomVault_UnseenNavigation(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	seen := store.NewMessage(10, "alice", "a")
	seen.WasSeen = true
	insert(t, r, seen)
	insert(t, r, store.NewMessage(20, "bob", "b"))
	insert(t, r, store.NewMessage(30, "carol", "c"))

	oldest, found, err := r.OldestUnseenMsgID(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(20), oldest)

	newest, found, err := r.NewestUnseenMsgID(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(30), newest)

	older, found, err := r.OlderUnseenMsgID(ctx, 30)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(20), older)

	_, found, err = r.OlderUnseenMsgID(ctx, 20)
	require.NoError(t, err)
	assert.False(t, found, "seen messages are skipped")

	newer, found, err := r.NewerUnseenMsgID(ctx, 10)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(20), newer)
}

// =============================================================================
// UNSEEN COUNTER
// =============================================================================

func TestRoomVault_UnseenCountMaintained(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	n, err := r.UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	insert(t, r, store.NewMessage(1, "alice", "a"))
	insert(t, r, store.NewMessage(2, "bob", "b"))
	seen := store.NewMessage(3, "carol", "c")
	seen.WasSeen = true
	insert(t, r, seen)

	n, err = r.UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, r.SetSeen(ctx, 1, true))
	n, err = r.UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Redundant flips must not move the counter.
	require.NoError(t, r.SetSeen(ctx, 1, true))
	n, err = r.UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, r.SetSeen(ctx, 1, false))
	n, err = r.UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRoomVault_ReinsertPreservesSeen(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	insert(t, r, store.NewMessage(1, "alice", "a"))
	require.NoError(t, r.SetSeen(ctx, 1, true))

	// Backfill delivers the same message again, flagged unseen.
	insert(t, r, store.NewMessage(1, "alice", "a"))

	msg, found, err := r.Msg(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, msg.Seen())

	n, err := r.UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRoomVault_SetOlderSeen(t *testing.T) {
	ctx := context.Background()
	r := openTestRoom(t, "general")

	for id := store.MessageID(1); id <= 5; id++ {
		insert(t, r, store.NewMessage(id, "alice", "msg"))
	}

	require.NoError(t, r.SetOlderSeen(ctx, 3, true))

	n, err := r.UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rescan, err := r.RescanUnseen(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, rescan, "counter agrees with a full rescan")

	oldest, found, err := r.OldestUnseenMsgID(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.MessageID(4), oldest)
}

func TestRoomVault_UnseenCountersIsolatedPerRoom(t *testing.T) {
	ctx := context.Background()
	v := openTestVault(t)
	require.NoError(t, v.JoinRoom(ctx, "a"))
	require.NoError(t, v.JoinRoom(ctx, "b"))

	insert(t, v.Room("a"), store.NewMessage(1, "alice", "a"))
	insert(t, v.Room("b"), store.NewMessage(1, "bob", "b"))
	insert(t, v.Room("b"), store.NewMessage(2, "bob", "b2"))

	n, err := v.Room("a").UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = v.Room("b").UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	total, err := v.TotalUnseen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

// =============================================================================
// REOPEN
// =============================================================================

func TestVault_AggregatesRebuiltOnOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")

	v, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, v.JoinRoom(ctx, "general"))
	r := v.Room("general")
	insert(t, r, store.NewReply(2, 1, "bob", "orphan"))
	insert(t, r, store.NewMessage(5, "alice", "root"))
	require.NoError(t, v.Close())

	v, err = Open(path)
	require.NoError(t, err)
	defer v.Close()
	r = v.Room("general")

	roots, err := r.RootIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.MessageID{1, 5}, roots)

	n, err := r.UnseenMsgsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
