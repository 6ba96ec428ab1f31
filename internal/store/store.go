// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"cmp"
	"context"
)

// =============================================================================
// MSGSTORE CONTRACT
// =============================================================================

// MsgStore is the storage contract the chat engine depends on. Every method
// may block on the backend and may fail with a backend error; errors are
// propagated to the caller verbatim, never retried here.
//
// Methods returning (I, bool, error) use the bool to distinguish "no such
// message exists" from a backend failure.
//
// Two orders are in play:
//
//   - The forest order: top-level trees ordered by root id
//     (FirstRootID .. NextRootID).
//   - The total order: all messages ordered by id, independent of tree
//     structure (OldestMsgID .. NewerMsgID and the unseen variants).
type MsgStore[I cmp.Ordered, M Msg[I]] interface {
	// Path returns the root-to-id chain for a known message.
	Path(ctx context.Context, id I) (Path[I], error)

	// Msg returns a single message, if it exists.
	Msg(ctx context.Context, id I) (M, bool, error)

	// Tree returns the full subtree rooted at root.
	Tree(ctx context.Context, root I) (*Tree[I, M], error)

	// Forest navigation over top-level trees.
	FirstRootID(ctx context.Context) (I, bool, error)
	LastRootID(ctx context.Context) (I, bool, error)
	PrevRootID(ctx context.Context, root I) (I, bool, error)
	NextRootID(ctx context.Context, root I) (I, bool, error)

	// Total-order navigation over all messages.
	OldestMsgID(ctx context.Context) (I, bool, error)
	NewestMsgID(ctx context.Context) (I, bool, error)
	OlderMsgID(ctx context.Context, id I) (I, bool, error)
	NewerMsgID(ctx context.Context, id I) (I, bool, error)

	// Total-order navigation restricted to unseen messages.
	OldestUnseenMsgID(ctx context.Context) (I, bool, error)
	NewestUnseenMsgID(ctx context.Context) (I, bool, error)
	OlderUnseenMsgID(ctx context.Context, id I) (I, bool, error)
	NewerUnseenMsgID(ctx context.Context, id I) (I, bool, error)

	// UnseenMsgsCount returns the maintained unseen aggregate. The backend
	// keeps it incrementally; it is never recomputed by scanning.
	UnseenMsgsCount(ctx context.Context) (int, error)

	// SetSeen toggles the seen flag of one message.
	SetSeen(ctx context.Context, id I, seen bool) error

	// SetOlderSeen toggles the seen flag of every message at or before id
	// in the total order.
	SetOlderSeen(ctx context.Context, id I, seen bool) error
}
