// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vault

import (
	"context"
	"database/sql"

	"github.com/jeranaias/treeline-tui/internal/store"
)

// =============================================================================
// ROOM VAULT
// =============================================================================

// RoomVault is one room's view of the vault. It implements the MsgStore
// contract; every failure is a backend error propagated verbatim.
type RoomVault struct {
	db   *sql.DB
	room string
}

var _ store.MsgStore[store.MessageID, *store.Message] = (*RoomVault)(nil)

// Name returns the room name.
func (r *RoomVault) Name() string {
	return r.room
}

// InsertMessage stores a message. Re-inserting an id updates the content
// but preserves the seen flag, so backfill cannot mark messages unread.
func (r *RoomVault) InsertMessage(ctx context.Context, msg *store.Message) error {
	var parent any
	if p, ok := msg.Parent(); ok {
		parent = int64(p)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO msgs (room, id, parent, time, nick, content, seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (room, id) DO UPDATE
		SET nick = excluded.nick, content = excluded.content
	`, r.room, int64(msg.ID()), parent, msg.Time().UnixMilli(), msg.Nick(), msg.Content(), msg.Seen())
	return err
}

// =============================================================================
// MSGSTORE: TREE STRUCTURE
// =============================================================================

// Path implements store.MsgStore. Ancestors are collected by walking the
// parent pointers upward; parent ids always precede child ids, so sorting
// ascending yields the root-first chain.
func (r *RoomVault) Path(ctx context.Context, id store.MessageID) (store.Path[store.MessageID], error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH RECURSIVE path (id) AS (
			VALUES (?)
			UNION
			SELECT msgs.parent
			FROM msgs
			JOIN path ON msgs.id = path.id
			WHERE msgs.room = ?
			AND msgs.parent IS NOT NULL
		)
		SELECT id FROM path ORDER BY id ASC
	`, int64(id), r.room)
	if err != nil {
		return store.Path[store.MessageID]{}, err
	}
	defer rows.Close()

	var segments []store.MessageID
	for rows.Next() {
		var seg int64
		if err := rows.Scan(&seg); err != nil {
			return store.Path[store.MessageID]{}, err
		}
		segments = append(segments, store.MessageID(seg))
	}
	if err := rows.Err(); err != nil {
		return store.Path[store.MessageID]{}, err
	}
	return store.NewPath(segments), nil
}

// Msg implements store.MsgStore.
func (r *RoomVault) Msg(ctx context.Context, id store.MessageID) (*store.Message, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, parent, nick, content, seen
		FROM msgs
		WHERE room = ? AND id = ?
	`, r.room, int64(id))

	msg, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return msg, true, nil
}

// Tree implements store.MsgStore. The whole subtree under root is fetched
// in one recursive query; the root itself may be a placeholder without a
// row of its own.
func (r *RoomVault) Tree(ctx context.Context, root store.MessageID) (*store.Tree[store.MessageID, *store.Message], error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH RECURSIVE subtree (id) AS (
			VALUES (?)
			UNION
			SELECT msgs.id
			FROM msgs
			JOIN subtree ON msgs.parent = subtree.id
			WHERE msgs.room = ?
		)
		SELECT id, parent, nick, content, seen
		FROM msgs
		WHERE room = ?
		AND id IN (SELECT id FROM subtree)
		ORDER BY id ASC
	`, int64(root), r.room, r.room)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*store.Message
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return store.NewTree(root, msgs), nil
}

func scanMessage(scan func(...any) error) (*store.Message, error) {
	var (
		id      int64
		parent  sql.NullInt64
		nick    string
		content string
		seen    bool
	)
	if err := scan(&id, &parent, &nick, &content, &seen); err != nil {
		return nil, err
	}
	msg := &store.Message{MsgID: store.MessageID(id), From: nick, Body: content, WasSeen: seen}
	if parent.Valid {
		p := store.MessageID(parent.Int64)
		msg.ParentID = &p
	}
	return msg, nil
}

// =============================================================================
// MSGSTORE: NAVIGATION
// =============================================================================

// queryID runs a query expected to yield zero or one id.
func (r *RoomVault) queryID(ctx context.Context, query string, args ...any) (store.MessageID, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return store.MessageID(id), true, nil
}

// FirstRootID implements store.MsgStore.
func (r *RoomVault) FirstRootID(ctx context.Context) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM trees WHERE room = ? ORDER BY id ASC LIMIT 1", r.room)
}

// LastRootID implements store.MsgStore.
func (r *RoomVault) LastRootID(ctx context.Context) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM trees WHERE room = ? ORDER BY id DESC LIMIT 1", r.room)
}

// PrevRootID implements store.MsgStore.
func (r *RoomVault) PrevRootID(ctx context.Context, root store.MessageID) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM trees WHERE room = ? AND id < ? ORDER BY id DESC LIMIT 1",
		r.room, int64(root))
}

// NextRootID implements store.MsgStore.
func (r *RoomVault) NextRootID(ctx context.Context, root store.MessageID) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM trees WHERE room = ? AND id > ? ORDER BY id ASC LIMIT 1",
		r.room, int64(root))
}

// OldestMsgID implements store.MsgStore.
func (r *RoomVault) OldestMsgID(ctx context.Context) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM msgs WHERE room = ? ORDER BY id ASC LIMIT 1", r.room)
}

// NewestMsgID implements store.MsgStore.
func (r *RoomVault) NewestMsgID(ctx context.Context) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM msgs WHERE room = ? ORDER BY id DESC LIMIT 1", r.room)
}

// OlderMsgID implements store.MsgStore.
func (r *RoomVault) OlderMsgID(ctx context.Context, id store.MessageID) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM msgs WHERE room = ? AND id < ? ORDER BY id DESC LIMIT 1",
		r.room, int64(id))
}

// NewerMsgID implements store.MsgStore.
func (r *RoomVault) NewerMsgID(ctx context.Context, id store.MessageID) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM msgs WHERE room = ? AND id > ? ORDER BY id ASC LIMIT 1",
		r.room, int64(id))
}

// OldestUnseenMsgID implements store.MsgStore.
func (r *RoomVault) OldestUnseenMsgID(ctx context.Context) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM msgs WHERE room = ? AND NOT seen ORDER BY id ASC LIMIT 1", r.room)
}

// NewestUnseenMsgID implements store.MsgStore.
func (r *RoomVault) NewestUnseenMsgID(ctx context.Context) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM msgs WHERE room = ? AND NOT seen ORDER BY id DESC LIMIT 1", r.room)
}

// OlderUnseenMsgID implements store.MsgStore.
func (r *RoomVault) OlderUnseenMsgID(ctx context.Context, id store.MessageID) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM msgs WHERE room = ? AND NOT seen AND id < ? ORDER BY id DESC LIMIT 1",
		r.room, int64(id))
}

// NewerUnseenMsgID implements store.MsgStore.
func (r *RoomVault) NewerUnseenMsgID(ctx context.Context, id store.MessageID) (store.MessageID, bool, error) {
	return r.queryID(ctx,
		"SELECT id FROM msgs WHERE room = ? AND NOT seen AND id > ? ORDER BY id ASC LIMIT 1",
		r.room, int64(id))
}

// =============================================================================
// MSGSTORE: SEEN STATE
// =============================================================================

// UnseenMsgsCount implements store.MsgStore. This reads the maintained
// counter, never counts messages.
func (r *RoomVault) UnseenMsgsCount(ctx context.Context) (int, error) {
	var amount int
	err := r.db.QueryRowContext(ctx,
		"SELECT amount FROM unseen_counts WHERE room = ?", r.room).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return amount, err
}

// SetSeen implements store.MsgStore. The triggers adjust the unseen
// counter exactly once per actual flag change.
func (r *RoomVault) SetSeen(ctx context.Context, id store.MessageID, seen bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE msgs SET seen = ? WHERE room = ? AND id = ?",
		seen, r.room, int64(id))
	return err
}

// SetOlderSeen implements store.MsgStore. One bulk update; the per-row
// triggers keep the counter in step.
func (r *RoomVault) SetOlderSeen(ctx context.Context, id store.MessageID, seen bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE msgs SET seen = ? WHERE room = ? AND id <= ?",
		seen, r.room, int64(id))
	return err
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// RootIDs returns the current root set, sorted ascending. Used by tests
// and debugging tools; the engine navigates via Prev/NextRootID instead.
func (r *RoomVault) RootIDs(ctx context.Context) ([]store.MessageID, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM trees WHERE room = ? ORDER BY id ASC", r.room)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roots []store.MessageID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		roots = append(roots, store.MessageID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roots, nil
}

// RescanUnseen counts unseen messages by scanning. Only for tests that
// verify the maintained counter agrees with ground truth.
func (r *RoomVault) RescanUnseen(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM msgs WHERE room = ? AND NOT seen", r.room).Scan(&n)
	return n, err
}
