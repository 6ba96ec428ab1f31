// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the cursor state machine and its movement
// operations. All store-touching movement takes a context and propagates
// backend errors verbatim.
package chat

import (
	"cmp"
	"context"

	"github.com/jeranaias/treeline-tui/internal/store"
)

// =============================================================================
// CURSOR
// =============================================================================

// CursorKind discriminates the cursor variants.
type CursorKind int

const (
	// CursorBottom anchors the viewport to the live tail of the chat.
	CursorBottom CursorKind = iota
	// CursorMsg anchors the viewport to a specific message.
	CursorMsg
	// CursorEditor means the user is composing a message.
	CursorEditor
	// CursorPseudo is an optimistically displayed, unconfirmed send.
	CursorPseudo
)

// Cursor is the logical anchor of the viewport. Exactly one variant is
// active at a time; ID is meaningful for CursorMsg, Parent and ComingFrom
// for CursorEditor and CursorPseudo (nil Parent means a new top-level
// thread, nil ComingFrom means the cursor was at the bottom).
type Cursor[I comparable] struct {
	Kind       CursorKind
	ID         I
	Parent     *I
	ComingFrom *I
}

// BottomCursor returns a cursor anchored to the bottom of the chat.
func BottomCursor[I comparable]() Cursor[I] {
	return Cursor[I]{Kind: CursorBottom}
}

// MsgCursor returns a cursor anchored to the given message.
func MsgCursor[I comparable](id I) Cursor[I] {
	return Cursor[I]{Kind: CursorMsg, ID: id}
}

// EditorCursor returns a cursor for composing a message under parent.
func EditorCursor[I comparable](comingFrom, parent *I) Cursor[I] {
	return Cursor[I]{Kind: CursorEditor, Parent: parent, ComingFrom: comingFrom}
}

// PseudoCursor returns a cursor for an optimistic, unconfirmed send.
func PseudoCursor[I comparable](comingFrom, parent *I) Cursor[I] {
	return Cursor[I]{Kind: CursorPseudo, Parent: parent, ComingFrom: comingFrom}
}

// MsgID returns the pinned message id, if the cursor pins one.
func (c Cursor[I]) MsgID() (I, bool) {
	var zero I
	if c.Kind != CursorMsg {
		return zero, false
	}
	return c.ID, true
}

// Equal reports whether two cursors describe the same anchor.
func (c Cursor[I]) Equal(other Cursor[I]) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case CursorMsg:
		return c.ID == other.ID
	case CursorEditor, CursorPseudo:
		return optEqual(c.Parent, other.Parent) && optEqual(c.ComingFrom, other.ComingFrom)
	default:
		return true
	}
}

func optEqual[I comparable](a, b *I) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func opt[I comparable](id I) *I {
	return &id
}

// =============================================================================
// COMPOSITION TRANSITIONS
// =============================================================================

// Submit transitions an editor cursor into a pseudo cursor: the composed
// message is shown immediately, before the backend confirms it.
func (c Cursor[I]) Submit() Cursor[I] {
	if c.Kind != CursorEditor {
		return c
	}
	return PseudoCursor(c.ComingFrom, c.Parent)
}

// SendSuccessful resolves a pseudo cursor to the real message id assigned
// by the backend.
func (c Cursor[I]) SendSuccessful(id I) Cursor[I] {
	if c.Kind != CursorPseudo {
		return c
	}
	return MsgCursor(id)
}

// SendFailed rolls a pseudo cursor back to where composition started.
func (c Cursor[I]) SendFailed() Cursor[I] {
	if c.Kind != CursorPseudo {
		return c
	}
	if c.ComingFrom != nil {
		return MsgCursor(*c.ComingFrom)
	}
	return BottomCursor[I]()
}

// Abort leaves the editor without sending, back to where composition
// started.
func (c Cursor[I]) Abort() Cursor[I] {
	if c.Kind != CursorEditor {
		return c
	}
	if c.ComingFrom != nil {
		return MsgCursor(*c.ComingFrom)
	}
	return BottomCursor[I]()
}

// =============================================================================
// TREE WALKING
// =============================================================================

// treeWalker steps through the forest one visible message at a time,
// crossing tree boundaries via the store and skipping folded subtrees.
type treeWalker[I cmp.Ordered, M store.Msg[I]] struct {
	store  store.MsgStore[I, M]
	folded map[I]bool
	tree   *store.Tree[I, M]
	id     I
}

func (w *treeWalker[I, M]) toParent() bool {
	parent, ok := w.tree.Parent(w.id)
	if ok {
		w.id = parent
	}
	return ok
}

// toPrevSibling moves to the previous sibling, staying at the same level
// of indentation. At a tree root it moves to the previous tree's root.
func (w *treeWalker[I, M]) toPrevSibling(ctx context.Context) (bool, error) {
	if prev, ok := w.tree.PrevSibling(w.id); ok {
		w.id = prev
		return true, nil
	}
	if _, ok := w.tree.Parent(w.id); ok {
		return false, nil
	}
	prevRoot, ok, err := w.store.PrevRootID(ctx, w.tree.Root())
	if err != nil || !ok {
		return false, err
	}
	tree, err := w.store.Tree(ctx, prevRoot)
	if err != nil {
		return false, err
	}
	w.tree = tree
	w.id = prevRoot
	return true, nil
}

// toNextSibling moves to the next sibling, staying at the same level of
// indentation. At a tree root it moves to the next tree's root.
func (w *treeWalker[I, M]) toNextSibling(ctx context.Context) (bool, error) {
	if next, ok := w.tree.NextSibling(w.id); ok {
		w.id = next
		return true, nil
	}
	if _, ok := w.tree.Parent(w.id); ok {
		return false, nil
	}
	nextRoot, ok, err := w.store.NextRootID(ctx, w.tree.Root())
	if err != nil || !ok {
		return false, err
	}
	tree, err := w.store.Tree(ctx, nextRoot)
	if err != nil {
		return false, err
	}
	w.tree = tree
	w.id = nextRoot
	return true, nil
}

func (w *treeWalker[I, M]) toFirstChild() bool {
	if w.folded[w.id] {
		return false
	}
	child, ok := w.tree.FirstChild(w.id)
	if ok {
		w.id = child
	}
	return ok
}

func (w *treeWalker[I, M]) toLastChild() bool {
	if w.folded[w.id] {
		return false
	}
	child, ok := w.tree.LastChild(w.id)
	if ok {
		w.id = child
	}
	return ok
}

// toLastVisible descends to the last visible descendant.
func (w *treeWalker[I, M]) toLastVisible() {
	for w.toLastChild() {
	}
}

// toAboveMsg moves to the message rendered directly above, or stays put
// if there is none.
func (w *treeWalker[I, M]) toAboveMsg(ctx context.Context) (bool, error) {
	// Previous sibling's last visible descendant, or the parent.
	moved, err := w.toPrevSibling(ctx)
	if err != nil {
		return false, err
	}
	if moved {
		w.toLastVisible()
		return true, nil
	}
	return w.toParent(), nil
}

// toBelowMsg moves to the message rendered directly below, or stays put
// if there is none.
func (w *treeWalker[I, M]) toBelowMsg(ctx context.Context) (bool, error) {
	if w.toFirstChild() {
		return true, nil
	}

	moved, err := w.toNextSibling(ctx)
	if err != nil || moved {
		return moved, err
	}

	// Walk up until an ancestor has a next sibling. The walk must not
	// move the walker if nothing is found, so work on a copy.
	up := *w
	for up.toParent() {
		moved, err := up.toNextSibling(ctx)
		if err != nil {
			return false, err
		}
		if moved {
			*w = up
			return true, nil
		}
	}
	return false, nil
}

func walkerAt[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context,
	s store.MsgStore[I, M],
	folded map[I]bool,
	id I,
) (*treeWalker[I, M], error) {
	path, err := s.Path(ctx, id)
	if err != nil {
		return nil, err
	}
	tree, err := s.Tree(ctx, path.First())
	if err != nil {
		return nil, err
	}
	return &treeWalker[I, M]{store: s, folded: folded, tree: tree, id: id}, nil
}

// =============================================================================
// MOVEMENT
// =============================================================================

// MoveToTop moves the cursor to the root of the first tree.
func MoveToTop[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c *Cursor[I],
) error {
	first, ok, err := s.FirstRootID(ctx)
	if err != nil {
		return err
	}
	if ok {
		*c = MsgCursor(first)
	}
	return nil
}

// MoveToBottom moves the cursor to the live bottom of the chat.
func MoveToBottom[I comparable](c *Cursor[I]) {
	*c = BottomCursor[I]()
}

// MoveToOlderMsg moves the cursor to the next older message in the total
// order, entering the order at the newest message when coming from the
// bottom.
func MoveToOlderMsg[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c *Cursor[I],
) error {
	switch c.Kind {
	case CursorMsg:
		older, ok, err := s.OlderMsgID(ctx, c.ID)
		if err != nil {
			return err
		}
		if ok {
			c.ID = older
		}
	case CursorBottom, CursorPseudo:
		newest, ok, err := s.NewestMsgID(ctx)
		if err != nil {
			return err
		}
		if ok {
			*c = MsgCursor(newest)
		}
	}
	return nil
}

// MoveToNewerMsg moves the cursor to the next newer message in the total
// order, falling off the end onto the bottom.
func MoveToNewerMsg[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c *Cursor[I],
) error {
	switch c.Kind {
	case CursorMsg:
		newer, ok, err := s.NewerMsgID(ctx, c.ID)
		if err != nil {
			return err
		}
		if ok {
			c.ID = newer
		} else {
			*c = BottomCursor[I]()
		}
	case CursorPseudo:
		*c = BottomCursor[I]()
	}
	return nil
}

// MoveToOlderUnseenMsg is MoveToOlderMsg restricted to unseen messages.
func MoveToOlderUnseenMsg[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c *Cursor[I],
) error {
	switch c.Kind {
	case CursorMsg:
		older, ok, err := s.OlderUnseenMsgID(ctx, c.ID)
		if err != nil {
			return err
		}
		if ok {
			c.ID = older
		}
	case CursorBottom, CursorPseudo:
		newest, ok, err := s.NewestUnseenMsgID(ctx)
		if err != nil {
			return err
		}
		if ok {
			*c = MsgCursor(newest)
		}
	}
	return nil
}

// MoveToNewerUnseenMsg is MoveToNewerMsg restricted to unseen messages.
func MoveToNewerUnseenMsg[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c *Cursor[I],
) error {
	switch c.Kind {
	case CursorMsg:
		newer, ok, err := s.NewerUnseenMsgID(ctx, c.ID)
		if err != nil {
			return err
		}
		if ok {
			c.ID = newer
		} else {
			*c = BottomCursor[I]()
		}
	case CursorPseudo:
		*c = BottomCursor[I]()
	}
	return nil
}

// MoveToParent moves the cursor to the pinned message's parent. From an
// editor or pseudo cursor it moves to the composition parent.
func MoveToParent[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c *Cursor[I],
) error {
	switch c.Kind {
	case CursorEditor, CursorPseudo:
		if c.Parent != nil {
			*c = MsgCursor(*c.Parent)
		}
	case CursorMsg:
		path, err := s.Path(ctx, c.ID)
		if err != nil {
			return err
		}
		if parent, ok := path.Parent(); ok {
			c.ID = parent
		}
	}
	return nil
}

// MoveToRoot moves the cursor to the root of the tree it is in.
func MoveToRoot[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c *Cursor[I],
) error {
	switch c.Kind {
	case CursorPseudo:
		if c.Parent == nil {
			return nil
		}
		path, err := s.Path(ctx, *c.Parent)
		if err != nil {
			return err
		}
		*c = MsgCursor(path.First())
	case CursorMsg:
		path, err := s.Path(ctx, c.ID)
		if err != nil {
			return err
		}
		c.ID = path.First()
	}
	return nil
}

// MoveToPrevSibling moves the cursor to the previous sibling, crossing
// tree boundaries at the roots. From the bottom it enters at the last
// tree's root.
func MoveToPrevSibling[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c *Cursor[I],
) error {
	switch c.Kind {
	case CursorBottom:
		last, ok, err := s.LastRootID(ctx)
		if err != nil {
			return err
		}
		if ok {
			*c = MsgCursor(last)
		}
	case CursorMsg:
		w, err := walkerAt(ctx, s, nil, c.ID)
		if err != nil {
			return err
		}
		if _, err := w.toPrevSibling(ctx); err != nil {
			return err
		}
		c.ID = w.id
	case CursorPseudo:
		if c.Parent == nil {
			last, ok, err := s.LastRootID(ctx)
			if err != nil {
				return err
			}
			if ok {
				*c = MsgCursor(last)
			}
			return nil
		}
		// The pseudo message is the youngest child of its parent, so the
		// previous sibling is the parent's last real child.
		path, err := s.Path(ctx, *c.Parent)
		if err != nil {
			return err
		}
		tree, err := s.Tree(ctx, path.First())
		if err != nil {
			return err
		}
		if last, ok := tree.LastChild(*c.Parent); ok {
			*c = MsgCursor(last)
		}
	}
	return nil
}

// MoveToNextSibling moves the cursor to the next sibling, crossing tree
// boundaries at the roots and falling off the last root onto the bottom.
func MoveToNextSibling[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c *Cursor[I],
) error {
	switch c.Kind {
	case CursorMsg:
		w, err := walkerAt(ctx, s, nil, c.ID)
		if err != nil {
			return err
		}
		moved, err := w.toNextSibling(ctx)
		if err != nil {
			return err
		}
		if moved {
			c.ID = w.id
		} else if _, ok := w.tree.Parent(w.id); !ok {
			*c = BottomCursor[I]()
		}
	case CursorPseudo:
		if c.Parent == nil {
			*c = BottomCursor[I]()
		}
	}
	return nil
}

// MoveUpInTree moves the cursor to the message rendered directly above,
// skipping folded subtrees.
func MoveUpInTree[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c *Cursor[I], folded map[I]bool,
) error {
	switch c.Kind {
	case CursorBottom:
		last, ok, err := s.LastRootID(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		tree, err := s.Tree(ctx, last)
		if err != nil {
			return err
		}
		w := treeWalker[I, M]{store: s, folded: folded, tree: tree, id: last}
		w.toLastVisible()
		*c = MsgCursor(w.id)
	case CursorMsg:
		w, err := walkerAt(ctx, s, folded, c.ID)
		if err != nil {
			return err
		}
		if _, err := w.toAboveMsg(ctx); err != nil {
			return err
		}
		c.ID = w.id
	case CursorPseudo:
		if c.Parent == nil {
			last, ok, err := s.LastRootID(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			tree, err := s.Tree(ctx, last)
			if err != nil {
				return err
			}
			w := treeWalker[I, M]{store: s, folded: folded, tree: tree, id: last}
			w.toLastVisible()
			*c = MsgCursor(w.id)
			return nil
		}
		tree, err := s.Tree(ctx, *c.Parent)
		if err != nil {
			return err
		}
		w := treeWalker[I, M]{store: s, folded: folded, tree: tree, id: *c.Parent}
		w.toLastVisible()
		*c = MsgCursor(w.id)
	}
	return nil
}

// MoveDownInTree moves the cursor to the message rendered directly below,
// skipping folded subtrees and falling off the end onto the bottom.
func MoveDownInTree[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c *Cursor[I], folded map[I]bool,
) error {
	switch c.Kind {
	case CursorMsg:
		w, err := walkerAt(ctx, s, folded, c.ID)
		if err != nil {
			return err
		}
		moved, err := w.toBelowMsg(ctx)
		if err != nil {
			return err
		}
		if moved {
			c.ID = w.id
		} else {
			*c = BottomCursor[I]()
		}
	case CursorPseudo:
		if c.Parent == nil {
			*c = BottomCursor[I]()
			return nil
		}
		tree, err := s.Tree(ctx, *c.Parent)
		if err != nil {
			return err
		}
		w := treeWalker[I, M]{store: s, folded: folded, tree: tree, id: *c.Parent}
		// The pseudo message renders below the parent's last visible
		// descendant, so continue from there.
		w.toLastVisible()
		moved, err := w.toBelowMsg(ctx)
		if err != nil {
			return err
		}
		if moved {
			*c = MsgCursor(w.id)
		} else {
			*c = BottomCursor[I]()
		}
	}
	return nil
}

// =============================================================================
// REPLY PARENT SELECTION
// =============================================================================

// ParentForReply picks a composition parent for a normal reply. The
// second return value reports whether composing is possible at all from
// the current cursor; a nil parent means a new top-level thread.
func ParentForReply[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c Cursor[I],
) (*I, bool, error) {
	switch c.Kind {
	case CursorBottom:
		return nil, true, nil
	case CursorMsg:
		path, err := s.Path(ctx, c.ID)
		if err != nil {
			return nil, false, err
		}
		tree, err := s.Tree(ctx, path.First())
		if err != nil {
			return nil, false, err
		}

		if _, ok := tree.NextSibling(c.ID); ok {
			// A reply to a message with younger siblings should be a
			// direct reply. An indirect reply might end up a lot further
			// down in the current conversation.
			return opt(c.ID), true, nil
		}
		if parent, ok := tree.Parent(c.ID); ok {
			// A reply to the youngest sibling should be an indirect
			// reply so as not to create unnecessarily deep threads.
			return opt(parent), true, nil
		}
		// Replying to a top-level message directly avoids creating
		// unnecessary new threads.
		return opt(c.ID), true, nil
	default:
		return nil, false, nil
	}
}

// ParentForAlternateReply is ParentForReply with the direct/indirect
// choice flipped.
func ParentForAlternateReply[I cmp.Ordered, M store.Msg[I]](
	ctx context.Context, s store.MsgStore[I, M], c Cursor[I],
) (*I, bool, error) {
	switch c.Kind {
	case CursorBottom:
		return nil, true, nil
	case CursorMsg:
		path, err := s.Path(ctx, c.ID)
		if err != nil {
			return nil, false, err
		}
		tree, err := s.Tree(ctx, path.First())
		if err != nil {
			return nil, false, err
		}

		if _, ok := tree.NextSibling(c.ID); !ok {
			return opt(c.ID), true, nil
		}
		if parent, ok := tree.Parent(c.ID); ok {
			return opt(parent), true, nil
		}
		return opt(c.ID), true, nil
	default:
		return nil, false, nil
	}
}
