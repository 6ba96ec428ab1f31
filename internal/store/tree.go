// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"cmp"
	"slices"
)

// =============================================================================
// TREE SNAPSHOT
// =============================================================================

// Tree is a read-only snapshot of one reply tree, built once from a flat
// list of fetched messages and never mutated afterwards. Children are
// always sorted ascending by id, regardless of the order messages arrived
// in.
//
// Lookups for ids the snapshot doesn't contain return the zero value and
// false, never an error: a missing message is an ordinary condition during
// out-of-order backfill.
type Tree[I cmp.Ordered, M Msg[I]] struct {
	root     I
	msgs     map[I]M
	children map[I][]I
}

// NewTree builds a snapshot rooted at root from a flat message list.
func NewTree[I cmp.Ordered, M Msg[I]](root I, msgs []M) *Tree[I, M] {
	t := &Tree[I, M]{
		root:     root,
		msgs:     make(map[I]M, len(msgs)),
		children: make(map[I][]I, len(msgs)),
	}

	for _, m := range msgs {
		t.msgs[m.ID()] = m
	}
	for _, m := range t.msgs {
		id := m.ID()
		if _, ok := t.children[id]; !ok {
			t.children[id] = nil
		}
		if parent, ok := m.Parent(); ok {
			t.children[parent] = append(t.children[parent], id)
		}
	}
	for _, list := range t.children {
		slices.Sort(list)
	}

	return t
}

// Len returns the number of messages in the snapshot.
func (t *Tree[I, M]) Len() int {
	return len(t.msgs)
}

// Root returns the root id of the snapshot.
func (t *Tree[I, M]) Root() I {
	return t.root
}

// Msg looks up a message by id.
func (t *Tree[I, M]) Msg(id I) (M, bool) {
	m, ok := t.msgs[id]
	return m, ok
}

// Parent returns the parent id of the given message, if the message exists
// and has one.
func (t *Tree[I, M]) Parent(id I) (I, bool) {
	m, ok := t.msgs[id]
	if !ok {
		var zero I
		return zero, false
	}
	return m.Parent()
}

// Children returns the ids of the direct replies to id, sorted ascending.
// The returned slice must not be modified.
func (t *Tree[I, M]) Children(id I) []I {
	return t.children[id]
}

// SubtreeSize returns the number of descendants of id, not counting id
// itself. Recursion depth is the depth of the reply tree, which is shallow
// for real conversations.
func (t *Tree[I, M]) SubtreeSize(id I) int {
	children := t.children[id]
	size := len(children)
	for _, child := range children {
		size += t.SubtreeSize(child)
	}
	return size
}

// Siblings returns the sorted child list of id's parent, including id
// itself. A message without a known parent has no siblings.
func (t *Tree[I, M]) Siblings(id I) []I {
	parent, ok := t.Parent(id)
	if !ok {
		return nil
	}
	return t.children[parent]
}

// PrevSibling returns the sibling directly before id, if any.
func (t *Tree[I, M]) PrevSibling(id I) (I, bool) {
	siblings := t.Siblings(id)
	for i := 1; i < len(siblings); i++ {
		if siblings[i] == id {
			return siblings[i-1], true
		}
	}
	var zero I
	return zero, false
}

// NextSibling returns the sibling directly after id, if any.
func (t *Tree[I, M]) NextSibling(id I) (I, bool) {
	siblings := t.Siblings(id)
	for i := 1; i < len(siblings); i++ {
		if siblings[i-1] == id {
			return siblings[i], true
		}
	}
	var zero I
	return zero, false
}

// FirstChild returns the first direct reply to id, if any.
func (t *Tree[I, M]) FirstChild(id I) (I, bool) {
	children := t.children[id]
	if len(children) == 0 {
		var zero I
		return zero, false
	}
	return children[0], true
}

// LastChild returns the last direct reply to id, if any.
func (t *Tree[I, M]) LastChild(id I) (I, bool) {
	children := t.children[id]
	if len(children) == 0 {
		var zero I
		return zero, false
	}
	return children[len(children)-1], true
}
