// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storetest

import (
	"context"
	"slices"
	"sync"

	"github.com/jeranaias/treeline-tui/internal/store"
)

// =============================================================================
// IN-MEMORY STORE
// =============================================================================

// Store is an in-memory implementation of the MsgStore contract over the
// concrete Message type. The zero value is not usable; call New.
type Store struct {
	mu     sync.RWMutex
	msgs   map[store.MessageID]*store.Message
	roots  map[store.MessageID]bool
	unseen int
}

var _ store.MsgStore[store.MessageID, *store.Message] = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		msgs:  make(map[store.MessageID]*store.Message),
		roots: make(map[store.MessageID]bool),
	}
}

// Add inserts a message, maintaining the root set and the unseen counter
// incrementally:
//
//   - a message with no parent, or whose parent is not locally known,
//     joins the root set;
//   - a message with an unknown parent makes that parent id a placeholder
//     root;
//   - a message arriving for an id that was a placeholder root retracts
//     the placeholder (and re-qualifies itself under the rules above).
//
// The resulting root set is identical regardless of insertion order.
func (s *Store) Add(msg *store.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := msg.ID()
	if prev, ok := s.msgs[id]; ok {
		// Replacing a message: forget its previous contribution.
		if !prev.Seen() {
			s.unseen--
		}
		delete(s.roots, id)
	}
	s.msgs[id] = msg

	if !msg.Seen() {
		s.unseen++
	}

	// The message was a placeholder root before its own row arrived; keep
	// it in the root set only if it qualifies on its own.
	delete(s.roots, id)
	if parent, ok := msg.Parent(); ok {
		if _, known := s.msgs[parent]; !known {
			s.roots[parent] = true
		}
	} else {
		s.roots[id] = true
	}
}

// Seed inserts many messages in order. Handy in tests.
func (s *Store) Seed(msgs ...*store.Message) {
	for _, m := range msgs {
		s.Add(m)
	}
}

// Roots returns the current root set, sorted ascending.
func (s *Store) Roots() []store.MessageID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedRoots()
}

func (s *Store) sortedRoots() []store.MessageID {
	roots := make([]store.MessageID, 0, len(s.roots))
	for id := range s.roots {
		roots = append(roots, id)
	}
	slices.Sort(roots)
	return roots
}

func (s *Store) sortedIDs() []store.MessageID {
	ids := make([]store.MessageID, 0, len(s.msgs))
	for id := range s.msgs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// =============================================================================
// MSGSTORE IMPLEMENTATION
// =============================================================================

// Path implements store.MsgStore. The chain is followed upward through
// parent pointers; it ends at a message without a parent, or at a
// placeholder id whose row has not arrived yet.
func (s *Store) Path(_ context.Context, id store.MessageID) (store.Path[store.MessageID], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	segments := []store.MessageID{id}
	cur := id
	for {
		msg, ok := s.msgs[cur]
		if !ok {
			break
		}
		parent, ok := msg.Parent()
		if !ok {
			break
		}
		segments = append(segments, parent)
		cur = parent
	}
	slices.Reverse(segments)
	return store.NewPath(segments), nil
}

// Msg implements store.MsgStore.
func (s *Store) Msg(_ context.Context, id store.MessageID) (*store.Message, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.msgs[id]
	return msg, ok, nil
}

// Tree implements store.MsgStore.
func (s *Store) Tree(_ context.Context, root store.MessageID) (*store.Tree[store.MessageID, *store.Message], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	children := make(map[store.MessageID][]store.MessageID)
	for _, id := range s.sortedIDs() {
		if parent, ok := s.msgs[id].Parent(); ok {
			children[parent] = append(children[parent], id)
		}
	}

	var msgs []*store.Message
	queue := []store.MessageID{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if msg, ok := s.msgs[cur]; ok {
			msgs = append(msgs, msg)
		}
		queue = append(queue, children[cur]...)
	}
	return store.NewTree(root, msgs), nil
}

// FirstRootID implements store.MsgStore.
func (s *Store) FirstRootID(_ context.Context) (store.MessageID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roots := s.sortedRoots()
	if len(roots) == 0 {
		return 0, false, nil
	}
	return roots[0], true, nil
}

// LastRootID implements store.MsgStore.
func (s *Store) LastRootID(_ context.Context) (store.MessageID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roots := s.sortedRoots()
	if len(roots) == 0 {
		return 0, false, nil
	}
	return roots[len(roots)-1], true, nil
}

// PrevRootID implements store.MsgStore.
func (s *Store) PrevRootID(_ context.Context, root store.MessageID) (store.MessageID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		prev  store.MessageID
		found bool
	)
	for _, id := range s.sortedRoots() {
		if id >= root {
			break
		}
		prev, found = id, true
	}
	return prev, found, nil
}

// NextRootID implements store.MsgStore.
func (s *Store) NextRootID(_ context.Context, root store.MessageID) (store.MessageID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.sortedRoots() {
		if id > root {
			return id, true, nil
		}
	}
	return 0, false, nil
}

// OldestMsgID implements store.MsgStore.
func (s *Store) OldestMsgID(ctx context.Context) (store.MessageID, bool, error) {
	return s.scan(func(*store.Message) bool { return true }, false)
}

// NewestMsgID implements store.MsgStore.
func (s *Store) NewestMsgID(ctx context.Context) (store.MessageID, bool, error) {
	return s.scan(func(*store.Message) bool { return true }, true)
}

// OlderMsgID implements store.MsgStore.
func (s *Store) OlderMsgID(_ context.Context, id store.MessageID) (store.MessageID, bool, error) {
	return s.scanBounded(func(*store.Message) bool { return true }, id, false)
}

// NewerMsgID implements store.MsgStore.
func (s *Store) NewerMsgID(_ context.Context, id store.MessageID) (store.MessageID, bool, error) {
	return s.scanBounded(func(*store.Message) bool { return true }, id, true)
}

// OldestUnseenMsgID implements store.MsgStore.
func (s *Store) OldestUnseenMsgID(context.Context) (store.MessageID, bool, error) {
	return s.scan(unseen, false)
}

// NewestUnseenMsgID implements store.MsgStore.
func (s *Store) NewestUnseenMsgID(context.Context) (store.MessageID, bool, error) {
	return s.scan(unseen, true)
}

// OlderUnseenMsgID implements store.MsgStore.
func (s *Store) OlderUnseenMsgID(_ context.Context, id store.MessageID) (store.MessageID, bool, error) {
	return s.scanBounded(unseen, id, false)
}

// NewerUnseenMsgID implements store.MsgStore.
func (s *Store) NewerUnseenMsgID(_ context.Context, id store.MessageID) (store.MessageID, bool, error) {
	return s.scanBounded(unseen, id, true)
}

func unseen(m *store.Message) bool { return !m.Seen() }

func (s *Store) scan(keep func(*store.Message) bool, newest bool) (store.MessageID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.sortedIDs()
	if newest {
		slices.Reverse(ids)
	}
	for _, id := range ids {
		if keep(s.msgs[id]) {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func (s *Store) scanBounded(keep func(*store.Message) bool, bound store.MessageID, newer bool) (store.MessageID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.sortedIDs()
	if !newer {
		slices.Reverse(ids)
	}
	for _, id := range ids {
		if newer && id <= bound || !newer && id >= bound {
			continue
		}
		if keep(s.msgs[id]) {
			return id, true, nil
		}
	}
	return 0, false, nil
}

// UnseenMsgsCount implements store.MsgStore. The counter is maintained
// incrementally; this never rescans.
func (s *Store) UnseenMsgsCount(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unseen, nil
}

// SetSeen implements store.MsgStore.
func (s *Store) SetSeen(_ context.Context, id store.MessageID, seen bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.msgs[id]
	if !ok || msg.WasSeen == seen {
		return nil
	}
	msg.WasSeen = seen
	if seen {
		s.unseen--
	} else {
		s.unseen++
	}
	return nil
}

// SetOlderSeen implements store.MsgStore.
func (s *Store) SetOlderSeen(_ context.Context, id store.MessageID, seen bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for cur, msg := range s.msgs {
		if cur > id || msg.WasSeen == seen {
			continue
		}
		msg.WasSeen = seen
		if seen {
			s.unseen--
		} else {
			s.unseen++
		}
	}
	return nil
}
