// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"cmp"
	"math"
	"strconv"
	"sync"
	"time"
)

// =============================================================================
// MSG INTERFACE
// =============================================================================

// Msg is the minimal view of a message the engine needs. The id type is
// generic: anything ordered works, as long as ids are unique within a
// transcript.
type Msg[I cmp.Ordered] interface {
	// ID returns the message's id.
	ID() I

	// Parent returns the parent id, if the message is a reply.
	Parent() (I, bool)

	// Seen reports whether the message has been marked as read.
	Seen() bool

	// NickEmoji returns an optional emoji override for the sender's nick.
	NickEmoji() (string, bool)

	// LastPossibleID returns the maximum value any real id can take. It is
	// independent of the receiver and bounds open-ended range queries
	// ("no newer message exists").
	LastPossibleID() I
}

// =============================================================================
// PATH
// =============================================================================

// Path is the chain of ids from a tree root down to a target message.
// A Path is never empty; its first segment is always the root.
type Path[I cmp.Ordered] struct {
	segments []I
}

// NewPath creates a path from root-to-target segments. Panics if segments
// is empty; an empty path is a caller bug, not a runtime condition.
func NewPath[I cmp.Ordered](segments []I) Path[I] {
	if len(segments) == 0 {
		panic("store: path must not be empty")
	}
	return Path[I]{segments: segments}
}

// First returns the root id of the path.
func (p Path[I]) First() I {
	return p.segments[0]
}

// Len returns the number of segments.
func (p Path[I]) Len() int {
	return len(p.segments)
}

// Segments returns all segments from root to target.
func (p Path[I]) Segments() []I {
	return p.segments
}

// ParentSegments returns all segments except the last, i.e. the ancestry of
// the target message.
func (p Path[I]) ParentSegments() []I {
	return p.segments[:len(p.segments)-1]
}

// Parent returns the direct parent of the target message, if the target is
// not itself the root.
func (p Path[I]) Parent() (I, bool) {
	if len(p.segments) < 2 {
		var zero I
		return zero, false
	}
	return p.segments[len(p.segments)-2], true
}

// =============================================================================
// MESSAGE ID
// =============================================================================

// idTimeShift is the number of low bits a MessageID reserves for uniqueness
// below the millisecond timestamp in its high bits.
const idTimeShift = 22

// MessageID is a snowflake-style message id: the top bits are the creation
// time in milliseconds since the Unix epoch, the low bits disambiguate ids
// created within the same millisecond. Ordering by id is therefore ordering
// by (timestamp, id).
type MessageID int64

// LastPossibleMessageID is the maximum value any real MessageID can take.
const LastPossibleMessageID MessageID = math.MaxInt64

// Time returns the creation time encoded in the id.
func (id MessageID) Time() time.Time {
	return time.UnixMilli(int64(id) >> idTimeShift)
}

// String formats the id in base 36, the protocol's compact textual form.
func (id MessageID) String() string {
	return strconv.FormatInt(int64(id), 36)
}

// ParseMessageID parses a base-36 id as produced by MessageID.String.
func ParseMessageID(s string) (MessageID, error) {
	n, err := strconv.ParseInt(s, 36, 64)
	if err != nil {
		return 0, err
	}
	return MessageID(n), nil
}

// IDSource mints MessageIDs for locally composed messages. Ids are
// strictly increasing even when minted within the same millisecond.
// Safe for concurrent use.
type IDSource struct {
	mu   sync.Mutex
	last MessageID
}

// Next returns a fresh id greater than any id previously returned.
func (g *IDSource) Next() MessageID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := MessageID(time.Now().UnixMilli() << idTimeShift)
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is the concrete transcript message as stored by the vault.
// It implements Msg[MessageID].
type Message struct {
	// Identity
	MsgID    MessageID
	ParentID *MessageID

	// Content
	From string
	Body string

	// Optional emoji override for the sender's nick
	Emoji string

	// Read state
	WasSeen bool
}

// NewMessage creates a top-level message.
func NewMessage(id MessageID, from, body string) *Message {
	return &Message{MsgID: id, From: from, Body: body}
}

// NewReply creates a reply to parent.
func NewReply(id, parent MessageID, from, body string) *Message {
	return &Message{MsgID: id, ParentID: &parent, From: from, Body: body}
}

// ID implements Msg.
func (m *Message) ID() MessageID { return m.MsgID }

// Parent implements Msg.
func (m *Message) Parent() (MessageID, bool) {
	if m.ParentID == nil {
		return 0, false
	}
	return *m.ParentID, true
}

// Seen implements Msg.
func (m *Message) Seen() bool { return m.WasSeen }

// NickEmoji implements Msg.
func (m *Message) NickEmoji() (string, bool) {
	return m.Emoji, m.Emoji != ""
}

// LastPossibleID implements Msg.
func (m *Message) LastPossibleID() MessageID { return LastPossibleMessageID }

// Time returns the creation time encoded in the message id.
func (m *Message) Time() time.Time { return m.MsgID.Time() }

// Nick returns the sender's display name.
func (m *Message) Nick() string { return m.From }

// Content returns the message body.
func (m *Message) Content() string { return m.Body }
