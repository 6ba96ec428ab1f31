// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// BLOCKS TESTS
// =============================================================================

func block(id string, height int) *Block[string] {
	lines := make([]string, height)
	for i := range lines {
		lines[i] = id
	}
	return NewBlock(id, lines, true)
}

// heightInvariant verifies that the window's line range always matches the
// sum of its block heights. An empty window has top == bottom+1.
func heightInvariant(t *testing.T, b *Blocks[string]) {
	t.Helper()
	sum := 0
	b.Each(func(_ Range, block *Block[string]) bool {
		sum += block.Height()
		return true
	})
	lines := b.Lines()
	require.Equal(t, sum, lines.Bottom-lines.Top+1)
}

func TestBlocksEmpty(t *testing.T) {
	b := NewBelow[string](7)

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, NewRange(8, 7), b.Lines())
	assert.True(t, b.Lines().Empty())
	heightInvariant(t, b)
}

func TestBlocksPush(t *testing.T) {
	b := NewBelow[string](0)

	b.PushBottom(block("a", 3))
	assert.Equal(t, NewRange(1, 3), b.Lines())
	heightInvariant(t, b)

	b.PushBottom(block("b", 2))
	assert.Equal(t, NewRange(1, 5), b.Lines())
	heightInvariant(t, b)

	b.PushTop(block("c", 4))
	assert.Equal(t, NewRange(-3, 5), b.Lines())
	heightInvariant(t, b)

	// Zero-height blocks occupy a position but no lines.
	b.PushBottom(block("d", 0))
	assert.Equal(t, NewRange(-3, 5), b.Lines())
	assert.Equal(t, 4, b.Len())
	heightInvariant(t, b)
}

func TestBlocksPushPastClosedEndPanics(t *testing.T) {
	b := NewBelow[string](0)
	b.EndTop()
	b.EndBottom()

	assert.PanicsWithValue(t, "push past closed top", func() {
		b.PushTop(block("a", 1))
	})
	assert.PanicsWithValue(t, "push past closed bottom", func() {
		b.PushBottom(block("a", 1))
	})
}

func TestBlocksAppend(t *testing.T) {
	b := NewBelow[string](0)
	b.PushBottom(block("a", 2))

	above := NewBelow[string](0)
	above.PushBottom(block("b", 3))
	above.EndTop()

	b.AppendTop(above)
	assert.Equal(t, NewRange(-2, 2), b.Lines())
	assert.True(t, b.ClosedTop(), "closed flag carries over on append")
	heightInvariant(t, b)

	below := NewBelow[string](0)
	below.PushBottom(block("c", 1))
	below.EndBottom()

	b.AppendBottom(below)
	assert.Equal(t, NewRange(-2, 3), b.Lines())
	assert.True(t, b.ClosedBottom())
	heightInvariant(t, b)

	assert.PanicsWithValue(t, "append past closed bottom", func() {
		b.AppendBottom(NewBelow[string](0))
	})
}

func TestBlocksShift(t *testing.T) {
	b := NewBelow[string](0)
	b.PushBottom(block("a", 2))
	b.PushBottom(block("b", 3))

	b.Shift(10)
	assert.Equal(t, NewRange(11, 15), b.Lines())
	heightInvariant(t, b)

	b.SetTop(0)
	assert.Equal(t, NewRange(0, 4), b.Lines())

	b.SetBottom(0)
	assert.Equal(t, NewRange(-4, 0), b.Lines())
	heightInvariant(t, b)
}

func TestBlocksEachComputesRanges(t *testing.T) {
	b := NewBelow[string](0)
	b.PushBottom(block("a", 2))
	b.PushBottom(block("b", 0))
	b.PushBottom(block("c", 3))

	var ids []string
	var ranges []Range
	b.Each(func(at Range, block *Block[string]) bool {
		ids = append(ids, block.ID())
		ranges = append(ranges, at)
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, []Range{NewRange(1, 2), NewRange(3, 2), NewRange(3, 5)}, ranges)

	ids = nil
	ranges = nil
	b.EachReverse(func(at Range, block *Block[string]) bool {
		ids = append(ids, block.ID())
		ranges = append(ranges, at)
		return true
	})
	assert.Equal(t, []string{"c", "b", "a"}, ids)
	assert.Equal(t, []Range{NewRange(3, 5), NewRange(3, 2), NewRange(1, 2)}, ranges)
}

func TestBlocksFindBlock(t *testing.T) {
	b := NewBelow[string](0)
	b.PushBottom(block("a", 2))
	b.PushBottom(block("b", 3))

	at, found, ok := b.FindBlock("b")
	require.True(t, ok)
	assert.Equal(t, "b", found.ID())
	assert.Equal(t, NewRange(3, 5), at)

	_, _, ok = b.FindBlock("nope")
	assert.False(t, ok)
}

func TestBlockFocus(t *testing.T) {
	bl := block("a", 5)
	assert.Equal(t, NewRange(12, 16), bl.Focus(NewRange(12, 16)))

	bl.SetFocus(NewRange(1, 2))
	assert.Equal(t, NewRange(13, 14), bl.Focus(NewRange(12, 16)))

	assert.Panics(t, func() { bl.SetFocus(NewRange(0, 5)) })
}

func TestOffsetWithCursor(t *testing.T) {
	layout := func() *Blocks[string] {
		b := NewBelow[string](0)
		b.PushBottom(block("a", 4))
		b.PushBottom(block("b", 3))
		b.PushBottom(block("c", 5))
		return b
	}

	// Proportion 0 puts the cursor block's top at the first line.
	b := layout()
	b.OffsetWithCursor("b", 10, 0)
	at, _, ok := b.FindBlock("b")
	require.True(t, ok)
	assert.Equal(t, 0, at.Top)

	// Proportion 1 puts the cursor block's bottom at the last line.
	b = layout()
	b.OffsetWithCursor("b", 10, 1)
	at, _, ok = b.FindBlock("b")
	require.True(t, ok)
	assert.Equal(t, 9, at.Bottom)

	// Proportion 0.5 centers the block's anchor line.
	b = layout()
	b.OffsetWithCursor("b", 11, 0.5)
	at, _, ok = b.FindBlock("b")
	require.True(t, ok)
	assert.Equal(t, 5, at.Top+1)
}

func TestOffsetWithCursorPanics(t *testing.T) {
	b := NewBelow[string](0)
	b.PushBottom(block("a", 2))

	assert.PanicsWithValue(t, "no cursor in layout", func() {
		b.OffsetWithCursor("b", 10, 0)
	})

	b.PushBottom(block("a", 2))
	assert.PanicsWithValue(t, "more than one cursor in layout", func() {
		b.OffsetWithCursor("a", 10, 0)
	})
}
