// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// SCROLL ARITHMETIC TESTS
// =============================================================================

// fakeWindow implements window over prepared stacks of blocks. Expanding
// past the last prepared block closes that end.
type fakeWindow struct {
	h, off int
	blocks *Blocks[string]
	above  []*Block[string]
	below  []*Block[string]
}

func (w *fakeWindow) height() int                  { return w.h }
func (w *fakeWindow) scrolloff() int               { return w.off }
func (w *fakeWindow) blockWindow() *Blocks[string] { return w.blocks }

func (w *fakeWindow) expandTop(context.Context) error {
	if len(w.above) == 0 {
		w.blocks.EndTop()
		return nil
	}
	w.blocks.PushTop(w.above[len(w.above)-1])
	w.above = w.above[:len(w.above)-1]
	return nil
}

func (w *fakeWindow) expandBottom(context.Context) error {
	if len(w.below) == 0 {
		w.blocks.EndBottom()
		return nil
	}
	w.blocks.PushBottom(w.below[0])
	w.below = w.below[1:]
	return nil
}

func TestOverlapDelta(t *testing.T) {
	area := NewRange(2, 7)

	// Non-empty objects: at least one shared line counts.
	assert.Equal(t, 0, overlapDelta(area, NewRange(2, 4)))
	assert.Equal(t, 0, overlapDelta(area, NewRange(7, 9)))
	assert.Equal(t, 0, overlapDelta(area, NewRange(0, 10)))
	assert.Equal(t, 2, overlapDelta(area, NewRange(-2, 0)))
	assert.Equal(t, -3, overlapDelta(area, NewRange(10, 12)))

	// Empty objects: touching the border counts.
	between := func(line int) Range { return NewRange(line, line-1) }
	assert.Equal(t, 0, overlapDelta(area, between(2)))
	assert.Equal(t, 0, overlapDelta(area, between(8)))
	assert.Equal(t, 2, overlapDelta(area, between(0)))
	assert.Equal(t, -1, overlapDelta(area, between(9)))

	// Empty area: a non-empty object must touch its position.
	assert.Equal(t, 0, overlapDelta(between(5), NewRange(4, 5)))
	assert.Equal(t, -1, overlapDelta(between(5), NewRange(6, 7)))
	assert.Equal(t, 1, overlapDelta(between(5), NewRange(2, 3)))
}

func TestFullOverlapDelta(t *testing.T) {
	area := NewRange(2, 7)

	assert.Equal(t, 0, fullOverlapDelta(area, NewRange(3, 5)))
	assert.Equal(t, 2, fullOverlapDelta(area, NewRange(0, 2)))
	assert.Equal(t, -2, fullOverlapDelta(area, NewRange(6, 9)))

	// Taller than the area: aligned to the area's top.
	assert.Equal(t, 1, fullOverlapDelta(area, NewRange(1, 9)))

	assert.Panics(t, func() { fullOverlapDelta(NewRange(2, 1), NewRange(0, 0)) })
}

func TestScrollAreaNeverEmpty(t *testing.T) {
	w := &fakeWindow{h: 3, off: 5, blocks: NewBelow[string](0)}
	area := scrollAreaOf[string](w)
	assert.False(t, area.Empty())
	assert.Equal(t, NewRange(5, 5), area)

	w = &fakeWindow{h: 10, off: 2, blocks: NewBelow[string](0)}
	assert.Equal(t, NewRange(2, 7), scrollAreaOf[string](w))
}

func TestExpandToFillVisibleArea(t *testing.T) {
	ctx := context.Background()
	blocks := NewBelow[string](4)
	blocks.PushBottom(block("c", 2))

	w := &fakeWindow{
		h:      10,
		blocks: blocks,
		above:  []*Block[string]{block("a", 3), block("b", 4)},
		below:  []*Block[string]{block("d", 5)},
	}

	require.NoError(t, expandToFillVisibleArea[string](ctx, w))
	assert.Equal(t, NewRange(-2, 11), w.blocks.Lines())
	assert.Equal(t, 4, w.blocks.Len())
	assert.False(t, w.blocks.ClosedTop())
	assert.False(t, w.blocks.ClosedBottom())
}

func TestExpandClosesExhaustedEnds(t *testing.T) {
	ctx := context.Background()
	blocks := NewBelow[string](4)
	blocks.PushBottom(block("a", 2))

	w := &fakeWindow{h: 10, blocks: blocks}
	require.NoError(t, expandToFillVisibleArea[string](ctx, w))
	assert.True(t, w.blocks.ClosedTop())
	assert.True(t, w.blocks.ClosedBottom())
}

func TestExpandToFillScreenAroundBlock(t *testing.T) {
	ctx := context.Background()
	blocks := NewBelow[string](0)
	blocks.PushBottom(block("b", 2))

	var above, below []*Block[string]
	for i := 0; i < 10; i++ {
		above = append(above, block("a", 1))
		below = append(below, block("c", 1))
	}
	w := &fakeWindow{h: 5, blocks: blocks, above: above, below: below}

	require.NoError(t, expandToFillScreenAroundBlock[string](ctx, w, "b"))

	// Enough lines exist in each direction to keep a 5-line screen full
	// at any scroll position where "b" is still visible.
	at, _, ok := w.blocks.FindBlock("b")
	require.True(t, ok)
	assert.LessOrEqual(t, w.blocks.Lines().Top, at.Bottom-(w.h-1))
	assert.GreaterOrEqual(t, w.blocks.Lines().Bottom, at.Top+(w.h-1))

	assert.PanicsWithValue(t, "no block with that id", func() {
		expandToFillScreenAroundBlock[string](ctx, w, "nope")
	})
}

func TestClampScrollBiasedDownwards(t *testing.T) {
	// Blocks taller than the screen: no gaps allowed at either end.
	blocks := NewBelow[string](0)
	blocks.PushBottom(block("a", 20))
	w := &fakeWindow{h: 10, blocks: blocks}

	blocks.SetTop(3)
	clampScrollBiasedDownwards[string](w)
	assert.Equal(t, 0, w.blocks.Lines().Top)

	blocks.SetBottom(5)
	clampScrollBiasedDownwards[string](w)
	assert.Equal(t, 9, w.blocks.Lines().Bottom)

	// Blocks shorter than the screen settle at the bottom.
	blocks = NewBelow[string](0)
	blocks.PushBottom(block("a", 4))
	w = &fakeWindow{h: 10, blocks: blocks}
	clampScrollBiasedDownwards[string](w)
	assert.Equal(t, 9, w.blocks.Lines().Bottom)
}

func TestScrollBlocksFullyOffScreen(t *testing.T) {
	blocks := NewBelow[string](0)
	blocks.PushBottom(block("a", 5))
	w := &fakeWindow{h: 10, blocks: blocks}

	scrollBlocksFullyAboveScreen[string](w)
	assert.Equal(t, -1, w.blocks.Lines().Bottom)

	scrollBlocksFullyBelowScreen[string](w)
	assert.Equal(t, 10, w.blocks.Lines().Top)
}

func TestScrollSoBlockFocusOverlapsScrollArea(t *testing.T) {
	blocks := NewBelow[string](20)
	blocks.PushBottom(block("a", 3))
	w := &fakeWindow{h: 10, off: 2, blocks: blocks}

	// Block at [21, 23], scroll area [2, 7]: nudged up until its top
	// touches line 7.
	require.True(t, scrollSoBlockFocusOverlapsScrollArea[string](w, "a"))
	at, _, ok := w.blocks.FindBlock("a")
	require.True(t, ok)
	assert.Equal(t, 7, at.Top)

	assert.False(t, scrollSoBlockFocusOverlapsScrollArea[string](w, "nope"))
}

func TestScrollSoBlockFocusFullyOverlapsScrollArea(t *testing.T) {
	blocks := NewBelow[string](20)
	blocks.PushBottom(block("a", 3))
	w := &fakeWindow{h: 10, off: 2, blocks: blocks}

	require.True(t, scrollSoBlockFocusFullyOverlapsScrollArea[string](w, "a"))
	at, _, ok := w.blocks.FindBlock("a")
	require.True(t, ok)
	assert.Equal(t, NewRange(5, 7), at)
}

func TestFindCursorStartingAt(t *testing.T) {
	newLayout := func() *Blocks[string] {
		b := NewBelow[string](-1)
		b.PushBottom(block("a", 4))
		b.PushBottom(block("b", 4))
		b.PushBottom(block("c", 4))
		return b
	}

	// Block still in the scroll area: it keeps the cursor.
	w := &fakeWindow{h: 12, off: 2, blocks: newLayout()}
	id, ok := findCursorStartingAt[string](w, "b")
	require.True(t, ok)
	assert.Equal(t, "b", id)

	// Scrolled up so "a" left above: the cursor falls to the topmost
	// block overlapping the scroll area.
	w = &fakeWindow{h: 12, off: 2, blocks: newLayout()}
	w.blocks.Shift(-6)
	id, ok = findCursorStartingAt[string](w, "a")
	require.True(t, ok)
	assert.Equal(t, "c", id)

	// Scrolled down so "c" left below: the cursor climbs to the
	// bottommost block overlapping the scroll area.
	w = &fakeWindow{h: 12, off: 2, blocks: newLayout()}
	w.blocks.Shift(6)
	id, ok = findCursorStartingAt[string](w, "c")
	require.True(t, ok)
	assert.Equal(t, "a", id)
}
