// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the line-addressed block window. Heights and line
// numbers are integer terminal lines; ranges are inclusive on both ends.
package chat

import (
	"fmt"
	"math"
)

// =============================================================================
// RANGE
// =============================================================================

// Range is an inclusive range of absolute lines. A range with
// Bottom == Top-1 is empty and describes a position between two lines.
type Range struct {
	Top    int
	Bottom int
}

// NewRange creates an inclusive range.
func NewRange(top, bottom int) Range {
	return Range{Top: top, Bottom: bottom}
}

// Height returns the number of lines in the range.
func (r Range) Height() int {
	return r.Bottom - r.Top + 1
}

// Empty reports whether the range contains no lines.
func (r Range) Empty() bool {
	return r.Bottom < r.Top
}

// Shifted returns the range translated by delta lines.
func (r Range) Shifted(delta int) Range {
	return Range{Top: r.Top + delta, Bottom: r.Bottom + delta}
}

// WithTop returns the range shifted so that its top is at top.
func (r Range) WithTop(top int) Range {
	return r.Shifted(top - r.Top)
}

// WithBottom returns the range shifted so that its bottom is at bottom.
func (r Range) WithBottom(bottom int) Range {
	return r.Shifted(bottom - r.Bottom)
}

// =============================================================================
// BLOCK
// =============================================================================

// Block is one pre-rendered unit in a layout. Its height is fixed at
// construction; zero-height blocks are valid and act as named positions
// between lines.
type Block[I comparable] struct {
	id          I
	lines       []string
	focus       Range
	canBeCursor bool
}

// NewBlock creates a block from its pre-rendered lines. The focus range
// initially covers the whole block.
func NewBlock[I comparable](id I, lines []string, canBeCursor bool) *Block[I] {
	return &Block[I]{
		id:          id,
		lines:       lines,
		focus:       Range{Top: 0, Bottom: len(lines) - 1},
		canBeCursor: canBeCursor,
	}
}

// ID returns the block's id.
func (b *Block[I]) ID() I {
	return b.id
}

// Lines returns the block's pre-rendered lines.
func (b *Block[I]) Lines() []string {
	return b.lines
}

// Height returns the block's height in lines.
func (b *Block[I]) Height() int {
	return len(b.lines)
}

// CanBeCursor reports whether the cursor may rest on this block.
func (b *Block[I]) CanBeCursor() bool {
	return b.canBeCursor
}

// SetFocus restricts the block's focus to a sub-range of its lines,
// relative to the block's top line.
func (b *Block[I]) SetFocus(focus Range) {
	if focus.Top < 0 || focus.Top > focus.Bottom+1 || focus.Bottom > b.Height()-1 {
		panic(fmt.Sprintf("focus %v out of bounds for block of height %d", focus, b.Height()))
	}
	b.focus = focus
}

// Focus translates the block's relative focus range to absolute lines,
// given the block's absolute position.
func (b *Block[I]) Focus(at Range) Range {
	return Range{Top: at.Top + b.focus.Top, Bottom: at.Top + b.focus.Bottom}
}

// =============================================================================
// BLOCKS
// =============================================================================

// Blocks is a double-ended window of blocks at absolute line positions.
//
// The invariant bottom - top + 1 == sum of all heights always holds; for an
// empty window it simplifies to top == bottom + 1. The closed flags mean
// "no more data exists in that direction at the backend"; growing past a
// closed end is a caller bug and panics.
type Blocks[I comparable] struct {
	blocks       []*Block[I]
	top          int
	bottom       int
	closedTop    bool
	closedBottom bool
}

// NewBelow creates an empty window positioned such that the next appended
// block will start at line+1 and the next prepended block will end at line.
func NewBelow[I comparable](line int) *Blocks[I] {
	return &Blocks[I]{top: line + 1, bottom: line}
}

// Len returns the number of blocks in the window.
func (b *Blocks[I]) Len() int {
	return len(b.blocks)
}

// Lines returns the absolute line range the window occupies.
func (b *Blocks[I]) Lines() Range {
	return Range{Top: b.top, Bottom: b.bottom}
}

// ClosedTop reports whether no more data exists above the window.
func (b *Blocks[I]) ClosedTop() bool {
	return b.closedTop
}

// ClosedBottom reports whether no more data exists below the window.
func (b *Blocks[I]) ClosedBottom() bool {
	return b.closedBottom
}

// EndTop marks the top end closed.
func (b *Blocks[I]) EndTop() {
	b.closedTop = true
}

// EndBottom marks the bottom end closed.
func (b *Blocks[I]) EndBottom() {
	b.closedBottom = true
}

// PushTop prepends a block, extending the window upwards by its height.
func (b *Blocks[I]) PushTop(block *Block[I]) {
	if b.closedTop {
		panic("push past closed top")
	}
	b.top -= block.Height()
	b.blocks = append([]*Block[I]{block}, b.blocks...)
}

// PushBottom appends a block, extending the window downwards by its height.
func (b *Blocks[I]) PushBottom(block *Block[I]) {
	if b.closedBottom {
		panic("push past closed bottom")
	}
	b.bottom += block.Height()
	b.blocks = append(b.blocks, block)
}

// AppendTop splices another window above this one. The shared boundary
// must be open on both sides; the other window's top closed flag carries
// over.
func (b *Blocks[I]) AppendTop(other *Blocks[I]) {
	if b.closedTop {
		panic("append past closed top")
	}
	if other.closedBottom {
		panic("append across closed bottom of other")
	}
	for i := len(other.blocks) - 1; i >= 0; i-- {
		b.PushTop(other.blocks[i])
	}
	b.closedTop = other.closedTop
}

// AppendBottom splices another window below this one.
func (b *Blocks[I]) AppendBottom(other *Blocks[I]) {
	if b.closedBottom {
		panic("append past closed bottom")
	}
	if other.closedTop {
		panic("append across closed top of other")
	}
	for _, block := range other.blocks {
		b.PushBottom(block)
	}
	b.closedBottom = other.closedBottom
}

// Shift translates the whole window by delta lines without touching block
// contents.
func (b *Blocks[I]) Shift(delta int) {
	b.top += delta
	b.bottom += delta
}

// SetTop shifts the window so its top line is at top.
func (b *Blocks[I]) SetTop(top int) {
	b.Shift(top - b.top)
}

// SetBottom shifts the window so its bottom line is at bottom.
func (b *Blocks[I]) SetBottom(bottom int) {
	b.Shift(bottom - b.bottom)
}

// Each visits the blocks top to bottom with their absolute line ranges.
// Returning false stops the iteration.
func (b *Blocks[I]) Each(fn func(at Range, block *Block[I]) bool) {
	top := b.top
	for _, block := range b.blocks {
		at := Range{Top: top, Bottom: top + block.Height() - 1}
		top = at.Bottom + 1
		if !fn(at, block) {
			return
		}
	}
}

// EachReverse visits the blocks bottom to top with their absolute line
// ranges. Returning false stops the iteration.
func (b *Blocks[I]) EachReverse(fn func(at Range, block *Block[I]) bool) {
	bottom := b.bottom
	for i := len(b.blocks) - 1; i >= 0; i-- {
		block := b.blocks[i]
		at := Range{Top: bottom - block.Height() + 1, Bottom: bottom}
		bottom = at.Top - 1
		if !fn(at, block) {
			return
		}
	}
}

// FindBlock locates a block by id and returns its absolute line range.
func (b *Blocks[I]) FindBlock(id I) (Range, *Block[I], bool) {
	var (
		foundAt    Range
		foundBlock *Block[I]
	)
	b.Each(func(at Range, block *Block[I]) bool {
		if block.id == id {
			foundAt = at
			foundBlock = block
			return false
		}
		return true
	})
	if foundBlock == nil {
		return Range{}, nil, false
	}
	return foundAt, foundBlock, true
}

// =============================================================================
// CURSOR OFFSETS
// =============================================================================

// proportionToLine maps a proportion in [0, 1] to an absolute line of a
// viewport with the given height.
func proportionToLine(height int, proportion float64) int {
	return int(math.Round(float64(height-1) * proportion))
}

// OffsetWithCursor positions the whole window so that the block with the
// given id sits at the proportion of a viewport of the given height:
// proportion 0 puts the block's top at the first line, proportion 1 puts
// its bottom at the last line. Exactly one block must carry the id; zero
// or multiple matches is a caller bug and panics.
func (b *Blocks[I]) OffsetWithCursor(id I, height int, proportion float64) {
	var (
		found  int
		before int
		cursor *Block[I]
	)
	lead := 0
	b.Each(func(_ Range, block *Block[I]) bool {
		if block.id == id {
			found++
			before = lead
			cursor = block
		}
		lead += block.Height()
		return true
	})
	switch {
	case found == 0:
		panic("no cursor in layout")
	case found > 1:
		panic("more than one cursor in layout")
	}

	// The anchor line within the block interpolates with the proportion,
	// so proportion 0 aligns the top and proportion 1 aligns the bottom.
	anchor := 0
	if h := cursor.Height(); h > 1 {
		anchor = int(math.Round(float64(h-1) * proportion))
	}

	top := proportionToLine(height, proportion) - anchor - before
	b.SetTop(top)
}
