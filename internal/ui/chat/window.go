// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the scroll arithmetic shared by all block windows:
// overlap deltas, screen-filling expansion and scroll clamping. All of it
// is pure except for the expand calls, which fetch more blocks.
package chat

import "context"

// window is a block window that can grow at either end by fetching more
// data. Expanding an end that has no more data must close it instead.
type window[I comparable] interface {
	height() int
	scrolloff() int
	blockWindow() *Blocks[I]
	expandTop(ctx context.Context) error
	expandBottom(ctx context.Context) error
}

// visibleArea is the range of all lines on screen.
func visibleArea[I comparable](w window[I]) Range {
	return Range{Top: 0, Bottom: w.height() - 1}
}

// scrollAreaOf reduces the visible area by the scrolloff at the top and
// bottom. It never becomes empty, even on tiny screens.
func scrollAreaOf[I comparable](w window[I]) Range {
	area := visibleArea[I](w)
	top := area.Top + w.scrolloff()
	bottom := area.Bottom - w.scrolloff()
	if bottom < top {
		bottom = top
	}
	return Range{Top: top, Bottom: bottom}
}

// overlapDelta computes a delta, as close to zero as possible, that makes
// the object overlap the area when added to the object.
//
// An empty object describes a position between two lines; it overlaps the
// area when that position is inside the area or exactly on its border. A
// non-empty object overlaps the area when at least one of its lines is
// within the area.
func overlapDelta(area, object Range) int {
	if area.Empty() || object.Empty() {
		// With an empty range involved, touching a border counts as
		// overlapping.

		// Delta that moves the object just above the area's top border.
		// Positive means the object is too high.
		moveToTop := area.Top - (object.Bottom + 1)

		// Delta that moves the object just below the area's bottom
		// border. Negative means the object is too low.
		moveToBottom := (area.Bottom + 1) - object.Top

		return clamp(0, moveToTop, moveToBottom)
	}

	// Delta that moves the object's bottom line onto the area's top line.
	moveToTop := area.Top - object.Bottom

	// Delta that moves the object's top line onto the area's bottom line.
	moveToBottom := area.Bottom - object.Top

	return clamp(0, moveToTop, moveToBottom)
}

// overlaps reports whether the object already overlaps the area.
func overlaps(area, object Range) bool {
	return overlapDelta(area, object) == 0
}

// overlap moves the object so it overlaps the area.
func overlap(area, object Range) Range {
	return object.Shifted(overlapDelta(area, object))
}

// fullOverlapDelta computes a delta, as close to zero as possible, that
// makes the object fully overlap the area when added to the object. If the
// object is higher than the area, it is aligned to the area's top.
func fullOverlapDelta(area, object Range) int {
	if area.Empty() {
		panic("area range not well-formed")
	}

	// Delta that moves the object's top to the area's top. Positive means
	// the object is too high.
	moveToTop := area.Top - object.Top

	// Delta that moves the object's bottom to the area's bottom. Negative
	// means the object is too low.
	moveToBottom := area.Bottom - object.Bottom

	return max(min(0, moveToBottom), moveToTop)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// =============================================================================
// EXPANSION
// =============================================================================

func expandUpwardsUntil[I comparable](ctx context.Context, w window[I], top int) error {
	for {
		blocks := w.blockWindow()
		if blocks.ClosedTop() || blocks.Lines().Top <= top {
			return nil
		}
		if err := w.expandTop(ctx); err != nil {
			return err
		}
	}
}

func expandDownwardsUntil[I comparable](ctx context.Context, w window[I], bottom int) error {
	for {
		blocks := w.blockWindow()
		if blocks.ClosedBottom() || blocks.Lines().Bottom >= bottom {
			return nil
		}
		if err := w.expandBottom(ctx); err != nil {
			return err
		}
	}
}

// expandToFillVisibleArea grows the window until it covers the screen at
// its current scroll position.
func expandToFillVisibleArea[I comparable](ctx context.Context, w window[I]) error {
	area := visibleArea[I](w)
	if err := expandUpwardsUntil(ctx, w, area.Top); err != nil {
		return err
	}
	return expandDownwardsUntil(ctx, w, area.Bottom)
}

// expandToFillScreenAroundBlock grows the window so the screen stays full
// for any scroll position at which the given block is visible. The block
// must exist.
func expandToFillScreenAroundBlock[I comparable](ctx context.Context, w window[I], id I) error {
	screen := visibleArea[I](w)
	at, _, found := w.blockWindow().FindBlock(id)
	if !found {
		panic("no block with that id")
	}

	// The extreme scroll positions at which the block is still visible:
	// start the screen just outside the block, then nudge it back until
	// it overlaps.
	top := overlap(at, screen.WithBottom(at.Top-1)).Top
	bottom := overlap(at, screen.WithTop(at.Bottom+1)).Bottom

	if err := expandUpwardsUntil(ctx, w, top); err != nil {
		return err
	}
	return expandDownwardsUntil(ctx, w, bottom)
}

// =============================================================================
// SCROLLING
// =============================================================================

// scrollToSetBlockTop scrolls so the block's top line is at top. Reports
// whether the block was found.
func scrollToSetBlockTop[I comparable](w window[I], id I, top int) bool {
	at, _, found := w.blockWindow().FindBlock(id)
	if !found {
		return false
	}
	w.blockWindow().Shift(top - at.Top)
	return true
}

// scrollSoBlockIsCentered puts the middle of the block's focus range in
// the middle of the screen. The block must exist.
func scrollSoBlockIsCentered[I comparable](w window[I], id I) {
	area := visibleArea[I](w)
	at, block, found := w.blockWindow().FindBlock(id)
	if !found {
		panic("no block with that id")
	}
	focus := block.Focus(at)
	top := (area.Top + area.Bottom - (focus.Bottom - focus.Top)) / 2
	w.blockWindow().Shift(top - at.Top)
}

func scrollBlocksFullyAboveScreen[I comparable](w window[I]) {
	area := visibleArea[I](w)
	blocks := w.blockWindow()
	blocks.Shift(area.Top - 1 - blocks.Lines().Bottom)
}

func scrollBlocksFullyBelowScreen[I comparable](w window[I]) {
	area := visibleArea[I](w)
	blocks := w.blockWindow()
	blocks.Shift(area.Bottom + 1 - blocks.Lines().Top)
}

// scrollSoBlockFocusOverlapsScrollArea nudges the window until the block's
// focus touches the scroll area. Reports whether the block was found.
func scrollSoBlockFocusOverlapsScrollArea[I comparable](w window[I], id I) bool {
	at, block, found := w.blockWindow().FindBlock(id)
	if !found {
		return false
	}
	delta := overlapDelta(scrollAreaOf[I](w), block.Focus(at))
	w.blockWindow().Shift(delta)
	return true
}

// scrollSoBlockFocusFullyOverlapsScrollArea scrolls until the block's
// focus lies entirely inside the scroll area (or is aligned to its top if
// taller). Reports whether the block was found.
func scrollSoBlockFocusFullyOverlapsScrollArea[I comparable](w window[I], id I) bool {
	at, block, found := w.blockWindow().FindBlock(id)
	if !found {
		return false
	}
	delta := fullOverlapDelta(scrollAreaOf[I](w), block.Focus(at))
	w.blockWindow().Shift(delta)
	return true
}

// clampScrollBiasedDownwards keeps the window from over-scrolling: the
// blocks must cover the screen where they can, and when they are shorter
// than the screen they settle at the bottom.
func clampScrollBiasedDownwards[I comparable](w window[I]) {
	area := visibleArea[I](w)
	blocks := w.blockWindow().Lines()

	// Delta that moves the blocks' top to the top of the screen. Negative
	// means the blocks are too low.
	moveToTop := area.Top - blocks.Top

	// Delta that moves the blocks' bottom to the bottom of the screen.
	// Positive means the blocks are too high.
	moveToBottom := area.Bottom - blocks.Bottom

	delta := max(min(0, moveToTop), moveToBottom)
	w.blockWindow().Shift(delta)
}

// findCursorStartingAt returns the id of the block the cursor should rest
// on: the given block if its focus overlaps the scroll area, otherwise the
// first cursor-capable block encountered searching from the direction the
// given block disappeared towards.
func findCursorStartingAt[I comparable](w window[I], id I) (I, bool) {
	var zero I
	area := scrollAreaOf[I](w)
	at, block, found := w.blockWindow().FindBlock(id)
	if !found {
		return zero, false
	}

	delta := overlapDelta(area, block.Focus(at))
	switch {
	case delta == 0:
		return block.ID(), true

	case delta > 0:
		// The blocks must be scrolled downwards for the given block to
		// become visible, so the cursor is above the visible area.
		var result I
		found := false
		w.blockWindow().Each(func(at Range, b *Block[I]) bool {
			if b.CanBeCursor() && overlaps(area, b.Focus(at)) {
				result = b.ID()
				found = true
				return false
			}
			return true
		})
		return result, found

	default:
		// The cursor is below the visible area.
		var result I
		found := false
		w.blockWindow().EachReverse(func(at Range, b *Block[I]) bool {
			if b.CanBeCursor() && overlaps(area, b.Focus(at)) {
				result = b.ID()
				found = true
				return false
			}
			return true
		})
		return result, found
	}
}
