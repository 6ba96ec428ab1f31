// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the tree renderer: one render pass fetches trees
// from the store, lays them out as blocks, expands the window until the
// screen is covered, and scrolls to satisfy the cursor constraints.
package chat

import (
	"cmp"
	"context"
	"time"

	"github.com/jeranaias/treeline-tui/internal/store"
	"github.com/jeranaias/treeline-tui/internal/ui/styles"
)

// Renderable is a message the tree view knows how to draw.
type Renderable[I cmp.Ordered] interface {
	store.Msg[I]
	Time() time.Time
	Nick() string
	Content() string
}

// =============================================================================
// BLOCK IDS
// =============================================================================

type blockKind int

const (
	// bottomBlock is a zero-height block at the very bottom of the chat,
	// used for positioning a bottom cursor.
	bottomBlock blockKind = iota
	// msgBlock is a normal message block.
	msgBlock
	// afterBlock is a zero-height block after all children of a message,
	// used for positioning editor and pseudo cursors.
	afterBlock
)

// BlockID addresses a block in the tree layout. Zero-height bottom and
// after blocks give the editor, pending sends and the chat bottom stable
// positions for robust scrolling.
type BlockID[I comparable] struct {
	kind blockKind
	id   I
}

// BottomBlockID addresses the block at the very bottom of the chat.
func BottomBlockID[I comparable]() BlockID[I] {
	return BlockID[I]{kind: bottomBlock}
}

// MsgBlockID addresses a message's block.
func MsgBlockID[I comparable](id I) BlockID[I] {
	return BlockID[I]{kind: msgBlock, id: id}
}

// AfterBlockID addresses the block after all children of a message.
func AfterBlockID[I comparable](id I) BlockID[I] {
	return BlockID[I]{kind: afterBlock, id: id}
}

// MsgID returns the message id if this id addresses a message block.
func (b BlockID[I]) MsgID() (I, bool) {
	var zero I
	if b.kind != msgBlock {
		return zero, false
	}
	return b.id, true
}

// anyID returns the message id this block id refers to, for both message
// and after blocks.
func (b BlockID[I]) anyID() (I, bool) {
	var zero I
	if b.kind == bottomBlock {
		return zero, false
	}
	return b.id, true
}

// blockIDFromCursor maps a cursor to the block it anchors to.
func blockIDFromCursor[I comparable](c Cursor[I]) BlockID[I] {
	switch c.Kind {
	case CursorMsg:
		return MsgBlockID(c.ID)
	case CursorEditor, CursorPseudo:
		if c.Parent != nil {
			return AfterBlockID(*c.Parent)
		}
		return BottomBlockID[I]()
	default:
		return BottomBlockID[I]()
	}
}

// =============================================================================
// TREE RENDERER
// =============================================================================

// RenderContext is the per-pass input of the renderer.
type RenderContext[I comparable] struct {
	Width      int
	Height     int
	Nick       string
	Focused    bool
	Scrolloff  int
	Proportion float64

	// Scroll continuity with the previous pass.
	LastCursor    Cursor[I]
	LastCursorTop int

	// Editor and pending-send state, pre-rendered by the view.
	EditorLines    []string
	EditorRow      int
	PendingContent string
}

// RenderedBlock is one drawable unit of the final output.
type RenderedBlock struct {
	At    Range
	Lines []string
}

// TreeRenderer builds and positions the block window for one render pass.
// It must not be reused across passes; PrepareBlocksForDrawing must be
// called before anything else.
type TreeRenderer[I cmp.Ordered, M Renderable[I]] struct {
	rctx    RenderContext[I]
	store   store.MsgStore[I, M]
	folded  map[I]bool
	cursor  *Cursor[I]
	widgets widgetContext

	// Root ids of the topmost and bottommost trees in the window. A nil
	// bottom root means the bottom of the chat has been rendered.
	topRootID    *I
	bottomRootID *I

	blocks *Blocks[BlockID[I]]
}

// NewTreeRenderer creates a renderer for one pass over the given store.
// The cursor and folded set are the view's long-lived state and may be
// adjusted by the pass.
func NewTreeRenderer[I cmp.Ordered, M Renderable[I]](
	rctx RenderContext[I],
	s store.MsgStore[I, M],
	theme *styles.Theme,
	folded map[I]bool,
	cursor *Cursor[I],
) *TreeRenderer[I, M] {
	return &TreeRenderer[I, M]{
		rctx:    rctx,
		store:   s,
		folded:  folded,
		cursor:  cursor,
		widgets: widgetContext{theme: theme, width: rctx.Width, nick: rctx.Nick},
		blocks:  NewBelow[BlockID[I]](0),
	}
}

// window interface

func (r *TreeRenderer[I, M]) height() int                      { return r.rctx.Height }
func (r *TreeRenderer[I, M]) scrolloff() int                   { return r.rctx.Scrolloff }
func (r *TreeRenderer[I, M]) blockWindow() *Blocks[BlockID[I]] { return r.blocks }

// =============================================================================
// BLOCK CONSTRUCTION
// =============================================================================

func (r *TreeRenderer[I, M]) afterID(parent *I) BlockID[I] {
	if parent != nil {
		return AfterBlockID(*parent)
	}
	return BottomBlockID[I]()
}

func (r *TreeRenderer[I, M]) zeroHeightBlock(parent *I) *Block[BlockID[I]] {
	return NewBlock(r.afterID(parent), nil, false)
}

func (r *TreeRenderer[I, M]) editorBlock(indent int, parent *I) *Block[BlockID[I]] {
	lines := r.widgets.editorLines(indent, r.rctx.EditorLines)
	block := NewBlock(r.afterID(parent), lines, false)

	// Keep the editor's cursor row in view rather than the whole editor.
	row := clamp(r.rctx.EditorRow, 0, len(lines)-1)
	block.SetFocus(Range{Top: row, Bottom: row})
	return block
}

func (r *TreeRenderer[I, M]) pseudoBlock(indent int, parent *I) *Block[BlockID[I]] {
	lines := r.widgets.pseudoLines(indent, r.rctx.PendingContent)
	return NewBlock(r.afterID(parent), lines, false)
}

func (r *TreeRenderer[I, M]) messageBlock(indent int, msg M, foldedInfo int) *Block[BlockID[I]] {
	highlighted := r.rctx.Focused && r.cursor.Kind == CursorMsg && r.cursor.ID == msg.ID()

	nick := msg.Nick()
	if emoji, ok := msg.NickEmoji(); ok {
		nick = emoji
	}
	lines := r.widgets.msgLines(highlighted, indent, msg.Seen(), msg.Time(), nick, msg.Content(), foldedInfo)
	return NewBlock(MsgBlockID(msg.ID()), lines, true)
}

func (r *TreeRenderer[I, M]) messagePlaceholderBlock(indent int, id I, foldedInfo int) *Block[BlockID[I]] {
	highlighted := r.rctx.Focused && r.cursor.Kind == CursorMsg && r.cursor.ID == id
	lines := r.widgets.placeholderLines(highlighted, indent, foldedInfo)
	return NewBlock(MsgBlockID(id), lines, true)
}

// =============================================================================
// LAYOUT
// =============================================================================

// layoutBottom renders the block at the very bottom of the chat: the
// editor or pending send for a new top-level thread, or a zero-height
// anchor.
func (r *TreeRenderer[I, M]) layoutBottom() *Blocks[BlockID[I]] {
	blocks := NewBelow[BlockID[I]](0)
	switch {
	case r.cursor.Kind == CursorEditor && r.cursor.Parent == nil:
		blocks.PushBottom(r.editorBlock(0, nil))
	case r.cursor.Kind == CursorPseudo && r.cursor.Parent == nil:
		blocks.PushBottom(r.pseudoBlock(0, nil))
	default:
		blocks.PushBottom(r.zeroHeightBlock(nil))
	}
	return blocks
}

func (r *TreeRenderer[I, M]) layoutSubtree(
	tree *store.Tree[I, M],
	indent int,
	id I,
	blocks *Blocks[BlockID[I]],
) {
	folded := r.folded[id]
	foldedInfo := 0
	if folded {
		foldedInfo = tree.SubtreeSize(id)
	}

	// The message itself, or a placeholder if it never arrived.
	if msg, ok := tree.Msg(id); ok {
		blocks.PushBottom(r.messageBlock(indent, msg, foldedInfo))
	} else {
		blocks.PushBottom(r.messagePlaceholderBlock(indent, id, foldedInfo))
	}

	if !folded {
		for _, child := range tree.Children(id) {
			r.layoutSubtree(tree, indent+1, child, blocks)
		}
	}

	// After the message and its children: the editor or pending send
	// composing a reply to it, or a zero-height anchor.
	switch {
	case r.cursor.Kind == CursorEditor && r.cursor.Parent != nil && *r.cursor.Parent == id:
		blocks.PushBottom(r.editorBlock(indent+1, opt(id)))
	case r.cursor.Kind == CursorPseudo && r.cursor.Parent != nil && *r.cursor.Parent == id:
		blocks.PushBottom(r.pseudoBlock(indent+1, opt(id)))
	default:
		blocks.PushBottom(r.zeroHeightBlock(opt(id)))
	}
}

func (r *TreeRenderer[I, M]) layoutTree(tree *store.Tree[I, M]) *Blocks[BlockID[I]] {
	blocks := NewBelow[BlockID[I]](0)
	r.layoutSubtree(tree, 0, tree.Root(), blocks)
	return blocks
}

// rootID resolves the root of the tree a block id lives in, or nil for
// the bottom block.
func (r *TreeRenderer[I, M]) rootID(ctx context.Context, id BlockID[I]) (*I, error) {
	msgID, ok := id.anyID()
	if !ok {
		return nil, nil
	}
	path, err := r.store.Path(ctx, msgID)
	if err != nil {
		return nil, err
	}
	return opt(path.First()), nil
}

// prepareInitialTree renders the tree containing the cursor. It always
// produces a block carrying the cursor id, unfolding ancestors as needed.
func (r *TreeRenderer[I, M]) prepareInitialTree(
	ctx context.Context,
	cursorID BlockID[I],
	rootID *I,
) error {
	r.topRootID = rootID
	r.bottomRootID = rootID

	var blocks *Blocks[BlockID[I]]
	if rootID != nil {
		tree, err := r.store.Tree(ctx, *rootID)
		if err != nil {
			return err
		}

		// The cursor block is only rendered if none of its ancestors are
		// folded.
		if id, ok := cursorID.anyID(); ok {
			for {
				parent, ok := tree.Parent(id)
				if !ok {
					break
				}
				delete(r.folded, parent)
				id = parent
			}
		}

		blocks = r.layoutTree(tree)
	} else {
		blocks = r.layoutBottom()
	}
	r.blocks.AppendBottom(blocks)
	return nil
}

// =============================================================================
// EXPANSION
// =============================================================================

func (r *TreeRenderer[I, M]) expandTop(ctx context.Context) error {
	var (
		prevRoot I
		ok       bool
		err      error
	)
	if r.topRootID != nil {
		prevRoot, ok, err = r.store.PrevRootID(ctx, *r.topRootID)
	} else {
		prevRoot, ok, err = r.store.LastRootID(ctx)
	}
	if err != nil {
		return err
	}
	if !ok {
		r.blocks.EndTop()
		return nil
	}

	tree, err := r.store.Tree(ctx, prevRoot)
	if err != nil {
		return err
	}
	r.blocks.AppendTop(r.layoutTree(tree))
	r.topRootID = opt(prevRoot)
	return nil
}

func (r *TreeRenderer[I, M]) expandBottom(ctx context.Context) error {
	if r.bottomRootID == nil {
		// The bottom of the chat is already rendered.
		r.blocks.EndBottom()
		return nil
	}

	nextRoot, ok, err := r.store.NextRootID(ctx, *r.bottomRootID)
	if err != nil {
		return err
	}
	if ok {
		tree, err := r.store.Tree(ctx, nextRoot)
		if err != nil {
			return err
		}
		r.blocks.AppendBottom(r.layoutTree(tree))
		r.bottomRootID = opt(nextRoot)
		return nil
	}

	r.blocks.AppendBottom(r.layoutBottom())
	r.blocks.EndBottom()
	r.bottomRootID = nil
	return nil
}

// =============================================================================
// RENDER PASSES
// =============================================================================

// makeCursorVisible scrolls so the cursor satisfies the scrolloff
// constraint. A cursor that just moved must come fully into the scroll
// area; an unmoved cursor only needs to touch it.
func (r *TreeRenderer[I, M]) makeCursorVisible() {
	cursorID := blockIDFromCursor(*r.cursor)
	if r.cursor.Equal(r.rctx.LastCursor) {
		scrollSoBlockFocusOverlapsScrollArea(r, cursorID)
	} else {
		scrollSoBlockFocusFullyOverlapsScrollArea(r, cursorID)
	}
}

func rootIDIsAboveRootID[I cmp.Ordered](first, second *I) bool {
	switch {
	case first != nil && second == nil:
		return true
	case first != nil && second != nil:
		return *first < *second
	default:
		return false
	}
}

// PrepareBlocksForDrawing builds the whole window for this pass: the
// cursor's tree, enough neighboring trees to fill the screen wherever the
// cursor is visible, and a scroll position continuous with the last pass.
func (r *TreeRenderer[I, M]) PrepareBlocksForDrawing(ctx context.Context) error {
	cursorID := blockIDFromCursor(*r.cursor)
	cursorRootID, err := r.rootID(ctx, cursorID)
	if err != nil {
		return err
	}

	if err := r.prepareInitialTree(ctx, cursorID, cursorRootID); err != nil {
		return err
	}
	if err := expandToFillScreenAroundBlock(ctx, r, cursorID); err != nil {
		return err
	}

	// Scroll based on the last cursor position.
	lastCursorID := blockIDFromCursor(r.rctx.LastCursor)
	if !scrollToSetBlockTop(r, lastCursorID, r.rctx.LastCursorTop) {
		// The last cursor is not within scrolling distance of the current
		// cursor, so estimate whether it was above or below.
		lastCursorRootID, err := r.rootID(ctx, lastCursorID)
		if err != nil {
			return err
		}
		if rootIDIsAboveRootID(lastCursorRootID, cursorRootID) {
			scrollBlocksFullyBelowScreen[BlockID[I]](r)
		} else {
			scrollBlocksFullyAboveScreen[BlockID[I]](r)
		}
	}

	r.makeCursorVisible()
	clampScrollBiasedDownwards[BlockID[I]](r)
	return nil
}

// moveCursorSoItIsVisible moves a bottom or message cursor onto a visible
// block after scrolling pushed it off screen.
func (r *TreeRenderer[I, M]) moveCursorSoItIsVisible() {
	cursorID := blockIDFromCursor(*r.cursor)
	if cursorID.kind == afterBlock {
		return
	}
	found, ok := findCursorStartingAt(r, cursorID)
	if !ok {
		return
	}
	switch found.kind {
	case bottomBlock:
		*r.cursor = BottomCursor[I]()
	case msgBlock:
		*r.cursor = MsgCursor(found.id)
	}
}

// ScrollBy scrolls the window by delta lines (positive moves the content
// down), fetching more trees when the scroll crosses an open end, and
// drags the cursor along so it stays visible.
func (r *TreeRenderer[I, M]) ScrollBy(ctx context.Context, delta int) error {
	r.blocks.Shift(delta)
	if err := expandToFillVisibleArea[BlockID[I]](ctx, r); err != nil {
		return err
	}
	clampScrollBiasedDownwards[BlockID[I]](r)

	r.moveCursorSoItIsVisible()

	r.makeCursorVisible()
	clampScrollBiasedDownwards[BlockID[I]](r)
	return nil
}

// CenterCursor places the cursor block at the configured proportion of
// the viewport.
func (r *TreeRenderer[I, M]) CenterCursor() {
	cursorID := blockIDFromCursor(*r.cursor)
	r.blocks.OffsetWithCursor(cursorID, r.rctx.Height, r.rctx.Proportion)

	r.makeCursorVisible()
	clampScrollBiasedDownwards[BlockID[I]](r)
}

// =============================================================================
// OUTPUT
// =============================================================================

// UpdateRenderInfo reports the state the next pass needs for scroll
// continuity, plus the ids of all currently visible messages.
func (r *TreeRenderer[I, M]) UpdateRenderInfo(
	lastCursor *Cursor[I],
	lastCursorTop *int,
	lastVisibleMsgs *[]I,
) {
	*lastCursor = *r.cursor

	cursorID := blockIDFromCursor(*r.cursor)
	at, _, ok := r.blocks.FindBlock(cursorID)
	if !ok {
		panic("no cursor in layout")
	}
	*lastCursorTop = at.Top

	area := visibleArea[BlockID[I]](r)
	visible := (*lastVisibleMsgs)[:0]
	r.blocks.Each(func(at Range, block *Block[BlockID[I]]) bool {
		if !at.Empty() && overlaps(area, at) {
			if id, ok := block.ID().MsgID(); ok {
				visible = append(visible, id)
			}
		}
		return true
	})
	*lastVisibleMsgs = visible
}

// CursorLine returns the absolute screen line carrying the cursor.
func (r *TreeRenderer[I, M]) CursorLine() int {
	cursorID := blockIDFromCursor(*r.cursor)
	at, block, ok := r.blocks.FindBlock(cursorID)
	if !ok {
		panic("no cursor in layout")
	}
	return block.Focus(at).Top
}

// VisibleBlocks returns the blocks overlapping the viewport, in order,
// with their absolute line ranges.
func (r *TreeRenderer[I, M]) VisibleBlocks() []RenderedBlock {
	area := visibleArea[BlockID[I]](r)
	var out []RenderedBlock
	r.blocks.Each(func(at Range, block *Block[BlockID[I]]) bool {
		if !at.Empty() && overlaps(area, at) {
			out = append(out, RenderedBlock{At: at, Lines: block.Lines()})
		}
		return true
	})
	return out
}

// RenderToLines assembles the final screen: exactly height lines, with
// block lines placed at their absolute positions.
func (r *TreeRenderer[I, M]) RenderToLines() []string {
	lines := make([]string, r.rctx.Height)
	for _, block := range r.VisibleBlocks() {
		for i, line := range block.Lines {
			y := block.At.Top + i
			if y >= 0 && y < len(lines) {
				lines[y] = line
			}
		}
	}
	return lines
}
