// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat implements the tree chat view: the cursor state machine, the
windowed block layout engine, and the renderer gluing them together.

# Key Components

## Blocks (blocks.go)

A line-addressed window over the transcript. Each block is a pre-rendered
unit with an integer height; the window tracks the absolute line range the
blocks occupy and whether either end is closed (no more data exists in that
direction). Line accounting is strict: for a non-empty window,
bottomLine - topLine + 1 equals the sum of all block heights.

## Cursor (cursor.go)

The long-lived anchor of the viewport: the live bottom of the chat, a
specific message, an open editor, or an optimistically displayed pending
send. Movement operations walk the tree via the store; composition
transitions carry the previous cursor so a failed send can roll back.

## Renderer (window.go, renderer.go)

Each render pass fetches the trees it needs from the store, lays them out
as blocks, expands the window by whole trees until the screen is covered
or an end closes, then scrolls to satisfy the cursor visibility and
clamping constraints. Trees and blocks are rebuilt per pass and discarded;
only the cursor and render info survive between passes.

## View (view.go)

The Bubble Tea model owning the cursor, the folded set and the editor. Key
events map to cursor movement, folding, seen toggles, scrolling and
composition; submitting the editor yields a Composed reaction for the
surrounding application to hand to its transport.
*/
package chat
