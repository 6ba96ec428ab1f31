// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/treeline-tui/internal/ui/styles"
)

// =============================================================================
// WIDGET TESTS
// =============================================================================

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{""}, wrapText("", 10))
	assert.Equal(t, []string{"hello"}, wrapText("hello", 10))
	assert.Equal(t, []string{"hello", "world"}, wrapText("hello world", 6))
	assert.Equal(t, []string{"a", "b"}, wrapText("a\nb", 10))

	// Words wider than the line are hard-broken.
	assert.Equal(t, []string{"abcde", "fgh"}, wrapText("abcdefgh", 5))

	// Wide runes count by display width, not rune count.
	lines := wrapText("ああああ", 4)
	assert.Equal(t, []string{"ああ", "ああ"}, lines)

	// Degenerate widths still make progress.
	assert.Equal(t, []string{"a", "b"}, wrapText("ab", 0))
}

func TestWrapTextWideRunesAtNarrowWidths(t *testing.T) {
	// A double-width rune on a one-cell line overflows onto a line of
	// its own instead of stalling the hard-break loop.
	assert.Equal(t, []string{"你", "好"}, wrapText("你好", 1))
	assert.Equal(t, []string{"a", "你", "b"}, wrapText("a你b", 1))

	// Same after a space-separated word forces a line break first.
	assert.Equal(t, []string{"a", "你", "好"}, wrapText("a 你好", 1))

	// Emoji are double-width too.
	assert.Equal(t, []string{"👋", "👋"}, wrapText("👋👋", 1))
}

func TestIndentPrefix(t *testing.T) {
	assert.Equal(t, "", indentPrefix(0))
	assert.Equal(t, "│ │ ", indentPrefix(2))
}

func TestMsgLinesHeights(t *testing.T) {
	w := &widgetContext{theme: styles.NewTheme(), width: 40, nick: "alice"}
	at := time.Unix(0, 0)

	// A short message is one line.
	lines := w.msgLines(false, 0, true, at, "bob", "hi", 0)
	assert.Len(t, lines, 1)

	// A folded counter adds a line.
	lines = w.msgLines(false, 0, true, at, "bob", "hi", 3)
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "[3 more]")

	// Long content wraps onto continuation lines.
	long := "this message is long enough that it cannot possibly fit a single forty cell line"
	lines = w.msgLines(false, 0, true, at, "bob", long, 0)
	assert.Greater(t, len(lines), 1)

	// Deep indents still leave at least one cell of body width.
	lines = w.msgLines(false, 30, true, at, "bob", "hi", 0)
	assert.NotEmpty(t, lines)
}

func TestEditorLines(t *testing.T) {
	w := &widgetContext{theme: styles.NewTheme(), width: 40, nick: "alice"}

	lines := w.editorLines(1, []string{"draft", "more"})
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "alice>")
	assert.Contains(t, lines[0], "draft")
	assert.Contains(t, lines[1], "more")

	// An empty editor still renders its prompt line.
	lines = w.editorLines(0, nil)
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "alice>")
}
