// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file renders messages, placeholders, the editor and pending sends
// into the pre-sized line blocks the layout engine positions. All width
// arithmetic is display-width aware.
package chat

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/treeline-tui/internal/ui/styles"
)

// placeholderText stands in for messages that are not locally known.
const placeholderText = "[...]"

const timeFormat = "15:04"

// widgetContext carries everything needed to pre-render blocks for one
// layout pass.
type widgetContext struct {
	theme *styles.Theme
	width int
	nick  string
}

// =============================================================================
// TEXT LAYOUT
// =============================================================================

// indentPrefix returns the tree guide for the given depth.
func indentPrefix(indent int) string {
	return strings.Repeat("│ ", indent)
}

// wrapText wraps s into lines of at most width display cells, breaking on
// spaces where possible. It always returns at least one line.
func wrapText(s string, width int) []string {
	if width < 1 {
		width = 1
	}

	var lines []string
	for _, paragraph := range strings.Split(s, "\n") {
		start := len(lines)
		line := ""
		lineWidth := 0
		for _, word := range strings.Fields(paragraph) {
			wordWidth := runewidth.StringWidth(word)
			switch {
			case lineWidth == 0:
				// A word wider than the line is hard-broken.
				lines, word, wordWidth = hardBreak(lines, word, width)
				line = word
				lineWidth = wordWidth
			case lineWidth+1+wordWidth <= width:
				line += " " + word
				lineWidth += 1 + wordWidth
			default:
				lines = append(lines, line)
				lines, word, wordWidth = hardBreak(lines, word, width)
				line = word
				lineWidth = wordWidth
			}
		}
		// A hard break can consume a paragraph's final word exactly;
		// don't emit a blank line for the empty remainder.
		if line != "" || len(lines) == start {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

// hardBreak appends width-sized chunks of word to lines until the
// remainder fits. A rune wider than the whole line overflows onto a
// line of its own, so the split always consumes at least one rune.
func hardBreak(lines []string, word string, width int) ([]string, string, int) {
	wordWidth := runewidth.StringWidth(word)
	for wordWidth > width {
		head := runewidth.Truncate(word, width, "")
		if head == "" {
			_, size := utf8.DecodeRuneInString(word)
			head = word[:size]
		}
		lines = append(lines, head)
		word = word[len(head):]
		wordWidth = runewidth.StringWidth(word)
	}
	return lines, word, wordWidth
}

// =============================================================================
// MESSAGE WIDGETS
// =============================================================================

// msgLines renders one message block. The first line carries the seen
// marker, timestamp, indent guides and nick; continuation lines repeat
// the gutter and guides so the tree stays readable.
func (w *widgetContext) msgLines(
	highlighted bool,
	indent int,
	seen bool,
	at time.Time,
	nick, content string,
	foldedInfo int,
) []string {
	marker := " "
	if !seen {
		marker = w.theme.Unseen.Render("•")
	}
	stamp := w.theme.Indent.Render(at.Format(timeFormat))
	guides := w.theme.Indent.Render(indentPrefix(indent))

	nickStyle := w.theme.Nick
	if nick == w.nick {
		nickStyle = w.theme.OwnNick
	}
	head := nickStyle.Render(nick) + " "

	gutter := 1 + len(timeFormat) + 1 // seen marker, stamp, space
	bodyWidth := w.width - gutter - 2*indent - runewidth.StringWidth(nick) - 1

	body := wrapText(content, bodyWidth)
	lines := make([]string, 0, len(body)+1)
	lines = append(lines, fmt.Sprintf("%s%s %s%s%s",
		marker, stamp, guides, head, w.theme.Body.Render(body[0])))

	contGuides := w.theme.Indent.Render(indentPrefix(indent + 1))
	blank := strings.Repeat(" ", 1+len(timeFormat)+1)
	for _, line := range body[1:] {
		lines = append(lines, blank+contGuides+w.theme.Body.Render(line))
	}

	if foldedInfo > 0 {
		lines = append(lines, blank+contGuides+
			w.theme.FoldedInfo.Render(fmt.Sprintf("[%d more]", foldedInfo)))
	}

	if highlighted {
		for i, line := range lines {
			lines[i] = w.theme.CursorRow.Render(line)
		}
	}
	return lines
}

// placeholderLines renders a block for a message that has not arrived.
func (w *widgetContext) placeholderLines(highlighted bool, indent int, foldedInfo int) []string {
	blank := strings.Repeat(" ", 1+len(timeFormat)+1)
	guides := w.theme.Indent.Render(indentPrefix(indent))

	lines := []string{blank + guides + w.theme.Placeholder.Render(placeholderText)}
	if foldedInfo > 0 {
		contGuides := w.theme.Indent.Render(indentPrefix(indent + 1))
		lines = append(lines, blank+contGuides+
			w.theme.FoldedInfo.Render(fmt.Sprintf("[%d more]", foldedInfo)))
	}

	if highlighted {
		for i, line := range lines {
			lines[i] = w.theme.CursorRow.Render(line)
		}
	}
	return lines
}

// editorLines renders the open editor at its position in the tree. The
// editor widget is rendered by the view beforehand; here it only gets its
// gutter and guides.
func (w *widgetContext) editorLines(indent int, editor []string) []string {
	blank := strings.Repeat(" ", 1+len(timeFormat)+1)
	guides := w.theme.Indent.Render(indentPrefix(indent))
	prompt := w.theme.EditorPrompt.Render(w.nick+">") + " "

	lines := make([]string, 0, len(editor))
	for i, line := range editor {
		if i == 0 {
			lines = append(lines, blank+guides+prompt+line)
		} else {
			lines = append(lines, blank+guides+strings.Repeat(" ", runewidth.StringWidth(w.nick)+2)+line)
		}
	}
	if len(lines) == 0 {
		lines = []string{blank + guides + prompt}
	}
	return lines
}

// pseudoLines renders an optimistically displayed, unconfirmed send.
func (w *widgetContext) pseudoLines(indent int, content string) []string {
	blank := strings.Repeat(" ", 1+len(timeFormat)+1)
	guides := w.theme.Indent.Render(indentPrefix(indent))
	head := w.theme.OwnNick.Render(w.nick) + " "

	bodyWidth := w.width - len(blank) - 2*indent - runewidth.StringWidth(w.nick) - 1
	body := wrapText(content, bodyWidth)

	lines := make([]string, 0, len(body))
	lines = append(lines, blank+guides+head+w.theme.Pending.Render(body[0]))
	contGuides := w.theme.Indent.Render(indentPrefix(indent + 1))
	for _, line := range body[1:] {
		lines = append(lines, blank+contGuides+w.theme.Pending.Render(line))
	}
	return lines
}
