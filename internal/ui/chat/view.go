// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the Bubble Tea model owning the long-lived view
// state: the cursor, the folded set, the editor and the render info
// carried between passes. Every store access completes before the
// synchronous layout pass; trees and blocks never outlive a pass.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jeranaias/treeline-tui/internal/store"
	"github.com/jeranaias/treeline-tui/internal/ui/styles"
	"github.com/jeranaias/treeline-tui/internal/util"
)

// =============================================================================
// MESSAGES AND REACTIONS
// =============================================================================

// ComposedMsg is emitted when the user submits the editor. The
// surrounding application hands the content to its transport and reports
// back with SentMsg or SendFailedMsg, correlated by SendID.
type ComposedMsg struct {
	SendID  string
	Parent  *store.MessageID
	Content string
}

// SentMsg reports that a composed message was sent successfully and now
// has a real id.
type SentMsg struct {
	SendID string
	ID     store.MessageID
}

// SendFailedMsg reports that a composed message could not be sent. The
// editor content is preserved for retry.
type SendFailedMsg struct {
	SendID string
}

// RefreshMsg requests a re-render, e.g. after new messages arrived.
type RefreshMsg struct{}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the tree chat view.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	store store.MsgStore[store.MessageID, *store.Message]
	room  string
	nick  string

	// Dimensions
	width  int
	height int

	// Scroll behavior
	scrolloff  int
	proportion float64

	// Long-lived view state
	focused bool
	cursor  Cursor[store.MessageID]
	folded  map[store.MessageID]bool
	editor  textarea.Model

	// Render info carried between passes
	lastCursor      Cursor[store.MessageID]
	lastCursorTop   int
	lastVisibleMsgs []store.MessageID

	// In-flight send
	pendingContent string
	pendingSendID  string

	// Scroll requests accumulated from key handling for the following
	// render pass
	pendingScroll int
	pendingCenter bool

	// Rendered output
	lines      []string
	cursorLine int
	unseen     int
	err        error
}

// New creates a chat view over the given room store.
func New(
	s store.MsgStore[store.MessageID, *store.Message],
	theme *styles.Theme,
	keys KeyMap,
	room, nick string,
	scrolloff int,
	proportion float64,
) Model {
	editor := textarea.New()
	editor.Placeholder = "say something"
	editor.ShowLineNumbers = false
	editor.CharLimit = 0

	return Model{
		theme:      theme,
		keys:       keys,
		store:      s,
		room:       room,
		nick:       nick,
		scrolloff:  scrolloff,
		proportion: proportion,
		focused:    true,
		cursor:     BottomCursor[store.MessageID](),
		folded:     make(map[store.MessageID]bool),
		editor:     editor,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Reconfigure applies updated key bindings and scroll settings without
// resetting cursor or editor state. Callers should follow up with a
// RefreshMsg so the new settings take effect on screen.
func (m *Model) Reconfigure(keys KeyMap, scrolloff int, proportion float64) {
	m.keys = keys
	m.scrolloff = scrolloff
	m.proportion = proportion
}

// Err returns the last backend error, if any.
func (m Model) Err() error {
	return m.err
}

// chatHeight is the viewport height minus the status bar.
func (m Model) chatHeight() int {
	return max(m.height-1, 1)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	ctx := context.Background()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(max(msg.Width/2, 20))
		m.render(ctx, 0, false)
		return m, nil

	case RefreshMsg:
		m.render(ctx, 0, false)
		return m, nil

	case SentMsg:
		if msg.SendID == m.pendingSendID {
			m.sendSuccessful(msg.ID)
			m.render(ctx, 0, false)
		}
		return m, nil

	case SendFailedMsg:
		if msg.SendID == m.pendingSendID {
			m.sendFailed()
			m.render(ctx, 0, false)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		cmd := m.handleKey(ctx, msg)
		m.render(ctx, m.pendingScroll, m.pendingCenter)
		m.pendingScroll = 0
		m.pendingCenter = false
		return m, cmd
	}

	return m, nil
}

// handleKey dispatches a key event according to the cursor state, like
// the view is one state machine: an open editor captures almost all keys,
// a pending send allows movement only.
func (m *Model) handleKey(ctx context.Context, msg tea.KeyMsg) tea.Cmd {
	switch m.cursor.Kind {
	case CursorEditor:
		return m.handleEditorKey(msg)
	case CursorPseudo:
		m.handleMovementKey(ctx, msg)
		return nil
	default:
		if m.handleMovementKey(ctx, msg) {
			return nil
		}
		if m.handleActionKey(ctx, msg) {
			return nil
		}
		m.handleComposeKey(ctx, msg)
		return nil
	}
}

func (m *Model) handleMovementKey(ctx context.Context, msg tea.KeyMsg) bool {
	half := m.chatHeight() / 2
	full := max(m.chatHeight()-1, 0)

	switch {
	case key.Matches(msg, m.keys.Up):
		m.err = MoveUpInTree(ctx, m.store, &m.cursor, m.folded)
	case key.Matches(msg, m.keys.Down):
		m.err = MoveDownInTree(ctx, m.store, &m.cursor, m.folded)
	case key.Matches(msg, m.keys.ToTop):
		m.err = MoveToTop(ctx, m.store, &m.cursor)
	case key.Matches(msg, m.keys.ToBottom):
		MoveToBottom(&m.cursor)
	case key.Matches(msg, m.keys.PrevSibling):
		m.err = MoveToPrevSibling(ctx, m.store, &m.cursor)
	case key.Matches(msg, m.keys.NextSibling):
		m.err = MoveToNextSibling(ctx, m.store, &m.cursor)
	case key.Matches(msg, m.keys.ToParent):
		m.err = MoveToParent(ctx, m.store, &m.cursor)
	case key.Matches(msg, m.keys.ToRoot):
		m.err = MoveToRoot(ctx, m.store, &m.cursor)
	case key.Matches(msg, m.keys.OlderMsg):
		m.err = MoveToOlderMsg(ctx, m.store, &m.cursor)
	case key.Matches(msg, m.keys.NewerMsg):
		m.err = MoveToNewerMsg(ctx, m.store, &m.cursor)
	case key.Matches(msg, m.keys.OlderUnseen):
		m.err = MoveToOlderUnseenMsg(ctx, m.store, &m.cursor)
	case key.Matches(msg, m.keys.NewerUnseen):
		m.err = MoveToNewerUnseenMsg(ctx, m.store, &m.cursor)
	case key.Matches(msg, m.keys.ScrollUpLine):
		m.pendingScroll = 1
	case key.Matches(msg, m.keys.ScrollDownLine):
		m.pendingScroll = -1
	case key.Matches(msg, m.keys.ScrollUpHalf):
		m.pendingScroll = half
	case key.Matches(msg, m.keys.ScrollDownHalf):
		m.pendingScroll = -half
	case key.Matches(msg, m.keys.ScrollUpFull):
		m.pendingScroll = full
	case key.Matches(msg, m.keys.ScrollDownFull):
		m.pendingScroll = -full
	case key.Matches(msg, m.keys.CenterCursor):
		m.pendingCenter = true
	default:
		return false
	}
	return true
}

func (m *Model) handleActionKey(ctx context.Context, msg tea.KeyMsg) bool {
	id, pinned := m.cursor.MsgID()

	switch {
	case key.Matches(msg, m.keys.FoldTree):
		if pinned {
			if m.folded[id] {
				delete(m.folded, id)
			} else {
				m.folded[id] = true
			}
		}

	case key.Matches(msg, m.keys.ToggleSeen):
		if pinned {
			msg, found, err := m.store.Msg(ctx, id)
			if err != nil {
				m.err = err
			} else if found {
				m.err = m.store.SetSeen(ctx, id, !msg.Seen())
			}
		}

	case key.Matches(msg, m.keys.MarkVisibleSeen):
		for _, id := range m.lastVisibleMsgs {
			if err := m.store.SetSeen(ctx, id, true); err != nil {
				m.err = err
				break
			}
		}

	case key.Matches(msg, m.keys.MarkOlderSeen):
		if pinned {
			m.err = m.store.SetOlderSeen(ctx, id, true)
		} else {
			m.err = m.store.SetOlderSeen(ctx, store.LastPossibleMessageID, true)
		}

	default:
		return false
	}
	return true
}

func (m *Model) handleComposeKey(ctx context.Context, msg tea.KeyMsg) bool {
	var comingFrom *store.MessageID
	if id, ok := m.cursor.MsgID(); ok {
		comingFrom = &id
	}

	switch {
	case key.Matches(msg, m.keys.Reply):
		parent, can, err := ParentForReply(ctx, m.store, m.cursor)
		if err != nil {
			m.err = err
			return true
		}
		if can {
			m.cursor = EditorCursor(comingFrom, parent)
			m.editor.Focus()
		}

	case key.Matches(msg, m.keys.ReplyAlternate):
		parent, can, err := ParentForAlternateReply(ctx, m.store, m.cursor)
		if err != nil {
			m.err = err
			return true
		}
		if can {
			m.cursor = EditorCursor(comingFrom, parent)
			m.editor.Focus()
		}

	case key.Matches(msg, m.keys.NewThread):
		m.cursor = EditorCursor(comingFrom, nil)
		m.editor.Focus()

	default:
		return false
	}
	return true
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Abort):
		m.cursor = m.cursor.Abort()
		m.editor.Blur()
		return nil

	case key.Matches(msg, m.keys.Confirm):
		content := m.editor.Value()
		if strings.TrimSpace(content) == "" {
			return nil
		}
		parent := m.cursor.Parent
		m.cursor = m.cursor.Submit()
		m.editor.Blur()
		m.pendingContent = content
		m.pendingSendID = uuid.NewString()

		composed := ComposedMsg{SendID: m.pendingSendID, Parent: parent, Content: content}
		return func() tea.Msg { return composed }

	default:
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return cmd
	}
}

// sendSuccessful resolves the pending send to its real id and clears the
// editor.
func (m *Model) sendSuccessful(id store.MessageID) {
	if m.cursor.Kind != CursorPseudo {
		return
	}
	if m.lastCursor.Kind == CursorPseudo {
		m.lastCursor = MsgCursor(id)
	}
	m.cursor = m.cursor.SendSuccessful(id)
	m.editor.Reset()
	m.pendingContent = ""
	m.pendingSendID = ""
}

// sendFailed rolls the cursor back to where composition started. The
// typed content stays in the editor for retry.
func (m *Model) sendFailed() {
	if m.cursor.Kind != CursorPseudo {
		return
	}
	m.cursor = m.cursor.SendFailed()
	m.pendingContent = ""
	m.pendingSendID = ""
}

// =============================================================================
// RENDERING
// =============================================================================

// render runs one full layout pass and caches the drawable output.
func (m *Model) render(ctx context.Context, scrollDelta int, center bool) {
	if m.width == 0 || m.height == 0 {
		return
	}

	rctx := RenderContext[store.MessageID]{
		Width:          m.width,
		Height:         m.chatHeight(),
		Nick:           m.nick,
		Focused:        m.focused,
		Scrolloff:      m.scrolloff,
		Proportion:     m.proportion,
		LastCursor:     m.lastCursor,
		LastCursorTop:  m.lastCursorTop,
		EditorLines:    strings.Split(m.editor.View(), "\n"),
		EditorRow:      m.editor.Line(),
		PendingContent: m.pendingContent,
	}

	r := NewTreeRenderer(rctx, m.store, m.theme, m.folded, &m.cursor)
	if err := r.PrepareBlocksForDrawing(ctx); err != nil {
		m.err = err
		return
	}
	if scrollDelta != 0 {
		if err := r.ScrollBy(ctx, scrollDelta); err != nil {
			m.err = err
			return
		}
	}
	if center {
		r.CenterCursor()
	}

	r.UpdateRenderInfo(&m.lastCursor, &m.lastCursorTop, &m.lastVisibleMsgs)
	m.lines = r.RenderToLines()
	m.cursorLine = r.CursorLine()

	unseen, err := m.store.UnseenMsgsCount(ctx)
	if err != nil {
		m.err = err
		return
	}
	m.unseen = unseen
}

// CursorLine returns the absolute screen line carrying the cursor.
func (m Model) CursorLine() int {
	return m.cursorLine
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.statusBar())
	return b.String()
}

func (m Model) statusBar() string {
	room := m.theme.StatusRoom.Render("&" + m.room)
	status := room
	if m.unseen > 0 {
		status += " " + m.theme.StatusUnseen.Render(fmt.Sprintf("(%d unseen)", m.unseen))
	}
	if m.err != nil {
		// Long store errors would push the room name off screen.
		status += " " + m.theme.ErrorText.Render(util.TruncateRunes(m.err.Error(), max(m.width/2, 20)))
	}
	return m.theme.StatusBar.Render(status)
}
