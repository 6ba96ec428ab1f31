// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines keyboard bindings for the tree chat interface: cursor
// movement, scrolling, tree actions, seen toggles and composition.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
// Each binding supports multiple keys and includes help text.
type KeyMap struct {
	// Cursor movement
	Up       key.Binding
	Down     key.Binding
	ToTop    key.Binding
	ToBottom key.Binding

	// Tree cursor movement
	PrevSibling key.Binding
	NextSibling key.Binding
	ToParent    key.Binding
	ToRoot      key.Binding
	OlderMsg    key.Binding
	NewerMsg    key.Binding
	OlderUnseen key.Binding
	NewerUnseen key.Binding

	// Scrolling
	ScrollUpLine   key.Binding
	ScrollDownLine key.Binding
	ScrollUpHalf   key.Binding
	ScrollDownHalf key.Binding
	ScrollUpFull   key.Binding
	ScrollDownFull key.Binding
	CenterCursor   key.Binding

	// Tree actions
	FoldTree        key.Binding
	ToggleSeen      key.Binding
	MarkVisibleSeen key.Binding
	MarkOlderSeen   key.Binding

	// Composition
	Reply          key.Binding
	ReplyAlternate key.Binding
	NewThread      key.Binding
	Confirm        key.Binding
	Abort          key.Binding

	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
// These bindings support both standard terminal navigation and vim-like
// shortcuts.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "move cursor up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "move cursor down"),
		),
		ToTop: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("Home/g", "go to first tree"),
		),
		ToBottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("End/G", "go to bottom"),
		),
		PrevSibling: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "previous sibling"),
		),
		NextSibling: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "next sibling"),
		),
		ToParent: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "go to parent"),
		),
		ToRoot: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "go to thread root"),
		),
		OlderMsg: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "older message"),
		),
		NewerMsg: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "newer message"),
		),
		OlderUnseen: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "older unseen message"),
		),
		NewerUnseen: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "newer unseen message"),
		),
		ScrollUpLine: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "scroll up a line"),
		),
		ScrollDownLine: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "scroll down a line"),
		),
		ScrollUpHalf: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("C-u", "scroll up half a screen"),
		),
		ScrollDownHalf: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "scroll down half a screen"),
		),
		ScrollUpFull: key.NewBinding(
			key.WithKeys("pgup", "ctrl+b"),
			key.WithHelp("PgUp/C-b", "scroll up a screen"),
		),
		ScrollDownFull: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+f"),
			key.WithHelp("PgDn/C-f", "scroll down a screen"),
		),
		CenterCursor: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "center cursor"),
		),
		FoldTree: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fold/unfold subtree"),
		),
		ToggleSeen: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle seen"),
		),
		MarkVisibleSeen: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "mark visible seen"),
		),
		MarkOlderSeen: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "mark older seen"),
		),
		Reply: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reply"),
		),
		ReplyAlternate: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reply (alternate)"),
		),
		NewThread: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "new thread"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Abort: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "abort"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// =============================================================================
// KEY BINDING HELPERS
// =============================================================================

// Apply replaces bindings with user-configured keys, by action name.
// Unknown action names are ignored so stale config entries don't break
// startup. The help description is kept; the help key text follows the
// new keys.
func (k *KeyMap) Apply(overrides map[string][]string) {
	bindings := map[string]*key.Binding{
		"up":                &k.Up,
		"down":              &k.Down,
		"to_top":            &k.ToTop,
		"to_bottom":         &k.ToBottom,
		"prev_sibling":      &k.PrevSibling,
		"next_sibling":      &k.NextSibling,
		"to_parent":         &k.ToParent,
		"to_root":           &k.ToRoot,
		"older_msg":         &k.OlderMsg,
		"newer_msg":         &k.NewerMsg,
		"older_unseen":      &k.OlderUnseen,
		"newer_unseen":      &k.NewerUnseen,
		"scroll_up_line":    &k.ScrollUpLine,
		"scroll_down_line":  &k.ScrollDownLine,
		"scroll_up_half":    &k.ScrollUpHalf,
		"scroll_down_half":  &k.ScrollDownHalf,
		"scroll_up_full":    &k.ScrollUpFull,
		"scroll_down_full":  &k.ScrollDownFull,
		"center_cursor":     &k.CenterCursor,
		"fold_tree":         &k.FoldTree,
		"toggle_seen":       &k.ToggleSeen,
		"mark_visible_seen": &k.MarkVisibleSeen,
		"mark_older_seen":   &k.MarkOlderSeen,
		"reply":             &k.Reply,
		"reply_alternate":   &k.ReplyAlternate,
		"new_thread":        &k.NewThread,
		"confirm":           &k.Confirm,
		"abort":             &k.Abort,
		"quit":              &k.Quit,
	}
	for action, keys := range overrides {
		binding, ok := bindings[action]
		if !ok || len(keys) == 0 {
			continue
		}
		binding.SetKeys(keys...)
		binding.SetHelp(strings.Join(keys, "/"), binding.Help().Desc)
	}
}

// ShortHelp returns the most commonly used shortcuts.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Reply, k.FoldTree, k.Quit}
}

// FullHelp returns all bindings, grouped for readability.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Cursor
		{k.Up, k.Down, k.ToTop, k.ToBottom},
		// Tree
		{k.PrevSibling, k.NextSibling, k.ToParent, k.ToRoot},
		// History
		{k.OlderMsg, k.NewerMsg, k.OlderUnseen, k.NewerUnseen},
		// Scrolling
		{k.ScrollUpLine, k.ScrollDownLine, k.ScrollUpHalf, k.ScrollDownHalf, k.ScrollUpFull, k.ScrollDownFull, k.CenterCursor},
		// Actions
		{k.FoldTree, k.ToggleSeen, k.MarkVisibleSeen, k.MarkOlderSeen},
		// Composition
		{k.Reply, k.ReplyAlternate, k.NewThread, k.Confirm, k.Abort},
	}
}
