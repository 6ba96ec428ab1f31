// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the treeline TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	Nick        lipgloss.Style
	OwnNick     lipgloss.Style
	Body        lipgloss.Style
	Placeholder lipgloss.Style
	CursorRow   lipgloss.Style
	Unseen      lipgloss.Style
	Indent      lipgloss.Style
	FoldedInfo  lipgloss.Style
	Pending     lipgloss.Style

	// ==========================================================================
	// EDITOR STYLES
	// ==========================================================================

	EditorPrompt lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusRoom   lipgloss.Style
	StatusUnseen lipgloss.Style
	ErrorText    lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Nick = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.OwnNick = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.Body = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextFaint).
		Italic(true)

	t.CursorRow = lipgloss.NewStyle().
		Background(SurfaceBright)

	t.Unseen = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.Indent = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.FoldedInfo = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.Pending = lipgloss.NewStyle().
		Foreground(Emerald).
		Italic(true)

	t.EditorPrompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.StatusRoom = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.StatusUnseen = lipgloss.NewStyle().
		Foreground(Amber)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
}
