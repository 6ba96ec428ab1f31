// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for treeline.
//
// Configuration lives in a single TOML file with sensible defaults and
// validation.
//
// Configuration file location:
//   - ~/.treeline/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/treeline-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete treeline configuration.
type Config struct {
	// VaultPath is the SQLite transcript database. Empty means the default
	// ~/.treeline/vault.db.
	VaultPath string `toml:"vault_path"`

	// Room is the room joined at startup.
	Room string `toml:"room"`

	// Nick is the display name used for composed messages.
	Nick string `toml:"nick"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Key bindings
	Keys KeysConfig `toml:"keys"`
}

// UIConfig contains chat view configuration.
type UIConfig struct {
	// Scrolloff is the minimum number of lines kept between the cursor and
	// the screen edge while scrolling.
	Scrolloff int `toml:"scrolloff"`

	// CursorProportion is where centering places the cursor: 0 is the top
	// of the screen, 1 the bottom.
	CursorProportion float64 `toml:"cursor_proportion"`
}

// KeysConfig overrides individual key bindings. Each entry is a list of
// keys in bubbletea notation (e.g. "ctrl+y", "pgup", "g"); an empty list
// keeps the built-in binding.
type KeysConfig struct {
	Up          []string `toml:"up"`
	Down        []string `toml:"down"`
	ToTop       []string `toml:"to_top"`
	ToBottom    []string `toml:"to_bottom"`
	PrevSibling []string `toml:"prev_sibling"`
	NextSibling []string `toml:"next_sibling"`
	ToParent    []string `toml:"to_parent"`
	ToRoot      []string `toml:"to_root"`

	OlderMsg    []string `toml:"older_msg"`
	NewerMsg    []string `toml:"newer_msg"`
	OlderUnseen []string `toml:"older_unseen"`
	NewerUnseen []string `toml:"newer_unseen"`

	ScrollUpLine   []string `toml:"scroll_up_line"`
	ScrollDownLine []string `toml:"scroll_down_line"`
	ScrollUpHalf   []string `toml:"scroll_up_half"`
	ScrollDownHalf []string `toml:"scroll_down_half"`
	ScrollUpFull   []string `toml:"scroll_up_full"`
	ScrollDownFull []string `toml:"scroll_down_full"`
	CenterCursor   []string `toml:"center_cursor"`

	FoldTree        []string `toml:"fold_tree"`
	ToggleSeen      []string `toml:"toggle_seen"`
	MarkVisibleSeen []string `toml:"mark_visible_seen"`
	MarkOlderSeen   []string `toml:"mark_older_seen"`

	Reply          []string `toml:"reply"`
	ReplyAlternate []string `toml:"reply_alternate"`
	NewThread      []string `toml:"new_thread"`
	Confirm        []string `toml:"confirm"`
	Abort          []string `toml:"abort"`
	Quit           []string `toml:"quit"`
}

// Map returns the key overrides by action name, skipping empty entries.
// Action names match the chat view's key map.
func (k *KeysConfig) Map() map[string][]string {
	all := map[string][]string{
		"up":                k.Up,
		"down":              k.Down,
		"to_top":            k.ToTop,
		"to_bottom":         k.ToBottom,
		"prev_sibling":      k.PrevSibling,
		"next_sibling":      k.NextSibling,
		"to_parent":         k.ToParent,
		"to_root":           k.ToRoot,
		"older_msg":         k.OlderMsg,
		"newer_msg":         k.NewerMsg,
		"older_unseen":      k.OlderUnseen,
		"newer_unseen":      k.NewerUnseen,
		"scroll_up_line":    k.ScrollUpLine,
		"scroll_down_line":  k.ScrollDownLine,
		"scroll_up_half":    k.ScrollUpHalf,
		"scroll_down_half":  k.ScrollDownHalf,
		"scroll_up_full":    k.ScrollUpFull,
		"scroll_down_full":  k.ScrollDownFull,
		"center_cursor":     k.CenterCursor,
		"fold_tree":         k.FoldTree,
		"toggle_seen":       k.ToggleSeen,
		"mark_visible_seen": k.MarkVisibleSeen,
		"mark_older_seen":   k.MarkOlderSeen,
		"reply":             k.Reply,
		"reply_alternate":   k.ReplyAlternate,
		"new_thread":        k.NewThread,
		"confirm":           k.Confirm,
		"abort":             k.Abort,
		"quit":              k.Quit,
	}
	set := make(map[string][]string)
	for action, keys := range all {
		if len(keys) > 0 {
			set[action] = keys
		}
	}
	return set
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Room: "welcome",
		UI: UIConfig{
			Scrolloff:        2,
			CursorProportion: 0.5,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the treeline configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".treeline"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the configuration from the default config file, falling back
// to defaults when no file exists.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		cfg := Default()
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads the configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode TOML file: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills in empty fields with their default values.
func (c *Config) SetDefaults() {
	if c.VaultPath == "" {
		if dir, err := ConfigDir(); err == nil {
			c.VaultPath = filepath.Join(dir, "vault.db")
		}
	}
	if c.Room == "" {
		c.Room = "welcome"
	}
	if c.Nick == "" {
		c.Nick = os.Getenv("USER")
	}
	if c.UI.CursorProportion == 0 && c.UI.Scrolloff == 0 {
		// Distinguishing "unset" from explicit zeros is not worth a pointer
		// field; an all-zero UI section gets the defaults.
		c.UI = Default().UI
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file atomically.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# treeline configuration file")
	fmt.Fprintln(&buf, "# Generated by treeline - edit with care")
	fmt.Fprintln(&buf, "")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.UI.Scrolloff < 0 {
		errs = append(errs, ValidationError{
			Field:   "ui.scrolloff",
			Message: fmt.Sprintf("must not be negative, got %d", c.UI.Scrolloff),
		})
	}
	if c.UI.CursorProportion < 0 || c.UI.CursorProportion > 1 {
		errs = append(errs, ValidationError{
			Field:   "ui.cursor_proportion",
			Message: fmt.Sprintf("must be between 0 and 1, got %g", c.UI.CursorProportion),
		})
	}
	if strings.ContainsAny(c.Room, " \t\n") {
		errs = append(errs, ValidationError{
			Field:   "room",
			Message: "must not contain whitespace",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
