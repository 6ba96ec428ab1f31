// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for treeline.
//
// A single TOML file holds everything: the vault path, the room and nick,
// UI tuning (scrolloff, cursor proportion) and key binding overrides.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - UIConfig: Chat view tuning
//   - KeysConfig: Key binding overrides by action name
//   - Watcher: Live reload of the config file via fsnotify
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - ~/.treeline/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Watch for changes:
//
//	w, err := config.NewWatcher(path, time.Second)
//	if err := w.Watch(); err != nil { ... }
//	for cfg := range w.Reloads() { ... }
package config
