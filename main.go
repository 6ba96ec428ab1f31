// treeline TUI - a terminal client for tree-structured chat rooms.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/treeline-tui/internal/config"
	"github.com/jeranaias/treeline-tui/internal/store"
	"github.com/jeranaias/treeline-tui/internal/ui/chat"
	"github.com/jeranaias/treeline-tui/internal/ui/styles"
	"github.com/jeranaias/treeline-tui/internal/vault"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// configReloadDebounce is how long the config watcher waits after the
// last write before reloading, so editors that save in multiple steps
// trigger a single reload.
const configReloadDebounce = 250 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "path to config.toml (default ~/.treeline/config.toml)")
	room := flag.String("room", "", "room to join (overrides config)")
	nick := flag.String("nick", "", "nick to send as (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("treeline %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath, *room, *nick); err != nil {
		fmt.Fprintf(os.Stderr, "treeline: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, roomOverride, nickOverride string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if roomOverride != "" {
		cfg.Room = roomOverride
	}
	if nickOverride != "" {
		cfg.Nick = nickOverride
	}

	// The default vault path lives under the config directory.
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}

	v, err := vault.Open(cfg.VaultPath)
	if err != nil {
		return fmt.Errorf("opening vault %s: %w", cfg.VaultPath, err)
	}
	defer v.Close()

	ctx := context.Background()
	if err := v.JoinRoom(ctx, cfg.Room); err != nil {
		return fmt.Errorf("joining room %s: %w", cfg.Room, err)
	}
	roomStore := v.Room(cfg.Room)

	keys := chat.DefaultKeyMap()
	keys.Apply(cfg.Keys.Map())

	view := chat.New(
		roomStore,
		styles.NewTheme(),
		keys,
		cfg.Room,
		cfg.Nick,
		cfg.UI.Scrolloff,
		cfg.UI.CursorProportion,
	)

	p := tea.NewProgram(
		app{
			chat: view,
			room: roomStore,
			ids:  &store.IDSource{},
			nick: cfg.Nick,
		},
		tea.WithAltScreen(),
	)

	stopWatching := watchConfig(configPath, p)
	defer stopWatching()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running treeline: %w", err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

// watchConfig starts the config file watcher and feeds reloads into the
// running program. A watcher that cannot be started is not fatal; the
// program simply runs without live reload.
func watchConfig(configPath string, p *tea.Program) func() {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return func() {}
		}
	}

	w, err := config.NewWatcher(path, configReloadDebounce)
	if err != nil {
		return func() {}
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return func() {}
	}

	go func() {
		for {
			select {
			case cfg := <-w.Reloads():
				p.Send(configReloadedMsg{cfg: cfg})
			case <-w.Errors():
				// A half-written or invalid file reloads on the next
				// successful save.
			}
		}
	}()

	return func() { w.Close() }
}

// =============================================================================
// APP MODEL
// =============================================================================

// app is the top-level Bubble Tea model: the chat view plus the local
// delivery loop that takes composed messages and writes them to the
// vault. There is no remote transport; the vault is the room's source
// of truth.
type app struct {
	chat chat.Model
	room *vault.RoomVault
	ids  *store.IDSource
	nick string
}

// configReloadedMsg carries a freshly reloaded configuration from the
// file watcher into the update loop.
type configReloadedMsg struct {
	cfg *config.Config
}

// Init implements tea.Model.
func (a app) Init() tea.Cmd {
	return a.chat.Init()
}

// Update implements tea.Model.
func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case chat.ComposedMsg:
		return a, a.deliver(msg)

	case configReloadedMsg:
		keys := chat.DefaultKeyMap()
		keys.Apply(msg.cfg.Keys.Map())
		a.chat.Reconfigure(keys, msg.cfg.UI.Scrolloff, msg.cfg.UI.CursorProportion)
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(chat.RefreshMsg{})
		return a, cmd
	}

	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a app) View() string {
	return a.chat.View()
}

// deliver stores a composed message and reports the outcome back to the
// chat view, correlated by the send id.
func (a app) deliver(msg chat.ComposedMsg) tea.Cmd {
	room, ids, nick := a.room, a.ids, a.nick
	return func() tea.Msg {
		id := ids.Next()
		var m *store.Message
		if msg.Parent != nil {
			m = store.NewReply(id, *msg.Parent, nick, msg.Content)
		} else {
			m = store.NewMessage(id, nick, msg.Content)
		}
		// The author has read their own message; don't let it show as
		// unseen or bump the unseen counter.
		m.WasSeen = true
		if err := room.InsertMessage(context.Background(), m); err != nil {
			return chat.SendFailedMsg{SendID: msg.SendID}
		}
		return chat.SentMsg{SendID: msg.SendID, ID: id}
	}
}
