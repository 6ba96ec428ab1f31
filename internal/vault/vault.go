// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed      = errors.New("vault is closed")
	ErrUnknownRoom = errors.New("unknown room")
)

// =============================================================================
// VAULT
// =============================================================================

// Vault is the handle to one SQLite transcript database.
type Vault struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the vault at path, applies the schema and
// triggers, and rebuilds the derived aggregates.
func Open(path string) (*Vault, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	v := &Vault{db: db, path: path}
	if err := v.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return v, nil
}

// prepare applies the schema, installs the aggregate-maintenance triggers
// and rebuilds the derived tables once.
func (v *Vault) prepare() error {
	if _, err := v.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := v.db.Exec(Triggers); err != nil {
		return fmt.Errorf("failed to install triggers: %w", err)
	}

	tx, err := v.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(RebuildAggregates); err != nil {
		return fmt.Errorf("failed to rebuild aggregates: %w", err)
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (v *Vault) Close() error {
	if v.db == nil {
		return ErrClosed
	}
	err := v.db.Close()
	v.db = nil
	return err
}

// Path returns the database file path.
func (v *Vault) Path() string {
	return v.path
}

// =============================================================================
// ROOMS
// =============================================================================

// JoinRoom makes sure a room exists.
func (v *Vault) JoinRoom(ctx context.Context, name string) error {
	_, err := v.db.ExecContext(ctx, "INSERT OR IGNORE INTO rooms (name) VALUES (?)", name)
	return err
}

// ForgetRoom deletes a room and all its messages. The triggers retract the
// room's aggregates.
func (v *Vault) ForgetRoom(ctx context.Context, name string) error {
	_, err := v.db.ExecContext(ctx, "DELETE FROM rooms WHERE name = ?", name)
	return err
}

// Rooms lists all known rooms.
func (v *Vault) Rooms(ctx context.Context) ([]string, error) {
	rows, err := v.db.QueryContext(ctx, "SELECT name FROM rooms ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TotalUnseen sums the maintained unseen counters across all rooms.
func (v *Vault) TotalUnseen(ctx context.Context) (int, error) {
	var total int
	err := v.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM unseen_counts").Scan(&total)
	return total, err
}

// Room returns the per-room store view. The room should exist; operations
// on a room that was never joined see an empty transcript.
func (v *Vault) Room(name string) *RoomVault {
	return &RoomVault{db: v.db, room: name}
}
