// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package vault provides the SQLite-backed transcript store.
//
// The vault persists every room's message forest and implements the
// store.MsgStore contract per room. Two derived aggregates are kept
// correct incrementally, without full rescans, by SQL triggers that fire
// inside the same transaction as the write that affects them:
//
//   - the root set (table "trees"): ids of messages whose parent is not
//     locally known, including placeholder parents that haven't arrived
//     yet in out-of-order backfill;
//   - the per-room unseen counter (table "unseen_counts").
//
// Both tables are rebuilt from scratch once at open time and then only
// ever touched by the triggers.
//
// All writes go through a single connection (SQLite allows one writer),
// matching how the rest of the codebase configures modernc.org/sqlite.
package vault
