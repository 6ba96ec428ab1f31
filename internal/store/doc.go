// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store defines the transcript data model and the storage contract
// the chat engine renders from.
//
// A transcript is a forest of reply trees, too large to hold in memory in
// full. The engine only ever materializes one subtree at a time as a Tree
// snapshot and navigates the rest through the MsgStore interface, which a
// persistent backend implements.
//
// # Key Types
//
//   - Msg: interface a message type implements to be renderable
//   - Tree: immutable snapshot of one reply tree
//   - Path: root-to-message id chain
//   - MsgStore: async storage contract (forest + total-order navigation,
//     seen-flag maintenance)
//   - Message, MessageID: the concrete wire representation
//
// # Ordering
//
// "Older/newer" navigation uses the store's total order. MessageID is a
// snowflake-style id whose high bits encode the creation time, so ordering
// by id alone is the deterministic (timestamp, id) order.
package store
