// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storetest provides an in-memory MsgStore for tests.
//
// The store keeps the whole transcript in maps and answers navigation
// queries by scanning, which is plenty for test-sized transcripts. It
// maintains the root set and the unseen counter incrementally on every
// mutation, exactly like a real backend must, so it doubles as a reference
// implementation of the aggregate-maintenance contract.
package storetest
