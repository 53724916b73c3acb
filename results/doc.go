// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package results persists the outcome of retrace sessions.
//
// Two stores are provided:
//
//   - [FileStore] writes the result document a launcher reads back after a
//     run, replacing the file on every session.
//   - [SQLiteStore] appends every session to a SQLite table so runs can be
//     compared over time.
//
// Both implement [Store]. [Multi] fans a result out to several stores.
package results
