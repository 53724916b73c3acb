// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package engine defines the boundary to the frame-stepping rendering
// engine driven by a worker.
//
// The engine is a black box behind [Facade]: it is initialized once from a
// [Config], stepped one frame at a time, told which surfaces to render into
// with SetSurface, and stopped exactly once, yielding a [Result].
//
// A Config is produced by a [ConfigSource]: [JSONSource] takes a JSON
// document (inline or from a file) and [LaunchSource] builds one from
// individual [LaunchOptions].
package engine
