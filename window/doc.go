// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package window contains the UI-loop side of the surface handoff: the
// lifecycle event [Channel], the serial UI [Loop], the [Controller] that owns
// platform surfaces, and the [Platform] boundary with a [Headless]
// implementation.
//
// Everything the controller does happens on the UI loop goroutine. Platform
// callbacks (a surface became ready, a surface is gone) and host entry points
// (OnWindowNeeded, OnWindowResized, OnWindowGone) must be called there, for
// example through [Loop.Post]. Because the loop is serial, events and
// publications for one window are always issued in the order they occurred.
//
// The controller never blocks on the worker. It posts lifecycle events the
// worker drains between steps and publishes handles into the broker once the
// platform surface actually exists.
package window
