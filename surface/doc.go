// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface defines the values exchanged between the UI loop and the
// worker when a rendering surface changes hands.
//
// A [Handle] is an immutable description of one native-renderable target for
// one logical window: its [WindowID], the opaque [Target] the engine renders
// into, dimensions, pixel [Format] and render-target [Kind]. Handles are never
// mutated after they are published. A resize produces a new handle with a
// higher lifecycle sequence number; a destroy produces a [Tombstone].
//
// # Render target kinds
//
// Two kinds of platform surface exist:
//
//   - KindView: a plain, opaque view. Used in single-window mode.
//   - KindOverlay: an overlay-capable texture view with its own alpha, used
//     when several windows are composited side by side or on top of each other.
//
// Both travel as the same Handle type; engines that care switch on Kind.
//
// # Targets
//
// [Target] mirrors the render-target abstraction of gogpu/gg: CPU targets
// expose pixels, platform targets expose an opaque native reference.
//
//	t := surface.NewImageTarget(800, 600, surface.FormatRGBA8)
//	h := surface.Handle{Window: 0, Ref: t, Width: 800, Height: 600}
package surface
