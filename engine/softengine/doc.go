// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package softengine is a software [engine.Facade] that renders a synthetic
// animated workload with gg.
//
// It stands in for a native trace player: every Step renders one frame into
// an offscreen gg context at the render resolution and presents it into each
// bound [surface.ImageTarget], scaling with golang.org/x/image/draw when the
// override resolution differs from the surface size. Frames in the
// configured range are measured; frames in the snapshot set are saved as
// PNG files.
//
// Engine is meant to be driven by a single worker goroutine.
package softengine
