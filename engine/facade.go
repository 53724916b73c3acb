// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import "github.com/gogpu/retrace/surface"

// Orientation is the screen orientation an engine asks the host for.
type Orientation uint8

const (
	// OrientationUnspecified leaves the host orientation unchanged.
	OrientationUnspecified Orientation = iota

	// Portrait is taller than wide.
	Portrait

	// Landscape is at least as wide as tall.
	Landscape
)

// String returns the orientation name.
func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "portrait"
	case Landscape:
		return "landscape"
	default:
		return "unspecified"
	}
}

// OrientationFor returns Portrait when height exceeds width and Landscape
// otherwise.
func OrientationFor(width, height int) Orientation {
	if height > width {
		return Portrait
	}
	return Landscape
}

// Facade is the engine as seen by the worker.
//
// Calls follow a strict order: one Init, then any number of Step calls, then
// exactly one Stop. SetSurface may be interleaved anywhere after Init. The
// worker never calls a Facade concurrently.
type Facade interface {
	// Init loads the configuration and prepares the engine.
	Init(cfg Config) error

	// Step renders one frame. It returns false when the engine is done.
	Step() (bool, error)

	// Stop releases the engine and reports the run.
	Stop() (Result, error)

	// SetSurface binds h to its window. surface.None unbinds every window;
	// a tombstone unbinds only h.Window.
	SetSurface(h surface.Handle) error

	// QueryOrientation reports the orientation the loaded workload wants.
	QueryOrientation() Orientation
}
