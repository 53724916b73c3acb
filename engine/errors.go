// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import "errors"

// Package errors.
var (
	// ErrConfig is returned when a configuration cannot be built or is
	// invalid.
	ErrConfig = errors.New("engine: invalid configuration")

	// ErrNotInitialized is returned by Step, Stop and SetSurface before a
	// successful Init.
	ErrNotInitialized = errors.New("engine: not initialized")

	// ErrStopped is returned by every call after Stop.
	ErrStopped = errors.New("engine: stopped")

	// ErrUnsupportedSurface is returned by SetSurface for targets the engine
	// cannot render into.
	ErrUnsupportedSurface = errors.New("engine: unsupported surface")
)
