// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import "errors"

// Package errors for the window layer.
var (
	// ErrControllerClosed is returned by entry points after Close.
	ErrControllerClosed = errors.New("window: controller closed")

	// ErrChannelClosed is returned when posting to a closed channel.
	ErrChannelClosed = errors.New("window: event channel closed")

	// ErrLoopStopped is returned when the UI loop no longer runs.
	ErrLoopStopped = errors.New("window: loop stopped")

	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("window: invalid dimensions")

	// ErrUnknownWindow is returned for window ids the controller does not own.
	ErrUnknownWindow = errors.New("window: unknown window")

	// ErrWindowExists is returned when a live window id is created again.
	ErrWindowExists = errors.New("window: window already exists")
)
