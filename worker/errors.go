// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package worker

import "errors"

// Package errors.
var (
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("worker: already started")

	// ErrExited is returned by Start after the worker was stopped.
	ErrExited = errors.New("worker: exited")

	// ErrInit is returned by Start when the engine fails to initialize.
	ErrInit = errors.New("worker: engine init failed")

	// ErrPanic wraps a panic recovered from an engine call.
	ErrPanic = errors.New("worker: engine panicked")
)
