// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package worker

import "fmt"

// State is the worker lifecycle state. Transitions only move forward.
type State int32

const (
	// Created is the state before Start.
	Created State = iota

	// Running means the worker goroutine is driving the engine.
	Running

	// ExitRequested means RequestStop was called and the worker goroutine
	// has not finished yet.
	ExitRequested

	// Exited is terminal.
	Exited
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case ExitRequested:
		return "exit-requested"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
