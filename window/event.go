// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import (
	"fmt"

	"github.com/gogpu/retrace/surface"
)

// EventType is the kind of lifecycle event.
type EventType uint8

const (
	// Create announces a new window that needs a surface.
	Create EventType = iota + 1

	// Resize announces new dimensions; the old surface is superseded.
	Resize

	// Destroy announces that the window and its surface are gone.
	Destroy
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case Create:
		return "create"
	case Resize:
		return "resize"
	case Destroy:
		return "destroy"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// Event is one window lifecycle message from the controller to the worker.
type Event struct {
	Type   EventType
	Window surface.WindowID
	Width  int
	Height int

	// Seq is the controller's lifecycle sequence number. Handles published
	// in answer to this event carry the same number.
	Seq uint64
}

// String returns a debug representation of the event.
func (e Event) String() string {
	if e.Type == Destroy {
		return fmt.Sprintf("%s(%d seq=%d)", e.Type, e.Window, e.Seq)
	}
	return fmt.Sprintf("%s(%d %dx%d seq=%d)", e.Type, e.Window, e.Width, e.Height, e.Seq)
}
