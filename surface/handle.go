// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "fmt"

// WindowID identifies one logical rendering window for the lifetime of a
// session, independent of how many times its platform surface is recreated.
type WindowID int

// InvalidWindow is the id carried by the "no surface" handle.
const InvalidWindow WindowID = -1

// Valid reports whether id is a usable window id.
func (id WindowID) Valid() bool { return id >= 0 }

// Kind distinguishes the platform surface providers a handle can come from.
type Kind uint8

const (
	// KindView is a plain, opaque view surface.
	KindView Kind = iota

	// KindOverlay is an overlay-capable texture view with its own alpha.
	KindOverlay
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindView:
		return "view"
	case KindOverlay:
		return "overlay"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Handle describes one native-renderable surface for one window.
//
// Handle is a value type and is treated as immutable once published:
// replacing a surface always publishes a new Handle.
type Handle struct {
	// Window is the logical window the surface belongs to.
	Window WindowID

	// Ref is the native-renderable target. Nil for the "no surface" handle
	// and for tombstones.
	Ref Target

	// Width and Height are the surface dimensions in pixels.
	Width  int
	Height int

	// Format is the pixel format of the surface.
	Format Format

	// Kind is the render-target kind (plain view or overlay).
	Kind Kind

	// Alpha is the overlay opacity in [0, 1]. 1 for plain views.
	Alpha float32

	// Seq is the lifecycle sequence number of the window event this surface
	// answers. Later events for the same window carry higher numbers.
	Seq uint64

	gone bool
}

// None is the "no surface" handle passed to an engine to unbind everything.
var None = Handle{Window: InvalidWindow}

// Tombstone returns the cancellation value for window id: the window is
// gone and its previous surface must not be used again.
func Tombstone(id WindowID) Handle {
	return Handle{Window: id, gone: true}
}

// Gone reports whether h is a tombstone.
func (h Handle) Gone() bool { return h.gone }

// IsNone reports whether h is the "no surface" handle.
func (h Handle) IsNone() bool {
	return !h.gone && h.Ref == nil && !h.Window.Valid()
}

// Size returns the surface dimensions.
func (h Handle) Size() (width, height int) {
	return h.Width, h.Height
}

// String returns a debug representation of h.
func (h Handle) String() string {
	switch {
	case h.IsNone():
		return "surface(none)"
	case h.gone:
		return fmt.Sprintf("surface(%d gone)", h.Window)
	default:
		return fmt.Sprintf("surface(%d %dx%d %s seq=%d)", h.Window, h.Width, h.Height, h.Kind, h.Seq)
	}
}
