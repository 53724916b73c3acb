// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"image"
	"reflect"
	"sync/atomic"
)

// Target is the native-renderable destination behind a Handle.
//
// A Target is an abstraction over different rendering destinations:
//   - ImageTarget: CPU-backed *image.RGBA, used by headless platforms and
//     software engines
//   - ViewTarget: an opaque platform object (window, texture view) the engine
//     knows how to bind natively
//
// Targets are owned by the platform that created them. Engines render into a
// target only between the SetSurface call that bound it and the call that
// replaced it.
//
// Targets are identified by interface equality, so implementations must be
// comparable. Pointer types always are; the controller refuses targets that
// are not.
type Target interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Format returns the pixel format of the target.
	Format() Format

	// Release frees the platform resources behind the target.
	// Release is idempotent.
	Release()

	// Released reports whether Release has been called.
	Released() bool
}

// Comparable reports whether t can be used as a target identity.
func Comparable(t Target) bool {
	return t == nil || reflect.TypeOf(t).Comparable()
}

// SameTarget reports whether a and b are the same target. It never panics;
// a target that is not comparable is only the same as nothing.
func SameTarget(a, b Target) bool {
	if !Comparable(a) || !Comparable(b) {
		return false
	}
	return a == b
}

// ImageTarget is a CPU-backed Target using *image.RGBA.
//
// Its dimensions never change: resizing a window creates a new ImageTarget.
type ImageTarget struct {
	img      *image.RGBA
	format   Format
	released atomic.Bool
}

// NewImageTarget creates a CPU-backed target. Formats without a 4-byte
// layout are stored as FormatRGBA8.
func NewImageTarget(width, height int, format Format) *ImageTarget {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	if BytesPerPixel(format) != 4 {
		format = FormatRGBA8
	}
	return &ImageTarget{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		format: format,
	}
}

// Width returns the target width in pixels.
func (t *ImageTarget) Width() int {
	return t.img.Bounds().Dx()
}

// Height returns the target height in pixels.
func (t *ImageTarget) Height() int {
	return t.img.Bounds().Dy()
}

// Format returns the pixel format.
func (t *ImageTarget) Format() Format {
	return t.format
}

// Image returns the underlying *image.RGBA.
// The returned image shares memory with the target.
func (t *ImageTarget) Image() *image.RGBA {
	return t.img
}

// Pixels returns direct access to the pixel data.
func (t *ImageTarget) Pixels() []byte {
	return t.img.Pix
}

// Stride returns the number of bytes per row.
func (t *ImageTarget) Stride() int {
	return t.img.Stride
}

// Release marks the target as released.
func (t *ImageTarget) Release() {
	t.released.Store(true)
}

// Released reports whether Release has been called.
func (t *ImageTarget) Released() bool {
	return t.released.Load()
}

// Ensure ImageTarget implements Target.
var _ Target = (*ImageTarget)(nil)

// ViewTarget wraps an opaque platform surface object.
//
// The wrapped value is handed to the engine unchanged; only a native engine
// knows what to do with it. The release function is called at most once.
type ViewTarget struct {
	width    int
	height   int
	format   Format
	native   any
	release  func(any)
	released atomic.Bool
}

// NewViewTarget wraps a platform surface object. release may be nil.
func NewViewTarget(width, height int, format Format, native any, release func(any)) *ViewTarget {
	return &ViewTarget{
		width:   width,
		height:  height,
		format:  format,
		native:  native,
		release: release,
	}
}

// Width returns the surface width in pixels.
func (t *ViewTarget) Width() int {
	return t.width
}

// Height returns the surface height in pixels.
func (t *ViewTarget) Height() int {
	return t.height
}

// Format returns the surface pixel format.
func (t *ViewTarget) Format() Format {
	return t.format
}

// Native returns the wrapped platform object.
func (t *ViewTarget) Native() any {
	return t.native
}

// Release calls the release function once.
func (t *ViewTarget) Release() {
	if t.released.Swap(true) {
		return
	}
	if t.release != nil {
		t.release(t.native)
	}
}

// Released reports whether Release has been called.
func (t *ViewTarget) Released() bool {
	return t.released.Load()
}

// Ensure ViewTarget implements Target.
var _ Target = (*ViewTarget)(nil)
