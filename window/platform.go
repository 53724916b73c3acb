// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import "github.com/gogpu/retrace/surface"

// SurfaceSpec describes the platform surface the controller wants.
type SurfaceSpec struct {
	Window surface.WindowID
	Width  int
	Height int
	Format surface.Format
	Kind   surface.Kind
	Alpha  float32

	// Seq is the lifecycle event the surface answers.
	Seq uint64
}

// Platform is the windowing system boundary.
//
// All methods are called on the UI loop. CreateSurface must not block: the
// platform calls ready on the UI loop once the surface actually exists. A
// platform may call ready with a target whose size differs from the requested one;
// the published handle always carries the target's real size.
type Platform interface {
	// CreateSurface creates, or recreates at a new size, the surface for
	// spec.Window.
	CreateSurface(spec SurfaceSpec, ready func(surface.Target))

	// ReleaseSurface frees a surface the platform created.
	ReleaseSurface(t surface.Target)

	// DeviceProvider returns the host GPU context, used to pick a surface
	// format. It may return nil.
	DeviceProvider() surface.DeviceProvider
}
