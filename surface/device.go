// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceProvider gives the controller access to the host's GPU context.
// The controller only uses SurfaceFormat, to pick a pixel format when the
// worker did not ask for one.
type DeviceProvider = gpucontext.DeviceProvider

// HeadlessDevice is a DeviceProvider without a GPU. It reports a fixed
// preferred surface format.
type HeadlessDevice struct {
	// Preferred is the format returned by SurfaceFormat.
	// FormatUndefined selects FormatRGBA8.
	Preferred Format
}

// Device returns nil for the headless device.
func (HeadlessDevice) Device() gpucontext.Device { return nil }

// Queue returns nil for the headless device.
func (HeadlessDevice) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the headless device.
func (HeadlessDevice) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo reports a software adapter.
func (HeadlessDevice) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "headless", Type: gpucontext.AdapterTypeSoftware}
}

// SurfaceFormat returns the preferred format.
func (d HeadlessDevice) SurfaceFormat() gputypes.TextureFormat {
	if d.Preferred == FormatUndefined {
		return FormatRGBA8
	}
	return d.Preferred
}

// Ensure HeadlessDevice implements DeviceProvider.
var _ DeviceProvider = HeadlessDevice{}

// PreferredFormat returns requested if it is defined, otherwise the
// provider's surface format, otherwise FormatRGBA8.
func PreferredFormat(requested Format, p DeviceProvider) Format {
	if requested != FormatUndefined {
		return requested
	}
	if p != nil {
		if f := p.SurfaceFormat(); f != FormatUndefined {
			return f
		}
	}
	return FormatRGBA8
}
