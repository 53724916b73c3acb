// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "github.com/gogpu/gputypes"

// Format is the pixel format of a surface. It is the WebGPU texture format
// shared with the rest of the gogpu stack.
type Format = gputypes.TextureFormat

// Common surface formats.
const (
	FormatUndefined = gputypes.TextureFormatUndefined
	FormatRGBA8     = gputypes.TextureFormatRGBA8Unorm
	FormatBGRA8     = gputypes.TextureFormatBGRA8Unorm
	FormatR8        = gputypes.TextureFormatR8Unorm
)

// FormatForBits picks a surface format for a requested color precision.
// Negative values mean "use the default". Precisions that no 8-bit format
// can hold fall back to FormatUndefined so the platform chooses.
func FormatForBits(red, green, blue, alpha int) Format {
	if red < 0 && green < 0 && blue < 0 && alpha < 0 {
		return FormatUndefined
	}
	for _, bits := range []int{red, green, blue, alpha} {
		if bits > 8 {
			return FormatUndefined
		}
	}
	if green <= 0 && blue <= 0 && alpha <= 0 && red > 0 {
		return FormatR8
	}
	return FormatRGBA8
}

// BytesPerPixel returns the storage size of one pixel in f, or 0 for
// formats this package does not know how to address.
func BytesPerPixel(f Format) int {
	switch f {
	case FormatRGBA8, FormatBGRA8:
		return 4
	case FormatR8:
		return 1
	default:
		return 0
	}
}
