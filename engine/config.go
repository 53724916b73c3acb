// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"fmt"
	"path/filepath"

	"github.com/gogpu/retrace/surface"
)

// Unset marks an integer Config field the engine should take from the trace
// header or its own defaults.
const Unset = -1

// Config is the JSON record an engine is initialized from.
//
// Integer fields use Unset (-1) for "not specified", matching what launchers
// write when an option is absent.
type Config struct {
	// File is the trace file. A relative path is resolved against TraceDir.
	File string `json:"file"`

	// Frames is the measured frame range, "start-end". The end frame is
	// never played.
	Frames string `json:"frames,omitempty"`

	Width    int `json:"width"`
	Height   int `json:"height"`
	ThreadID int `json:"threadId"`

	OverrideResolution bool `json:"overrideResolution,omitempty"`
	OverrideWidth      int  `json:"overrideWidth"`
	OverrideHeight     int  `json:"overrideHeight"`

	ColorBitsRed   int `json:"colorBitsRed"`
	ColorBitsGreen int `json:"colorBitsGreen"`
	ColorBitsBlue  int `json:"colorBitsBlue"`
	ColorBitsAlpha int `json:"colorBitsAlpha"`
	DepthBits      int `json:"depthBits"`
	StencilBits    int `json:"stencilBits"`
	MSAASamples    int `json:"msaaSamples"`

	Multithread         bool `json:"multithread,omitempty"`
	ForceSingleWindow   bool `json:"forceSingleWindow,omitempty"`
	Offscreen           bool `json:"offscreen,omitempty"`
	OffscreenSingleTile bool `json:"offscreenSingleTile,omitempty"`
	Preload             bool `json:"preload,omitempty"`
	MeasurePerFrame     bool `json:"measurePerFrame,omitempty"`
	CallStats           bool `json:"callStats,omitempty"`
	StateLog            bool `json:"statelog,omitempty"`
	DrawLog             bool `json:"drawlog,omitempty"`
	Debug               bool `json:"debug,omitempty"`

	Instrumentation []string `json:"instrumentation,omitempty"`

	// SnapshotPrefix is the path prefix of snapshot images. Snapshots are
	// taken for every frame in SnapshotCallset.
	SnapshotPrefix  string `json:"snapshotPrefix,omitempty"`
	SnapshotCallset string `json:"snapshotCallset,omitempty"`

	CPUMask string `json:"cpumask,omitempty"`

	RemoveUnusedVertexAttributes bool `json:"removeUnusedVertexAttributes,omitempty"`
	StoreProgramInformation      bool `json:"storeProgramInformation,omitempty"`

	// TraceDir is the directory relative File paths are resolved against.
	TraceDir string `json:"-"`

	// ResultFile is where the launcher wants the result written.
	ResultFile string `json:"-"`
}

// DefaultConfig returns a Config with every integer option Unset.
func DefaultConfig() Config {
	return Config{
		Width:          Unset,
		Height:         Unset,
		ThreadID:       Unset,
		OverrideWidth:  Unset,
		OverrideHeight: Unset,
		ColorBitsRed:   Unset,
		ColorBitsGreen: Unset,
		ColorBitsBlue:  Unset,
		ColorBitsAlpha: Unset,
		DepthBits:      Unset,
		StencilBits:    Unset,
		MSAASamples:    Unset,
	}
}

// Validate checks the configuration. Errors wrap ErrConfig.
func (c Config) Validate() error {
	if c.File == "" {
		return fmt.Errorf("%w: no trace file", ErrConfig)
	}
	if c.Frames != "" {
		if _, err := ParseFrameRange(c.Frames); err != nil {
			return err
		}
	}
	if (c.Width > 0) != (c.Height > 0) {
		return fmt.Errorf("%w: window size %dx%d", ErrConfig, c.Width, c.Height)
	}
	if c.OverrideResolution && (c.OverrideWidth <= 0 || c.OverrideHeight <= 0) {
		return fmt.Errorf("%w: override resolution %dx%d", ErrConfig, c.OverrideWidth, c.OverrideHeight)
	}
	for _, bits := range []int{c.ColorBitsRed, c.ColorBitsGreen, c.ColorBitsBlue, c.ColorBitsAlpha, c.DepthBits, c.StencilBits} {
		if bits < Unset || bits > 32 {
			return fmt.Errorf("%w: bit depth %d", ErrConfig, bits)
		}
	}
	switch c.MSAASamples {
	case Unset, 0, 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("%w: msaa samples %d", ErrConfig, c.MSAASamples)
	}
	if c.SnapshotCallset != "" {
		if _, err := ParseFrameSet(c.SnapshotCallset); err != nil {
			return err
		}
	}
	return nil
}

// TracePath returns File resolved against TraceDir.
func (c Config) TracePath() string {
	if c.File == "" || filepath.IsAbs(c.File) || c.TraceDir == "" {
		return c.File
	}
	return filepath.Join(c.TraceDir, c.File)
}

// FrameRange returns the parsed Frames field, or the unbounded range when
// Frames is empty.
func (c Config) FrameRange() (FrameRange, error) {
	if c.Frames == "" {
		return FrameRange{Start: 0, End: MaxFrame}, nil
	}
	return ParseFrameRange(c.Frames)
}

// RenderSize returns the resolution the engine renders at: the override
// resolution when enabled, otherwise the window size. ok is false when
// neither is specified.
func (c Config) RenderSize() (width, height int, ok bool) {
	if c.OverrideResolution && c.OverrideWidth > 0 && c.OverrideHeight > 0 {
		return c.OverrideWidth, c.OverrideHeight, true
	}
	if c.Width > 0 && c.Height > 0 {
		return c.Width, c.Height, true
	}
	return 0, 0, false
}

// ColorFormat returns the surface format matching the requested color bits.
func (c Config) ColorFormat() surface.Format {
	return surface.FormatForBits(c.ColorBitsRed, c.ColorBitsGreen, c.ColorBitsBlue, c.ColorBitsAlpha)
}
