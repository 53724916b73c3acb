// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// DefaultResultFile is where results go when the launcher names no file.
const DefaultResultFile = "/data/apitrace/result_file.txt"

// ConfigSource produces the configuration for one run.
type ConfigSource interface {
	Config() (Config, error)
}

// JSONSource builds a Config from a JSON document.
//
// Data is either the document itself or, when it starts with '/' or a
// letter, the path of a file holding it.
type JSONSource struct {
	Data string

	// TraceDir resolves a relative "file" entry.
	TraceDir string

	// ResultFile is copied into the Config. Empty selects DefaultResultFile.
	ResultFile string
}

// Config parses and validates the document.
func (s JSONSource) Config() (Config, error) {
	text := strings.TrimLeftFunc(s.Data, unicode.IsSpace)
	if text == "" {
		return Config{}, fmt.Errorf("%w: empty JSON data", ErrConfig)
	}

	data := []byte(text)
	if r := rune(text[0]); r == '/' || unicode.IsLetter(r) {
		b, err := os.ReadFile(text)
		if err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %w", ErrConfig, text, err)
		}
		data = b
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	cfg.TraceDir = s.TraceDir
	cfg.ResultFile = resultFileOrDefault(s.ResultFile)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LaunchOptions are the individual options a launcher passes when it does
// not supply a JSON document.
type LaunchOptions struct {
	FileName string `mapstructure:"file"`
	TraceDir string `mapstructure:"trace_dir"`
	ThreadID int    `mapstructure:"tid"`

	Width          int `mapstructure:"width"`
	Height         int `mapstructure:"height"`
	OverrideWidth  int `mapstructure:"override_width"`
	OverrideHeight int `mapstructure:"override_height"`

	FrameStart int `mapstructure:"frame_start"`
	FrameEnd   int `mapstructure:"frame_end"`

	// Callset and CallsetPrefix are the short forms of SnapshotCallset and
	// SnapshotPrefix. The long forms win when both are given.
	Callset         string `mapstructure:"callset"`
	CallsetPrefix   string `mapstructure:"callset_prefix"`
	SnapshotPrefix  string `mapstructure:"snapshot_prefix"`
	SnapshotCallset string `mapstructure:"snapshot_callset"`

	CallStats bool   `mapstructure:"callstats"`
	StateLog  bool   `mapstructure:"statelog"`
	DrawLog   bool   `mapstructure:"drawlog"`
	CPUMask   string `mapstructure:"cpumask"`

	Multithread         bool `mapstructure:"multithread"`
	ForceSingleWindow   bool `mapstructure:"force_single_window"`
	Preload             bool `mapstructure:"preload"`
	ForceOffscreen      bool `mapstructure:"offscreen"`
	OffscreenSingleTile bool `mapstructure:"offscreen_single_tile"`
	MeasurePerFrame     bool `mapstructure:"measure_per_frame"`

	ColorBitsRed   int `mapstructure:"color_bits_red"`
	ColorBitsGreen int `mapstructure:"color_bits_green"`
	ColorBitsBlue  int `mapstructure:"color_bits_blue"`
	ColorBitsAlpha int `mapstructure:"color_bits_alpha"`
	DepthBits      int `mapstructure:"depth_bits"`
	StencilBits    int `mapstructure:"stencil_bits"`

	Antialiasing  bool `mapstructure:"antialiasing"`
	Use24BitColor bool `mapstructure:"use_24bit_color"`
	UseAlpha      bool `mapstructure:"use_alpha"`
	Use24BitDepth bool `mapstructure:"use_24bit_depth"`

	RemoveUnusedAttributes bool `mapstructure:"remove_unused_attributes"`
	StoreProgramInfo       bool `mapstructure:"store_program_info"`
	Debug                  bool `mapstructure:"debug"`

	ResultFile string `mapstructure:"result_file"`
}

// DefaultLaunchOptions returns the options a launcher gets when it passes
// nothing: every size and bit depth Unset, frames 1 to MaxFrame.
func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		ThreadID:       Unset,
		Width:          Unset,
		Height:         Unset,
		OverrideWidth:  Unset,
		OverrideHeight: Unset,
		FrameStart:     1,
		FrameEnd:       MaxFrame,
		ColorBitsRed:   Unset,
		ColorBitsGreen: Unset,
		ColorBitsBlue:  Unset,
		ColorBitsAlpha: Unset,
		DepthBits:      Unset,
		StencilBits:    Unset,
	}
}

// LaunchSource builds a Config from LaunchOptions.
type LaunchSource struct {
	Options LaunchOptions
}

// Config translates the options and validates the result.
func (s LaunchSource) Config() (Config, error) {
	o := s.Options
	cfg := DefaultConfig()

	cfg.File = o.FileName
	cfg.TraceDir = o.TraceDir
	cfg.ResultFile = resultFileOrDefault(o.ResultFile)
	cfg.ThreadID = o.ThreadID
	cfg.Width = o.Width
	cfg.Height = o.Height
	cfg.OverrideWidth = o.OverrideWidth
	cfg.OverrideHeight = o.OverrideHeight
	cfg.OverrideResolution = o.OverrideWidth > 0 && o.OverrideHeight > 0
	cfg.Frames = fmt.Sprintf("%d-%d", o.FrameStart, o.FrameEnd)

	cfg.SnapshotCallset = o.Callset
	cfg.SnapshotPrefix = o.CallsetPrefix
	if o.SnapshotPrefix != "" {
		cfg.SnapshotPrefix = o.SnapshotPrefix
	}
	if o.SnapshotCallset != "" {
		cfg.SnapshotCallset = o.SnapshotCallset
	}

	cfg.CallStats = o.CallStats
	cfg.StateLog = o.StateLog
	cfg.DrawLog = o.DrawLog
	cfg.CPUMask = o.CPUMask
	cfg.Multithread = o.Multithread
	cfg.ForceSingleWindow = o.ForceSingleWindow
	cfg.Preload = o.Preload
	cfg.Offscreen = o.ForceOffscreen
	cfg.OffscreenSingleTile = o.OffscreenSingleTile
	cfg.MeasurePerFrame = o.MeasurePerFrame

	cfg.ColorBitsRed = o.ColorBitsRed
	cfg.ColorBitsGreen = o.ColorBitsGreen
	cfg.ColorBitsBlue = o.ColorBitsBlue
	cfg.ColorBitsAlpha = o.ColorBitsAlpha
	cfg.DepthBits = o.DepthBits
	cfg.StencilBits = o.StencilBits
	if o.Antialiasing {
		cfg.MSAASamples = 4
	}
	if o.Use24BitColor {
		cfg.ColorBitsRed, cfg.ColorBitsGreen, cfg.ColorBitsBlue = 8, 8, 8
	}
	if o.UseAlpha {
		cfg.ColorBitsAlpha = 8
	}
	if o.Use24BitDepth {
		cfg.DepthBits = 24
	}

	cfg.RemoveUnusedVertexAttributes = o.RemoveUnusedAttributes
	cfg.StoreProgramInformation = o.StoreProgramInfo
	if o.Debug {
		// The debug collector only runs with per-frame measurement.
		cfg.Debug = true
		cfg.MeasurePerFrame = true
		cfg.Instrumentation = []string{"debug"}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// StaticSource returns a fixed Config after validating it.
type StaticSource Config

// Config validates and returns the wrapped Config.
func (s StaticSource) Config() (Config, error) {
	cfg := Config(s)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resultFileOrDefault(path string) string {
	if path == "" {
		return DefaultResultFile
	}
	return path
}
