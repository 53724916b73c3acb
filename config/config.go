// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gogpu/retrace/engine"
)

// ErrInvalid is returned for settings that fail validation.
var ErrInvalid = errors.New("config: invalid settings")

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "RETRACE"

// Settings is everything a session needs besides the engine.
type Settings struct {
	// Launch holds the launcher options used when JSON is empty.
	Launch engine.LaunchOptions `mapstructure:"launch"`

	// JSON is an inline configuration document, or the path of one. When
	// set it replaces Launch.
	JSON string `mapstructure:"json"`

	// ResultFile is where the result document is written. Empty selects
	// engine.DefaultResultFile.
	ResultFile string `mapstructure:"result_file"`

	// ResultDB is an optional SQLite database every session is appended to.
	ResultDB string `mapstructure:"result_db"`

	// Windows is the number of windows opened at start.
	Windows      int `mapstructure:"windows"`
	WindowWidth  int `mapstructure:"window_width"`
	WindowHeight int `mapstructure:"window_height"`

	// SingleWindow selects plain view surfaces.
	SingleWindow bool `mapstructure:"single_window"`

	// Overlay selects overlay surfaces; Transparent is their opacity in
	// percent.
	Overlay     bool `mapstructure:"overlay"`
	Transparent int  `mapstructure:"transparent"`

	// RequestTimeout bounds how long the worker waits for a surface. Zero
	// waits until the window is gone or the session stops.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	LogLevel string `mapstructure:"log_level"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Launch:       engine.DefaultLaunchOptions(),
		Windows:      1,
		WindowWidth:  1280,
		WindowHeight: 720,
		SingleWindow: true,
		Transparent:  100,
		LogLevel:     "info",
	}
}

// Validate checks the settings that the engine configuration does not
// cover.
func (s Settings) Validate() error {
	switch {
	case s.Windows < 1:
		return fmt.Errorf("%w: windows %d < 1", ErrInvalid, s.Windows)
	case s.WindowWidth <= 0 || s.WindowHeight <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, s.WindowWidth, s.WindowHeight)
	case s.Transparent < 0 || s.Transparent > 100:
		return fmt.Errorf("%w: transparent %d not in [0, 100]", ErrInvalid, s.Transparent)
	case s.RequestTimeout < 0:
		return fmt.Errorf("%w: negative request timeout", ErrInvalid)
	}
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// Source returns the engine configuration source the settings describe.
func (s Settings) Source() engine.ConfigSource {
	if s.JSON != "" {
		return engine.JSONSource{
			Data:       s.JSON,
			TraceDir:   s.Launch.TraceDir,
			ResultFile: s.ResultFile,
		}
	}
	o := s.Launch
	if o.ResultFile == "" {
		o.ResultFile = s.ResultFile
	}
	return engine.LaunchSource{Options: o}
}

// ParseLevel parses a slog level name such as "debug" or "warn+2".
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, name)
	}
	return l, nil
}

// flagKeys maps flag names to setting keys.
var flagKeys = map[string]string{
	"json":              "json",
	"file":              "launch.file",
	"trace-dir":         "launch.trace_dir",
	"frame-start":       "launch.frame_start",
	"frame-end":         "launch.frame_end",
	"width":             "launch.width",
	"height":            "launch.height",
	"offscreen":         "launch.offscreen",
	"preload":           "launch.preload",
	"measure-per-frame": "launch.measure_per_frame",
	"snapshot-callset":  "launch.snapshot_callset",
	"snapshot-prefix":   "launch.snapshot_prefix",
	"result-file":       "result_file",
	"result-db":         "result_db",
	"windows":           "windows",
	"window-width":      "window_width",
	"window-height":     "window_height",
	"single-window":     "single_window",
	"overlay":           "overlay",
	"transparent":       "transparent",
	"request-timeout":   "request_timeout",
	"log-level":         "log_level",
}

// RegisterFlags defines the settings flags on fs with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("json", "", "inline JSON configuration, or the path of a JSON file")
	fs.String("file", "", "trace file to replay")
	fs.String("trace-dir", "", "directory relative trace paths are resolved against")
	fs.Int("frame-start", d.Launch.FrameStart, "first measured frame")
	fs.Int("frame-end", d.Launch.FrameEnd, "frame to stop before")
	fs.Int("width", d.Launch.Width, "trace window width, -1 for the trace header")
	fs.Int("height", d.Launch.Height, "trace window height, -1 for the trace header")
	fs.Bool("offscreen", false, "render offscreen only")
	fs.Bool("preload", false, "load the frame range before replaying")
	fs.Bool("measure-per-frame", false, "record the duration of every frame")
	fs.String("snapshot-callset", "", "frames to snapshot, for example 1-5,9")
	fs.String("snapshot-prefix", "", "path prefix of snapshot files")
	fs.String("result-file", "", "result document path")
	fs.String("result-db", "", "SQLite database to append sessions to")
	fs.Int("windows", d.Windows, "number of windows to open")
	fs.Int("window-width", d.WindowWidth, "width of opened windows")
	fs.Int("window-height", d.WindowHeight, "height of opened windows")
	fs.Bool("single-window", d.SingleWindow, "use plain view surfaces")
	fs.Bool("overlay", false, "use overlay surfaces")
	fs.Int("transparent", d.Transparent, "overlay opacity in percent")
	fs.Duration("request-timeout", 0, "give up on a surface after this long")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn or error")
}

// Load reads the settings. path names a config file; when empty a file
// named retrace.{yaml,json,toml} in the working directory is used if
// present. flags may be nil; flags that were defined with RegisterFlags and
// set on the command line take precedence over everything else.
func Load(path string, flags *pflag.FlagSet) (Settings, error) {
	v := viper.New()
	setDefaults(v, "", reflect.ValueOf(Default()))

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("retrace")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Settings{}, fmt.Errorf("config: bind %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("config: read: %w", err)
		}
	}

	s := Default()
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// setDefaults registers every mapstructure-tagged field of val under
// prefix, so environment variables reach keys no file mentions.
func setDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	t := val.Type()
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + tag
		if f := val.Field(i); f.Kind() == reflect.Struct {
			setDefaults(v, key+".", f)
			continue
		}
		v.SetDefault(key, val.Field(i).Interface())
	}
}
