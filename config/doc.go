// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads retrace launch settings.
//
// Settings come from, in increasing precedence: built-in defaults, a YAML,
// JSON or TOML file, RETRACE_ environment variables and command-line flags.
// Nested keys map to environment variables by replacing dots with
// underscores, so launch.width is RETRACE_LAUNCH_WIDTH.
package config
