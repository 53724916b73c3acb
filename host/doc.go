// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package host assembles a retrace session: the UI loop, the surface
// broker, the window controller and platform, and the worker driving an
// engine.
//
// A Session owns two long-lived goroutines, the UI loop and the worker.
// Run opens the configured windows, starts the worker and waits for the
// engine to finish or the context to be cancelled, then shuts down in a
// fixed order:
//
//  1. the worker is stopped and joined;
//  2. the controller releases every platform surface on the UI loop;
//  3. the broker is closed;
//  4. the UI loop quits.
//
// The result is then handed to the configured results.Store.
package host
