// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package worker runs a rendering engine on its own goroutine and hands it
// surfaces as windows come and go.
//
// A [Worker] moves through Created, Running, ExitRequested and Exited, never
// backwards. Between engine steps it drains the window event channel and,
// for every window that needs a surface, blocks in the broker until the UI
// loop publishes one. [Worker.RequestStop] may be called from any goroutine,
// any number of times; it cancels a pending broker wait and returns once the
// engine has been stopped.
//
// Every run that touched the engine ends the same way: the engine is told to
// unbind all surfaces, the surfaces it held are retired to the broker, Stop
// is called exactly once and the host orientation is restored.
package worker
