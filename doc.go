// Package retrace hosts a frame-stepping rendering engine on a dedicated
// worker goroutine and hands it rendering surfaces owned by a UI goroutine.
//
// # Overview
//
// A retrace session has exactly two long-lived goroutines:
//
//   - the UI loop, which owns every platform surface and runs the
//     [github.com/gogpu/retrace/window.Controller];
//   - the worker, which owns the engine and runs the
//     [github.com/gogpu/retrace/worker.Worker] step loop.
//
// They meet in a [github.com/gogpu/retrace/broker.Broker]: the worker
// blocks in RequestAndWait until the controller publishes a surface for the
// window it asked for, or the window is invalidated, or the worker is told to
// stop. Lifecycle events travel from the controller to the worker through a
// FIFO [github.com/gogpu/retrace/window.Channel] that the worker drains
// between steps.
//
// # Quick Start
//
//	settings := config.Default()
//	settings.Launch.File = "/data/traces/game.pat"
//
//	s, err := host.NewSession(settings, softengine.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := s.Run(ctx)
//
// # Logging
//
// retrace is silent by default. Call [SetLogger] to route lifecycle and
// diagnostic messages to a [log/slog.Logger].
//
// # Packages
//
//   - surface: handle, window id, render target kinds and pixel formats
//   - broker: the surface handoff monitor
//   - window: event channel, UI loop, controller and platform boundary
//   - engine: engine facade, configuration payload and results
//   - engine/softengine: a software reference engine built on gogpu/gg
//   - worker: the worker state machine and step loop
//   - results: result file and SQLite session log
//   - config: launch settings
//   - host: session assembly
package retrace

// Version information
const (
	// Version is the current version of the module
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
