package retrace

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine,
// including the worker goroutine in the middle of a step.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for retrace and all its sub-packages.
// By default, retrace produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior.
//
// Log levels used by retrace:
//   - [slog.LevelDebug]: per-step diagnostics (swallowed step errors, broker rechecks)
//   - [slog.LevelInfo]: lifecycle events (worker start/stop, window create/destroy)
//   - [slog.LevelWarn]: non-fatal issues (stop failures, abandoned surface requests)
//
// Example:
//
//	retrace.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by retrace.
// Sub-packages call this to share the same logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// LoggerSetter is implemented by engines that accept a logger. The worker
// hands the current logger to such engines before calling Init.
type LoggerSetter interface {
	SetLogger(*slog.Logger)
}

// PropagateLogger passes the current logger to v if it implements
// LoggerSetter. It reports whether v accepted the logger.
func PropagateLogger(v any) bool {
	ls, ok := v.(LoggerSetter)
	if ok {
		ls.SetLogger(Logger())
	}
	return ok
}
