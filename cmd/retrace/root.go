package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/gogpu/retrace"
	"github.com/gogpu/retrace/config"
	"github.com/gogpu/retrace/results"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "retrace",
		Short:         "Replay traces with a managed surface lifecycle",
		Version:       retrace.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default ./retrace.yaml if present)")

	root.AddCommand(newRunCmd(), newWatchCmd())
	return root
}

// loadSettings reads the settings and installs the logger they ask for.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	s, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return config.Settings{}, err
	}
	level, err := config.ParseLevel(s.LogLevel)
	if err != nil {
		return config.Settings{}, err
	}
	retrace.SetLogger(newLogger(cmd.ErrOrStderr(), level))
	return s, nil
}

// newLogger writes text to a terminal and JSON lines to anything else.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isTerminal(w) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// openStore returns the stores the settings name. The result file is
// always written; the SQLite log only when ResultDB is set.
func openStore(ctx context.Context, s config.Settings) (results.Store, error) {
	file := results.NewFileStore(s.ResultFile)
	if s.ResultDB == "" {
		return file, nil
	}
	db, err := results.OpenSQLite(ctx, s.ResultDB)
	if err != nil {
		return nil, fmt.Errorf("open result database: %w", err)
	}
	return results.Multi(file, db), nil
}
