package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/retrace"
	"github.com/gogpu/retrace/config"
)

// settleDelay is how long a launch file must stay unchanged before it is
// run, so a file still being written is not picked up half done.
const settleDelay = 200 * time.Millisecond

func newWatchCmd() *cobra.Command {
	var ef engineFlags
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Run a session for every JSON launch file dropped into DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, args[0], func(ctx context.Context, path string) {
				launch(ctx, s, ef, path)
			})
		},
	}
	config.RegisterFlags(cmd.Flags())
	ef.register(cmd)
	return cmd
}

// launch runs the session described by the launch file at path. The file
// is a JSON configuration document; its result is written next to it
// unless the settings name a result file.
func launch(ctx context.Context, base config.Settings, ef engineFlags, path string) {
	s := base
	s.JSON = path
	if s.ResultFile == "" {
		s.ResultFile = resultPathFor(path)
	}
	log := retrace.Logger().With("launch", path)
	log.Info("watch: starting session")
	res, err := runSession(ctx, s, ef)
	if err != nil {
		log.Warn("watch: session failed", "err", err)
		return
	}
	log.Info("watch: session finished", "frames", res.Frames, "fps", res.FPS, "result", s.ResultFile)
}

// resultPathFor maps "dir/name.json" to "dir/name.result.json".
func resultPathFor(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".result.json"
}

// isLaunchFile reports whether name is a launch document rather than a
// result or a temporary file.
func isLaunchFile(name string) bool {
	base := filepath.Base(name)
	return filepath.Ext(base) == ".json" &&
		!strings.HasSuffix(base, ".result.json") &&
		!strings.HasPrefix(base, ".")
}

// watch calls run for every launch file created or rewritten in dir, one
// at a time, until ctx is done.
func watch(ctx context.Context, dir string, run func(context.Context, string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	retrace.Logger().Info("watch: waiting for launch files", "dir", dir)

	g, gctx := errgroup.WithContext(ctx)
	ready := make(chan string)

	g.Go(func() error {
		defer close(ready)
		return collect(gctx, w, ready)
	})
	g.Go(func() error {
		for path := range ready {
			run(gctx, path)
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// collect turns watcher events into settled launch file paths.
func collect(ctx context.Context, w *fsnotify.Watcher, ready chan<- string) error {
	pending := make(map[string]time.Time)
	tick := time.NewTicker(settleDelay / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					delete(pending, ev.Name)
				}
				continue
			}
			if isLaunchFile(ev.Name) {
				pending[ev.Name] = time.Now()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			retrace.Logger().Warn("watch: watcher error", "err", err)
		case now := <-tick.C:
			for path, seen := range pending {
				if now.Sub(seen) < settleDelay {
					continue
				}
				delete(pending, path)
				select {
				case ready <- path:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
