package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/retrace"
	"github.com/gogpu/retrace/config"
	"github.com/gogpu/retrace/engine"
	_ "github.com/gogpu/retrace/engine/softengine"
	"github.com/gogpu/retrace/host"
)

type engineFlags struct {
	name     string
	args     map[string]string
	progress time.Duration
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "engine", "", "engine to drive, empty for the best available")
	cmd.Flags().StringToStringVar(&f.args, "engine-arg", nil, "engine parameter as key=value, repeatable")
	cmd.Flags().DurationVar(&f.progress, "progress", 0, "log worker progress at this interval, 0 to disable")
}

func newRunCmd() *cobra.Command {
	var ef engineFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one session and write its result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := runSession(ctx, s, ef)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames in %.3fs (%.2f fps)\n",
				res.File, res.Frames, res.Elapsed.Seconds(), res.FPS)
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())
	ef.register(cmd)
	return cmd
}

// runSession runs one session while a second goroutine reports progress.
func runSession(ctx context.Context, s config.Settings, ef engineFlags) (engine.Result, error) {
	store, err := openStore(ctx, s)
	if err != nil {
		return engine.Result{}, err
	}
	defer store.Close()

	eng, err := engine.New(ef.name, ef.args)
	if err != nil {
		return engine.Result{}, err
	}
	sess, err := host.NewSession(s, eng, host.WithStore(store))
	if err != nil {
		return engine.Result{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	finished := make(chan struct{})
	var res engine.Result
	g.Go(func() error {
		defer close(finished)
		var err error
		res, err = sess.Run(gctx)
		return err
	})
	if ef.progress > 0 {
		g.Go(func() error {
			reportProgress(sess, ef.progress, finished)
			return nil
		})
	}
	return res, g.Wait()
}

func reportProgress(sess *host.Session, every time.Duration, finished <-chan struct{}) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-finished:
			return
		case <-t.C:
			st := sess.Worker().Stats()
			retrace.Logger().Info("progress",
				"session", sess.ID(),
				"state", sess.Worker().State(),
				"steps", st.Steps,
				"stepErrors", st.StepErrors,
				"surfaceChanges", st.SurfaceChanges)
		}
	}
}
