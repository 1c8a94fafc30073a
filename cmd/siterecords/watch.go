package main

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/site-records/internal/async"
	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/ingest"
	"github.com/joseph-ayodele/site-records/internal/pipeline"
	"github.com/joseph-ayodele/site-records/internal/server"
)

var (
	watchInputDir  string
	watchOutputDir string
	watchLogPath   string
	watchDebounce  time.Duration
	watchDrain     time.Duration
	watchNoHealth  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "File PDFs as they land in the input directory",
	Long: `watch files everything already in the input directory, then keeps filing new PDFs
once they stop changing. Files are processed one at a time. A gRPC health endpoint
reports SERVING while the watcher runs.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchInputDir, "input", "", "input directory (defaults to config)")
	watchCmd.Flags().StringVar(&watchOutputDir, "output", "", "output directory (defaults to config)")
	watchCmd.Flags().StringVar(&watchLogPath, "log", "", "run log CSV (defaults to config)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", ingest.DefaultDebounce, "quiet period before a new file is picked up")
	watchCmd.Flags().DurationVar(&watchDrain, "drain-timeout", 5*time.Minute, "how long to wait for queued files on shutdown")
	watchCmd.Flags().BoolVar(&watchNoHealth, "no-health", false, "do not start the health endpoint")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	overridePaths(watchInputDir, watchOutputDir, watchLogPath)
	ctx, runID := common.NewRunContext(cmd.Context())
	log := logger.With("run_id", runID)

	if err := verifyInputs(cfg); err != nil {
		log.Error("watch.check.failed", "error", err)
		return err
	}
	a, err := buildApp(ctx, cfg, cfg.Paths.RunLog, cfg.Paths.OutputDir, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	state := pipeline.NewRunState()
	sum := pipeline.NewSummary()
	queue := async.NewProcessorQueue(
		func(jctx context.Context, job async.Job) error {
			out, err := a.processor.ProcessFile(common.WithFilename(jctx, filepath.Base(job.Path)), state, job.Path)
			sum.Count(filepath.Base(job.Path), out, err)
			return err
		},
		log,
		async.WithErrorHandler(func(job async.Job, err error) {
			if common.IsFatal(err) {
				log.Error("watch.fatal", "file", filepath.Base(job.Path), "error", err)
				cancel(err)
			}
		}),
	)

	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:        cfg.Paths.InputDir,
		InitialScan: true,
		Debounce:    watchDebounce,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	var health *server.HealthServer
	if !watchNoHealth && cfg.Server.HealthAddr != "" {
		health = server.NewHealthServer(cfg.Server.HealthAddr, log)
	}

	g, gctx := errgroup.WithContext(ctx)
	if health != nil {
		g.Go(func() error { return health.Serve(gctx) })
		health.SetServing(true)
	}
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case path, ok := <-events:
				if !ok {
					return nil
				}
				err := queue.Enqueue(gctx, async.Job{Path: path, SubmittedAt: time.Now()})
				if err != nil && !errors.Is(err, async.ErrClosed) && !errors.Is(err, context.Canceled) {
					return err
				}
			case err, ok := <-watchErrs:
				if !ok {
					watchErrs = nil
					continue
				}
				log.Warn("watch.error", "error", err)
			}
		}
	})
	log.Info("watch.started", "input", cfg.Paths.InputDir, "output", cfg.Paths.OutputDir)

	waitErr := g.Wait()
	if health != nil {
		health.SetServing(false)
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), watchDrain)
	defer drainCancel()
	queue.Shutdown(drainCtx)

	pipeline.PrintReview(cmd.OutOrStdout(), sum, state.Session.Flags)
	log.Info("watch.stopped", "processed", sum.Processed, "failed", sum.Failed)

	if cause := context.Cause(ctx); cause != nil && common.IsFatal(cause) {
		return cause
	}
	return waitErr
}
