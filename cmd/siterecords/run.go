package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/export"
	"github.com/joseph-ayodele/site-records/internal/ingest"
	"github.com/joseph-ayodele/site-records/internal/pipeline"
)

var (
	runInputDir  string
	runOutputDir string
	runLogPath   string
	runNoExport  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "File every PDF in the input directory once",
	Long: `run processes the PDFs directly under the input directory in filename order,
appends one run-log row per document and prints the files that need manual review.
A missing registry entry stops the run; any other failure only skips that file.`,
	RunE: runBatch,
}

func init() {
	runCmd.Flags().StringVar(&runInputDir, "input", "", "input directory (defaults to config)")
	runCmd.Flags().StringVar(&runOutputDir, "output", "", "output directory (defaults to config)")
	runCmd.Flags().StringVar(&runLogPath, "log", "", "run log CSV (defaults to config)")
	runCmd.Flags().BoolVar(&runNoExport, "no-export", false, "skip writing the review workbook")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	overridePaths(runInputDir, runOutputDir, runLogPath)
	ctx, runID := common.NewRunContext(cmd.Context())
	log := logger.With("run_id", runID)

	if err := verifyInputs(cfg); err != nil {
		log.Error("run.check.failed", "error", err)
		return err
	}
	paths, err := ingest.ListPDFs(cfg.Paths.InputDir)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cfg, cfg.Paths.RunLog, cfg.Paths.OutputDir, log)
	if err != nil {
		return err
	}
	defer a.Close()

	state := pipeline.NewRunState()
	sum, runErr := pipeline.NewRunner(a.processor, os.Stderr, log).Run(ctx, state, paths)
	pipeline.PrintReview(cmd.OutOrStdout(), sum, state.Session.Flags)

	if !runNoExport && cfg.Paths.ReviewExport != "" {
		if err := writeReviewExport(a, state, log); err != nil {
			log.Warn("run.export.failed", "path", cfg.Paths.ReviewExport, "error", err)
		}
	}
	return runErr
}

func writeReviewExport(a *app, state *pipeline.RunState, log *slog.Logger) error {
	records, err := a.log.Records()
	if err != nil {
		return err
	}
	b, err := export.NewService(log).RunLogXLSX(records, state.Session.Flags)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.ReviewExport), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Paths.ReviewExport, b, 0o644); err != nil {
		return err
	}
	log.Info("run.export.ok", "path", cfg.Paths.ReviewExport, "rows", len(records))
	return nil
}

// overridePaths applies non-empty flag values on top of the loaded configuration.
func overridePaths(input, output, runLog string) {
	if input != "" {
		cfg.Paths.InputDir = input
	}
	if output != "" {
		cfg.Paths.OutputDir = output
	}
	if runLog != "" {
		cfg.Paths.RunLog = runLog
	}
}
