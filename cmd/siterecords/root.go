package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/observability"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool

	cfg            *common.Config
	logger         *slog.Logger
	shutdownTracer observability.ShutdownFunc
)

var rootCmd = &cobra.Command{
	Use:   "siterecords",
	Short: "File scanned contaminated-site records by site, date and document type",
	Long: `siterecords reads scanned site-record PDFs, extracts their metadata with a local
model, detects duplicate copies, files each document under <output>/<site>/<year>-<TYPE>
and keeps a CSV run log of everything it did.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if noColor {
			color.NoColor = true
		}
		logger = observability.InitLogger(os.Stdout, observability.ParseLevel(logLevel))

		var err error
		if cfg, err = common.LoadConfig(cfgFile); err != nil {
			logger.Error("config.load.failed", "error", err)
			return err
		}
		if err := cfg.Validate(); err != nil {
			logger.Error("config.invalid", "error", err)
			return err
		}
		if shutdownTracer, err = observability.InitTracer(cmd.Context(), cfg.Tracing); err != nil {
			logger.Error("tracing.init.failed", "error", err)
			return err
		}
		return nil
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if shutdownTracer == nil {
			return nil
		}
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("tracing.shutdown.failed", "error", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return fmt.Errorf("siterecords: %w", err)
	}
	return nil
}
