package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/export"
	"github.com/joseph-ayodele/site-records/internal/repository"
	"github.com/joseph-ayodele/site-records/internal/runlog"
	"github.com/joseph-ayodele/site-records/internal/server"
)

var (
	exportOut     string
	exportLogPath string
	exportFromDB  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the run log and review list as an XLSX workbook",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "workbook path (defaults to the configured review export)")
	exportCmd.Flags().StringVar(&exportLogPath, "log", "", "run log CSV (defaults to config)")
	exportCmd.Flags().BoolVar(&exportFromDB, "from-db", false, "read rows from the audit store instead of the CSV")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	overridePaths("", "", exportLogPath)
	out := exportOut
	if out == "" {
		out = cfg.Paths.ReviewExport
	}
	if out == "" {
		return common.NewAppError("INVALID_INPUT", "no output path; pass --out", nil)
	}

	var (
		records []runlog.Record
		err     error
	)
	if exportFromDB {
		records, err = recordsFromDB(cmd.Context())
	} else {
		records, err = runlog.ReadFile(cfg.Paths.RunLog)
	}
	if err != nil {
		return err
	}

	b, err := export.NewService(logger).RunLogXLSX(records, nil)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return err
	}
	logger.Info("export.written", "path", out, "rows", len(records))
	return nil
}

func recordsFromDB(ctx context.Context) ([]runlog.Record, error) {
	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, errors.New("--from-db needs database.dsn in the config")
	}
	defer db.Close(logger)

	docs, err := repository.NewDocumentRepository(db, logger).List(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]runlog.Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.Record)
	}
	return records, nil
}
