package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/site-records/internal/evaluate"
	"github.com/joseph-ayodele/site-records/internal/export"
	"github.com/joseph-ayodele/site-records/internal/lookup"
	"github.com/joseph-ayodele/site-records/internal/runlog"
)

var (
	evalLogPath  string
	evalGoldPath string
	evalXLSX     string
	evalRunFirst bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the run log against the annotated metadata",
	Long: `evaluate joins the run log with the hand-annotated metadata on the original filename
and prints ROUGE-1 recall for title, sender and receiver, site ID accuracy and the
F1 of the duplicate and releasable labels.`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evalLogPath, "log", "", "run log CSV (defaults to config)")
	evaluateCmd.Flags().StringVar(&evalGoldPath, "gold", "", "annotated metadata CSV (defaults to config)")
	evaluateCmd.Flags().StringVar(&evalXLSX, "xlsx", "", "also write the metrics to this workbook")
	evaluateCmd.Flags().BoolVar(&evalRunFirst, "run", false, "process the input directory before scoring")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	overridePaths("", "", evalLogPath)
	if evalGoldPath != "" {
		cfg.Paths.GoldMetadata = evalGoldPath
	}
	if evalRunFirst {
		if err := runBatch(cmd, args); err != nil {
			return err
		}
	}

	gold, err := lookup.LoadGoldMetadata(cfg.Paths.GoldMetadata, logger)
	if err != nil {
		return err
	}
	pred, err := runlog.ReadFile(cfg.Paths.RunLog)
	if err != nil {
		return err
	}

	m := evaluate.Evaluate(pred, gold)
	m.Print(cmd.OutOrStdout())
	logger.Info("evaluate.ok", "matched", m.Matched, "gold_only", len(m.GoldOnly), "pred_only", len(m.PredOnly))

	if evalXLSX == "" {
		return nil
	}
	b, err := export.NewService(logger).TableXLSX("Metrics", []string{"Metric", "Value"}, m.Rows())
	if err != nil {
		return err
	}
	return os.WriteFile(evalXLSX, b, 0o644)
}
