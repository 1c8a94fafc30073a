package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/site-records/internal/checks"
	"github.com/joseph-ayodele/site-records/internal/ingest"
	"github.com/joseph-ayodele/site-records/internal/server"
)

var checkPDFs bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify configured paths, input PDFs and the audit store",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkPDFs, "pdfs", true, "validate every input PDF and count its pages")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	if err := verifyInputs(cfg); err != nil {
		fmt.Fprintf(w, "%s %v\n", bad("paths:"), err)
		return err
	}
	fmt.Fprintf(w, "%s all configured paths exist\n", ok("paths:"))

	var broken int
	if checkPDFs {
		paths, err := ingest.ListPDFs(cfg.Paths.InputDir)
		if err != nil {
			return err
		}
		for _, r := range checks.InspectPDFs(paths) {
			if r.Err != nil {
				broken++
				fmt.Fprintf(w, "%s %s: %v\n", bad("pdf:"), filepath.Base(r.Path), r.Err)
				continue
			}
			logger.Debug("check.pdf.ok", "file", filepath.Base(r.Path), "pages", r.Pages)
		}
		fmt.Fprintf(w, "%s %d files, %d unreadable\n", ok("pdfs:"), len(paths), broken)
	}

	db, err := server.ConnectDB(cmd.Context(), cfg.Database, logger)
	switch {
	case err != nil:
		fmt.Fprintf(w, "%s %v\n", bad("database:"), err)
		return err
	case db == nil:
		fmt.Fprintln(w, "database: not configured")
	default:
		db.Close(logger)
		fmt.Fprintf(w, "%s %s reachable\n", ok("database:"), db.Dialect)
	}

	if broken > 0 {
		return fmt.Errorf("%d input PDFs failed validation", broken)
	}
	return nil
}
