// Package export renders the run log and the review list as an XLSX workbook.
package export

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/runlog"
)

const (
	RunLogSheet = "Run Log"
	ReviewSheet = "Review"
)

// ReviewSource lists the flagged files and their fields.
type ReviewSource interface {
	Filenames() []string
	Fields(filename string) []string
}

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// RunLogXLSX returns a workbook (as bytes) with every run-log column on one sheet and the
// review list on another. With a nil review the list is derived from the records.
func (s *Service) RunLogXLSX(records []runlog.Record, review ReviewSource) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", RunLogSheet); err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		cells := r.Row()
		row := make([]any, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		row[10] = r.SimilarityScore
		rows = append(rows, row)
	}
	if err := writeSheet(f, RunLogSheet, runlog.Headers, rows); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(RunLogSheet, "A", "B", 36) // filenames
	_ = f.SetColWidth(RunLogSheet, "E", "H", 32) // title, parties, address
	_ = f.SetColWidth(RunLogSheet, "L", "M", 36) // duplicate links
	_ = f.SetColWidth(RunLogSheet, "O", "O", 60) // path

	var flagged [][]any
	if review == nil {
		flagged = derivedReview(records)
	} else {
		for _, name := range review.Filenames() {
			flagged = append(flagged, []any{name, strings.Join(review.Fields(name), ", ")})
		}
	}
	if _, err := f.NewSheet(ReviewSheet); err != nil {
		return nil, err
	}
	if err := writeSheet(f, ReviewSheet, []string{"Original_Filename", "Flagged_Fields"}, flagged); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(ReviewSheet, "A", "A", 40)
	_ = f.SetColWidth(ReviewSheet, "B", "B", 40)

	activeIndex, _ := f.GetSheetIndex(RunLogSheet)
	f.SetActiveSheet(activeIndex)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(records),
		"flagged", len(flagged),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// TableXLSX returns a single-sheet workbook.
func (s *Service) TableXLSX(sheet string, headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := writeSheet(f, sheet, headers, rows); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.table.ok", "sheet", sheet, "rows", len(rows))
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// derivedReview rebuilds what can be told from the log alone: unreadable scans
// and unresolved site IDs.
func derivedReview(records []runlog.Record) [][]any {
	byName := map[string][]string{}
	for _, r := range records {
		var fields []string
		if constants.ParseReadable(r.Readable) != constants.ReadableYes {
			fields = append(fields, constants.ReviewUnreadable)
		}
		if r.SiteID == constants.UnknownSiteDir || constants.IsNone(r.SiteID) {
			fields = append(fields, constants.ReviewSiteID)
		}
		if len(fields) > 0 {
			byName[r.OriginalFilename] = fields
		}
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([][]any, 0, len(names))
	for _, n := range names {
		out = append(out, []any{n, strings.Join(byName[n], ", ")})
	}
	return out
}
