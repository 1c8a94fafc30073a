// Package lookup loads the spreadsheet-backed tables the pipeline consults.
package lookup

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// TableOptions controls how a sheet is read.
type TableOptions struct {
	HeaderRow int    // zero-based row holding the column names
	Latin1    bool   // decode CSV bytes as ISO-8859-1
	Sheet     string // xlsx only; empty means the first sheet
}

// Row maps trimmed header names to cell values.
type Row map[string]string

// Get returns the first non-empty value among names, matching headers case-insensitively.
func (r Row) Get(names ...string) string {
	for _, n := range names {
		if v, ok := r[n]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		for k, v := range r {
			if strings.EqualFold(k, n) && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

type Table struct {
	Headers []string
	Rows    []Row
}

// LoadTable reads a .csv or .xlsx file into rows keyed by header.
func LoadTable(path string, opts TableOptions) (*Table, error) {
	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSV(path, opts.Latin1)
	case ".xlsx", ".xlsm":
		records, err = readXLSX(path, opts.Sheet)
	default:
		return nil, fmt.Errorf("unsupported table format: %s", path)
	}
	if err != nil {
		return nil, err
	}
	return buildTable(records, opts.HeaderRow)
}

func readCSV(path string, latin1 bool) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = f
	if latin1 {
		src = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return records, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx %s has no sheets", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
	}
	return rows, nil
}

var errNoHeader = errors.New("header row missing")

func buildTable(records [][]string, headerRow int) (*Table, error) {
	if headerRow < 0 || headerRow >= len(records) {
		return nil, fmt.Errorf("%w: row %d of %d", errNoHeader, headerRow, len(records))
	}
	headers := make([]string, len(records[headerRow]))
	for i, h := range records[headerRow] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t := &Table{Headers: headers}
	for _, rec := range records[headerRow+1:] {
		if blank(rec) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
