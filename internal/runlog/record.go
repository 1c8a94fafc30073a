// Package runlog keeps the CSV record of every document a run has filed.
package runlog

import (
	"fmt"
	"strconv"
)

// Headers is the fixed column order of the run log.
var Headers = []string{
	"Original_Filename",
	"New_Filename",
	"Site_ID",
	"Document_Type",
	"Title",
	"Sender",
	"Receiver",
	"Address",
	"Readable",
	"Duplicate",
	"Similarity_Score",
	"Duplicate_File",
	"Supersedes",
	"Site_Registry_Releaseable",
	"Output_Path",
}

// Record is one row, keyed by OriginalFilename.
type Record struct {
	OriginalFilename string
	NewFilename      string
	SiteID           string
	DocumentType     string
	Title            string
	Sender           string
	Receiver         string
	Address          string
	Readable         string
	Duplicate        string
	SimilarityScore  float64
	DuplicateFile    string
	Supersedes       string
	Releasable       string
	OutputPath       string
}

// Row is the record as CSV cells in Headers order.
func (r Record) Row() []string {
	return []string{
		r.OriginalFilename,
		r.NewFilename,
		r.SiteID,
		r.DocumentType,
		r.Title,
		r.Sender,
		r.Receiver,
		r.Address,
		r.Readable,
		r.Duplicate,
		strconv.FormatFloat(r.SimilarityScore, 'f', 4, 64),
		r.DuplicateFile,
		r.Supersedes,
		r.Releasable,
		r.OutputPath,
	}
}

func parseRow(cols []string) (Record, error) {
	if len(cols) != len(Headers) {
		return Record{}, fmt.Errorf("row has %d columns, want %d", len(cols), len(Headers))
	}
	var score float64
	if cols[10] != "" {
		v, err := strconv.ParseFloat(cols[10], 64)
		if err != nil {
			return Record{}, fmt.Errorf("similarity score %q: %w", cols[10], err)
		}
		score = v
	}
	return Record{
		OriginalFilename: cols[0],
		NewFilename:      cols[1],
		SiteID:           cols[2],
		DocumentType:     cols[3],
		Title:            cols[4],
		Sender:           cols[5],
		Receiver:         cols[6],
		Address:          cols[7],
		Readable:         cols[8],
		Duplicate:        cols[9],
		SimilarityScore:  score,
		DuplicateFile:    cols[11],
		Supersedes:       cols[12],
		Releasable:       cols[13],
		OutputPath:       cols[14],
	}, nil
}
