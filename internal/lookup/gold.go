package lookup

import (
	"log/slog"

	"github.com/joseph-ayodele/site-records/internal/common"
)

// GoldHeaderRow is where the column names sit in the annotated metadata sheet.
const GoldHeaderRow = 3

// GoldRecord is one hand-annotated document.
type GoldRecord struct {
	Filename   string
	Title      string
	Receiver   string
	Sender     string
	Address    string
	SiteID     string
	Duplicate  string
	Releasable string
}

// LoadGoldMetadata reads the Latin-1 annotation CSV keyed by "Current BC Mail title".
func LoadGoldMetadata(path string, logger *slog.Logger) (map[string]GoldRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t, err := LoadTable(path, TableOptions{HeaderRow: GoldHeaderRow, Latin1: true})
	if err != nil {
		return nil, common.WrapError(err, "load gold metadata")
	}

	out := make(map[string]GoldRecord, len(t.Rows))
	for _, row := range t.Rows {
		name := row.Get("Current BC Mail title")
		if name == "" {
			continue
		}
		out[name] = GoldRecord{
			Filename:   name,
			Title:      row.Get("Title/Subject"),
			Receiver:   row.Get("Receiver"),
			Sender:     row.Get("Sender/Author"),
			Address:    row.Get("Address"),
			SiteID:     row.Get("Site ID"),
			Duplicate:  row.Get("Duplicate  (Y/N)", "Duplicate (Y/N)", "Duplicate"),
			Releasable: row.Get("Site Registry releaseable", "Site Registry releasable"),
		}
	}
	logger.Info("lookup.gold.loaded", "path", path, "records", len(out))
	return out, nil
}
