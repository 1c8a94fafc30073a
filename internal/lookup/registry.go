package lookup

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/common"
)

// SiteRegistry maps a document type to its releasability.
type SiteRegistry struct {
	entries map[constants.DocType]string
}

func NewSiteRegistry(entries map[constants.DocType]string) *SiteRegistry {
	r := &SiteRegistry{entries: make(map[constants.DocType]string, len(entries))}
	for k, v := range entries {
		r.entries[k] = strings.ToLower(strings.TrimSpace(v))
	}
	return r
}

// LoadSiteRegistry reads the registry sheet. Rows whose type is not a known label are skipped.
func LoadSiteRegistry(path string, logger *slog.Logger) (*SiteRegistry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t, err := LoadTable(path, TableOptions{})
	if err != nil {
		return nil, common.WrapError(err, "load site registry")
	}

	entries := make(map[constants.DocType]string, len(t.Rows))
	for _, row := range t.Rows {
		raw := row.Get("Document Type", "Doc Type", "Document_Type", "Type")
		dt, ok := constants.Canonicalize(raw)
		if !ok {
			logger.Warn("lookup.registry.unknown_type", "path", path, "type", raw)
			continue
		}
		entries[dt] = row.Get("Releasable", "Releaseable", "Site Registry releaseable", "Site_Registry_Releaseable")
	}
	logger.Info("lookup.registry.loaded", "path", path, "entries", len(entries))
	return NewSiteRegistry(entries), nil
}

// Releasable returns the releasability of dt. A missing type is a configuration gap.
func (r *SiteRegistry) Releasable(dt constants.DocType) (string, error) {
	v, ok := r.entries[dt]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: no releasability for document type %q", common.ErrConfigGap, dt)
	}
	return v, nil
}

func (r *SiteRegistry) Len() int { return len(r.entries) }
