package address

import (
	"log/slog"

	"github.com/joseph-ayodele/site-records/constants"
)

// Source says where a resolved address came from.
type Source string

const (
	SourceRegistry Source = "registry"
	SourceDocument Source = "document"
	SourceCache    Source = "cache"
	SourceNone     Source = "none"
)

// Directory is the per-site address lookup, keyed by site ID.
type Directory interface {
	Address(siteID string) (string, bool)
}

type Resolver struct {
	directory Directory
	logger    *slog.Logger
}

// NewResolver accepts a nil directory, in which case only the document and cache are used.
func NewResolver(dir Directory, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{directory: dir, logger: logger}
}

// Resolve picks the registry address, else the extracted one, else the cached one,
// then seeds the cache with the outcome if the site has no entry yet.
// An unresolved site ID ("" or the unknown sentinel) never touches the cache.
func (r *Resolver) Resolve(cache *Cache, siteID, extracted string) (string, Source) {
	keyed := siteID != "" && siteID != constants.UnknownSiteDir

	addr, src := constants.None, SourceNone
	switch {
	case keyed && r.lookup(siteID, &addr):
		src = SourceRegistry
	case !constants.IsNone(extracted):
		addr, src = constants.OrNone(extracted), SourceDocument
	case keyed && cache != nil:
		if v, ok := cache.Get(siteID); ok {
			addr, src = v, SourceCache
		}
	}

	if keyed && cache != nil && src != SourceNone && src != SourceCache {
		if cache.StoreIfAbsent(siteID, addr) {
			r.logger.Debug("address.cache.stored", "site_id", siteID, "source", string(src))
		}
	}
	r.logger.Debug("address.resolved", "site_id", siteID, "source", string(src))
	return addr, src
}

func (r *Resolver) lookup(siteID string, out *string) bool {
	if r.directory == nil {
		return false
	}
	v, ok := r.directory.Address(siteID)
	if !ok || constants.IsNone(v) {
		return false
	}
	*out = v
	return true
}
