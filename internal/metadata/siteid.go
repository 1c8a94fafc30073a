package metadata

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/site-records/internal/llm"
)

var (
	// leading 3-5 digit run that is not part of a longer number
	reFilenameSiteID = regexp.MustCompile(`^(\d{3,5})(?:\D|$)`)
	reSiteID         = regexp.MustCompile(`^\d{3,5}$`)
)

// SiteIDSource records which rule produced the site ID.
type SiteIDSource string

const (
	SiteIDFromFilename SiteIDSource = "filename"
	SiteIDFromOracle   SiteIDSource = "oracle"
	SiteIDFromReprompt SiteIDSource = "reprompt"
	SiteIDUnresolved   SiteIDSource = "unresolved"
)

// SiteIDInFilename returns the leading site ID of the file's base name.
func SiteIDInFilename(name string) (string, bool) {
	m := reFilenameSiteID.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ValidSiteID reports whether s is exactly 3 to 5 digits.
func ValidSiteID(s string) bool {
	return reSiteID.MatchString(s)
}

type SiteIDResolver struct {
	reprompter *Reprompter
	logger     *slog.Logger
}

func NewSiteIDResolver(reprompter *Reprompter, logger *slog.Logger) *SiteIDResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteIDResolver{reprompter: reprompter, logger: logger}
}

// Resolve prefers the filename, then the oracle's value, then a bounded re-prompt.
// With allowOracle false only the filename is consulted. An unresolved ID is "".
func (r *SiteIDResolver) Resolve(ctx context.Context, filename, extracted, text string, allowOracle bool) (string, SiteIDSource) {
	if id, ok := SiteIDInFilename(filename); ok {
		return id, SiteIDFromFilename
	}
	if v := strings.TrimSpace(extracted); ValidSiteID(v) {
		return v, SiteIDFromOracle
	}
	if !allowOracle || r.reprompter == nil {
		return "", SiteIDUnresolved
	}

	answer, ok, attempts := r.reprompter.Loop(ctx, llm.PromptSiteID, text, "", ValidSiteID, false)
	if ok {
		r.logger.Info("extract.site_id.reprompt_ok", "file", filename, "site_id", answer, "attempts", attempts)
		return answer, SiteIDFromReprompt
	}
	r.logger.Warn("extract.site_id.unresolved", "file", filename, "attempts", attempts)
	return "", SiteIDUnresolved
}
