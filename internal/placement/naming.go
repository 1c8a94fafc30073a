// Package placement decides where an organized document lands and puts it there.
package placement

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/site-records/constants"
)

var reDate = regexp.MustCompile(`(\d{4})[-_]?(\d{2})[-_]?(\d{2})`)

// DateFromFilename returns the first YYYY[-_]MM[-_]DD token of name as YYYY-MM-DD, and its year.
func DateFromFilename(name string) (date, year string) {
	m := reDate.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return constants.UndatedDate, constants.UndatedYear
	}
	return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]), m[1]
}

// SiteSegment is the directory and filename segment for a site ID.
func SiteSegment(siteID string) string {
	if strings.TrimSpace(siteID) == "" || constants.IsNone(siteID) {
		return constants.UnknownSiteDir
	}
	return siteID
}

// BaseName builds "{date} - {site_id} - {DOC_TYPE}[-DUP]{ext}" from the original filename.
func BaseName(original, siteID string, docType constants.DocType, duplicate bool) string {
	date, _ := DateFromFilename(original)
	name := fmt.Sprintf("%s - %s - %s", date, SiteSegment(siteID), strings.ToUpper(string(docType)))
	if duplicate {
		name += constants.DuplicateMarker
	}
	return name + filepath.Ext(original)
}

// Dir is <outputRoot>/<site_id>/<year>-<DOC_TYPE>.
func Dir(outputRoot, original, siteID string, docType constants.DocType) string {
	_, year := DateFromFilename(original)
	return filepath.Join(outputRoot, SiteSegment(siteID), year+"-"+strings.ToUpper(string(docType)))
}

// SiteDir is <outputRoot>/<site_id>.
func SiteDir(outputRoot, siteID string) string {
	return filepath.Join(outputRoot, SiteSegment(siteID))
}

// WithSuffix inserts "_n" before the extension; n == 0 returns name unchanged.
func WithSuffix(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
}
