package lookup

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/similarity"
)

// RedundantLineThreshold is the token-set ratio above which two address lines say the same thing.
const RedundantLineThreshold = 85

const (
	noEntry    = "no entry"
	asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

var reDigits = regexp.MustCompile(`\d+`)

// AddressParts are the raw columns of one address directory row.
type AddressParts struct {
	Line1      string
	Line2      string
	UrbanArea  string
	PostalCode string
}

func absent(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan") || strings.Contains(strings.ToLower(s), noEntry)
}

func cleanLine(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunct, r) {
			return -1
		}
		return r
	}, s)
}

func numbers(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, n := range reDigits.FindAllString(s, -1) {
		out[n] = struct{}{}
	}
	return out
}

// FormatAddress joins the parts as "line1[, line2], urban area[, postal code]".
// Line 2 is dropped when absent, kept when it carries a number line 1 lacks,
// collapsed into the longer line when both say the same thing, and kept otherwise.
func FormatAddress(p AddressParts) string {
	line1 := strings.TrimSpace(p.Line1)
	line2 := strings.TrimSpace(p.Line2)
	if absent(line1) {
		line1 = ""
	}

	lines := []string{line1}
	switch {
	case absent(line2):
	case hasNewNumber(cleanLine(line1), cleanLine(line2)):
		lines = append(lines, line2)
	case similarity.TokenSetRatio(cleanLine(line1), cleanLine(line2)) >= RedundantLineThreshold:
		if len(line2) > len(line1) {
			lines[0] = line2
		}
	default:
		lines = append(lines, line2)
	}

	parts := make([]string, 0, 4)
	for _, l := range lines {
		if l != "" {
			parts = append(parts, l)
		}
	}
	if !absent(p.UrbanArea) {
		parts = append(parts, strings.TrimSpace(p.UrbanArea))
	}
	if !absent(p.PostalCode) {
		parts = append(parts, strings.TrimSpace(p.PostalCode))
	}
	return strings.Join(parts, ", ")
}

func hasNewNumber(line1, line2 string) bool {
	have := numbers(line1)
	for n := range numbers(line2) {
		if _, ok := have[n]; !ok {
			return true
		}
	}
	return false
}

// AddressDirectory is the per-site address table.
type AddressDirectory struct {
	addresses map[string]string
}

func NewAddressDirectory(rows map[string]AddressParts) *AddressDirectory {
	d := &AddressDirectory{addresses: make(map[string]string, len(rows))}
	for id, p := range rows {
		if a := FormatAddress(p); a != "" {
			d.addresses[strings.TrimSpace(id)] = a
		}
	}
	return d
}

// LoadAddressDirectory reads Site ID, Address 1, Address 2, Urban Area and Postal Code columns.
// The first row for a site ID wins.
func LoadAddressDirectory(path string, logger *slog.Logger) (*AddressDirectory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t, err := LoadTable(path, TableOptions{})
	if err != nil {
		return nil, common.WrapError(err, "load site addresses")
	}
	rows := make(map[string]AddressParts, len(t.Rows))
	for _, row := range t.Rows {
		id := row.Get("Site ID", "Site_ID", "SiteID")
		if id == "" {
			continue
		}
		if _, seen := rows[id]; seen {
			continue
		}
		rows[id] = AddressParts{
			Line1:      row.Get("Address 1"),
			Line2:      row.Get("Address 2"),
			UrbanArea:  row.Get("Urban Area"),
			PostalCode: row.Get("Postal Code"),
		}
	}
	d := NewAddressDirectory(rows)
	logger.Info("lookup.addresses.loaded", "path", path, "sites", len(d.addresses))
	return d, nil
}

// Address returns the formatted address for siteID. Leading zeros are not significant.
func (d *AddressDirectory) Address(siteID string) (string, bool) {
	if d == nil {
		return "", false
	}
	if v, ok := d.addresses[siteID]; ok {
		return v, true
	}
	if trimmed := strings.TrimLeft(siteID, "0"); trimmed != siteID {
		v, ok := d.addresses[trimmed]
		return v, ok
	}
	return "", false
}

func (d *AddressDirectory) Len() int { return len(d.addresses) }
