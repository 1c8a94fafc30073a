package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMinTokens is the token floor below which a document counts as unreadable.
const DefaultMinTokens = 50

var (
	reDisallowed = regexp.MustCompile(`[^A-Za-z0-9\s:,\-./]`)
	reMultiSpace = regexp.MustCompile(`\s{2,}`)
)

// Normalize collapses newlines, strips everything outside [A-Za-z0-9\s:,\-./],
// squeezes whitespace runs and trims. It is idempotent.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\n", " ")
	s = reDisallowed.ReplaceAllString(s, "")
	s = reMultiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Normalizer optionally folds accented letters to ASCII before Normalize,
// so "Béton" keeps its letters instead of losing the é.
type Normalizer struct {
	ASCIIFold bool
}

func (n Normalizer) Normalize(s string) string {
	if n.ASCIIFold {
		s = Fold(s)
	}
	return Normalize(s)
}

// Fold decomposes s and drops combining marks.
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tokens splits on whitespace.
func Tokens(s string) []string {
	return strings.Fields(s)
}

// TokenCount counts whitespace-delimited tokens.
func TokenCount(s string) int {
	return len(strings.Fields(s))
}

// TooShort reports whether normalized text is below the readability floor.
func TooShort(normalized string, minTokens int) bool {
	if minTokens <= 0 {
		minTokens = DefaultMinTokens
	}
	return TokenCount(normalized) < minTokens
}
