package metadata

import (
	"regexp"
	"strings"
)

// Per-field token ceilings.
const (
	TitleMaxTokens = 25
	PartyMaxTokens = 17
)

// reNonLetter removes punctuation and digits (and any other non-letter, non-space rune).
var reNonLetter = regexp.MustCompile(`[^\p{L}\s]+`)

func groundingWords(s string) []string {
	return strings.Fields(reNonLetter.ReplaceAllString(strings.ToLower(s), ""))
}

// Grounding is the word set of one document's source text.
type Grounding struct {
	words map[string]struct{}
}

func NewGrounding(source string) *Grounding {
	words := groundingWords(source)
	g := &Grounding{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		g.words[w] = struct{}{}
	}
	return g
}

// WellFormed reports whether value has fewer than maxTokens words and every
// cleaned word occurs in the source.
func (g *Grounding) WellFormed(value string, maxTokens int) bool {
	if len(strings.Fields(value)) >= maxTokens {
		return false
	}
	words := groundingWords(value)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if _, ok := g.words[w]; !ok {
			return false
		}
	}
	return true
}

// IsWellFormed is the one-shot form of Grounding.WellFormed.
func IsWellFormed(value, source string, maxTokens int) bool {
	return NewGrounding(source).WellFormed(value, maxTokens)
}
