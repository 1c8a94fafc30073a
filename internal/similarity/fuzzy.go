package similarity

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// indel weights a substitution as a delete plus an insert, which makes
// Similarity equal to 2*matches/(len(a)+len(b)).
var indel = levenshtein.NewParams().SubCost(2)

// Ratio is the normalized indel similarity of a and b on a 0..100 scale.
func Ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(a, b, indel) * 100
}

// RatioAtLeast returns Ratio(a, b) when it reaches floor (0..100) and 0 otherwise.
// The edit distance stops once it can no longer reach floor, so long texts that are
// far apart cost a band of the distance matrix instead of all of it.
func RatioAtLeast(a, b string, floor float64) float64 {
	if a == "" || b == "" {
		return 0
	}
	if floor <= 0 {
		return Ratio(a, b)
	}
	// the epsilon keeps a pair sitting exactly on floor from being rounded out
	p := indel.Clone().MinScore(max(floor/100-1e-9, 0))
	r := levenshtein.Similarity(a, b, p) * 100
	if r < floor {
		return 0
	}
	return r
}

// TokenSortRatioAtLeast is TokenSortRatio bounded like RatioAtLeast.
func TokenSortRatioAtLeast(a, b string, floor float64) float64 {
	return RatioAtLeast(sortedTokens(strings.Fields(a)), sortedTokens(strings.Fields(b)), floor)
}

// TokenSortRatio compares a and b after sorting their whitespace tokens,
// so word order does not matter.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(strings.Fields(a)), sortedTokens(strings.Fields(b)))
}

// TokenSetRatio compares the shared token set against each side's remainder
// and keeps the best score. A side whose tokens are all shared scores 100.
func TokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var inter, onlyA, onlyB []string
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	if len(inter) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sect := sortedTokens(inter)
	combA := join(sect, sortedTokens(onlyA))
	combB := join(sect, sortedTokens(onlyB))

	best := Ratio(combA, combB)
	if sect != "" {
		best = max(best, Ratio(sect, combA), Ratio(sect, combB))
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, t := range strings.Fields(s) {
		out[t] = struct{}{}
	}
	return out
}

func sortedTokens(tokens []string) string {
	cp := append([]string(nil), tokens...)
	sort.Strings(cp)
	return strings.Join(cp, " ")
}

func join(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
