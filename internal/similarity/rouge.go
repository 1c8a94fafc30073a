// Package similarity holds the text-similarity measures used for duplicate
// detection, address formatting and evaluation.
package similarity

import (
	"strings"
	"unicode"
)

// Score is a precision/recall/F-measure triple.
type Score struct {
	Precision float64
	Recall    float64
	F         float64
}

// RougeTokens lowercases s and splits it on anything that is not a letter or digit.
func RougeTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Rouge1 scores unigram overlap of prediction against target.
// Recall is overlap over target tokens; precision is overlap over prediction tokens.
func Rouge1(target, prediction string) Score {
	return rouge1Tokens(RougeTokens(target), RougeTokens(prediction))
}

func rouge1Tokens(target, prediction []string) Score {
	if len(target) == 0 || len(prediction) == 0 {
		return Score{}
	}
	counts := make(map[string]int, len(target))
	for _, t := range target {
		counts[t]++
	}
	overlap := 0
	for _, p := range prediction {
		if counts[p] > 0 {
			counts[p]--
			overlap++
		}
	}
	s := Score{
		Precision: float64(overlap) / float64(len(prediction)),
		Recall:    float64(overlap) / float64(len(target)),
	}
	if s.Precision+s.Recall > 0 {
		s.F = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}

// Containment is the share of the shorter text's unigrams found in the longer text,
// i.e. ROUGE-1 recall with the shorter text as target.
func Containment(shorter, longer string) float64 {
	return Rouge1(shorter, longer).Recall
}
