package similarity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouge1(t *testing.T) {
	s := Rouge1("the cat sat", "the cat sat on the mat")
	assert.InDelta(t, 1.0, s.Recall, 1e-9)
	assert.InDelta(t, 0.5, s.Precision, 1e-9)
	assert.InDelta(t, 2*0.5/1.5, s.F, 1e-9)

	assert.Equal(t, Score{}, Rouge1("", "anything"))
	assert.Equal(t, Score{}, Rouge1("anything", ""))
}

func TestRouge1ClipsRepeatedTokens(t *testing.T) {
	// "site" appears twice in the target but once in the prediction.
	s := Rouge1("site site report", "site report")
	assert.InDelta(t, 2.0/3.0, s.Recall, 1e-9)
	assert.InDelta(t, 1.0, s.Precision, 1e-9)
}

func TestContainment(t *testing.T) {
	shorter := "Detailed Site Investigation for Site 141"
	longer := "Cover letter. Detailed Site Investigation for Site 141. Appendix A follows."
	assert.InDelta(t, 1.0, Containment(shorter, longer), 1e-9)
	assert.Less(t, Containment(longer, shorter), 0.75)
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 100, Ratio("abc", "abc"), 1e-9)
	assert.Equal(t, 0.0, Ratio("", "abc"))
	// one substitution over 3+3 runes: 1 - 2/6
	assert.InDelta(t, 100*(1-2.0/6.0), Ratio("abc", "abd"), 1e-9)
}

func TestTokenSortRatio(t *testing.T) {
	assert.InDelta(t, 100, TokenSortRatio("site report final", "final site report"), 1e-9)
	assert.Less(t, TokenSortRatio("quarterly groundwater monitoring", "invoice for soil removal"), 78.0)
	assert.GreaterOrEqual(t, TokenSortRatio("Ministry of Enviroment Site 141 report", "Ministry of Environment Site 141 report"), 78.0)
}

func TestTokenSetRatio(t *testing.T) {
	assert.InDelta(t, 100, TokenSetRatio("1234 main st", "1234 main st suite 5"), 1e-9)
	assert.InDelta(t, 100, TokenSetRatio("b a", "a b"), 1e-9)
	assert.Less(t, TokenSetRatio("1234 main st", "99 harbour rd"), 85.0)
	assert.Equal(t, 0.0, TokenSetRatio("", "a"))
}

func TestRatioAtLeastMatchesRatioAboveFloor(t *testing.T) {
	pairs := [][2]string{
		{"site investigation report", "site investigaton report"},
		{"abcd", "abce"},
		{"detailed site investigation", "preliminary site investigation"},
		{"soil", "groundwater"},
	}
	for _, p := range pairs {
		full := Ratio(p[0], p[1])
		for _, floor := range []float64{0, 50, 75, full, 99} {
			got := RatioAtLeast(p[0], p[1], floor)
			if full >= floor {
				assert.InDelta(t, full, got, 1e-9, "%q vs %q floor %v", p[0], p[1], floor)
			} else {
				assert.Zero(t, got, "%q vs %q floor %v", p[0], p[1], floor)
			}
		}
	}
}

func TestTokenSortRatioAtLeastOnLongText(t *testing.T) {
	a := strings.Repeat("monitoring well groundwater sample ", 200)
	b := strings.Repeat("invoice payment remittance account ", 200)
	assert.Zero(t, TokenSortRatioAtLeast(a, b, 78))

	c := a + "appendix"
	assert.InDelta(t, TokenSortRatio(a, c), TokenSortRatioAtLeast(a, c, 78), 1e-9)
	assert.GreaterOrEqual(t, TokenSortRatioAtLeast(a, c, 78), 78.0)
}
