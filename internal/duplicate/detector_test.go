package duplicate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/reader"
	"github.com/joseph-ayodele/site-records/internal/textnorm"
)

// fileReader treats the file bytes as the document text.
type fileReader struct{ reads int }

func (f *fileReader) ReadText(_ context.Context, path string) (reader.Result, error) {
	f.reads++
	b, err := os.ReadFile(path)
	if err != nil {
		return reader.Result{}, err
	}
	return reader.Result{Text: string(b), Pages: 1}, nil
}

var words = strings.Fields("apple banana cherry dolphin eagle falcon giraffe harbour island jungle " +
	"kettle lemon meadow needle orange pepper quartz river saddle timber")

func short() string { return strings.Join(words, " ") }

func long() string {
	return short() + " umbrella violet walnut xylophone yellow zebra anchor bridge canyon delta"
}

// ocrNoise changes the last letter of every word, keeping word order under sorting.
func ocrNoise(s string) string {
	ws := strings.Fields(s)
	for i, w := range ws {
		ws[i] = w[:len(w)-1] + "x"
	}
	return strings.Join(ws, " ")
}

func file(t *testing.T, dir, name, text string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(text), 0o644))
	return p
}

func newDetector(r reader.TextReader) *Detector {
	return NewDetector(Config{}, r, textnorm.Normalizer{}, nil)
}

func TestCompareOrder(t *testing.T) {
	d := newDetector(&fileReader{})

	v := d.Compare(short(), long())
	assert.Equal(t, constants.DuplicateContained, v.Status)
	assert.True(t, v.CurrentIsShorter)
	assert.InDelta(t, 1.0, v.Score, 1e-9)

	v = d.Compare(long(), short())
	assert.Equal(t, constants.DuplicateContained, v.Status)
	assert.False(t, v.CurrentIsShorter)

	v = d.Compare(short(), ocrNoise(short()))
	assert.Equal(t, constants.DuplicateLikelyOCR, v.Status)
	assert.Greater(t, v.Score, 0.78)
	assert.LessOrEqual(t, v.Score, 1.0)

	v = d.Compare(short(), "completely unrelated letter about a permit renewal")
	assert.Equal(t, NoMatch, v)
}

func TestCompareTieCountsCurrentAsShorter(t *testing.T) {
	d := newDetector(&fileReader{})
	v := d.Compare(short(), short())
	assert.True(t, v.CurrentIsShorter)
	assert.Equal(t, constants.DuplicateContained, v.Status)
}

func TestCheckAsymmetricOutcome(t *testing.T) {
	out := t.TempDir()
	siteDir := filepath.Join(out, "141")
	in := t.TempDir()

	// shorter copy arrives second: it is the duplicate
	filed := file(t, filepath.Join(siteDir, "2020-DSI"), "2020-01-01 - 141 - DSI.pdf", long())
	current := file(t, in, "141_copy.pdf", short())

	d := newDetector(&fileReader{})
	v, err := d.Check(context.Background(), siteDir, "141", current, short())
	require.NoError(t, err)
	assert.Equal(t, constants.DuplicateContained, v.Status)
	assert.True(t, v.CurrentIsShorter)
	assert.Equal(t, filed, v.MatchedPath)

	// same pair, roles swapped: the filed copy is the redundant one
	out2 := t.TempDir()
	siteDir2 := filepath.Join(out2, "141")
	filed2 := file(t, filepath.Join(siteDir2, "2020-DSI"), "2020-01-01 - 141 - DSI.pdf", short())
	current2 := file(t, in, "141_full.pdf", long())

	v, err = d.Check(context.Background(), siteDir2, "141", current2, long())
	require.NoError(t, err)
	assert.Equal(t, constants.DuplicateContained, v.Status)
	assert.False(t, v.CurrentIsShorter)
	assert.Equal(t, filed2, v.MatchedPath)
}

func TestCheckFiltersCandidates(t *testing.T) {
	out := t.TempDir()
	siteDir := filepath.Join(out, "141")
	file(t, filepath.Join(siteDir, "2020-DSI"), "unrelated-name.pdf", short())
	file(t, filepath.Join(siteDir, "2020-DSI"), "2020-01-01 - 141 - DSI.txt", short())
	self := file(t, filepath.Join(siteDir, "2020-DSI"), "2020-01-01 - 141 - DSI.pdf", short())

	r := &fileReader{}
	v, err := newDetector(r).Check(context.Background(), siteDir, "141", self, short())
	require.NoError(t, err)
	assert.Equal(t, NoMatch, v)
	assert.Zero(t, r.reads)
}

func TestCheckMissingSiteDir(t *testing.T) {
	v, err := newDetector(&fileReader{}).Check(context.Background(), filepath.Join(t.TempDir(), "999"), "999", "x.pdf", short())
	require.NoError(t, err)
	assert.Equal(t, NoMatch, v)
}

func TestCheckSkipsUnresolvedSite(t *testing.T) {
	out := t.TempDir()
	file(t, filepath.Join(out, "unknown", "0000-UNKNOWN"), "0000-00-00 - unknown - UNKNOWN.pdf", short())

	r := &fileReader{}
	v, err := newDetector(r).Check(context.Background(), filepath.Join(out, "unknown"), constants.UnknownSiteDir, "x.pdf", short())
	require.NoError(t, err)
	assert.Equal(t, NoMatch, v)
	assert.Zero(t, r.reads)
}

func TestCheckCachesCandidateText(t *testing.T) {
	out := t.TempDir()
	siteDir := filepath.Join(out, "141")
	file(t, filepath.Join(siteDir, "2020-DSI"), "2020-01-01 - 141 - DSI.pdf", "permit renewal letter")

	r := &fileReader{}
	d := newDetector(r)
	for i := 0; i < 3; i++ {
		_, err := d.Check(context.Background(), siteDir, "141", "current.pdf", short())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, r.reads)
}
