package runlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/site-records/internal/common"
)

type recordingMirror struct{ got []Record }

func (m *recordingMirror) Upsert(_ context.Context, r Record) error {
	m.got = append(m.got, r)
	return nil
}

func sample(name string) Record {
	return Record{
		OriginalFilename: name,
		NewFilename:      "2020-01-01 - 141 - DSI.pdf",
		SiteID:           "141",
		DocumentType:     "DSI",
		Title:            "Detailed Site Investigation, Phase 2",
		Sender:           "none",
		Receiver:         "none",
		Address:          "1234 Harbour Road, Victoria",
		Readable:         "yes",
		Duplicate:        "no",
		Releasable:       "yes",
		OutputPath:       "/out/141/2020-DSI/2020-01-01 - 141 - DSI.pdf",
	}
}

func TestOpenWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run_log.csv")
	_, err := Open(path, nil)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(Headers, ",")+"\n", string(b))
}

func TestOpenRejectsForeignHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_log.csv")
	require.NoError(t, os.WriteFile(path, []byte("original_filename,new_filename\n"), 0o644))
	_, err := Open(path, nil)
	assert.ErrorIs(t, err, ErrHeaderMismatch)
}

func TestAppendAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_log.csv")
	l, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(context.Background(), sample("a.pdf")))

	l2, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, l2.Append(context.Background(), sample("b.pdf")))

	recs, err := l2.Records()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, sample("a.pdf"), recs[0])
	assert.Equal(t, "b.pdf", recs[1].OriginalFilename)
}

func TestUpdateInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_log.csv")
	m := &recordingMirror{}
	l, err := Open(path, nil)
	require.NoError(t, err)
	l.WithMirror(m)

	ctx := context.Background()
	require.NoError(t, l.Append(ctx, sample("a.pdf")))
	require.NoError(t, l.Append(ctx, sample("b.pdf")))

	updated, err := l.Update(ctx, "a.pdf", func(r *Record) {
		r.Duplicate = "yes"
		r.DuplicateFile = "b.pdf"
		r.Releasable = "No (duplicate)"
		r.NewFilename = "2020-01-01 - 141 - DSI-DUP.pdf"
		r.SimilarityScore = 0.8125
	})
	require.NoError(t, err)
	assert.Equal(t, "yes", updated.Duplicate)

	recs, err := l.Records()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a.pdf", recs[0].OriginalFilename, "row order is kept")
	assert.Equal(t, "No (duplicate)", recs[0].Releasable)
	assert.InDelta(t, 0.8125, recs[0].SimilarityScore, 1e-9)
	assert.Equal(t, sample("b.pdf"), recs[1])

	require.Len(t, m.got, 3)
	assert.Equal(t, "yes", m.got[2].Duplicate)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestUpdateMissingRow(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "run_log.csv"), nil)
	require.NoError(t, err)
	_, err = l.Update(context.Background(), "ghost.pdf", func(*Record) {})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFindByOutputPath(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "run_log.csv"), nil)
	require.NoError(t, err)
	require.NoError(t, l.Append(context.Background(), sample("a.pdf")))

	r, err := l.FindByOutputPath(sample("a.pdf").OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", r.OriginalFilename)

	_, err = l.FindByOutputPath("/nowhere.pdf")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
