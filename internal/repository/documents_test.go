package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/runlog"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: "sqlite:" + filepath.Join(t.TempDir(), "audit.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	return db
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn     string
		dialect Dialect
		target  string
	}{
		{"postgres://u:p@localhost:5432/records?sslmode=disable", DialectPostgres, "postgres://u:p@localhost:5432/records?sslmode=disable"},
		{"sqlite:/var/lib/audit.db", DialectSQLite, "/var/lib/audit.db"},
		{"audit.db", DialectSQLite, "audit.db"},
		{"file:audit?mode=memory", DialectSQLite, "file:audit?mode=memory"},
	}
	for _, tt := range tests {
		d, target, err := ParseDSN(tt.dsn)
		require.NoError(t, err, tt.dsn)
		assert.Equal(t, tt.dialect, d)
		assert.Equal(t, tt.target, target)
	}
	_, _, err := ParseDSN("mysql://x")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: DialectPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))
	lite := &DB{Dialect: DialectSQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestDocumentRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.HealthCheck(ctx, 0, nil))
	repo := NewDocumentRepository(db, nil)

	rec := runlog.Record{
		OriginalFilename: "141_DSI.pdf",
		NewFilename:      "0000-00-00 - 141 - DSI.pdf",
		SiteID:           "141",
		DocumentType:     "DSI",
		Title:            "none",
		Duplicate:        "no",
		Releasable:       "yes",
	}
	require.NoError(t, repo.Upsert(ctx, rec))
	first, err := repo.Get(ctx, "141_DSI.pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ProcessingID)

	// second upsert keeps the processing id
	rec.Title = "Detailed Site Investigation"
	require.NoError(t, repo.Upsert(ctx, rec))

	doc, err := repo.UpdateByOriginalFilename(ctx, "141_DSI.pdf", func(r *runlog.Record) {
		r.Duplicate = "yes"
		r.SimilarityScore = 0.9
	})
	require.NoError(t, err)
	assert.Equal(t, "yes", doc.Duplicate)
	assert.Equal(t, "Detailed Site Investigation", doc.Title)
	assert.Equal(t, first.ProcessingID, doc.ProcessingID)
	assert.InDelta(t, 0.9, doc.SimilarityScore, 1e-9)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.UpdateByOriginalFilename(ctx, "ghost.pdf", func(*runlog.Record) {})
	assert.ErrorIs(t, err, common.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].UpdatedAt.IsZero())
}

func TestRepositoryMirrorsRunLog(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(openTestDB(t), nil)

	l, err := runlog.Open(filepath.Join(t.TempDir(), "run_log.csv"), nil)
	require.NoError(t, err)
	l.WithMirror(repo)

	require.NoError(t, l.Append(ctx, runlog.Record{OriginalFilename: "a.pdf", Duplicate: "no"}))
	_, err = l.Update(ctx, "a.pdf", func(r *runlog.Record) { r.Duplicate = "yes" })
	require.NoError(t, err)

	doc, err := repo.Get(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "yes", doc.Duplicate)
}
