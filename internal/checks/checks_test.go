package checks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/site-records/internal/common"
)

func TestVerifyListsEveryMissingPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "registry.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	require.NoError(t, VerifyFiles(file))
	require.NoError(t, VerifyDirs(dir))

	err := VerifyFiles(file, filepath.Join(dir, "addresses.csv"), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingPaths)
	assert.True(t, common.IsFatal(err))
	assert.Contains(t, err.Error(), "addresses.csv")
	assert.Contains(t, err.Error(), dir, "a directory is not a file")

	err = VerifyDirs(dir, file, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry.csv")
	assert.Contains(t, err.Error(), "(empty path)")
}

func TestJoin(t *testing.T) {
	assert.NoError(t, Join(nil, nil))

	err := Join(VerifyFiles("/nope/a.csv"), nil, VerifyDirs("/nope/in"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingPaths)
	assert.Contains(t, err.Error(), "/nope/a.csv")
	assert.Contains(t, err.Error(), "/nope/in")
}

func TestInspectPDFsReportsBrokenFiles(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "141_bad.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("not a pdf"), 0o644))

	reports := InspectPDFs([]string{bad})
	require.Len(t, reports, 1)
	assert.Error(t, reports[0].Err)
	assert.Zero(t, reports[0].Pages)
}
