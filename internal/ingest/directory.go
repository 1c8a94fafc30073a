// Package ingest discovers input PDFs, once for a batch run or continuously in watch mode.
package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/common"
)

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// ListPDFs returns the non-hidden PDFs directly under root, sorted by filename.
// Subdirectories are not descended into.
func ListPDFs(root string) ([]string, error) {
	if strings.TrimSpace(root) == "" {
		return nil, common.NewAppError("INVALID_INPUT", "input directory is required", common.ErrInvalidInput)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, common.WrapError(err, "list input directory")
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || IsHidden(e.Name()) || !AllowedExt(filepath.Ext(e.Name())) {
			continue
		}
		out = append(out, filepath.Join(root, e.Name()))
	}
	sortByBase(out)
	return out, nil
}

func sortByBase(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		return filepath.Base(paths[i]) < filepath.Base(paths[j])
	})
}
