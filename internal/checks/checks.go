// Package checks verifies the inputs a run depends on before any file is touched.
package checks

import (
	"fmt"
	"os"
	"strings"

	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/reader"
)

// VerifyFiles requires every path to exist as a regular file.
func VerifyFiles(paths ...string) error {
	return verify(paths, false)
}

// VerifyDirs requires every path to exist as a directory.
func VerifyDirs(paths ...string) error {
	return verify(paths, true)
}

func verify(paths []string, dirs bool) error {
	var missing []string
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			missing = append(missing, "(empty path)")
			continue
		}
		info, err := os.Stat(p)
		if err != nil || info.IsDir() != dirs {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	kind := "files"
	if dirs {
		kind = "directories"
	}
	return fmt.Errorf("%w: %s: %s", common.ErrMissingPaths, kind, strings.Join(missing, ", "))
}

// Join merges the errors of several checks into one ErrMissingPaths listing all of them.
func Join(errs ...error) error {
	var msgs []string
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, strings.TrimPrefix(err.Error(), common.ErrMissingPaths.Error()+": "))
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", common.ErrMissingPaths, strings.Join(msgs, "; "))
}

// PDFReport is the structural state of one input PDF.
type PDFReport struct {
	Path  string
	Pages int
	Err   error
}

// InspectPDFs validates each PDF and counts its pages. Problems are reported per file;
// they are not fatal because the reader isolates them at run time too.
func InspectPDFs(paths []string) []PDFReport {
	out := make([]PDFReport, 0, len(paths))
	for _, p := range paths {
		r := PDFReport{Path: p}
		if err := reader.Validate(p); err != nil {
			r.Err = err
		} else if r.Pages, err = reader.PageCount(p); err != nil {
			r.Err = err
		}
		out = append(out, r)
	}
	return out
}
