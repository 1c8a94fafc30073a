package reader

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

type pdftotextSource struct {
	bin    string
	runner Runner
}

func (s *pdftotextSource) read(ctx context.Context, path string, maxPages int) (string, int, error) {
	// pdftotext -f 1 -l N -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := s.runner.Run(ctx, s.bin,
		"-f", "1", "-l", strconv.Itoa(maxPages),
		"-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	text := strings.TrimRight(string(out), "\f")
	// form feed separates pages
	pages := 1 + strings.Count(text, "\f")
	return strings.ReplaceAll(text, "\f", "\n"), pages, nil
}
