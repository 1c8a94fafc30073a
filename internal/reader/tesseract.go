package reader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// scanner noise such as box-drawing runs and lone pipes
var reBoxNoise = regexp.MustCompile(`[│┃┆┇┊┋|]{2,}`)

// tesseractSource renders each page with MuPDF and OCRs the image. It is the only
// backend that recovers text from image-only scans.
type tesseractSource struct {
	bin    string
	lang   string
	dpi    int
	runner Runner
	logger *slog.Logger
}

func (s *tesseractSource) read(ctx context.Context, path string, maxPages int) (string, int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", 0, err
	}
	defer doc.Close()

	tmpDir, err := os.MkdirTemp("", "siterecords-ocr-*")
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			s.logger.Warn("reader.ocr.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	n := min(doc.NumPage(), maxPages)
	var b strings.Builder
	var failed int
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		img, err := doc.ImagePNG(i, float64(s.dpi))
		if err != nil {
			failed++
			s.logger.Warn("reader.ocr.render_failed", "page", i+1, "error", err)
			continue
		}
		page := filepath.Join(tmpDir, fmt.Sprintf("page-%03d.png", i+1))
		if err := os.WriteFile(page, img, 0o600); err != nil {
			return "", 0, err
		}

		// tesseract <file> stdout -l <lang>
		out, errb, err := s.runner.Run(ctx, s.bin, page, "stdout", "-l", s.lang)
		if err != nil {
			failed++
			s.logger.Warn("reader.ocr.page_failed", "page", i+1, "stderr", truncate(string(errb), 512))
			continue
		}
		b.WriteString(reBoxNoise.ReplaceAllString(string(out), ""))
		b.WriteString("\n")
	}
	if n > 0 && failed == n {
		return "", n, fmt.Errorf("tesseract: no page of %d could be read", n)
	}
	return b.String(), n, nil
}
