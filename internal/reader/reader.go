// Package reader pulls plain text out of the first pages of a PDF.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/common"
)

// Backend names.
const (
	BackendPDF       = "pdf"
	BackendMuPDF     = "mupdf"
	BackendPdftotext = "pdftotext"
	BackendTesseract = "tesseract"
)

// DefaultMaxPages bounds how much of a document is read.
const DefaultMaxPages = 8

type Config struct {
	Backend   string // pdf | mupdf | pdftotext | tesseract; empty -> pdf
	MaxPages  int    // 0 -> DefaultMaxPages
	Pdftotext string // binary name or absolute path; empty -> "pdftotext"

	Tesseract     string // empty -> "tesseract"
	TesseractLang string // empty -> "eng"
	DPI           int    // rasterization for OCR, 0 -> 300
}

type Result struct {
	Text     string
	Pages    int
	Backend  string
	Duration time.Duration
}

// TextReader returns the raw text of a document.
type TextReader interface {
	ReadText(ctx context.Context, path string) (Result, error)
}

type pageSource interface {
	read(ctx context.Context, path string, maxPages int) (string, int, error)
}

type Extractor struct {
	cfg    Config
	source pageSource
	logger *slog.Logger
}

// New builds the reader for cfg.Backend. An unknown backend is a configuration error.
func New(cfg Config, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendPDF
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}

	var src pageSource
	switch cfg.Backend {
	case BackendPDF:
		src = nativeSource{}
	case BackendMuPDF:
		src = mupdfSource{}
	case BackendPdftotext:
		src = &pdftotextSource{bin: cfg.Pdftotext, runner: execRunner{logger: logger}}
	case BackendTesseract:
		src = &tesseractSource{
			bin:    cfg.Tesseract,
			lang:   cfg.TesseractLang,
			dpi:    cfg.DPI,
			runner: execRunner{logger: logger},
			logger: logger,
		}
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown reader backend %q", cfg.Backend), common.ErrInvalidInput)
	}
	return &Extractor{cfg: cfg, source: src, logger: logger}, nil
}

// WithRunner swaps the command runner of the external backends. Other backends ignore it.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	switch s := e.source.(type) {
	case *pdftotextSource:
		s.runner = r
	case *tesseractSource:
		s.runner = r
	}
	return e
}

// ReadText reads at most MaxPages pages and joins them with newlines.
func (e *Extractor) ReadText(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	res := Result{Backend: e.cfg.Backend}

	if !constants.IsPDF(path) {
		e.logger.Error("reader.unsupported_extension", "path", path)
		return res, fmt.Errorf("unsupported extension: %q", filepath.Ext(path))
	}
	e.logger.Debug("reader.start", "path", path, "backend", e.cfg.Backend, "max_pages", e.cfg.MaxPages)

	text, pages, err := e.source.read(ctx, path, e.cfg.MaxPages)
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("reader.failed", "path", path, "backend", e.cfg.Backend, "error", err)
		return res, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	res.Text = text
	res.Pages = pages

	e.logger.Debug("reader.done",
		"path", path,
		"backend", e.cfg.Backend,
		"pages", pages,
		"chars", len(text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
