package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/site-records/internal/reader"
	"github.com/joseph-ayodele/site-records/internal/textnorm"
)

func main() {
	backend := flag.String("backend", reader.BackendPDF, "pdf, mupdf or pdftotext")
	pages := flag.Int("pages", reader.DefaultMaxPages, "pages to read")
	fold := flag.Bool("ascii", false, "fold the text to ASCII")
	raw := flag.Bool("raw", false, "print the text before normalization")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "readtext [-backend pdf|mupdf|pdftotext] [-pages n] <file.pdf>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	rd, err := reader.New(reader.Config{Backend: *backend, MaxPages: *pages}, logger)
	if err != nil {
		logger.Error("reader", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := rd.ReadText(ctx, path)
	if err != nil {
		logger.Error("text extraction failed", "file", path, "error", err)
		os.Exit(1)
	}

	text := textnorm.Normalizer{ASCIIFold: *fold}.Normalize(res.Text)
	logger.Info("text extraction OK",
		"backend", res.Backend,
		"pages", res.Pages,
		"tokens", textnorm.TokenCount(text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	if *raw {
		fmt.Println(res.Text)
		return
	}
	fmt.Println(text)
}
