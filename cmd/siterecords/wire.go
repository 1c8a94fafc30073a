package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/site-records/internal/address"
	"github.com/joseph-ayodele/site-records/internal/checks"
	"github.com/joseph-ayodele/site-records/internal/classify"
	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/duplicate"
	"github.com/joseph-ayodele/site-records/internal/llm"
	"github.com/joseph-ayodele/site-records/internal/llm/ollama"
	"github.com/joseph-ayodele/site-records/internal/lookup"
	"github.com/joseph-ayodele/site-records/internal/metadata"
	"github.com/joseph-ayodele/site-records/internal/pipeline"
	"github.com/joseph-ayodele/site-records/internal/reader"
	"github.com/joseph-ayodele/site-records/internal/repository"
	"github.com/joseph-ayodele/site-records/internal/runlog"
	"github.com/joseph-ayodele/site-records/internal/server"
	"github.com/joseph-ayodele/site-records/internal/textnorm"
)

// app is everything a run needs, built from the configuration.
type app struct {
	processor *pipeline.Processor
	log       *runlog.Log
	db        *repository.DB
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close(logger)
	}
}

// verifyInputs checks every path a run reads before any document is touched.
func verifyInputs(c *common.Config) error {
	files := []string{c.Paths.SiteRegistry}
	if c.Paths.RequireAddresses {
		files = append(files, c.Paths.SiteAddresses)
	}
	dirs := []string{c.Paths.InputDir}
	if c.Paths.PromptsDir != "" {
		dirs = append(dirs, c.Paths.PromptsDir)
	}
	return checks.Join(checks.VerifyFiles(files...), checks.VerifyDirs(dirs...))
}

func buildApp(ctx context.Context, c *common.Config, runLogPath, outputDir string, logger *slog.Logger) (*app, error) {
	rd, err := reader.New(reader.Config{
		Backend:   c.Reader.Backend,
		MaxPages:  c.Pipeline.MaxPages,
		Pdftotext: c.Reader.Pdftotext,

		Tesseract:     c.Reader.Tesseract,
		TesseractLang: c.Reader.TesseractLang,
		DPI:           c.Reader.DPI,
	}, logger)
	if err != nil {
		return nil, err
	}

	registry, err := lookup.LoadSiteRegistry(c.Paths.SiteRegistry, logger)
	if err != nil {
		return nil, err
	}
	var dir address.Directory
	switch addresses, err := lookup.LoadAddressDirectory(c.Paths.SiteAddresses, logger); {
	case err == nil:
		dir = addresses
	case !c.Paths.RequireAddresses && errors.Is(err, os.ErrNotExist):
		logger.Warn("lookup.addresses.missing", "path", c.Paths.SiteAddresses)
	default:
		return nil, err
	}

	prompts := llm.NewPrompts(c.Pipeline.PromptCharBudget)
	if c.Paths.PromptsDir != "" {
		if prompts, err = llm.LoadPrompts(c.Paths.PromptsDir, c.Pipeline.PromptCharBudget); err != nil {
			return nil, err
		}
	}

	oracle := ollama.NewClient(ollama.Config{
		BaseURL:     c.LLM.BaseURL,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLM.Timeout,
		MaxRetries:  c.LLM.MaxRetries,
	}, logger)

	controller := metadata.NewController(metadata.Config{
		MinTokens:      c.Pipeline.MinTokens,
		KeyRetries:     c.Pipeline.KeyRetries,
		TitleRetries:   c.Pipeline.TitleRetries,
		FieldRetries:   c.Pipeline.FieldRetries,
		SiteIDRetries:  c.Pipeline.SiteIDRetries,
		TitleMaxTokens: c.Pipeline.TitleMaxTokens,
		PartyMaxTokens: c.Pipeline.PartyMaxTokens,
	}, oracle, prompts, address.NewResolver(dir, logger), logger)

	norm := textnorm.Normalizer{ASCIIFold: c.Pipeline.ASCIIFold}
	detector := duplicate.NewDetector(duplicate.Config{
		ContainmentThreshold: c.Pipeline.ContainmentThreshold,
		FuzzyThreshold:       c.Pipeline.FuzzyThreshold,
	}, rd, norm, logger)

	log, err := runlog.Open(runLogPath, logger)
	if err != nil {
		return nil, err
	}

	a := &app{log: log}
	if a.db, err = server.ConnectDB(ctx, c.Database, logger); err != nil {
		return nil, err
	}
	if a.db != nil {
		log.WithMirror(repository.NewDocumentRepository(a.db, logger))
	}

	a.processor = pipeline.NewProcessor(outputDir, pipeline.Deps{
		Reader:     rd,
		Normalizer: norm,
		Extractor:  controller,
		Classifier: classify.New(c.Pipeline.ClassifierMode, oracle, prompts, logger),
		Registry:   registry,
		Detector:   detector,
		Log:        log,
	}, logger)
	return a, nil
}
