// Package pipeline files one document at a time: read, extract, classify,
// check for duplicates, place and log.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/classify"
	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/duplicate"
	"github.com/joseph-ayodele/site-records/internal/metadata"
	"github.com/joseph-ayodele/site-records/internal/placement"
	"github.com/joseph-ayodele/site-records/internal/reader"
	"github.com/joseph-ayodele/site-records/internal/runlog"
	"github.com/joseph-ayodele/site-records/internal/textnorm"
)

var tracer = otel.Tracer("github.com/joseph-ayodele/site-records/internal/pipeline")

// Releasability maps a document type to the registry's releasability.
type Releasability interface {
	Releasable(dt constants.DocType) (string, error)
}

type Deps struct {
	Reader     reader.TextReader
	Normalizer textnorm.Normalizer
	Extractor  *metadata.Controller
	Classifier classify.Classifier
	Registry   Releasability
	Detector   *duplicate.Detector
	Log        *runlog.Log
}

// Outcome is what ProcessFile did to the run log.
type Outcome struct {
	Record runlog.Record
	// Relabeled is the earlier row that this document superseded, if any.
	Relabeled *runlog.Record
}

type Processor struct {
	outputDir string
	deps      Deps
	logger    *slog.Logger
}

func NewProcessor(outputDir string, deps Deps, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Classifier == nil {
		deps.Classifier = classify.NewRegexClassifier(logger)
	}
	return &Processor{outputDir: outputDir, deps: deps, logger: logger}
}

// ProcessFile runs every stage for one input file. The returned error is either
// fatal for the run (see common.IsFatal) or scoped to this file.
func (p *Processor) ProcessFile(ctx context.Context, state *RunState, path string) (Outcome, error) {
	filename := filepath.Base(path)
	ctx = common.WithFilename(ctx, filename)
	ctx, span := tracer.Start(ctx, "pipeline.process_file")
	defer span.End()
	span.SetAttributes(attribute.String("file", filename))
	start := time.Now()

	out, err := p.processSafely(ctx, state, path, filename)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error("processor.failed", "file", filename, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return out, err
	}
	p.logger.Info("processor.ok",
		"file", filename,
		"new_filename", out.Record.NewFilename,
		"site_id", out.Record.SiteID,
		"doc_type", out.Record.DocumentType,
		"duplicate", out.Record.Duplicate,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// processSafely turns a panic in any stage into an error for this file only.
func (p *Processor) processSafely(ctx context.Context, state *RunState, path, filename string) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("processor.panic", "file", filename, "panic", r, "stack", string(debug.Stack()))
			out, err = Outcome{}, fmt.Errorf("%s: unexpected failure: %v", filename, r)
		}
	}()
	return p.process(ctx, state, path, filename)
}

func (p *Processor) process(ctx context.Context, state *RunState, path, filename string) (Outcome, error) {
	// 1) read + normalize
	res, err := p.deps.Reader.ReadText(ctx, path)
	if err != nil {
		return Outcome{}, err
	}
	text := p.deps.Normalizer.Normalize(res.Text)
	p.logger.Debug("processor.read.ok", "file", filename, "pages", res.Pages, "tokens", textnorm.TokenCount(text))

	// 2) metadata, site ID, address
	meta, err := p.deps.Extractor.Extract(ctx, state.Session, filename, text)
	if err != nil {
		return Outcome{}, fmt.Errorf("extract: %w", err)
	}

	// 3) type + releasability
	dt, err := p.deps.Classifier.Classify(ctx, classify.Input{
		Path:     path,
		SiteID:   meta.SiteID,
		Title:    meta.Record.Title,
		Text:     text,
		Readable: meta.Readable,
	})
	if err != nil {
		p.logger.Warn("processor.classify.failed", "file", filename, "error", err)
		dt = constants.Unknown
	}
	releasable, err := p.deps.Registry.Releasable(dt)
	if err != nil {
		return Outcome{}, err
	}

	site := placement.SiteSegment(meta.SiteID)
	lock := state.siteLock(site)
	lock.Lock()
	defer lock.Unlock()

	// 4) duplicate check against what is already filed for the site
	verdict, err := p.deps.Detector.Check(ctx, placement.SiteDir(p.outputDir, meta.SiteID), site, path, text)
	if err != nil {
		return Outcome{}, fmt.Errorf("duplicate check: %w", err)
	}
	currentIsDup := verdict.IsDuplicate() && verdict.CurrentIsShorter

	var matched runlog.Record
	if verdict.IsDuplicate() {
		matched = p.matchedRecord(verdict.MatchedPath)
	}

	// 5) place + organize
	dir := placement.Dir(p.outputDir, filename, meta.SiteID, dt)
	dst, err := state.Placer.Claim(dir, placement.BaseName(filename, meta.SiteID, dt, currentIsDup))
	if err != nil {
		return Outcome{}, fmt.Errorf("claim destination: %w", err)
	}
	if err := placement.Organize(path, dst); err != nil {
		return Outcome{}, fmt.Errorf("organize: %w", err)
	}
	p.logger.Info("processor.organize.ok", "file", filename, "dst", dst)

	// 6) log
	rec := runlog.Record{
		OriginalFilename: filename,
		NewFilename:      filepath.Base(dst),
		SiteID:           site,
		DocumentType:     string(dt),
		Title:            meta.Record.Title,
		Sender:           meta.Record.Sender,
		Receiver:         meta.Record.Receiver,
		Address:          meta.Record.Address,
		Readable:         string(meta.Readable),
		Duplicate:        string(constants.DuplicateNo),
		Releasable:       releasable,
		OutputPath:       dst,
	}
	switch {
	case currentIsDup:
		rec.Duplicate = string(verdict.Status)
		rec.SimilarityScore = verdict.Score
		rec.DuplicateFile = matched.OriginalFilename
		rec.Releasable = constants.ReleasableDuplicate
	case verdict.IsDuplicate():
		rec.SimilarityScore = verdict.Score
		rec.Supersedes = matched.OriginalFilename
	}
	if err := p.deps.Log.Append(ctx, rec); err != nil {
		return Outcome{}, fmt.Errorf("append run log: %w", err)
	}

	out := Outcome{Record: rec}

	// 7) a longer copy arrived after a shorter one was filed: the filed copy is the duplicate
	if verdict.IsDuplicate() && !verdict.CurrentIsShorter {
		relabeled, err := p.relabelSuperseded(ctx, state, verdict, matched, filename)
		if err != nil {
			return out, fmt.Errorf("relabel superseded copy: %w", err)
		}
		out.Relabeled = relabeled
	}
	return out, nil
}

// matchedRecord finds the run-log row of a filed copy. A copy filed outside the
// log (or by a log that was since rotated) gets a stand-in keyed by its file name.
func (p *Processor) matchedRecord(path string) runlog.Record {
	rec, err := p.deps.Log.FindByOutputPath(path)
	if err == nil {
		return rec
	}
	p.logger.Warn("processor.matched.unlogged", "path", path, "error", err)
	return runlog.Record{OriginalFilename: filepath.Base(path), OutputPath: path}
}
