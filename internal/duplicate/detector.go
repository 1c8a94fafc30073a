// Package duplicate decides whether a document's content is already filed under its site.
package duplicate

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/reader"
	"github.com/joseph-ayodele/site-records/internal/similarity"
	"github.com/joseph-ayodele/site-records/internal/textnorm"
)

var tracer = otel.Tracer("github.com/joseph-ayodele/site-records/internal/duplicate")

// Default thresholds.
const (
	DefaultContainmentThreshold = 0.75
	DefaultFuzzyThreshold       = 78
)

type Config struct {
	ContainmentThreshold float64 // 0..1
	FuzzyThreshold       float64 // 0..100
}

// Verdict is the outcome of one duplicate check.
type Verdict struct {
	Status constants.DuplicateStatus
	Score  float64
	// MatchedPath is the filed copy that triggered the verdict; empty for DuplicateNo.
	MatchedPath string
	// CurrentIsShorter says which side is the redundant copy. Ties count as shorter.
	CurrentIsShorter bool
}

// IsDuplicate reports whether a match was found.
func (v Verdict) IsDuplicate() bool { return v.Status != constants.DuplicateNo }

// NoMatch is the verdict when nothing filed resembles the document.
var NoMatch = Verdict{Status: constants.DuplicateNo}

type cachedText struct {
	size    int64
	modTime time.Time
	text    string
}

// Detector compares a document against the copies already filed for its site.
type Detector struct {
	cfg    Config
	reader reader.TextReader
	norm   textnorm.Normalizer
	logger *slog.Logger

	mu    sync.Mutex
	texts map[string]cachedText
}

func NewDetector(cfg Config, r reader.TextReader, norm textnorm.Normalizer, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ContainmentThreshold <= 0 {
		cfg.ContainmentThreshold = DefaultContainmentThreshold
	}
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = DefaultFuzzyThreshold
	}
	return &Detector{cfg: cfg, reader: r, norm: norm, logger: logger, texts: make(map[string]cachedText)}
}

// Compare scores one pair. Containment is tried first; the fuzzy ratio only when it misses.
func (d *Detector) Compare(current, candidate string) Verdict {
	currentShorter := len(current) <= len(candidate)
	shorter, longer := current, candidate
	if !currentShorter {
		shorter, longer = candidate, current
	}

	if recall := similarity.Containment(shorter, longer); recall >= d.cfg.ContainmentThreshold {
		return Verdict{Status: constants.DuplicateContained, Score: recall, CurrentIsShorter: currentShorter}
	}
	if ratio := similarity.TokenSortRatioAtLeast(current, candidate, d.cfg.FuzzyThreshold); ratio >= d.cfg.FuzzyThreshold {
		return Verdict{Status: constants.DuplicateLikelyOCR, Score: ratio / 100, CurrentIsShorter: currentShorter}
	}
	return NoMatch
}

// Check walks siteDir for filed PDFs whose name contains siteID and returns the first match.
// currentPath is excluded by resolved path. currentText must already be normalized.
func (d *Detector) Check(ctx context.Context, siteDir, siteID, currentPath, currentText string) (Verdict, error) {
	ctx, span := tracer.Start(ctx, "duplicate.check")
	defer span.End()
	span.SetAttributes(attribute.String("site_id", siteID))

	if siteID == "" || siteID == constants.UnknownSiteDir {
		d.logger.Debug("duplicate.skip.no_site", "file", filepath.Base(currentPath))
		return NoMatch, nil
	}
	self := resolved(currentPath)

	var verdict = NoMatch
	var scanned int
	err := filepath.WalkDir(siteDir, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			if path == siteDir {
				return fs.SkipAll // nothing filed for this site yet
			}
			d.logger.Warn("duplicate.walk.error", "path", path, "error", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if de.IsDir() || !constants.IsPDF(path) || !strings.Contains(de.Name(), siteID) {
			return nil
		}
		if resolved(path) == self {
			return nil
		}

		text, ok := d.candidateText(ctx, path, de)
		if !ok {
			return nil
		}
		scanned++
		v := d.Compare(currentText, text)
		if !v.IsDuplicate() {
			return nil
		}
		v.MatchedPath = path
		verdict = v
		return fs.SkipAll
	})
	if err != nil {
		return NoMatch, err
	}

	span.SetAttributes(
		attribute.String("duplicate.status", string(verdict.Status)),
		attribute.Int("duplicate.scanned", scanned),
	)
	if verdict.IsDuplicate() {
		d.logger.Info("duplicate.match."+eventName(verdict.Status),
			"file", filepath.Base(currentPath),
			"site_id", siteID,
			"matched", verdict.MatchedPath,
			"score", verdict.Score,
			"current_is_shorter", verdict.CurrentIsShorter,
		)
	} else {
		d.logger.Debug("duplicate.none", "file", filepath.Base(currentPath), "site_id", siteID, "scanned", scanned)
	}
	return verdict, nil
}

func eventName(s constants.DuplicateStatus) string {
	if s == constants.DuplicateLikelyOCR {
		return "ocr"
	}
	return string(s)
}

func (d *Detector) candidateText(ctx context.Context, path string, de fs.DirEntry) (string, bool) {
	info, err := de.Info()
	if err != nil {
		return "", false
	}
	d.mu.Lock()
	c, hit := d.texts[path]
	d.mu.Unlock()
	if hit && c.size == info.Size() && c.modTime.Equal(info.ModTime()) {
		return c.text, true
	}

	res, err := d.reader.ReadText(ctx, path)
	if err != nil {
		d.logger.Warn("duplicate.candidate.unreadable", "path", path, "error", err)
		return "", false
	}
	text := d.norm.Normalize(res.Text)

	d.mu.Lock()
	d.texts[path] = cachedText{size: info.Size(), modTime: info.ModTime(), text: text}
	d.mu.Unlock()
	return text, true
}

func resolved(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
