// Package classify assigns a document-type label to a document.
package classify

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/llm"
)

// Modes accepted by New.
const (
	ModeRegex = "regex"
	ModeML    = "ml"
)

// CORR precedes COR so the longer keyword wins on a shared prefix.
var reDocType = regexp.MustCompile(`\b(` + strings.Join(constants.AsStringSlice(), "|") + `)\b`)

var separators = strings.NewReplacer("_", " ", "-", " ")

type Input struct {
	Path     string
	SiteID   string
	Title    string
	Text     string
	Readable constants.Readable
}

type Classifier interface {
	Classify(ctx context.Context, in Input) (constants.DocType, error)
}

// Match returns the leftmost whole-token keyword in s.
func Match(s string) (constants.DocType, bool) {
	m := reDocType.FindStringSubmatch(separators.Replace(strings.ToUpper(s)))
	if m == nil {
		return constants.Unknown, false
	}
	return constants.DocType(m[1]), true
}

// RegexClassifier tries the filename stem, then the title.
type RegexClassifier struct {
	logger *slog.Logger
}

func NewRegexClassifier(logger *slog.Logger) *RegexClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegexClassifier{logger: logger}
}

func (c *RegexClassifier) Classify(_ context.Context, in Input) (constants.DocType, error) {
	base := filepath.Base(in.Path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if dt, ok := Match(stem); ok {
		c.logger.Debug("classify.filename", "file", base, "doc_type", string(dt))
		return dt, nil
	}
	if !constants.IsNone(in.Title) {
		if dt, ok := Match(in.Title); ok {
			c.logger.Debug("classify.title", "file", base, "doc_type", string(dt))
			return dt, nil
		}
	}
	c.logger.Debug("classify.unknown", "file", base)
	return constants.Unknown, nil
}

// OracleClassifier asks the model to pick a label and falls back to the keyword rules
// when the answer is not one of them.
type OracleClassifier struct {
	oracle   llm.MetadataOracle
	prompts  *llm.Prompts
	fallback *RegexClassifier
	logger   *slog.Logger
}

func NewOracleClassifier(oracle llm.MetadataOracle, prompts *llm.Prompts, logger *slog.Logger) *OracleClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	if prompts == nil {
		prompts = llm.NewPrompts(0)
	}
	return &OracleClassifier{oracle: oracle, prompts: prompts, fallback: NewRegexClassifier(logger), logger: logger}
}

// Classify asks the oracle for a label. Unreadable scans never reach the oracle.
func (c *OracleClassifier) Classify(ctx context.Context, in Input) (constants.DocType, error) {
	if in.Readable == constants.ReadableNo {
		return c.fallback.Classify(ctx, in)
	}
	prompt := c.prompts.RenderWith(llm.PromptDocType, in.Text, map[string]string{
		llm.LabelsPlaceholder: strings.Join(constants.AsStringSlice(), ", "),
	})
	answer, err := c.oracle.QueryField(ctx, prompt)
	if err != nil {
		c.logger.Warn("classify.oracle.failed", "file", filepath.Base(in.Path), "error", err)
		return c.fallback.Classify(ctx, in)
	}
	if dt, ok := constants.Canonicalize(answer); ok && dt != constants.Unknown {
		return dt, nil
	}
	c.logger.Info("classify.oracle.off_label", "file", filepath.Base(in.Path), "answer", answer)
	return c.fallback.Classify(ctx, in)
}

// New returns the classifier for mode; anything but "ml" gets the keyword rules.
func New(mode string, oracle llm.MetadataOracle, prompts *llm.Prompts, logger *slog.Logger) Classifier {
	if mode == ModeML && oracle != nil {
		return NewOracleClassifier(oracle, prompts, logger)
	}
	return NewRegexClassifier(logger)
}
