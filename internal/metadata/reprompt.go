package metadata

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/llm"
)

// DefaultFieldRetries bounds every single-field loop.
const DefaultFieldRetries = 5

// Reprompter re-asks the oracle for one field with a narrow prompt.
type Reprompter struct {
	oracle     llm.MetadataOracle
	prompts    *llm.Prompts
	maxRetries int
	logger     *slog.Logger
}

func NewReprompter(oracle llm.MetadataOracle, prompts *llm.Prompts, maxRetries int, logger *slog.Logger) *Reprompter {
	if logger == nil {
		logger = slog.Default()
	}
	if prompts == nil {
		prompts = llm.NewPrompts(0)
	}
	if maxRetries <= 0 {
		maxRetries = DefaultFieldRetries
	}
	return &Reprompter{oracle: oracle, prompts: prompts, maxRetries: maxRetries, logger: logger}
}

// Loop replaces value with fresh answers until accept(value) holds or the retries run out.
// With stopOnNone a "none" value ends the loop as well. A failed query still uses up
// an attempt and leaves value unchanged.
func (r *Reprompter) Loop(ctx context.Context, kind llm.PromptKind, text, value string, accept func(string) bool, stopOnNone bool) (string, bool, int) {
	prompt := r.prompts.Render(kind, text)
	attempts := 0
	for attempts < r.maxRetries {
		if stopOnNone && constants.IsNone(value) {
			break
		}
		if accept(value) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		attempts++
		answer, err := r.oracle.QueryField(ctx, prompt)
		if err != nil {
			r.logger.Warn("extract.reprompt.query_failed", "field", string(kind), "attempt", attempts, "error", err)
			continue
		}
		r.logger.Debug("extract.reprompt.answer", "field", string(kind), "attempt", attempts)
		value = answer
	}
	return value, accept(value), attempts
}

// ValidateAndReprompt checks one field of rec against the source and re-asks for it
// while it is malformed. It returns true when the field ends up flagged.
func (r *Reprompter) ValidateAndReprompt(ctx context.Context, key string, maxTokens int, rec *llm.Record, ground *Grounding, text string) bool {
	value := rec.Get(key)
	if constants.IsNone(value) {
		rec.Set(key, constants.None)
		return false
	}
	kind, ok := llm.FieldPrompt(key)
	if !ok {
		return false
	}
	accept := func(v string) bool { return ground.WellFormed(v, maxTokens) }

	final, wellFormed, attempts := r.Loop(ctx, kind, text, value, accept, true)
	if constants.IsNone(final) {
		rec.Set(key, constants.None)
		return false
	}
	rec.Set(key, final)
	if !wellFormed {
		r.logger.Warn("extract.field.flagged", "field", key, "attempts", attempts)
		return true
	}
	return false
}
