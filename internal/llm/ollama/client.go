package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/joseph-ayodele/site-records/internal/llm"
)

var _ llm.MetadataOracle = (*Client)(nil)

var tracer = otel.Tracer("github.com/joseph-ayodele/site-records/internal/llm/ollama")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// QueryRecord implements llm.MetadataOracle using /api/chat in JSON mode.
func (c *Client) QueryRecord(ctx context.Context, prompt string) (llm.Record, error) {
	rid := uuid.New().String()
	start := time.Now()
	ctx, span := tracer.Start(ctx, "llm.query_record")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.cfg.Model), attribute.Int("llm.prompt_len", len(prompt)))

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(prompt),
	)

	content, err := c.chat(ctx, rid, prompt, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Record{}, err
	}

	rec, err := llm.ParseRecord(content, c.logger)
	if err != nil {
		span.SetStatus(codes.Error, "malformed record")
		c.logger.Warn("llm.extract.malformed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Record{}, err
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"site_id", rec.SiteID,
		"readable", rec.Readable,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// QueryField implements llm.MetadataOracle for single-field prompts.
func (c *Client) QueryField(ctx context.Context, prompt string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	ctx, span := tracer.Start(ctx, "llm.query_field")
	defer span.End()

	content, err := c.chat(ctx, rid, prompt, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("llm.field.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}
	answer := strings.TrimSpace(content)
	c.logger.Info("llm.field.ok",
		"req_id", rid,
		"answer_len", len(answer),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return answer, nil
}

func (c *Client) chat(ctx context.Context, rid, prompt string, jsonMode bool) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if c.cfg.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: c.cfg.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body := map[string]any{
		"model":    c.cfg.Model,
		"messages": messages,
		"stream":   false,
		"options":  map[string]any{"temperature": c.cfg.Temperature},
	}
	if jsonMode {
		body["format"] = "json"
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/chat"
	raw, err := c.retryWithBackoff(ctx, rid, func() ([]byte, error) {
		raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, nil, c.logger)
		return raw, err
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if cr.Error != "" {
		return "", fmt.Errorf("ollama error: %s", cr.Error)
	}
	return cr.Message.Content, nil
}
