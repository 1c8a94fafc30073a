package ollama

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/joseph-ayodele/site-records/internal/llm"
)

// shouldRetry decides whether err from SendJSON deserves another attempt.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var he *llm.HTTPError
	if errors.As(err, &he) {
		return he.Retryable()
	}
	// connection refused, reset, client timeout
	return true
}

// calculateBackoff is initialBackoff * 2^attempt, capped at MaxBackoff.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.cfg.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(c.cfg.MaxBackoff) {
		backoff = float64(c.cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}

func (c *Client) retryWithBackoff(ctx context.Context, reqID string, fn func() ([]byte, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		raw, err := fn()
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !shouldRetry(err) || attempt == c.cfg.MaxRetries {
			break
		}

		wait := c.calculateBackoff(attempt)
		c.logger.Warn("llm.ollama.retry", "req_id", reqID, "attempt", attempt+1, "backoff_ms", wait.Milliseconds(), "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}
