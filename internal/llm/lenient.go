package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// ExtractObject pulls the first {...} block out of model output, tolerating code
// fences and chatter around it. Python-style dicts are rewritten to JSON.
func ExtractObject(content string) ([]byte, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no object in model output")
	}
	obj := s[start : end+1]
	if json.Valid([]byte(obj)) {
		return []byte(obj), nil
	}
	converted := pythonDictToJSON(obj)
	if json.Valid([]byte(converted)) {
		return []byte(converted), nil
	}
	return nil, fmt.Errorf("model output is not a json object")
}

// pythonDictToJSON rewrites single-quoted strings and None/True/False literals.
func pythonDictToJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inStr := false
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case c == '\\' && i+1 < len(s):
				next := s[i+1]
				if next == '\'' {
					b.WriteByte('\'')
				} else {
					b.WriteByte(c)
					b.WriteByte(next)
				}
				i++
			case c == quote:
				b.WriteByte('"')
				inStr = false
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
			continue
		}
		switch {
		case c == '\'' || c == '"':
			inStr = true
			quote = c
			b.WriteByte('"')
		case strings.HasPrefix(s[i:], "None"):
			b.WriteString("null")
			i += len("None") - 1
		case strings.HasPrefix(s[i:], "True"):
			b.WriteString("true")
			i += len("True") - 1
		case strings.HasPrefix(s[i:], "False"):
			b.WriteString("false")
			i += len("False") - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ParseRecord turns raw model output into a Record. Anything other than exactly
// the six string keys fails with ErrMalformedRecord.
func ParseRecord(content string, logger *slog.Logger) (Record, error) {
	if logger == nil {
		logger = slog.Default()
	}
	obj, err := ExtractObject(content)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	cleaned, _, err := NormalizeRecordJSON(obj, logger)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := ValidateRecordJSON(cleaned); err != nil {
		logger.Warn("llm.record.schema_validation_failed", "error", err, "content", truncate(content, 512))
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	var out Record
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
