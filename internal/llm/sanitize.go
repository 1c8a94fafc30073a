package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

var keyReplacer = strings.NewReplacer(" ", "_", "-", "_")

// NormalizeRecordJSON
// - Lowercases keys and turns spaces/dashes into underscores ("Site ID" -> site_id)
// - Maps null to "none"
// - Coerces numbers and booleans to strings
// - Trims string values
// Unknown keys are kept so the schema can reject them. Two raw keys that normalize to
// the same key (site_id and "Site ID") are an error.
func NormalizeRecordJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	changed := make([]string, 0, 4)
	out := make(map[string]any, len(m))
	from := make(map[string]string, len(m))
	for k, v := range m {
		key := keyReplacer.Replace(strings.ToLower(strings.TrimSpace(k)))
		if prev, dup := from[key]; dup {
			a, b := prev, k
			if b < a {
				a, b = b, a
			}
			return nil, nil, fmt.Errorf("sanitize: keys %q and %q both map to %q", a, b, key)
		}
		from[key] = k
		if key != k {
			changed = append(changed, k+"->"+key)
		}
		switch t := v.(type) {
		case nil:
			out[key] = "none"
			changed = append(changed, key+"(null)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				s = "none"
			}
			out[key] = s
		case float64:
			out[key] = strconv.FormatFloat(t, 'f', -1, 64)
			changed = append(changed, key+"(number)")
		case bool:
			if t {
				out[key] = "yes"
			} else {
				out[key] = "no"
			}
			changed = append(changed, key+"(bool)")
		default:
			// nested values stay as-is and fail the schema
			out[key] = t
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Debug("llm.record.normalized", "changed", changed)
	}
	return b, changed, nil
}
