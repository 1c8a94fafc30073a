package llm

// BuildRecordJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It pins the record to exactly the six string keys.
func BuildRecordJSONSchema() map[string]any {
	props := make(map[string]any, len(RecordKeys))
	for _, k := range RecordKeys {
		props[k] = map[string]any{"type": "string"}
	}
	required := make([]string, len(RecordKeys))
	copy(required, RecordKeys)

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
