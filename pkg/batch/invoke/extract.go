package invoke

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractFlatJSON parses model output into ordered (keys, values).
//
// Markdown code fences around the JSON are tolerated and stripped.
// The output must be a single flat JSON object: scalar values only
// (string, number, bool, null). Nested objects or arrays are a parse
// failure, as is trailing content after the object.
func extractFlatJSON(raw string) ([]string, map[string]any, error) {
	cleaned := stripFences(raw)
	if strings.TrimSpace(cleaned) == "" {
		return nil, nil, fmt.Errorf("output is empty")
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("output is not a JSON object")
	}

	var keys []string
	fields := make(map[string]any)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("invalid JSON object key")
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid JSON: %w", err)
		}
		if _, nested := valTok.(json.Delim); nested {
			return nil, nil, fmt.Errorf("field %q is not a scalar", key)
		}

		if _, seen := fields[key]; !seen {
			keys = append(keys, key)
		}
		fields[key] = valTok
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	// Anything after the object means the output was not a single record.
	if dec.More() {
		return nil, nil, fmt.Errorf("trailing content after JSON object")
	}

	return keys, fields, nil
}

// stripFences removes markdown code fences that models often wrap JSON in.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
