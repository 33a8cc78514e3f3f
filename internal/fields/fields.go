package fields

import (
	"encoding/json"
	"fmt"
)

// Encode flattens values into string fields. Strings are stored as-is, nil
// values are dropped and anything else is JSON-encoded. Values that cannot
// be encoded fall back to their fmt representation.
func Encode(values map[string]any) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		switch tv := v.(type) {
		case nil:
			continue
		case string:
			out[k] = tv
		default:
			b, err := json.Marshal(tv)
			if err != nil {
				out[k] = fmt.Sprint(tv)
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}

// Parse recovers typed values from string fields: each value that is valid
// JSON is decoded, anything else is kept as the raw string. It never fails.
// Numbers decode as float64, as encoding/json does for untyped targets.
func Parse(raw map[string]string) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = ParseValue(v)
	}
	return out
}

// ParseValue is Parse for a single value.
func ParseValue(v string) any {
	var decoded any
	if err := json.Unmarshal([]byte(v), &decoded); err != nil {
		return v
	}
	return decoded
}
