package textutil

import (
	"encoding/json"
	"strings"
)

// Normalize trims s and collapses every run of whitespace, newlines
// included, to a single space. Idempotent.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DecodeJSON is a best-effort decode: the second return is false for
// malformed input. Callers treat absence as a normal case, not an error.
func DecodeJSON(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// DecodeJSONObject is DecodeJSON restricted to a top-level object.
func DecodeJSONObject(s string) (map[string]any, bool) {
	v, ok := DecodeJSON(s)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return obj, true
}
