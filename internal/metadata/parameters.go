package metadata

import (
	"sort"
	"strings"

	"github.com/mamorett/comfyprompt-dataset/internal/textutil"
)

// Keys that may carry the prompt when the parameters chunk is a JSON object,
// tried in order.
var parameterKeys = []string{
	"Positive prompt", "positive prompt", "Positive Prompt",
	"positive_prompt", "prompt", "Prompt",
}

const positiveLabel = "positive prompt:"

// parametersCandidate extracts the single candidate of the "parameters"
// scheme: a JSON body with a recognized key, a labeled text body, or, when
// both come up empty, a labeled section found in any other metadata value.
func parametersCandidate(meta map[string]string) (string, bool) {
	if params, ok := meta["parameters"]; ok {
		if obj, ok := textutil.DecodeJSONObject(params); ok {
			for _, key := range parameterKeys {
				if s, isStr := obj[key].(string); isStr {
					return s, true
				}
			}
		}
		if c, ok := labeledSection(params); ok {
			return c, true
		}
	}

	// Sorted for determinism; chunk order is not preserved in the map.
	keys := make([]string, 0, len(meta))
	for key := range meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := meta[key]
		if !strings.Contains(value, "Positive prompt") && !strings.Contains(value, "Negative prompt") {
			continue
		}
		if c, ok := labeledSection(value); ok {
			return c, true
		}
	}
	return "", false
}

// labeledSection parses line-oriented parameter text: the remainder of the
// first "positive prompt:" line plus every following line until a blank or
// colon-bearing line, which starts the next labeled section.
func labeledSection(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(line), positiveLabel) {
			continue
		}

		_, after, _ := strings.Cut(line, ":")
		fragments := []string{strings.TrimSpace(after)}
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(next)
			if next == "" || strings.Contains(next, ":") {
				break
			}
			fragments = append(fragments, next)
		}

		joined := strings.TrimSpace(strings.Join(fragments, " "))
		return joined, joined != ""
	}
	return "", false
}
