package metadata

import (
	"unicode/utf8"

	"github.com/mamorett/comfyprompt-dataset/internal/textutil"
)

// Extract runs both schemes against the embedded metadata and returns the
// candidate prompts in extraction order: the parameters candidate first,
// then the node-graph candidates.
func Extract(meta map[string]string) []string {
	var candidates []string
	if c, ok := parametersCandidate(meta); ok {
		candidates = append(candidates, c)
	}
	return append(candidates, graphCandidates(meta)...)
}

// Select normalizes the candidates, drops duplicates keeping first-seen
// order, and returns the longest survivor by rune count. A tie keeps the
// earlier candidate. "" means no prompt; the caller owns any placeholder.
func Select(candidates []string) string {
	seen := make(map[string]struct{}, len(candidates))
	var best string
	bestLen := 0
	for _, c := range candidates {
		n := textutil.Normalize(c)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if l := utf8.RuneCountInString(n); l > bestLen {
			best, bestLen = n, l
		}
	}
	return best
}

// Best is Extract followed by Select.
func Best(meta map[string]string) string {
	return Select(Extract(meta))
}
