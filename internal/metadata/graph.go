package metadata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const encoderType = "CLIPTextEncode"

type polarity int

const (
	polarityAmbiguous polarity = iota
	polarityPositive
	polarityNegative
)

// graphNode is the subset of a workflow node the extractor inspects.
type graphNode struct {
	ID            any            `json:"id"`
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Properties    map[string]any `json:"properties"`
	WidgetsValues []any          `json:"widgets_values"`
}

type promptNode struct {
	ClassType string       `json:"class_type"`
	Inputs    promptInputs `json:"inputs"`
}

type promptInputs struct {
	Text   any `json:"text"`
	Prompt any `json:"prompt"`
}

// graphCandidates extracts candidates from the node-graph scheme. The two
// sub-sources are tried in order and never merged: the prompt mapping is
// consulted only when the workflow yields nothing.
func graphCandidates(meta map[string]string) []string {
	seen := make(map[string]bool)
	if raw, ok := meta["workflow"]; ok {
		if candidates := workflowCandidates(raw, seen); len(candidates) > 0 {
			return candidates
		}
	}
	if raw, ok := meta["prompt"]; ok {
		return promptDataCandidates(raw, seen)
	}
	return nil
}

func workflowCandidates(raw string, seen map[string]bool) []string {
	var doc struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}

	var candidates []string
	for _, rawNode := range doc.Nodes {
		var node graphNode
		if err := json.Unmarshal(rawNode, &node); err != nil {
			continue
		}
		key := nodeKey(node.ID)
		if seen[key] {
			continue
		}
		if !isEncoderNode(node) {
			continue
		}
		text := nodeText(node)
		if classifyNode(node.Title, text) != polarityPositive {
			continue
		}
		seen[key] = true
		candidates = append(candidates, text)
	}
	return candidates
}

// promptDataCandidates walks the prompt mapping token by token so candidates
// come out in document order; a decoded map would lose it.
func promptDataCandidates(raw string, seen map[string]bool) []string {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var candidates []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return candidates
		}
		key, ok := keyTok.(string)
		if !ok {
			return candidates
		}
		var rawValue json.RawMessage
		if err := dec.Decode(&rawValue); err != nil {
			return candidates
		}

		var node promptNode
		if err := json.Unmarshal(rawValue, &node); err != nil {
			continue
		}
		if seen[key] {
			continue
		}
		if node.ClassType != encoderType {
			continue
		}
		text := node.Inputs.text()
		lowered := strings.ToLower(strings.TrimSpace(text))
		if lowered == "" || strings.HasPrefix(lowered, "negative") {
			continue
		}
		seen[key] = true
		candidates = append(candidates, text)
	}
	return candidates
}

// classifyNode decides which prompt an encoder node carries. Negative rules
// win over positive ones; untitled nodes count as positive only when their
// text is non-blank and does not read as a negative prompt.
func classifyNode(title, text string) polarity {
	title = strings.ToLower(strings.TrimSpace(title))
	lowered := strings.ToLower(strings.TrimSpace(text))

	switch {
	case strings.Contains(title, "neg"):
		return polarityNegative
	case lowered == "" || strings.HasPrefix(lowered, "negative"):
		return polarityNegative
	case strings.Contains(title, "pos"):
		return polarityPositive
	case title == "" || title == "untitled":
		return polarityPositive
	}
	return polarityAmbiguous
}

func isEncoderNode(node graphNode) bool {
	if node.Type == encoderType {
		return true
	}
	if strings.Contains(strings.ToLower(node.Type), "cliptext") {
		return true
	}
	name, _ := node.Properties["Node name for S&R"].(string)
	return name == encoderType
}

// nodeText is the first widget value, and only when it is a plain string.
func nodeText(node graphNode) string {
	if len(node.WidgetsValues) == 0 {
		return ""
	}
	s, _ := node.WidgetsValues[0].(string)
	return s
}

func (in promptInputs) text() string {
	if s, ok := in.Text.(string); ok && s != "" {
		return s
	}
	if s, ok := in.Prompt.(string); ok && s != "" {
		return s
	}
	return ""
}

func nodeKey(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
