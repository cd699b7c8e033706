package metadata

import (
	"reflect"
	"testing"
)

func TestWorkflowCandidates(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{
			"positive title",
			`{"nodes": [
				{"id": 1, "type": "CLIPTextEncode", "title": "Positive Prompt", "widgets_values": ["a red fox"]},
				{"id": 2, "type": "CLIPTextEncode", "title": "Negative Prompt", "widgets_values": ["blurry, ugly"]}
			]}`,
			[]string{"a red fox"},
		},
		{
			"untitled with text",
			`{"nodes": [{"id": 3, "type": "CLIPTextEncode", "widgets_values": ["a blue cat"]}]}`,
			[]string{"a blue cat"},
		},
		{
			"untitled negative text excluded",
			`{"nodes": [{"id": 3, "type": "CLIPTextEncode", "widgets_values": ["negative space, artifacts"]}]}`,
			nil,
		},
		{
			"blank text excluded",
			`{"nodes": [{"id": 3, "type": "CLIPTextEncode", "title": "positive", "widgets_values": ["   "]}]}`,
			nil,
		},
		{
			"non-string widget excluded",
			`{"nodes": [{"id": 3, "type": "CLIPTextEncode", "title": "positive", "widgets_values": [[1, 0]]}]}`,
			nil,
		},
		{
			"type substring match",
			`{"nodes": [{"id": 4, "type": "smZ CLIPTextEncode++", "title": "positive", "widgets_values": ["detailed scene"]}]}`,
			[]string{"detailed scene"},
		},
		{
			"properties name match",
			`{"nodes": [{"id": 5, "type": "Reroute", "title": "positive", "properties": {"Node name for S&R": "CLIPTextEncode"}, "widgets_values": ["via properties"]}]}`,
			[]string{"via properties"},
		},
		{
			"duplicate node id contributes once",
			`{"nodes": [
				{"id": 7, "type": "CLIPTextEncode", "title": "positive", "widgets_values": ["first copy"]},
				{"id": 7, "type": "CLIPTextEncode", "title": "positive", "widgets_values": ["second copy"]}
			]}`,
			[]string{"first copy"},
		},
		{
			"non-encoder ignored",
			`{"nodes": [{"id": 8, "type": "KSampler", "title": "positive", "widgets_values": ["not a prompt"]}]}`,
			nil,
		},
		{
			"malformed node skipped",
			`{"nodes": [
				{"id": 9, "type": "CLIPTextEncode", "title": "positive", "widgets_values": {"bad": "shape"}},
				{"id": 10, "type": "CLIPTextEncode", "title": "positive", "widgets_values": ["still works"]}
			]}`,
			[]string{"still works"},
		},
		{
			"not an object",
			`[{"id": 1}]`,
			nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := workflowCandidates(tc.raw, map[string]bool{})
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPromptDataCandidates(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{
			"document order preserved",
			`{"9": {"class_type": "CLIPTextEncode", "inputs": {"text": "first node"}},
			  "3": {"class_type": "CLIPTextEncode", "inputs": {"text": "second node"}}}`,
			[]string{"first node", "second node"},
		},
		{
			"prompt input fallback",
			`{"1": {"class_type": "CLIPTextEncode", "inputs": {"prompt": "via prompt input"}}}`,
			[]string{"via prompt input"},
		},
		{
			"negative prefix excluded",
			`{"1": {"class_type": "CLIPTextEncode", "inputs": {"text": "Negative: bad hands"}},
			  "2": {"class_type": "CLIPTextEncode", "inputs": {"text": "good hands"}}}`,
			[]string{"good hands"},
		},
		{
			"class type exact",
			`{"1": {"class_type": "cliptextencode", "inputs": {"text": "wrong case"}}}`,
			nil,
		},
		{
			"linked input skipped",
			`{"1": {"class_type": "CLIPTextEncode", "inputs": {"text": ["4", 0]}}}`,
			nil,
		},
		{
			"non-object value skipped",
			`{"meta": 5, "1": {"class_type": "CLIPTextEncode", "inputs": {"text": "survives"}}}`,
			[]string{"survives"},
		},
		{
			"top level not an object",
			`["a", "b"]`,
			nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := promptDataCandidates(tc.raw, map[string]bool{})
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGraphSourcePrecedence(t *testing.T) {
	meta := map[string]string{
		"workflow": `{"nodes": [{"id": 1, "type": "CLIPTextEncode", "title": "positive", "widgets_values": ["from workflow"]}]}`,
		"prompt":   `{"1": {"class_type": "CLIPTextEncode", "inputs": {"text": "from prompt data"}}}`,
	}
	if got := graphCandidates(meta); !reflect.DeepEqual(got, []string{"from workflow"}) {
		t.Fatalf("workflow should win, got %v", got)
	}

	// An empty workflow falls back to the prompt mapping.
	meta["workflow"] = `{"nodes": [{"id": 1, "type": "KSampler"}]}`
	if got := graphCandidates(meta); !reflect.DeepEqual(got, []string{"from prompt data"}) {
		t.Fatalf("prompt data fallback, got %v", got)
	}
}

func TestClassifyNode(t *testing.T) {
	cases := []struct {
		name  string
		title string
		text  string
		want  polarity
	}{
		{"negative title", "Negative Prompt", "anything", polarityNegative},
		{"neg shorthand", "neg", "anything", polarityNegative},
		{"negative beats positive wording", "positive and negative", "text", polarityNegative},
		{"blank text", "positive", "   ", polarityNegative},
		{"negative-prefixed text", "", "negative space", polarityNegative},
		{"positive title", "Positive Prompt", "a fox", polarityPositive},
		{"pos shorthand", "pos", "a fox", polarityPositive},
		{"empty title with text", "", "a fox", polarityPositive},
		{"untitled with text", "Untitled", "a fox", polarityPositive},
		{"unrelated title", "conditioning A", "a fox", polarityAmbiguous},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyNode(tc.title, tc.text); got != tc.want {
				t.Fatalf("classifyNode(%q, %q) = %v, want %v", tc.title, tc.text, got, tc.want)
			}
		})
	}
}
