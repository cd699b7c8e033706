package textutil

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "a red fox", "a red fox"},
		{"surrounding space", "  a red fox \t", "a red fox"},
		{"inner runs", "a \t red\n\nfox", "a red fox"},
		{"only whitespace", " \n\t ", ""},
		{"newlines joined", "line one\nline two", "line one line two"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", "  x  y ", "a\nb\tc", "already normal"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	if _, ok := DecodeJSON("{not json"); ok {
		t.Fatal("malformed input reported as decoded")
	}
	if _, ok := DecodeJSON(""); ok {
		t.Fatal("empty input reported as decoded")
	}

	v, ok := DecodeJSON(`{"prompt": "a red fox"}`)
	if !ok {
		t.Fatal("valid object not decoded")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("decoded value has type %T, want object", v)
	}
	if obj["prompt"] != "a red fox" {
		t.Fatalf("obj[prompt] = %v", obj["prompt"])
	}

	if v, ok := DecodeJSON(`[1, 2]`); !ok {
		t.Fatal("valid array not decoded")
	} else if _, isSlice := v.([]any); !isSlice {
		t.Fatalf("decoded array has type %T", v)
	}
}

func TestDecodeJSONObject(t *testing.T) {
	if _, ok := DecodeJSONObject(`[1, 2]`); ok {
		t.Fatal("array accepted as object")
	}
	if _, ok := DecodeJSONObject(`"str"`); ok {
		t.Fatal("string accepted as object")
	}
	obj, ok := DecodeJSONObject(`{"a": 1}`)
	if !ok || obj == nil {
		t.Fatal("object rejected")
	}
}
