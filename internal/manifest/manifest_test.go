package manifest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/mamorett/comfyprompt-dataset/internal/models"
)

func TestRoundTrip(t *testing.T) {
	in := []models.ImageRecord{
		{
			ID:              "aaa111",
			OriginalName:    "fox.png",
			DatasetFilename: "fox.png",
			FullPath:        "/somewhere/else/fox.png",
			RelPath:         "./stale/fox.png",
			Prompt:          "a red fox",
			Thumbnail:       "c3RhbGU=",
			Modified:        true,
			Source:          models.SourceUploaded,
			DebugInfo:       &models.DebugInfo{Exists: true},
		},
		{
			ID:              "bbb222",
			OriginalName:    "cat.png",
			DatasetFilename: "sub/cat.png",
			Prompt:          "",
			Modified:        false,
			Source:          models.SourceRescanned,
		},
	}

	text := Save(in, "./data")
	out, baseDir := Load(text)

	if baseDir != "./data" {
		t.Fatalf("base_dir = %q", baseDir)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d records, want %d", len(out), len(in))
	}
	for i := range in {
		got, want := out[i], in[i]
		if got.ID != want.ID || got.OriginalName != want.OriginalName ||
			got.DatasetFilename != want.DatasetFilename || got.Prompt != want.Prompt ||
			got.Modified != want.Modified || got.Source != want.Source {
			t.Fatalf("record %d not preserved: %+v", i, got)
		}
		if wantRel := "./data/" + want.DatasetFilename; got.RelPath != wantRel {
			t.Fatalf("record %d rel_path = %q, want %q", i, got.RelPath, wantRel)
		}
		if got.Thumbnail != "" || got.DebugInfo != nil {
			t.Fatalf("record %d carries volatile fields: %+v", i, got)
		}
		if got.FullPath == "" || !filepath.IsAbs(got.FullPath) {
			t.Fatalf("record %d full_path = %q, want absolute", i, got.FullPath)
		}
	}
}

func TestSaveShape(t *testing.T) {
	records := []models.ImageRecord{{
		ID:              "id1",
		OriginalName:    "a.png",
		DatasetFilename: "a.png",
		FullPath:        "/abs/a.png",
		Thumbnail:       "ZGF0YQ==",
		Source:          models.SourceRescanned,
	}}

	text := Save(records, "data")
	lines := strings.Split(text, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), text)
	}
	if lines[0] != `{"__manifest__":{"base_dir":"./data"}}` {
		t.Fatalf("header = %s", lines[0])
	}
	for _, forbidden := range []string{"full_path", "thumbnail", "debug_info", "/abs/", "ZGF0YQ"} {
		if strings.Contains(text, forbidden) {
			t.Fatalf("manifest leaks %q: %s", forbidden, text)
		}
	}
	if !strings.Contains(lines[1], `"rel_path":"./data/a.png"`) {
		t.Fatalf("record line = %s", lines[1])
	}

	// No records: a single header line and no trailing newline.
	if text := Save(nil, "./data"); strings.Contains(text, "\n") {
		t.Fatalf("empty save = %q", text)
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	text := strings.Join([]string{
		`{"__manifest__":{"base_dir":"./ds"}}`,
		`{"id":"ok1","original_name":"a.png","dataset_filename":"a.png","rel_path":"./ds/a.png","prompt":"p","modified":false,"source":"rescanned_dataset"}`,
		`not json at all`,
		`[1,2,3]`,
		`"just a string"`,
		``,
		`{"id":"ok2","original_name":"b.png","dataset_filename":"b.png","rel_path":"./ds/b.png","prompt":"","modified":true,"source":"jsonl"}`,
		`{"id":"trunca`,
	}, "\n")

	records, baseDir := Load(text)
	if baseDir != "./ds" {
		t.Fatalf("base_dir = %q", baseDir)
	}
	if len(records) != 2 || records[0].ID != "ok1" || records[1].ID != "ok2" {
		t.Fatalf("records = %+v", records)
	}
	if !records[1].Modified {
		t.Fatal("modified flag lost")
	}
}

func TestLoadDefaults(t *testing.T) {
	// No header, no source, no dataset_filename, no rel_path.
	records, baseDir := Load(`{"id":"x1","original_name":"orig.png","prompt":"hi"}`)
	if baseDir != "" {
		t.Fatalf("base_dir = %q", baseDir)
	}
	if len(records) != 1 {
		t.Fatalf("records = %+v", records)
	}
	rec := records[0]
	if rec.Source != models.SourceManifest {
		t.Fatalf("source = %q", rec.Source)
	}
	if rec.DatasetFilename != "orig.png" {
		t.Fatalf("dataset_filename = %q", rec.DatasetFilename)
	}
	if rec.RelPath != "orig.png" {
		t.Fatalf("rel_path = %q", rec.RelPath)
	}
}

func TestLoadLateHeaderStillApplies(t *testing.T) {
	text := strings.Join([]string{
		`{"id":"x1","original_name":"a.png","dataset_filename":"a.png"}`,
		`{"__manifest__":{"base_dir":"./late"}}`,
	}, "\n")

	records, baseDir := Load(text)
	if baseDir != "./late" {
		t.Fatalf("base_dir = %q", baseDir)
	}
	if records[0].RelPath != "./late/a.png" {
		t.Fatalf("rel_path = %q", records[0].RelPath)
	}
}

func TestLoadPrettyPrintedLines(t *testing.T) {
	text := `{"__manifest__": {"base_dir": "./ds"}}` + "\n" +
		`{"id": "h1", "original_name": "a.png", "dataset_filename": "a.png", "rel_path": "./ds/a.png", "prompt": "", "modified": false, "source": "jsonl"}`

	records, _ := Load(text)
	if len(records) != 1 {
		t.Fatalf("records = %+v", records)
	}
	if records[0].RelPath != "./ds/a.png" {
		t.Fatalf("rel_path = %q", records[0].RelPath)
	}
}

func TestNormalizeBaseDir(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"   ", ""},
		{"data", "./data"},
		{"data/", "./data"},
		{"data\\", "./data"},
		{"./data", "./data"},
		{"./data/", "./data"},
		{".", "."},
		{"../sets", "../sets"},
		{"/abs/data/", "/abs/data"},
		{" data ", "./data"},
	}
	for _, tc := range cases {
		if got := NormalizeBaseDir(tc.in); got != tc.want {
			t.Fatalf("NormalizeBaseDir(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMakeRelPath(t *testing.T) {
	cases := []struct{ base, fn, want string }{
		{"./dataset", "sub/pic.jpg", "./dataset/sub/pic.jpg"},
		{"dataset", "pic.jpg", "./dataset/pic.jpg"},
		{"", "pic.jpg", "pic.jpg"},
		{"/abs/ds", "pic.jpg", "/abs/ds/pic.jpg"},
		{"./dataset", "/leading/slash.png", "./dataset/leading/slash.png"},
	}
	for _, tc := range cases {
		if got := MakeRelPath(tc.base, tc.fn); got != tc.want {
			t.Fatalf("MakeRelPath(%q, %q) = %q, want %q", tc.base, tc.fn, got, tc.want)
		}
	}
}
