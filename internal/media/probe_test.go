package media

import (
	"path/filepath"
	"testing"
)

func TestProbe(t *testing.T) {
	path := writeFile(t, "present.png", []byte("123456"))

	info := Probe(path)
	if !info.Exists || !info.Readable {
		t.Fatalf("probe of existing file: %+v", info)
	}
	if info.Size != 6 {
		t.Fatalf("size = %d", info.Size)
	}
	if info.Error != "" {
		t.Fatalf("unexpected error %q", info.Error)
	}
	if !filepath.IsAbs(info.AbsolutePath) {
		t.Fatalf("absolute_path %q is not absolute", info.AbsolutePath)
	}
}

func TestProbeMissing(t *testing.T) {
	info := Probe(filepath.Join(t.TempDir(), "absent.png"))
	if info.Exists || info.Readable {
		t.Fatalf("probe of missing file: %+v", info)
	}
	if info.Error != "" {
		t.Fatalf("plain absence is not an error: %q", info.Error)
	}
}
