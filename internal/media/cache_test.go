package media

import (
	"os"
	"testing"
	"time"
)

func TestCacheMemoizesByPathSizeMtime(t *testing.T) {
	cache, err := NewCache(16, 150, 150)
	if err != nil {
		t.Fatal(err)
	}

	path := writeFile(t, "a.bin", []byte("aaaa"))
	stamp := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatal(err)
	}

	first, err := cache.ContentID(path)
	if err != nil {
		t.Fatal(err)
	}

	// Same size, same mtime: the memoized id is served even though the
	// bytes changed underneath.
	if err := os.WriteFile(path, []byte("bbbb"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatal(err)
	}
	memoized, err := cache.ContentID(path)
	if err != nil {
		t.Fatal(err)
	}
	if memoized != first {
		t.Fatal("expected the memoized id for an unchanged (path, size, mtime) key")
	}

	// A new mtime invalidates the entry.
	later := stamp.Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	recomputed, err := cache.ContentID(path)
	if err != nil {
		t.Fatal(err)
	}
	if recomputed == first {
		t.Fatal("expected a recomputed id after the mtime changed")
	}

	fresh, err := ContentID(path)
	if err != nil {
		t.Fatal(err)
	}
	if recomputed != fresh {
		t.Fatalf("cache returned %s, direct hash is %s", recomputed, fresh)
	}
}

func TestCacheThumbnail(t *testing.T) {
	cache, err := NewCache(16, 150, 150)
	if err != nil {
		t.Fatal(err)
	}

	path := writeTestImage(t, "img.png", 300, 300)
	first := cache.Thumbnail(path)
	if first == "" {
		t.Fatal("no thumbnail")
	}
	if second := cache.Thumbnail(path); second != first {
		t.Fatal("memoized thumbnail differs")
	}

	// Failures are not cached: once the file exists the next call succeeds.
	missing := path + ".nope"
	if got := cache.Thumbnail(missing); got != "" {
		t.Fatalf("missing file: %q", got)
	}
	if err := os.Rename(path, missing); err != nil {
		t.Fatal(err)
	}
	if got := cache.Thumbnail(missing); got == "" {
		t.Fatal("expected a thumbnail after the file appeared")
	}
}

func TestCacheMissingFile(t *testing.T) {
	cache, err := NewCache(16, 150, 150)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cache.ContentID("does/not/exist"); err == nil {
		t.Fatal("expected stat error")
	}
}
