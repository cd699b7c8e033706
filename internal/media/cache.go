package media

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mamorett/comfyprompt-dataset/internal/observability"
)

type memoKey struct {
	path  string
	size  int64
	mtime int64
}

// Cache memoizes content ids and thumbnails. Keys carry size and mtime so
// an edited file is recomputed instead of served stale; LRU eviction keeps
// memory bounded. A hit is an optimization only, never load-bearing.
type Cache struct {
	ids    *lru.Cache[memoKey, string]
	thumbs *lru.Cache[memoKey, string]
	maxW   int
	maxH   int
}

func NewCache(capacity, maxW, maxH int) (*Cache, error) {
	if capacity <= 0 {
		capacity = 4096
	}
	ids, err := lru.New[memoKey, string](capacity)
	if err != nil {
		return nil, fmt.Errorf("id cache: %w", err)
	}
	thumbs, err := lru.New[memoKey, string](capacity)
	if err != nil {
		return nil, fmt.Errorf("thumbnail cache: %w", err)
	}
	return &Cache{ids: ids, thumbs: thumbs, maxW: maxW, maxH: maxH}, nil
}

func (c *Cache) key(path string) (memoKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		return memoKey{}, err
	}
	return memoKey{path: path, size: info.Size(), mtime: info.ModTime().UnixNano()}, nil
}

// ContentID is the memoized form of the package-level ContentID.
func (c *Cache) ContentID(path string) (string, error) {
	key, err := c.key(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if id, ok := c.ids.Get(key); ok {
		observability.MemoHits.WithLabelValues("content_id").Inc()
		return id, nil
	}
	observability.MemoMisses.WithLabelValues("content_id").Inc()

	id, err := ContentID(path)
	if err != nil {
		return "", err
	}
	c.ids.Add(key, id)
	return id, nil
}

// Thumbnail is the memoized form of the package-level Thumbnail. Empty
// results are not cached so a repaired file shows up on the next call.
func (c *Cache) Thumbnail(path string) string {
	key, err := c.key(path)
	if err != nil {
		return ""
	}
	if thumb, ok := c.thumbs.Get(key); ok {
		observability.MemoHits.WithLabelValues("thumbnail").Inc()
		return thumb
	}
	observability.MemoMisses.WithLabelValues("thumbnail").Inc()

	thumb := Thumbnail(path, c.maxW, c.maxH)
	if thumb != "" {
		c.thumbs.Add(key, thumb)
	}
	return thumb
}
