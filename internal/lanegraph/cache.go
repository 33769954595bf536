package lanegraph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 64

// Cache memoizes layouts by their input. Returned slices are shared between
// callers and must not be modified.
type Cache struct {
	entries *lru.Cache[string, []Assignment]
}

func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, []Assignment](size)
	if err != nil {
		return nil, fmt.Errorf("create layout cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

func (c *Cache) Build(commits []Commit, palette Palette) []Assignment {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	if c == nil || c.entries == nil {
		return BuildWithPalette(commits, palette)
	}
	key := cacheKey(commits, palette)
	if rows, ok := c.entries.Get(key); ok {
		return rows
	}
	rows := BuildWithPalette(commits, palette)
	c.entries.Add(key, rows)
	return rows
}

func (c *Cache) Len() int {
	if c == nil || c.entries == nil {
		return 0
	}
	return c.entries.Len()
}

func (c *Cache) Purge() {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.Purge()
}

func cacheKey(commits []Commit, palette Palette) string {
	h := sha256.New()
	for _, color := range palette {
		writeField(h, color)
	}
	h.Write([]byte{'\n'})
	for _, c := range commits {
		writeField(h, c.SHA)
		for _, p := range c.Parents {
			writeField(h, p)
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, s string) {
	h.Write([]byte(s))
	h.Write([]byte{0})
}
