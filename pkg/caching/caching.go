package caching

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache keeps raw page downloads on disk so that re-running the scrape
// stage with new normalizer rules does not hit the site again.
// A zero TTL never expires entries.
type Cache struct {
	dir string
	ttl time.Duration
}

// NewCache creates dir if needed.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

func (c *Cache) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".html")
}

// Get returns the cached body and its age. ok is false on a miss or an
// expired entry.
func (c *Cache) Get(url string) (data []byte, age time.Duration, ok bool) {
	p := c.path(url)

	info, err := os.Stat(p)
	if err != nil {
		return nil, 0, false
	}
	age = time.Since(info.ModTime())
	if c.ttl > 0 && age > c.ttl {
		return nil, age, false
	}

	data, err = os.ReadFile(p)
	if err != nil {
		return nil, 0, false
	}
	return data, age, true
}

// Set writes through a temp file so readers never see a partial body.
func (c *Cache) Set(url string, data []byte) error {
	p := c.path(url)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Invalidate drops one entry. Missing entries are not an error.
func (c *Cache) Invalidate(url string) error {
	if err := os.Remove(c.path(url)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to invalidate cache entry: %w", err)
	}
	return nil
}
