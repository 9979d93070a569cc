package page

import (
	"context"
	"log/slog"

	"github.com/pagetutor/pagetutor/internal/cache"
)

// CachedExtractor serves recently extracted pages from disk, so asking for a
// summary and then a quiz of the same page fetches it once.
type CachedExtractor struct {
	inner Extractor
	name  string
	dir   *cache.Dir
}

// NewCachedExtractor wraps inner. name separates entries of different
// extractors, whose text can differ for the same URL.
func NewCachedExtractor(inner Extractor, name string, dir *cache.Dir) *CachedExtractor {
	return &CachedExtractor{inner: inner, name: name, dir: dir}
}

func (c *CachedExtractor) Extract(ctx context.Context, rawURL string) (Page, error) {
	u, err := CheckURL(rawURL)
	if err != nil {
		return Page{}, err
	}
	key := c.name + " " + u.String()

	var p Page
	if c.dir.Get(key, &p) {
		slog.Debug("page cache hit", "url", u.String())
		return p, nil
	}
	p, err = c.inner.Extract(ctx, rawURL)
	if err != nil {
		return Page{}, err
	}
	if err := c.dir.Put(key, p); err != nil {
		slog.Warn("failed to cache page", "url", u.String(), "error", err)
	}
	return p, nil
}
