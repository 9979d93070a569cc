// Package page extracts the readable text of a web page, the way the popup
// reads the active tab before summarizing it.
package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode"

	"github.com/pagetutor/pagetutor/internal/cache"
	"github.com/pagetutor/pagetutor/internal/config"
)

// ErrRestricted is returned for pages that cannot be read, such as
// browser-internal or local file URLs.
var ErrRestricted = errors.New("page cannot be read")

// Extractor names accepted by NewExtractor and the page.extractor config key.
const (
	ExtractorHTTP    = "http"
	ExtractorBrowser = "browser"
)

// Page is the text content of a fetched page.
type Page struct {
	URL   string // final URL after redirects
	Title string
	Text  string
}

// Extractor reads the text of a page.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (Page, error)
}

// NewExtractor returns the extractor selected by cfg. A positive
// cfg.CacheTTL puts the on-disk page cache in front of it.
func NewExtractor(cfg config.PageConfig) (Extractor, error) {
	name := strings.ToLower(cfg.Extractor)
	var ex Extractor
	switch name {
	case "", ExtractorHTTP:
		name = ExtractorHTTP
		ex = NewHTTPExtractor(cfg)
	case ExtractorBrowser:
		ex = NewBrowserExtractor(cfg)
	default:
		return nil, fmt.Errorf("unknown page extractor %q (want %s or %s)", cfg.Extractor, ExtractorHTTP, ExtractorBrowser)
	}
	if cfg.CacheTTL <= 0 {
		return ex, nil
	}
	dir, err := cache.Default("pages", cfg.CacheTTL)
	if err != nil {
		slog.Warn("page cache disabled", "error", err)
		return ex, nil
	}
	return NewCachedExtractor(ex, name, dir), nil
}

// CheckURL parses rawURL and rejects anything that is not http(s).
func CheckURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %s", ErrRestricted, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", rawURL)
	}
	return u, nil
}

// normalizeText collapses runs of spaces inside lines and drops blank
// lines, keeping one line per block of visible text.
func normalizeText(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.FieldsFunc(line, unicode.IsSpace), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// truncate cuts text to at most max runes. max <= 0 means no limit.
func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max])
}
