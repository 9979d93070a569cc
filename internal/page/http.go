package page

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagetutor/pagetutor/internal/config"
)

// blockSelector lists elements whose text starts on a new line.
const blockSelector = "p,div,li,tr,h1,h2,h3,h4,h5,h6,pre,blockquote,section,article,header,footer,dt,dd"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 10 << 20

// HTTPExtractor fetches a page with a plain GET and parses it with goquery.
// It does not run scripts, so client-rendered pages may come back thin.
type HTTPExtractor struct {
	Client    *http.Client
	UserAgent string
	MaxChars  int
}

// NewHTTPExtractor creates an HTTPExtractor from config.
func NewHTTPExtractor(cfg config.PageConfig) *HTTPExtractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	return &HTTPExtractor{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: ua,
		MaxChars:  cfg.MaxChars,
	}
}

// Extract implements Extractor.
func (e *HTTPExtractor) Extract(ctx context.Context, rawURL string) (Page, error) {
	u, err := CheckURL(rawURL)
	if err != nil {
		return Page{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := e.Client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, fmt.Errorf("fetching %s: %s", u, resp.Status)
	}

	p, err := ParseHTML(io.LimitReader(resp.Body, maxBodyBytes), e.MaxChars)
	if err != nil {
		return Page{}, err
	}
	p.URL = resp.Request.URL.String()
	return p, nil
}

// ParseHTML extracts the title and visible body text of an HTML document.
func ParseHTML(r io.Reader, maxChars int) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("parsing HTML: %w", err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())

	body := doc.Find("body")
	body.Find("script,style,noscript,template,svg,iframe").Remove()
	body.Find("br").ReplaceWithHtml("\n")
	body.Find(blockSelector).AfterHtml("\n")

	text := normalizeText(body.Text())
	return Page{Title: title, Text: truncate(text, maxChars)}, nil
}
