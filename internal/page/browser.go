package page

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/pagetutor/pagetutor/internal/config"
)

// BrowserExtractor loads the page in headless Chrome and reads
// document.body.innerText, so script-rendered content is included.
type BrowserExtractor struct {
	ChromePath string // empty = auto-detect
	UserAgent  string
	Timeout    time.Duration
	MaxChars   int
}

// NewBrowserExtractor creates a BrowserExtractor from config.
func NewBrowserExtractor(cfg config.PageConfig) *BrowserExtractor {
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	timeout := cfg.Timeout
	// Browser loads get extra time over a plain fetch.
	if timeout < 30*time.Second {
		timeout = 45 * time.Second
	} else {
		timeout += 15 * time.Second
	}
	return &BrowserExtractor{
		ChromePath: cfg.ChromePath,
		UserAgent:  ua,
		Timeout:    timeout,
		MaxChars:   cfg.MaxChars,
	}
}

func (e *BrowserExtractor) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(e.UserAgent),
		chromedp.WindowSize(1280, 900),
	)
	if e.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(e.ChromePath))
	}
	return opts
}

// Extract implements Extractor.
func (e *BrowserExtractor) Extract(ctx context.Context, rawURL string) (Page, error) {
	u, err := CheckURL(rawURL)
	if err != nil {
		return Page{}, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, e.allocatorOptions()...)
	defer allocCancel()

	ctx, cancel := context.WithTimeout(allocCtx, e.Timeout)
	defer cancel()

	ctx, cancel = chromedp.NewContext(ctx)
	defer cancel()

	var title, text, finalURL string
	err = chromedp.Run(ctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers(map[string]any{
			"Accept-Language": "en-US,en;q=0.9",
		})),
		chromedp.Navigate(u.String()),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Title(&title),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return Page{}, fmt.Errorf("browser fetch %s: %w", u, err)
	}

	return Page{
		URL:   finalURL,
		Title: title,
		Text:  truncate(normalizeText(text), e.MaxChars),
	}, nil
}
