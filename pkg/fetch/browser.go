package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome before returning
// the DOM. Used for sources that assemble their listings with JS.
type BrowserFetcher struct {
	source  string
	timeout time.Duration
	opts    []chromedp.ExecAllocatorOption
}

// NewBrowserFetcher builds a rendering fetcher for one source
func NewBrowserFetcher(source string, timeout time.Duration) *BrowserFetcher {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(defaultUserAgent),
	)
	return &BrowserFetcher{
		source:  source,
		timeout: timeout,
		opts:    opts,
	}
}

// Fetch navigates to url, waits for the body to settle and
// returns the rendered outer HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	runCtx, cancelRun := context.WithTimeout(tabCtx, f.timeout)
	defer cancelRun()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, Wrap(KindFetch, f.source, url, err)
	}

	return []byte(html), nil
}
