package fetch

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// HTTPFetcher fetches static pages through a colly collector.
// The same URL may be visited more than once across pagination
// retries, so revisits are allowed.
type HTTPFetcher struct {
	source string
	mux    sync.Mutex
	col    *colly.Collector
}

// NewHTTPFetcher builds a fetcher for one source
func NewHTTPFetcher(source string, timeout time.Duration) *HTTPFetcher {
	col := colly.NewCollector(
		colly.UserAgent(defaultUserAgent),
		colly.AllowURLRevisit(),
	)
	col.SetRequestTimeout(timeout)

	return &HTTPFetcher{
		source: source,
		col:    col,
	}
}

// Fetch retrieves the raw body of url. HTTP 429 is reported as a
// rate limit error, every other failure as a fetch error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, Wrap(KindFetch, f.source, url, err)
	}

	f.mux.Lock()
	defer f.mux.Unlock()

	var (
		body   []byte
		status int
		clone  = f.col.Clone()
	)
	visitErr := make(chan error, 1)

	clone.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = make([]byte, len(r.Body))
		copy(body, r.Body)
	})
	clone.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		visitErr <- err
	})

	if err := clone.Visit(url); err != nil {
		return nil, f.classify(url, status, err)
	}
	clone.Wait()

	select {
	case err := <-visitErr:
		return nil, f.classify(url, status, err)
	default:
	}

	if status >= 400 {
		return nil, f.classify(url, status, nil)
	}

	return body, nil
}

func (f *HTTPFetcher) classify(url string, status int, err error) error {
	kind := KindFetch
	if status == http.StatusTooManyRequests {
		kind = KindRateLimit
	}
	if err == nil {
		return Errorf(kind, f.source, "status %d for %s", status, url)
	}
	return Wrap(kind, f.source, url, err)
}
