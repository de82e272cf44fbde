package collectors

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"stillgrove.com/godealyourself/pkg/cache"
	"stillgrove.com/godealyourself/pkg/dealservice/config"
	"stillgrove.com/godealyourself/pkg/dealservice/deal"
	"stillgrove.com/godealyourself/pkg/fetch"
)

// Stop reasons recorded on the session
const (
	StopMaxPages  = "max_pages"
	StopExhausted = "exhausted"
	StopScroll    = "single_scroll"
	StopError     = "error"
	StopCancelled = "cancelled"
)

// Collector walks one source's listing pages and emits validated
// deals. Pages come from the cache when a recent run already
// fetched them, otherwise through the rate limiter.
type Collector struct {
	src       config.Source
	fetcher   fetch.Fetcher
	extractor *Extractor
	limiter   *Limiter
	pages     cache.Cache
}

// New wires a collector for one configured source. The page
// cache is optional, pass nil to always fetch.
func New(src config.Source, fetcher fetch.Fetcher, pages cache.Cache) *Collector {
	return &Collector{
		src:       src,
		fetcher:   fetcher,
		extractor: NewExtractor(src),
		limiter:   NewLimiter(src.RateLimit.PerMinute, src.RateLimit.Burst),
		pages:     pages,
	}
}

// Run walks pages until the source is exhausted, the page budget
// is spent, or a fetch fails. Item-level problems drop the item
// and are recorded on the session, they never abort the run.
func (c *Collector) Run(ctx context.Context) ([]*deal.Deal, *deal.Session, error) {
	session := deal.NewSession(c.src.Name)

	var out []*deal.Deal
	for page := 0; page < c.src.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			session.Finish(StopCancelled)
			return out, session, fetch.Wrap(fetch.KindFetch, c.src.Name, "", err)
		}

		pageURL := c.pageURL(page)
		body, cached, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			session.Finish(StopError)
			return out, session, err
		}
		session.PagesFetched++
		if cached {
			session.PagesFromCache++
		}

		deals, err := c.extractor.ExtractPage(body, pageURL)
		if err != nil {
			session.AddError(err)
			session.Finish(StopError)
			return out, session, err
		}

		session.ItemsSeen += len(deals)
		for _, d := range deals {
			if err := d.Validate(); err != nil {
				session.ItemsDropped++
				session.AddError(fetch.Wrap(fetch.KindValidation, c.src.Name, d.SourceURL, err))
				continue
			}
			d.AssignID()
			out = append(out, d)
			session.DealsEmitted++
		}

		log.WithFields(log.Fields{
			"source": c.src.Name,
			"page":   page,
			"items":  len(deals),
			"cached": cached,
		}).Debugln("Collected page")

		if c.src.Pagination.Type == "scroll" {
			session.Finish(StopScroll)
			return out, session, nil
		}
		if len(deals) < c.src.MinItemsPerPage {
			session.Finish(StopExhausted)
			return out, session, nil
		}
	}

	session.Finish(StopMaxPages)
	return out, session, nil
}

// fetchPage consults the cache first so repeated runs within the
// TTL cost no requests.
func (c *Collector) fetchPage(ctx context.Context, pageURL string) (body []byte, cached bool, err error) {
	if c.pages != nil {
		if body, err = c.pages.Load(pageURL); err == nil {
			return body, true, nil
		}
	}

	if err = c.limiter.Admit(ctx); err != nil {
		return nil, false, fetch.Wrap(fetch.KindRateLimit, c.src.Name, pageURL, err)
	}

	body, err = c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, false, err
	}

	if c.pages != nil {
		if storeErr := c.pages.Store(map[string][]byte{pageURL: body}); storeErr != nil {
			log.WithFields(log.Fields{
				"source": c.src.Name,
				"error":  storeErr,
			}).Warnln("Failed to cache page")
		}
	}

	return body, false, nil
}

// pageURL renders the listing URL for the nth page of the walk
func (c *Collector) pageURL(page int) string {
	p := c.src.Pagination
	switch p.Type {
	case "offset":
		offset := p.Start + page*p.PageSize
		return appendParam(c.src.BaseURL, p.Param, offset)
	case "scroll":
		return c.src.BaseURL
	default: // page_param
		return appendParam(c.src.BaseURL, p.Param, p.Start+page)
	}
}

func appendParam(base, param string, value int) string {
	sep := "?"
	for i := range base {
		if base[i] == '?' {
			sep = "&"
			break
		}
	}
	return fmt.Sprintf("%s%s%s=%d", base, sep, param, value)
}
