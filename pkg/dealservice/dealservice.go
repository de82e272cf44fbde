package dealservice

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"stillgrove.com/godealyourself/pkg/cache"
	"stillgrove.com/godealyourself/pkg/collectors"
	cfg "stillgrove.com/godealyourself/pkg/dealservice/config"
	"stillgrove.com/godealyourself/pkg/dealservice/deal"
	"stillgrove.com/godealyourself/pkg/dedup"
	"stillgrove.com/godealyourself/pkg/fetch"
	"stillgrove.com/godealyourself/pkg/ranking"
	"stillgrove.com/godealyourself/pkg/report"
	"stillgrove.com/godealyourself/pkg/store"
)

// MaxConcurrentSources caps how many retailer pipelines run at
// once. Each pipeline rate-limits itself, this only bounds the
// process footprint.
const MaxConcurrentSources = 4

// CollectorFactory builds the collector for one source. Swapped
// out in tests to avoid real fetchers.
type CollectorFactory func(src cfg.Source, pages cache.Cache) *collectors.Collector

// DealService is the central process that collects from every
// configured source, deduplicates, scores, ranks, and hands the
// result to storage and reporting.
type DealService struct {
	mux      *sync.Mutex
	errs     PipelineErrors
	cfg      *cfg.File
	db       store.Store
	newColl  CollectorFactory
	sessions []*deal.Session
}

// New initializes and returns a DealService pointer
func New(c *cfg.File) (p *DealService, err error) {
	p = &DealService{
		mux:     new(sync.Mutex),
		cfg:     c,
		newColl: defaultFactory,
	}
	p.errs = NewPE(p.mux)

	if _, _, _, _, dynErr := c.GetDynamo(); dynErr == nil {
		id, secret, region, table, _ := c.GetDynamo()
		p.db, err = store.NewDynamoStore(id, secret, region, table)
		if err != nil {
			return p, err
		}
	}

	return p, nil
}

// SetStore overrides the storage backend, nil disables it
func (p *DealService) SetStore(db store.Store) {
	p.db = db
}

// SetCollectorFactory overrides collector wiring, tests only
func (p *DealService) SetCollectorFactory(f CollectorFactory) {
	p.newColl = f
}

// Sessions returns the per-source bookkeeping of the last run
func (p *DealService) Sessions() []*deal.Session {
	return p.sessions
}

func defaultFactory(src cfg.Source, pages cache.Cache) *collectors.Collector {
	return collectors.New(src, newFetcher(src), pages)
}

// newFetcher picks rendered fetching for sources that need a
// browser, scroll listings only materialize with one
func newFetcher(src cfg.Source) fetch.Fetcher {
	if src.RequiresJS || src.Pagination.Type == "scroll" {
		return fetch.NewBrowserFetcher(src.Name, src.Timeout())
	}
	return fetch.NewHTTPFetcher(src.Name, src.Timeout())
}

type sourceResult struct {
	deals   []*deal.Deal
	session *deal.Session
	err     error
}

// Run drives the whole pipeline once and returns the ranked
// canonical batch. Failed sources are logged and skipped, the
// run only errors when nothing at all could be collected.
func (p *DealService) Run(ctx context.Context) ([]*deal.Deal, error) {
	defer track(time.Now(), "DealService")

	log.WithFields(log.Fields{
		"started_at": time.Now().UTC(),
		"sources":    len(p.cfg.EnabledSources()),
	}).Println("DealService Started")

	pages := p.openPageCache()
	if pages != nil {
		defer pages.Close()
	}

	batch := p.collect(ctx, pages)
	if len(batch) == 0 {
		p.errs.Log(PipelineError{Message: errNoDeals}, "Aggregate Sources")
		return nil, &p.errs
	}

	// every pipeline has finished, the batch is owned exclusively
	// from here on
	canonical, stats := dedup.New(p.cfg.GetDedup()).Run(batch)
	log.WithFields(log.Fields{
		"input":  stats.Input,
		"output": stats.Output,
	}).Infoln("Dedup complete")

	targetSport, minDiscount, _ := p.cfg.GetRanking()
	sport, err := deal.ParseSport(targetSport)
	p.errs.Log(err, "Parse Target Sport")

	scorer := &ranking.Scorer{TargetSport: sport}
	scorer.ScoreAll(canonical)

	ranked := ranking.Rank(canonical, minDiscount)

	if p.db != nil {
		if err := p.db.Upsert(ranked); err != nil {
			p.errs.Log(PipelineError{IsNonCritical: true, Message: err}, "Store Deals")
		}
	}

	if outDir, title := p.cfg.GetReport(); outDir != "" {
		if _, _, err := report.WriteFiles(outDir, ranked, title); err != nil {
			p.errs.Log(PipelineError{IsNonCritical: true, Message: err}, "Write Reports")
		}
	}

	if p.errs.HasCritical() {
		return ranked, &p.errs
	}
	return ranked, nil
}

// collect fans the enabled sources over a bounded worker pool
// and blocks until every pipeline has finished. This is the
// aggregation barrier, dedup never sees a partial batch.
// A source that fails validation is skipped before any fetch,
// the remaining sources still run.
func (p *DealService) collect(ctx context.Context, pages cache.Cache) []*deal.Deal {
	var sources []cfg.Source
	for _, src := range p.cfg.EnabledSources() {
		if err := src.Validate(); err != nil {
			p.errs.Log(PipelineError{IsNonCritical: true, Message: err}, "Configure "+src.Name)
			continue
		}
		sources = append(sources, src)
	}

	input := make(chan cfg.Source, len(sources))
	results := make(chan sourceResult, len(sources))

	workers := MaxConcurrentSources
	if len(sources) < workers {
		workers = len(sources)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range input {
				deals, session, err := p.newColl(src, pages).Run(ctx)
				results <- sourceResult{deals: deals, session: session, err: err}
			}
		}()
	}

	for _, src := range sources {
		input <- src
	}
	close(input)

	wg.Wait()
	close(results)

	var batch []*deal.Deal
	p.sessions = p.sessions[:0]
	for res := range results {
		p.sessions = append(p.sessions, res.session)
		if res.err != nil {
			p.errs.Log(PipelineError{IsNonCritical: true, Message: res.err}, "Collect "+res.session.Source)
		}
		for _, err := range res.session.Errs {
			p.errs.Log(PipelineError{IsNonCritical: true, Message: err}, "Extract "+res.session.Source)
		}
		batch = append(batch, res.deals...)

		log.WithFields(log.Fields{
			"source":  res.session.Source,
			"pages":   res.session.PagesFetched,
			"deals":   res.session.DealsEmitted,
			"dropped": res.session.ItemsDropped,
			"stopped": res.session.Stopped,
			"took":    res.session.Duration().String(),
		}).Infoln("Source complete")
	}

	return batch
}

func (p *DealService) openPageCache() cache.Cache {
	dir, ttl := p.cfg.GetCache()
	if dir == "" {
		return nil
	}
	badger, err := cache.NewBadgerCache(dir, ttl)
	if err != nil {
		p.errs.Log(PipelineError{IsNonCritical: true, Message: err}, "Open Page Cache")
		return nil
	}
	return badger
}

func track(start time.Time, name string) {
	log.WithFields(log.Fields{
		"took": time.Since(start).String(),
	}).Infof("%s finished", name)
}
