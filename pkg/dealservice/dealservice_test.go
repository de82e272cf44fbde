package dealservice

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"stillgrove.com/godealyourself/pkg/cache"
	"stillgrove.com/godealyourself/pkg/collectors"
	cfg "stillgrove.com/godealyourself/pkg/dealservice/config"
	"stillgrove.com/godealyourself/pkg/dealservice/deal"
	"stillgrove.com/godealyourself/pkg/fetch"
)

const svcConfigYAML = `
sources:
  - name: academy
    base_url: https://academy.example.com/sale
    strategy: academy
    selectors:
      item: .product-tile
      title: .product-name
      price: .sale-price
      msrp: .list-price
  - name: dicks
    base_url: https://dicks.example.com/sale
    strategy: dicks
    selectors:
      item: .product-tile
      title: .product-name
      price: .sale-price
      msrp: .list-price
ranking:
  min_discount: 20
  top_per_group: 5
`

const academyPage = `<html><body>
<div class="product-tile">
  <h3 class="product-name">Nike Youth Basketball Shoe</h3>
  <span class="sale-price">$45.00</span><span class="list-price">$90.00</span>
  <a href="/p/nike-youth"></a>
</div>
<script type="application/ld+json">{"@type":"Product","name":"Nike Youth Basketball Shoe","gtin13":"4006381333931","brand":"Nike","offers":{"price":"45.00"}}</script>
</body></html>`

const dicksPage = `<html><body>
<div class="product-tile">
  <h3 class="product-name">Nike Youth Basketball Shoe</h3>
  <span class="sale-price">$47.00</span><span class="list-price">$90.00</span>
  <a href="/p/nike-youth-bb"></a>
</div>
<script type="application/ld+json">{"@type":"Product","name":"Nike Youth Basketball Shoe","gtin13":"4006381333931","brand":"Nike","offers":{"price":"47.00"}}</script>
<div class="product-tile">
  <h3 class="product-name">Wilson Youth Baseball Glove</h3>
  <span class="sale-price">$30.00</span><span class="list-price">$60.00</span>
  <a href="/p/wilson-glove"></a>
</div>
</body></html>`

type svcFetcher struct {
	mux   sync.Mutex
	pages map[string]string
	calls int
}

func (f *svcFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.calls++
	if body, ok := f.pages[url]; ok {
		return []byte(body), nil
	}
	return []byte("<html><body></body></html>"), nil
}

func testService(t *testing.T, fetcher fetch.Fetcher, body string) *DealService {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := cfg.New(path)
	require.NoError(t, err)

	svc, err := New(c)
	require.NoError(t, err)
	svc.SetCollectorFactory(func(src cfg.Source, pages cache.Cache) *collectors.Collector {
		return collectors.New(src, fetcher, pages)
	})
	return svc
}

type PipelineTestSuite struct {
	suite.Suite
	fetcher *svcFetcher
	svc     *DealService
}

func (s *PipelineTestSuite) SetupTest() {
	s.fetcher = &svcFetcher{pages: map[string]string{
		"https://academy.example.com/sale?page=1": academyPage,
		"https://dicks.example.com/sale?page=1":   dicksPage,
	}}
	s.svc = testService(s.T(), s.fetcher, svcConfigYAML)
}

func (s *PipelineTestSuite) TestRunEndToEnd() {
	ranked, err := s.svc.Run(context.Background())
	assert.Nil(s.T(), err)

	// the shared-GTIN shoe collapses, the glove survives alone
	require.Len(s.T(), ranked, 2)
	for _, d := range ranked {
		assert.True(s.T(), d.Scored)
		assert.GreaterOrEqual(s.T(), d.Score, 0.0)
		assert.LessOrEqual(s.T(), d.Score, 100.0)
	}
	assert.GreaterOrEqual(s.T(), ranked[0].Score, ranked[1].Score)

	var shoe *deal.Deal
	for _, d := range ranked {
		if d.GTIN == "4006381333931" {
			shoe = d
		}
	}
	require.NotNil(s.T(), shoe)
	// canonical keeps the lower of the two prices
	assert.Equal(s.T(), "45.00", shoe.Price.StringFixed(2))
	assert.Len(s.T(), shoe.AlternateRetailers, 1)

	sessions := s.svc.Sessions()
	require.Len(s.T(), sessions, 2)
	for _, sess := range sessions {
		assert.NotZero(s.T(), sess.DealsEmitted)
	}
}

// a source with broken config is skipped before any fetch, the
// healthy sources still produce the batch
func (s *PipelineTestSuite) TestRunSkipsInvalidSource() {
	body := strings.Replace(svcConfigYAML, "ranking:", `  - name: broken
    base_url: https://broken.example.com/sale
    pagination:
      type: cursor
ranking:`, 1)
	svc := testService(s.T(), s.fetcher, body)

	ranked, err := svc.Run(context.Background())
	assert.Nil(s.T(), err)
	assert.Len(s.T(), ranked, 2)
	require.Len(s.T(), svc.Sessions(), 2)

	var sawConfig bool
	for _, pe := range svc.errs.Errors {
		if strings.Contains(pe.Error(), "broken") {
			sawConfig = true
		}
	}
	assert.True(s.T(), sawConfig)
}

func (s *PipelineTestSuite) TestRunNoDealsIsError() {
	s.fetcher.pages = map[string]string{}

	ranked, err := s.svc.Run(context.Background())
	assert.Nil(s.T(), ranked)
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "no deals collected")
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

func TestNewFetcherSelection(t *testing.T) {
	src := cfg.Source{Name: "plain", TimeoutSeconds: 30}
	_, ok := newFetcher(src).(*fetch.HTTPFetcher)
	assert.True(t, ok)

	js := src
	js.RequiresJS = true
	_, ok = newFetcher(js).(*fetch.BrowserFetcher)
	assert.True(t, ok)

	scroll := src
	scroll.Pagination.Type = "scroll"
	_, ok = newFetcher(scroll).(*fetch.BrowserFetcher)
	assert.True(t, ok)
}

func TestPipelineErrors(t *testing.T) {
	mux := new(sync.Mutex)
	pe := NewPE(mux)

	pe.Log(nil, "Noop")
	assert.Empty(t, pe.Errors)
	assert.False(t, pe.HasCritical())

	pe.Log(PipelineError{IsNonCritical: true, Message: assert.AnError}, "Collect dicks")
	assert.Len(t, pe.Errors, 1)
	assert.False(t, pe.HasCritical())

	pe.Log(assert.AnError, "Load Config")
	assert.Len(t, pe.Errors, 2)
	assert.True(t, pe.HasCritical())
	assert.Contains(t, pe.Error(), "Load Config")
}
