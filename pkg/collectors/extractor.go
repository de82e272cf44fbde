package collectors

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stillgrove.com/godealyourself/pkg/collection"
	"stillgrove.com/godealyourself/pkg/dealservice/config"
	"stillgrove.com/godealyourself/pkg/dealservice/deal"
	"stillgrove.com/godealyourself/pkg/fetch"
	"stillgrove.com/godealyourself/pkg/parsing"
)

// Extractor turns one listing page into raw deals using the
// source's CSS selectors, topped up with whatever JSON-LD the
// page ships. The retailer strategy runs last.
type Extractor struct {
	src      config.Source
	strategy Strategy
}

// NewExtractor wires the strategy registered for the source
func NewExtractor(src config.Source) *Extractor {
	return &Extractor{
		src:      src,
		strategy: ForSource(src.Strategy),
	}
}

// ExtractPage parses body and returns every deal found on it.
// Items that lack a usable title or price are skipped, not fatal.
func (e *Extractor) ExtractPage(body []byte, pageURL string) ([]*deal.Deal, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fetch.Wrap(fetch.KindParse, e.src.Name, pageURL, err)
	}

	ld := parsing.ExtractJSONLD(doc)
	ldByName := make(map[string]parsing.LDProduct, len(ld))
	for _, p := range ld {
		ldByName[collection.SanitizeHard(p.Name)] = p
	}

	pageCoupon := e.pageCoupon(doc)

	var deals []*deal.Deal
	itemSel := e.src.Selectors["item"]
	if itemSel != "" {
		doc.Find(itemSel).Each(func(_ int, item *goquery.Selection) {
			if d := e.extractItem(item, pageURL, pageCoupon); d != nil {
				if p, ok := ldByName[collection.SanitizeHard(d.Title)]; ok {
					mergeLD(d, p)
				}
				e.finish(item, d)
				deals = append(deals, d)
			}
		})
	}

	// some retailers render nothing scrapable but still embed
	// full structured data
	if len(deals) == 0 {
		for _, p := range ld {
			if d := dealFromLD(p, pageURL, pageCoupon); d != nil {
				e.finish(nil, d)
				deals = append(deals, d)
			}
		}
	}

	return deals, nil
}

func (e *Extractor) extractItem(item *goquery.Selection, pageURL, pageCoupon string) *deal.Deal {
	title := parsing.CleanText(e.selText(item, "title"))
	if title == "" {
		return nil
	}
	price, ok := parsing.ParsePrice(e.selText(item, "price"))
	if !ok {
		return nil
	}

	d := &deal.Deal{
		Title:      title,
		Price:      price,
		Retailer:   e.src.Name,
		CouponCode: pageCoupon,
	}
	if msrp, ok := parsing.ParsePrice(e.selText(item, "msrp")); ok {
		d.MSRP = msrp
	}
	if brand := parsing.CleanText(e.selText(item, "brand")); brand != "" {
		d.Brand = brand
	}
	d.Sizes = parsing.ParseSizes(e.selText(item, "sizes"))
	d.SKU = parsing.CleanSKU(e.selText(item, "sku"))
	if img := e.selAttr(item, "image", "src"); img != "" {
		d.ImageURL = resolveURL(pageURL, img)
	}

	link := e.selAttr(item, "url", "href")
	if link == "" {
		link, _ = item.Find("a").First().Attr("href")
	}
	d.SourceURL = parsing.NormalizeURL(resolveURL(pageURL, link))

	if stock := strings.ToLower(e.selText(item, "stock")); stock != "" {
		if strings.Contains(stock, "out of stock") || strings.Contains(stock, "sold out") {
			d.Stock = deal.StockOut
		} else {
			d.Stock = deal.StockIn
			d.StockLevel = parsing.CleanText(stock)
		}
	}

	return d
}

// finish fills the fallback fields, then hands the item markup
// and the partial deal to the retailer strategy. item is nil for
// deals lifted straight out of structured data.
func (e *Extractor) finish(item *goquery.Selection, d *deal.Deal) {
	if d.Retailer == "" {
		d.Retailer = e.src.Name
	}
	if d.Brand == "" {
		d.Brand = parsing.BrandFromTitle(d.Title)
	}

	youth, adult := parsing.DetectYouthKeywords(d.Title)
	if !youth {
		youth = collection.ContainsAny(strings.ToLower(d.Title), e.src.YouthKeywords)
	}
	d.YouthFlag = youth && !adult

	if d.Sport == "" && e.src.Sport != "" {
		if sp, err := deal.ParseSport(e.src.Sport); err == nil {
			d.Sport = sp
		}
	}

	e.strategy.Apply(item, d)
	d.Normalize()
}

func (e *Extractor) pageCoupon(doc *goquery.Document) string {
	sel := e.src.Selectors["coupon"]
	if sel == "" {
		return ""
	}
	return parsing.ExtractCouponCode(doc.Find(sel).Text())
}

// selText resolves a configured selector inside an item node
func (e *Extractor) selText(item *goquery.Selection, field string) string {
	css, attr := splitSelector(e.src.Selectors[field])
	if css == "" {
		return ""
	}
	node := item.Find(css).First()
	if attr != "" {
		v, _ := node.Attr(attr)
		return v
	}
	return node.Text()
}

func (e *Extractor) selAttr(item *goquery.Selection, field, defaultAttr string) string {
	css, attr := splitSelector(e.src.Selectors[field])
	if css == "" {
		return ""
	}
	if attr == "" {
		attr = defaultAttr
	}
	v, _ := item.Find(css).First().Attr(attr)
	return v
}

// splitSelector supports the "css@attr" form for attribute reads
func splitSelector(s string) (css, attr string) {
	if idx := strings.LastIndex(s, "@"); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}

func resolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// mergeLD fills identity and price gaps from structured data
func mergeLD(d *deal.Deal, p parsing.LDProduct) {
	if d.GTIN == "" {
		d.GTIN = p.GTIN
	}
	if d.MPN == "" {
		d.MPN = p.MPN
	}
	if d.SKU == "" {
		d.SKU = p.SKU
	}
	if d.Brand == "" {
		d.Brand = p.Brand
	}
	if d.ImageURL == "" {
		d.ImageURL = p.Image
	}
	if d.Currency == "" {
		d.Currency = p.Currency
	}
	if !p.Price.IsZero() {
		d.Price = p.Price
	}
	if d.MSRP.IsZero() && !p.MSRP.IsZero() {
		d.MSRP = p.MSRP
	}
	if p.StockSeen && !d.Stock.Known() {
		if p.InStock {
			d.Stock = deal.StockIn
		} else {
			d.Stock = deal.StockOut
		}
	}
}

func dealFromLD(p parsing.LDProduct, pageURL, pageCoupon string) *deal.Deal {
	if p.Name == "" || !p.Price.IsPositive() {
		return nil
	}
	d := &deal.Deal{
		Title:      p.Name,
		Brand:      p.Brand,
		Price:      p.Price,
		MSRP:       p.MSRP,
		Currency:   p.Currency,
		SKU:        p.SKU,
		MPN:        p.MPN,
		GTIN:       p.GTIN,
		ImageURL:   p.Image,
		CouponCode: pageCoupon,
	}
	if p.URL != "" {
		d.SourceURL = parsing.NormalizeURL(resolveURL(pageURL, p.URL))
	} else {
		d.SourceURL = parsing.NormalizeURL(pageURL)
	}
	if p.StockSeen {
		if p.InStock {
			d.Stock = deal.StockIn
		} else {
			d.Stock = deal.StockOut
		}
	}
	return d
}
