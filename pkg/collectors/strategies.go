package collectors

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"stillgrove.com/godealyourself/pkg/dealservice/deal"
	"stillgrove.com/godealyourself/pkg/parsing"
)

// Strategy applies retailer-specific knowledge to a freshly
// extracted deal: breadcrumb classification, stock and promotion
// badges, item-level coupon codes, and a refined youth scan.
// Strategy output overrides base and structured fields. The item
// selection is nil when the deal came from structured data only.
type Strategy interface {
	Name() string
	Apply(item *goquery.Selection, d *deal.Deal)
}

// markupSelectors name the item fragments a retailer layout uses
// for data outside the configured base selectors
type markupSelectors struct {
	breadcrumb string
	stock      string
	promo      string
	coupon     string
	ageRange   string
}

var defaultMarkup = markupSelectors{
	breadcrumb: ".breadcrumb, .category-path",
	stock:      ".stock-status, .availability",
	promo:      ".promo-badge, .sale-badge, .clearance-badge",
	coupon:     ".coupon-code, .promo-code",
	ageRange:   ".age-range, .recommended-age",
}

// Youth and adult indicator sets for the refined per-item scan.
// Abbreviated youth sizes count here, the base title scan only
// knows full words.
var (
	youthIndicators = []string{"youth", "jr", "junior", "kids", "kid", "boys", "boy", "girls", "girl", "child", "ys", "ym", "yl", "yxl", "toddler"}
	adultIndicators = []string{"adult", "men", "mens", "man", "women", "womens", "woman", "senior", "sr"}
)

// keywordStrategy classifies from breadcrumb text first, then
// falls back to scanning the title against ordered keyword
// tables. First hit wins.
type keywordStrategy struct {
	name         string
	defaultSport deal.Sport
	forceBrand   string
	sports       []sportRule
	categories   []categoryRule
	markup       markupSelectors
	youthWords   []string
	adultWords   []string
}

type sportRule struct {
	sport deal.Sport
	words []string
}

type categoryRule struct {
	category deal.Category
	words    []string
}

// Base classification tables shared by the generalist retailers.
// Order matters, protective gear words hit before equipment.
var (
	baseSportRules = []sportRule{
		{deal.SportHockey, []string{"hockey", "skate", "puck", "shin guard hockey", "goalie"}},
		{deal.SportSoccer, []string{"soccer", "futsal", "cleat fg", "shin guard", "goalkeeper"}},
		{deal.SportBaseball, []string{"baseball", "batting", "catcher", "pitching", "infield"}},
		{deal.SportSoftball, []string{"softball", "fastpitch"}},
		{deal.SportBasketball, []string{"basketball", "hoop"}},
		{deal.SportLacrosse, []string{"lacrosse", "lax "}},
		{deal.SportTennis, []string{"tennis", "racquet", "racket"}},
		{deal.SportRunning, []string{"running", "marathon", "trail shoe"}},
		{deal.SportFootball, []string{"football"}},
	}

	baseCategoryRules = []categoryRule{
		{deal.CategoryProtective, []string{"helmet", "shin guard", "shoulder pad", "elbow pad", "knee pad", "chest protector", "mouthguard", "face mask", "catcher's gear"}},
		{deal.CategoryFootwear, []string{"cleat", "shoe", "sneaker", "skate", "boot", "trainer", "turf", " fg", " ag", " sg", "indoor"}},
		{deal.CategoryBags, []string{"bag", "backpack", "duffel", "sackpack"}},
		{deal.CategoryApparel, []string{"jersey", "shirt", "tee", "short", "sock", "pant", "hoodie", "jacket", "tight", "kit", "uniform"}},
		{deal.CategoryEquipment, []string{"ball", "stick", "bat", "glove", "mitt", "net", "goal", "rebounder", "puck", "cone", "pump"}},
		{deal.CategoryAccessories, []string{"bottle", "tape", "cap", "hat", "headband", "wristband", "lace", "grip", "whistle"}},
	}
)

func (s *keywordStrategy) Name() string {
	return s.name
}

func (s *keywordStrategy) Apply(item *goquery.Selection, d *deal.Deal) {
	if item != nil {
		s.applyMarkup(item, d)
	}

	title := strings.ToLower(d.Title)

	if s.forceBrand != "" && d.Brand == "" {
		d.Brand = s.forceBrand
	}

	if d.Sport == "" {
		for _, rule := range s.sports {
			if containsWord(title, rule.words) {
				d.Sport = rule.sport
				break
			}
		}
	}
	if d.Sport == "" && s.defaultSport != "" {
		d.Sport = s.defaultSport
	}

	if d.Category == "" {
		for _, rule := range s.categories {
			if containsWord(title, rule.words) {
				d.Category = rule.category
				break
			}
		}
	}

	s.refineYouth(d)
}

// applyMarkup reads the retailer-specific fragments of one item.
// Whatever it finds overrides the base extraction.
func (s *keywordStrategy) applyMarkup(item *goquery.Selection, d *deal.Deal) {
	if crumb := strings.ToLower(parsing.CleanText(item.Find(s.markup.breadcrumb).First().Text())); crumb != "" {
		for _, rule := range s.sports {
			if containsWord(crumb, rule.words) {
				d.Sport = rule.sport
				break
			}
		}
		for _, rule := range s.categories {
			if containsWord(crumb, rule.words) {
				d.Category = rule.category
				break
			}
		}
	}

	if stock := strings.ToLower(parsing.CleanText(item.Find(s.markup.stock).First().Text())); stock != "" {
		switch {
		case strings.Contains(stock, "out of stock") || strings.Contains(stock, "unavailable") || strings.Contains(stock, "sold out"):
			d.Stock = deal.StockOut
		case strings.Contains(stock, "limited") || strings.Contains(stock, "low stock"):
			d.StockLevel = "limited"
		case strings.Contains(stock, "in stock") || strings.Contains(stock, "available"):
			d.Stock = deal.StockIn
		}
	}

	if promo := parsing.CleanText(item.Find(s.markup.promo).First().Text()); promo != "" {
		d.PromotionType = strings.ToLower(promo)
		if idx := strings.Index(d.PromotionType, "ends"); idx >= 0 {
			if end, ok := parsing.ParsePromotionEnd(promo[idx:], time.Now()); ok {
				d.EndsAt = end
			}
		}
	}

	if code := parsing.ExtractCouponCode(item.Find(s.markup.coupon).First().Text()); code != "" {
		d.CouponCode = code
	}

	if age := parsing.CleanText(item.Find(s.markup.ageRange).First().Text()); age != "" {
		d.AgeRange = age
	}
}

// refineYouth rechecks the flag against the retailer's indicator
// sets, adult indicators winning over youth ones
func (s *keywordStrategy) refineYouth(d *deal.Deal) {
	t := " " + strings.ToLower(parsing.CleanText(d.Title)) + " "
	for _, w := range s.youthWords {
		if strings.Contains(t, " "+w+" ") {
			d.YouthFlag = true
			break
		}
	}
	for _, w := range s.adultWords {
		if strings.Contains(t, " "+w+" ") {
			d.YouthFlag = false
			break
		}
	}
}

func containsWord(title string, words []string) bool {
	for _, w := range words {
		if strings.Contains(title, w) {
			return true
		}
	}
	return false
}

func newKeywordStrategy(name string) *keywordStrategy {
	return &keywordStrategy{
		name:       name,
		sports:     baseSportRules,
		categories: baseCategoryRules,
		markup:     defaultMarkup,
		youthWords: youthIndicators,
		adultWords: adultIndicators,
	}
}

func soccerComStrategy() *keywordStrategy {
	s := newKeywordStrategy("soccer_com")
	s.defaultSport = deal.SportSoccer
	s.markup.breadcrumb += ", .product-category"
	s.markup.stock += ", .inventory"
	s.markup.promo += ", .deal-tag"
	s.markup.coupon += ", .discount-code"
	s.markup.ageRange += ", .age-group"
	return s
}

func monkeySportsStrategy() *keywordStrategy {
	s := newKeywordStrategy("monkey_sports")
	s.defaultSport = deal.SportHockey
	return s
}

func brandStoreStrategy(name, brand string) *keywordStrategy {
	s := newKeywordStrategy(name)
	s.forceBrand = brand
	return s
}

// strategies keys every known retailer layout. Unknown sources
// fall back to the generic tables.
var strategies = map[string]Strategy{
	"generic":       newKeywordStrategy("generic"),
	"dicks":         newKeywordStrategy("dicks"),
	"academy":       newKeywordStrategy("academy"),
	"scheels":       newKeywordStrategy("scheels"),
	"big5":          newKeywordStrategy("big5"),
	"soccer_com":    soccerComStrategy(),
	"monkey_sports": monkeySportsStrategy(),
	"nike":          brandStoreStrategy("nike", "Nike"),
	"adidas":        brandStoreStrategy("adidas", "adidas"),
}

// ForSource resolves the strategy for a configured source name
func ForSource(name string) Strategy {
	if s, ok := strategies[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s
	}
	return strategies["generic"]
}
