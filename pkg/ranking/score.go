package ranking

import (
	"math"
	"strings"

	"stillgrove.com/godealyourself/pkg/dealservice/deal"
	"stillgrove.com/godealyourself/pkg/parsing"
)

// brandScores is the prestige table, keyed by upper-cased brand.
// Brands off the table score the 5.0 midpoint.
var brandScores = map[string]float64{
	"NIKE":              8.5,
	"ADIDAS":            8.0,
	"UNDER ARMOUR":      7.5,
	"PUMA":              7.0,
	"NEW BALANCE":       7.0,
	"ASICS":             6.5,
	"MIZUNO":            6.5,
	"WILSON":            6.5,
	"HEAD":              6.5,
	"BABOLAT":           6.5,
	"BAUER":             8.0,
	"CCM":               7.5,
	"WARRIOR":           7.0,
	"SHER-WOOD":         6.5,
	"EASTON":            7.0,
	"RAWLINGS":          7.0,
	"LOUISVILLE":        6.5,
	"MOLTEN":            6.0,
	"SPALDING":          6.0,
	"UMBRO":             6.5,
	"KAPPA":             6.0,
	"DIADORA":           6.0,
	"BROOKS":            7.5,
	"SAUCONY":           7.0,
	"HOKA":              7.5,
	"ON":                7.0,
	"ALTRA":             6.5,
	"CHAMPION":          5.0,
	"RUSSELL":           4.5,
	"STARTER":           4.0,
	"FRUIT OF THE LOOM": 3.5,
}

const defaultBrandScore = 5.0

// sportBrandBonuses rewards brands with real pedigree in a sport
var sportBrandBonuses = map[deal.Sport]map[string]float64{
	deal.SportHockey: {
		"BAUER": 2.0, "CCM": 2.0, "WARRIOR": 1.5, "SHER-WOOD": 1.5, "EASTON": 1.0,
	},
	deal.SportBaseball: {
		"RAWLINGS": 2.0, "EASTON": 1.5, "LOUISVILLE": 1.5, "WILSON": 1.5, "MIZUNO": 1.0,
	},
	deal.SportSoccer: {
		"ADIDAS": 1.5, "NIKE": 1.5, "PUMA": 1.0, "UMBRO": 1.0, "DIADORA": 0.5,
	},
	deal.SportTennis: {
		"WILSON": 1.5, "HEAD": 1.5, "BABOLAT": 1.5,
	},
	deal.SportRunning: {
		"BROOKS": 2.0, "SAUCONY": 1.5, "HOKA": 1.5, "ASICS": 1.5, "NEW BALANCE": 1.0, "ALTRA": 1.0, "ON": 1.0,
	},
}

// Scorer assigns composite and relevance scores. TargetSport
// steers the relevance metric, empty means no preference.
type Scorer struct {
	TargetSport deal.Sport
}

// Score computes both scores and marks the deal scored.
// Idempotent, re-scoring overwrites cleanly.
func (s *Scorer) Score(d *deal.Deal) {
	composite := DiscountScore(d) + PriceScore(d) + YouthScore(d) +
		BrandScore(d.Brand, d.Sport) + InventoryScore(d)

	d.Score = round1(math.Min(100, composite))
	d.RelevanceScore = round1(s.relevance(d))
	d.Scored = true
}

// ScoreAll runs Score over the whole batch in place
func (s *Scorer) ScoreAll(deals []*deal.Deal) {
	for _, d := range deals {
		s.Score(d)
	}
}

// DiscountScore weighs the percentage off MSRP, 0 to 45.
// Discounts past 90% are treated as 90, inflated reference
// prices are too common to trust.
func DiscountScore(d *deal.Deal) float64 {
	pct, ok := d.DiscountPct()
	if !ok {
		return 0
	}
	if pct > 90 {
		pct = 90
	}
	score := math.Min(45, pct*0.9)
	if pct >= 70 {
		score = math.Min(45, score+5)
	}
	return score
}

// PriceScore favors cheap absolute prices, 0 to 20
func PriceScore(d *deal.Deal) float64 {
	p, _ := d.Price.Float64()
	switch {
	case p <= 0:
		return 0
	case p <= 20:
		return 20
	case p <= 40:
		return 20 - (p-20)*0.25
	case p <= 60:
		return 15 - (p-40)*0.25
	case p <= 100:
		return 10 - (p-60)*0.125
	default:
		return math.Max(0, 5-(p-100)*0.05)
	}
}

// YouthScore rewards kid-sized and kid-marketed gear, 0 to 20
func YouthScore(d *deal.Deal) float64 {
	var score float64
	if d.YouthFlag {
		score += 15
	}
	score += 5 * d.YouthSizeRatio()

	youth, adult := parsing.DetectYouthKeywords(d.Title)
	if youth {
		score += 3
	}
	if adult {
		score -= 5
	}
	if d.AgeRange != "" {
		score += 2
	}

	return clamp(score, 0, 20)
}

// BrandScore looks up prestige plus the sport bonus, 0 to 10
func BrandScore(brand string, sport deal.Sport) float64 {
	key := strings.ToUpper(strings.TrimSpace(brand))
	score, ok := brandScores[key]
	if !ok {
		score = defaultBrandScore
	}
	if bonus, ok := sportBrandBonuses[sport][key]; ok {
		score += bonus
	}
	return clamp(score, 0, 10)
}

// InventoryScore reflects how buyable the deal is right now, 0 to 5
func InventoryScore(d *deal.Deal) float64 {
	var score float64
	switch d.Stock {
	case deal.StockIn:
		score += 2
	case deal.StockOut:
		score -= 2
	}

	if d.StockLevel != "" {
		if isScarce(d.StockLevel) {
			score++
		} else {
			score += 0.5
		}
	}

	manySizes := len(d.Sizes) >= 3
	if manySizes {
		score++
	}
	if d.CouponCode != "" {
		score++
	}
	if d.Stock == deal.StockIn && manySizes && d.CouponCode != "" {
		score++
	}

	return clamp(score, 0, 5)
}

func (s *Scorer) relevance(d *deal.Deal) float64 {
	var score float64
	switch {
	case s.TargetSport != "" && d.Sport == s.TargetSport:
		score += 30
	case d.Sport != "":
		score += 15
	}
	score += 0.5 * YouthScore(d)
	if d.Category != "" {
		score += 10
	}
	score += 0.3 * BrandScore(d.Brand, d.Sport)
	return math.Min(100, score)
}

func isScarce(level string) bool {
	l := strings.ToLower(level)
	return strings.Contains(l, "limited") || strings.Contains(l, "low") ||
		strings.Contains(l, "only") || strings.Contains(l, "few")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
