package dedup

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"stillgrove.com/godealyourself/pkg/collection"
	"stillgrove.com/godealyourself/pkg/dealservice/deal"
)

// Match rules, in the order they are tried
const (
	RuleExact       = "exact"
	RuleGTIN        = "gtin"
	RuleMPN         = "mpn"
	RuleSKURetailer = "sku_retailer"
	RuleFuzzy       = "fuzzy"
)

var (
	exactPriceTolerance = decimal.NewFromFloat(0.05)
	fuzzyPriceTolerance = decimal.NewFromFloat(0.10)
)

// Stats summarizes one dedup pass
type Stats struct {
	Input  int
	Output int
	Merged int
	ByRule map[string]int
}

// Deduplicator folds listings of the same product from different
// retailers into one canonical deal.
type Deduplicator struct {
	threshold int
}

// New builds a deduplicator with the given fuzzy title
// similarity threshold, 0 to 100.
func New(threshold int) *Deduplicator {
	return &Deduplicator{threshold: threshold}
}

// AreDuplicates runs the match rules in order and reports the
// first one that fires.
func (dd *Deduplicator) AreDuplicates(a, b *deal.Deal) (bool, string) {
	if a.ID == b.ID && a.ID != "" {
		return true, RuleExact
	}
	if sameTitleBrand(a, b) && priceWithin(a.Price, b.Price, exactPriceTolerance) {
		return true, RuleExact
	}
	if a.GTIN != "" && a.GTIN == b.GTIN {
		return true, RuleGTIN
	}
	if a.MPN != "" && strings.EqualFold(a.MPN, b.MPN) {
		return true, RuleMPN
	}
	if a.SKU != "" && strings.EqualFold(a.SKU, b.SKU) && strings.EqualFold(a.Retailer, b.Retailer) {
		return true, RuleSKURetailer
	}
	if dd.fuzzyMatch(a, b) {
		return true, RuleFuzzy
	}
	return false, ""
}

// fuzzyMatch requires agreement on brand, sport and category,
// near-identical titles, close prices, and compatible sizes.
func (dd *Deduplicator) fuzzyMatch(a, b *deal.Deal) bool {
	if a.Brand == "" || !strings.EqualFold(a.Brand, b.Brand) {
		return false
	}
	if a.Sport == "" || a.Sport != b.Sport {
		return false
	}
	if a.Category == "" || a.Category != b.Category {
		return false
	}
	if TitleSimilarity(a.Title, b.Title) < dd.threshold {
		return false
	}
	if !priceWithin(a.Price, b.Price, fuzzyPriceTolerance) {
		return false
	}
	// size lists only disqualify when both exist and share nothing
	if len(a.Sizes) > 0 && len(b.Sizes) > 0 && !collection.ListsOverlap(a.Sizes, b.Sizes) {
		return false
	}
	return true
}

// TitleSimilarity scores two titles 0-100 using Levenshtein
// distance over their sanitized forms.
func TitleSimilarity(a, b string) int {
	sa, sb := collection.SanitizeHard(a), collection.SanitizeHard(b)
	if sa == "" || sb == "" {
		return 0
	}
	if sa == sb {
		return 100
	}
	maxLen := len(sa)
	if len(sb) > maxLen {
		maxLen = len(sb)
	}
	dist := matchr.Levenshtein(sa, sb)
	return int(100 * (1 - float64(dist)/float64(maxLen)))
}

func sameTitleBrand(a, b *deal.Deal) bool {
	return collection.HashKey(a.Title) == collection.HashKey(b.Title) &&
		collection.HashKey(a.Brand) == collection.HashKey(b.Brand)
}

// priceWithin compares the gap against the average of the two
// prices, exact decimal all the way.
func priceWithin(a, b, tolerance decimal.Decimal) bool {
	if !a.IsPositive() || !b.IsPositive() {
		return false
	}
	avg := a.Add(b).Div(decimal.NewFromInt(2))
	diff := a.Sub(b).Abs()
	return diff.Div(avg).LessThanOrEqual(tolerance)
}

// Run groups the input transitively and merges each group into
// its canonical deal. The input slice is not modified.
func (dd *Deduplicator) Run(deals []*deal.Deal) ([]*deal.Deal, Stats) {
	stats := Stats{
		Input:  len(deals),
		ByRule: make(map[string]int),
	}

	parent := make([]int, len(deals))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[rj] = ri
		}
	}

	for i := 0; i < len(deals); i++ {
		for j := i + 1; j < len(deals); j++ {
			if find(i) == find(j) {
				continue
			}
			if ok, rule := dd.AreDuplicates(deals[i], deals[j]); ok {
				union(i, j)
				stats.ByRule[rule]++
			}
		}
	}

	groups := make(map[int][]*deal.Deal)
	order := make([]int, 0)
	for i, d := range deals {
		root := find(i)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], d)
	}

	out := make([]*deal.Deal, 0, len(groups))
	for _, root := range order {
		group := groups[root]
		canonical := mergeGroup(group)
		if len(group) > 1 {
			stats.Merged += len(group) - 1
		}
		out = append(out, canonical)
	}

	stats.Output = len(out)
	log.WithFields(log.Fields{
		"input":  stats.Input,
		"output": stats.Output,
		"merged": stats.Merged,
	}).Infoln("Deduplicated deals")

	return out, stats
}

// mergeGroup folds a duplicate group into its canonical deal.
// The canonical keeps the best price across retailers.
func mergeGroup(group []*deal.Deal) *deal.Deal {
	if len(group) == 1 {
		return group[0]
	}

	canonical := pickCanonical(group)
	merged := *canonical

	retailers := []string{merged.Retailer}
	for _, d := range group {
		if d == canonical {
			continue
		}
		retailers = append(retailers, d.Retailer)
		// only the price comes over, the canonical keeps its
		// own retailer and URLs
		if d.Price.LessThan(merged.Price) {
			merged.Price = d.Price
		}
		if d.MSRP.GreaterThan(merged.MSRP) {
			merged.MSRP = d.MSRP
		}
		merged.Sizes = collection.UniqueSizes(collection.MergeLists(merged.Sizes, d.Sizes))
		merged.YouthFlag = merged.YouthFlag || d.YouthFlag
		merged.GTIN = collection.CollateString(merged.GTIN, d.GTIN)
		merged.MPN = collection.CollateString(merged.MPN, d.MPN)
		merged.SKU = collection.CollateString(merged.SKU, d.SKU)
		merged.Brand = collection.CollateString(merged.Brand, d.Brand)
		merged.ImageURL = collection.CollateString(merged.ImageURL, d.ImageURL)
		merged.CouponCode = collection.CollateString(merged.CouponCode, d.CouponCode)
		merged.AgeRange = collection.CollateString(merged.AgeRange, d.AgeRange)
		// any in-stock sighting wins, any out-of-stock beats unknown
		if d.Stock == deal.StockIn {
			merged.Stock = deal.StockIn
		} else if d.Stock == deal.StockOut && merged.Stock == deal.StockUnknown {
			merged.Stock = deal.StockOut
		}
		// a scarcity signal beats whatever level is already there
		if isLimited(d.StockLevel) && !isLimited(merged.StockLevel) {
			merged.StockLevel = d.StockLevel
		} else if merged.StockLevel == "" {
			merged.StockLevel = d.StockLevel
		}
		merged.ShippingNotes = collection.CollateString(merged.ShippingNotes, d.ShippingNotes)
		if !d.FirstSeen.IsZero() && (merged.FirstSeen.IsZero() || d.FirstSeen.Before(merged.FirstSeen)) {
			merged.FirstSeen = d.FirstSeen
		}
		if d.LastSeen.After(merged.LastSeen) {
			merged.LastSeen = d.LastSeen
		}

		d.IsDuplicate = true
		d.CanonicalDealID = merged.ID
	}

	for _, r := range retailers {
		if !strings.EqualFold(r, merged.Retailer) {
			merged.AlternateRetailers = append(merged.AlternateRetailers, r)
		}
	}
	merged.AlternateRetailers = collection.UniqueStrings(merged.AlternateRetailers)
	sort.Strings(merged.AlternateRetailers)

	return &merged
}

// pickCanonical takes the highest scored member, unscored deals
// counting as zero. Ties go to the most complete record, then
// the smallest ID.
func pickCanonical(group []*deal.Deal) *deal.Deal {
	best := group[0]
	for _, d := range group[1:] {
		if betterCanonical(d, best) {
			best = d
		}
	}
	return best
}

func effectiveScore(d *deal.Deal) float64 {
	if d.Scored {
		return d.Score
	}
	return 0
}

func betterCanonical(a, b *deal.Deal) bool {
	if sa, sb := effectiveScore(a), effectiveScore(b); sa != sb {
		return sa > sb
	}
	ca, cb := completeness(a), completeness(b)
	if ca != cb {
		return ca > cb
	}
	return a.ID < b.ID
}

// isLimited spots the level strings retailers use for scarcity
func isLimited(level string) bool {
	l := strings.ToLower(level)
	return strings.Contains(l, "limited") || strings.Contains(l, "low stock") ||
		strings.Contains(l, "only") || strings.Contains(l, "few left")
}

func completeness(d *deal.Deal) int {
	var n int
	for _, f := range []string{d.Brand, d.GTIN, d.MPN, d.SKU, d.ImageURL, string(d.Sport), string(d.Category), d.AgeRange} {
		if f != "" {
			n++
		}
	}
	if len(d.Sizes) > 0 {
		n++
	}
	if !d.MSRP.IsZero() {
		n++
	}
	if d.Stock.Known() {
		n++
	}
	return n
}
