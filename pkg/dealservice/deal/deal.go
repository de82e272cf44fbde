package deal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stillgrove.com/godealyourself/pkg/collection"
)

// youthSizeTokens mark a size label as a youth size
var youthSizeTokens = []string{"Y", "JR", "JUNIOR", "KIDS", "BOY", "GIRL"}

// Deal is one discounted product offer observed at a retailer.
// Money fields are exact decimals; a zero MSRP means the retailer
// never published one.
type Deal struct {
	ID    string
	Title string
	Brand string

	Sport    Sport
	Category Category

	YouthFlag bool
	Sizes     []string
	AgeRange  string

	Price    decimal.Decimal
	MSRP     decimal.Decimal
	Currency string

	CouponCode    string
	PromotionType string
	EndsAt        time.Time

	SKU  string
	MPN  string
	GTIN string

	Retailer     string
	SourceURL    string
	CanonicalURL string
	ImageURL     string

	FirstSeen time.Time
	LastSeen  time.Time

	Stock         Stock
	StockLevel    string
	ShippingNotes string

	Score          float64
	RelevanceScore float64
	Scored         bool

	IsDuplicate        bool
	CanonicalDealID    string
	AlternateRetailers []string
}

// Normalize trims free-text fields and fills derived defaults.
// Call it once after extraction, before Validate.
func (d *Deal) Normalize() {
	d.Title = collection.Sanitize(d.Title)
	d.Brand = collection.Sanitize(d.Brand)
	d.Retailer = strings.TrimSpace(d.Retailer)
	d.SKU = strings.TrimSpace(d.SKU)
	d.MPN = strings.TrimSpace(d.MPN)
	d.GTIN = strings.TrimSpace(d.GTIN)
	d.CouponCode = strings.TrimSpace(d.CouponCode)
	d.Sizes = collection.UniqueSizes(d.Sizes)
	if d.Currency == "" {
		d.Currency = "USD"
	}
	if d.CanonicalURL == "" {
		d.CanonicalURL = d.SourceURL
	}
	if d.FirstSeen.IsZero() {
		d.FirstSeen = time.Now().UTC()
	}
	if d.LastSeen.Before(d.FirstSeen) {
		d.LastSeen = d.FirstSeen
	}
	// an MSRP below the sale price is retailer noise, drop it
	if !d.MSRP.IsZero() && d.MSRP.LessThan(d.Price) {
		d.MSRP = decimal.Decimal{}
	}
}

// Validate checks the fields every downstream stage relies on
func (d *Deal) Validate() error {
	if collection.IsEmpty(&d.Title) {
		return fmt.Errorf("Deal Validation - missing title (%s)", d.SourceURL)
	}
	if collection.IsEmpty(&d.Retailer) {
		return fmt.Errorf("Deal Validation - missing retailer (%s)", d.Title)
	}
	if collection.IsEmpty(&d.SourceURL) {
		return fmt.Errorf("Deal Validation - missing source url (%s)", d.Title)
	}
	if !d.Price.IsPositive() {
		return fmt.Errorf("Deal Validation - price must be positive, got %s (%s)", d.Price, d.Title)
	}
	if d.GTIN != "" {
		if err := ValidateGTIN(d.GTIN); err != nil {
			return err
		}
	}
	if d.MPN != "" {
		if err := ValidateMPN(d.MPN); err != nil {
			return err
		}
	}
	return nil
}

// AssignID derives the stable deal identity. Precedence is
// gtin, then mpn, then sku, then the url+title fallback.
func (d *Deal) AssignID() {
	var seed string
	switch {
	case d.GTIN != "":
		seed = "gtin:" + d.GTIN
	case d.MPN != "":
		seed = "mpn:" + strings.ToUpper(d.MPN)
	case d.SKU != "":
		seed = "sku:" + strings.ToUpper(d.SKU)
	default:
		seed = fmt.Sprintf("url:%s:%s", d.CanonicalURL, d.Title)
	}
	sum := sha256.Sum256([]byte(seed))
	d.ID = hex.EncodeToString(sum[:])[:16]
}

// DiscountPct returns the percentage off MSRP, and whether
// it is knowable at all for this deal.
func (d *Deal) DiscountPct() (float64, bool) {
	if d.MSRP.IsZero() || !d.MSRP.IsPositive() || !d.Price.IsPositive() {
		return 0, false
	}
	if d.MSRP.LessThanOrEqual(d.Price) {
		return 0, true
	}
	pct := d.MSRP.Sub(d.Price).Div(d.MSRP).Mul(decimal.NewFromInt(100))
	f, _ := pct.Float64()
	return f, true
}

// SavingsAmount is MSRP minus price, zero when MSRP is absent
func (d *Deal) SavingsAmount() decimal.Decimal {
	if d.MSRP.IsZero() || d.MSRP.LessThan(d.Price) {
		return decimal.Decimal{}
	}
	return d.MSRP.Sub(d.Price)
}

// IsYouthSized reports whether the deal is flagged youth or
// carries at least one youth size.
func (d *Deal) IsYouthSized() bool {
	if d.YouthFlag {
		return true
	}
	for _, s := range d.Sizes {
		if IsYouthSize(s) {
			return true
		}
	}
	return false
}

// YouthSizeRatio is the share of listed sizes that are youth sizes
func (d *Deal) YouthSizeRatio() float64 {
	if len(d.Sizes) == 0 {
		return 0
	}
	var n int
	for _, s := range d.Sizes {
		if IsYouthSize(s) {
			n++
		}
	}
	return float64(n) / float64(len(d.Sizes))
}

// IsYouthSize classifies a single normalized size label against
// the youth indicator tokens, "YM" or "JR L" count. Bare numbers
// stay adult, retailers use them for grown shoe runs too.
func IsYouthSize(size string) bool {
	s := strings.ToUpper(strings.TrimSpace(size))
	if s == "" {
		return false
	}
	for _, tok := range youthSizeTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// Export flattens the deal into a string map for storage and reports
func (d *Deal) Export() map[string]string {
	out := map[string]string{
		"id":         d.ID,
		"title":      d.Title,
		"brand":      d.Brand,
		"sport":      string(d.Sport),
		"category":   string(d.Category),
		"price":      d.Price.StringFixed(2),
		"currency":   d.Currency,
		"retailer":   d.Retailer,
		"source_url": d.SourceURL,
		"url":        d.CanonicalURL,
		"stock":      d.Stock.String(),
		"first_seen": d.FirstSeen.UTC().Format(time.RFC3339),
		"last_seen":  d.LastSeen.UTC().Format(time.RFC3339),
	}
	if !d.MSRP.IsZero() {
		out["msrp"] = d.MSRP.StringFixed(2)
	}
	if d.YouthFlag || d.IsYouthSized() {
		out["youth"] = "true"
	}
	if len(d.Sizes) > 0 {
		out["sizes"] = strings.Join(d.Sizes, ",")
	}
	if d.AgeRange != "" {
		out["age_range"] = d.AgeRange
	}
	if d.CouponCode != "" {
		out["coupon_code"] = d.CouponCode
	}
	if d.PromotionType != "" {
		out["promotion_type"] = d.PromotionType
	}
	if !d.EndsAt.IsZero() {
		out["ends_at"] = d.EndsAt.UTC().Format(time.RFC3339)
	}
	if d.SKU != "" {
		out["sku"] = d.SKU
	}
	if d.MPN != "" {
		out["mpn"] = d.MPN
	}
	if d.GTIN != "" {
		out["gtin"] = d.GTIN
	}
	if d.ImageURL != "" {
		out["image_url"] = d.ImageURL
	}
	if d.StockLevel != "" {
		out["stock_level"] = d.StockLevel
	}
	if d.ShippingNotes != "" {
		out["shipping_notes"] = d.ShippingNotes
	}
	if d.Scored {
		out["score"] = strconv.FormatFloat(d.Score, 'f', 1, 64)
		out["relevance_score"] = strconv.FormatFloat(d.RelevanceScore, 'f', 1, 64)
	}
	if pct, ok := d.DiscountPct(); ok {
		out["discount_pct"] = strconv.FormatFloat(pct, 'f', 1, 64)
	}
	if len(d.AlternateRetailers) > 0 {
		out["alternate_retailers"] = strings.Join(d.AlternateRetailers, ",")
	}
	return out
}
