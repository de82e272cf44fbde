package parsing

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stillgrove.com/godealyourself/pkg/collection"
)

var (
	pricePattern  = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)
	whitespace    = regexp.MustCompile(`\s+`)
	sizeSeparator = regexp.MustCompile(`[,/|]`)
	skuPattern    = regexp.MustCompile(`[^A-Za-z0-9\-_\.]`)
	couponPattern = regexp.MustCompile(`(?i)(?:with\s+)?(?:promo\s+|coupon\s+)?code[:\s]+([A-Z0-9]{4,15})\b`)

	// Words that show up before the brand in listing titles
	brandStopwords = map[string]struct{}{
		"the": {}, "new": {}, "best": {}, "top": {}, "pro": {},
		"elite": {}, "youth": {}, "kid": {}, "kids": {}, "jr": {}, "junior": {},
	}

	youthTitleWords = []string{
		"youth", "kids", "kid", "junior", "jr", "boys", "girls",
		"toddler", "little kid", "big kid", "grade school",
	}
	adultTitleWords = []string{
		"men", "men's", "mens", "women", "women's", "womens",
		"adult", "senior", "sr",
	}

	promoEndLayouts = []string{
		"January 2, 2006",
		"Jan 2, 2006",
		"January 2 2006",
		"01/02/2006",
		"1/2/2006",
		"2006-01-02",
	}
)

// CleanText collapses whitespace and strips surrounding noise
func CleanText(s string) string {
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	return strings.Trim(s, " \t\n-–•*")
}

// ParsePrice pulls the first money amount out of free text.
// Currency symbols and thousands separators are tolerated.
func ParsePrice(s string) (decimal.Decimal, bool) {
	m := pricePattern.FindString(s)
	if m == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}

// NormalizeSize uppercases and strips a single size label
func NormalizeSize(s string) string {
	return strings.ToUpper(CleanText(s))
}

// ParseSizes splits a raw size listing into normalized labels.
// "Sizes:" style prefixes and separators are handled.
func ParseSizes(raw string) []string {
	raw = CleanText(raw)
	if raw == "" {
		return nil
	}
	if idx := strings.Index(strings.ToLower(raw), "sizes:"); idx >= 0 {
		raw = raw[idx+len("sizes:"):]
	} else if idx := strings.Index(strings.ToLower(raw), "size:"); idx >= 0 {
		raw = raw[idx+len("size:"):]
	}
	parts := sizeSeparator.Split(raw, -1)
	return collection.UniqueSizes(parts)
}

// BrandFromTitle guesses the brand as the first meaningful
// word of the title. Caller decided no explicit brand exists.
func BrandFromTitle(title string) string {
	for _, w := range strings.Fields(CleanText(title)) {
		token := strings.ToLower(strings.Trim(w, ".,:;"))
		if _, skip := brandStopwords[token]; skip {
			continue
		}
		if token == "" {
			continue
		}
		return strings.Trim(w, ".,:;")
	}
	return ""
}

// DetectYouthKeywords scans a title for youth and adult markers
func DetectYouthKeywords(title string) (youth, adult bool) {
	t := " " + strings.ToLower(CleanText(title)) + " "
	for _, w := range youthTitleWords {
		if strings.Contains(t, " "+w+" ") {
			youth = true
			break
		}
	}
	for _, w := range adultTitleWords {
		if strings.Contains(t, " "+w+" ") {
			adult = true
			break
		}
	}
	return youth, adult
}

// CleanSKU strips everything a retailer SKU cannot contain
func CleanSKU(s string) string {
	return skuPattern.ReplaceAllString(strings.TrimSpace(s), "")
}

// ExtractCouponCode finds promo codes announced in banner text
func ExtractCouponCode(s string) string {
	m := couponPattern.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.ToUpper(m[1])
}

// ParsePromotionEnd tries the date layouts retailers actually use.
// A date without a year is resolved against now, never backwards.
func ParsePromotionEnd(s string, now time.Time) (time.Time, bool) {
	s = CleanText(s)
	for _, prefix := range []string{"ends", "through", "thru", "until", "valid through"} {
		low := strings.ToLower(s)
		if strings.HasPrefix(low, prefix) {
			s = CleanText(s[len(prefix):])
			break
		}
	}
	for _, layout := range promoEndLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	// month/day only, e.g. "9/30"
	if t, err := time.Parse("1/2", s); err == nil {
		t = time.Date(now.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
		if t.Before(now) {
			t = t.AddDate(1, 0, 0)
		}
		return t, true
	}
	return time.Time{}, false
}

// NormalizeURL canonicalizes a product link. Tracking params and
// fragments are dropped, the rest of the query is kept sorted.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	if u.Scheme == "" || u.Scheme == "http" {
		u.Scheme = "https"
	}

	q := u.Query()
	for key := range q {
		lk := strings.ToLower(key)
		if strings.HasPrefix(lk, "utm_") || lk == "ref" || lk == "cid" || lk == "clickid" || lk == "gclid" {
			q.Del(key)
		}
	}
	if len(q) == 0 {
		u.RawQuery = ""
	} else {
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(q.Get(k)))
		}
		u.RawQuery = b.String()
	}

	out := u.String()
	return strings.TrimSuffix(out, "/")
}
