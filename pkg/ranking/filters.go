package ranking

import (
	"strings"

	"stillgrove.com/godealyourself/pkg/dealservice/deal"
)

// BySport keeps only deals for the given sport
func BySport(deals []*deal.Deal, sport deal.Sport) []*deal.Deal {
	return filter(deals, func(d *deal.Deal) bool {
		return d.Sport == sport
	})
}

// ByCategory keeps only deals in the given category
func ByCategory(deals []*deal.Deal, category deal.Category) []*deal.Deal {
	return filter(deals, func(d *deal.Deal) bool {
		return d.Category == category
	})
}

// ByBrand keeps only deals of the given brand, case-insensitive
func ByBrand(deals []*deal.Deal, brand string) []*deal.Deal {
	return filter(deals, func(d *deal.Deal) bool {
		return strings.EqualFold(d.Brand, brand)
	})
}

// ByRetailer keeps only deals sold by the given retailer
func ByRetailer(deals []*deal.Deal, retailer string) []*deal.Deal {
	return filter(deals, func(d *deal.Deal) bool {
		return strings.EqualFold(d.Retailer, retailer)
	})
}

// WithCoupons keeps only deals carrying a coupon code
func WithCoupons(deals []*deal.Deal) []*deal.Deal {
	return filter(deals, func(d *deal.Deal) bool {
		return d.CouponCode != ""
	})
}

// InStock keeps only deals known to be in stock
func InStock(deals []*deal.Deal) []*deal.Deal {
	return filter(deals, func(d *deal.Deal) bool {
		return d.Stock == deal.StockIn
	})
}

func filter(deals []*deal.Deal, keep func(*deal.Deal) bool) []*deal.Deal {
	out := make([]*deal.Deal, 0, len(deals))
	for _, d := range deals {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Summary describes a ranked batch at a glance
type Summary struct {
	Total       int
	Youth       int
	InStock     int
	WithCoupon  int
	AvgScore    float64
	AvgDiscount float64
	TopScore    float64
}

// Summarize computes batch statistics over ranked deals.
// The discount average only covers deals whose discount is known.
func Summarize(deals []*deal.Deal) Summary {
	s := Summary{Total: len(deals)}
	if len(deals) == 0 {
		return s
	}

	var scoreSum, discountSum float64
	var discounted int
	for _, d := range deals {
		scoreSum += d.Score
		if d.Score > s.TopScore {
			s.TopScore = d.Score
		}
		if d.IsYouthSized() {
			s.Youth++
		}
		if d.Stock == deal.StockIn {
			s.InStock++
		}
		if d.CouponCode != "" {
			s.WithCoupon++
		}
		if pct, ok := d.DiscountPct(); ok {
			discountSum += pct
			discounted++
		}
	}

	s.AvgScore = round1(scoreSum / float64(len(deals)))
	if discounted > 0 {
		s.AvgDiscount = round1(discountSum / float64(discounted))
	}
	return s
}
