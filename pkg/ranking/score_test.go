package ranking

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"stillgrove.com/godealyourself/pkg/dealservice/deal"
)

func priced(price, msrp string) *deal.Deal {
	d := &deal.Deal{
		Title:     "Test Item",
		Price:     decimal.RequireFromString(price),
		Retailer:  "dicks",
		SourceURL: "https://example.com/p/1",
	}
	if msrp != "" {
		d.MSRP = decimal.RequireFromString(msrp)
	}
	return d
}

func TestDiscountScore(t *testing.T) {
	// 80% off hits the cap, bonus included
	assert.Equal(t, 45.0, DiscountScore(priced("20.00", "100.00")))
	// 40% off
	assert.Equal(t, 36.0, DiscountScore(priced("60.00", "100.00")))
	// no reference price, no discount signal
	assert.Equal(t, 0.0, DiscountScore(priced("100.00", "")))
	// absurd discounts are capped at 90%
	d := priced("0.50", "100.00")
	assert.Equal(t, 45.0, DiscountScore(d))
}

func TestPriceScore(t *testing.T) {
	assert.Equal(t, 20.0, PriceScore(priced("15.00", "")))
	assert.Equal(t, 12.5, PriceScore(priced("50.00", "")))
	assert.Equal(t, 2.5, PriceScore(priced("150.00", "")))
	assert.Equal(t, 20.0, PriceScore(priced("20.00", "")))
	assert.Equal(t, 15.0, PriceScore(priced("40.00", "")))
	assert.Equal(t, 10.0, PriceScore(priced("60.00", "")))
	assert.Equal(t, 5.0, PriceScore(priced("100.00", "")))
	assert.Equal(t, 0.0, PriceScore(priced("250.00", "")))
}

func TestYouthScore(t *testing.T) {
	flagged := priced("30.00", "")
	flagged.YouthFlag = true
	flagged.Sizes = []string{"YS", "YM", "YL"}
	assert.Equal(t, 20.0, YouthScore(flagged))

	adult := priced("30.00", "")
	adult.Title = "Men's Training Top"
	adult.Sizes = []string{"M", "L", "XL"}
	assert.Equal(t, 0.0, YouthScore(adult))

	aged := priced("30.00", "")
	aged.AgeRange = "8-12"
	assert.Equal(t, 2.0, YouthScore(aged))

	// bare numeric size runs carry no youth signal
	numeric := priced("30.00", "")
	numeric.Title = "Court Classic Sneaker"
	numeric.Sizes = []string{"3", "4", "5"}
	assert.Equal(t, 0.0, YouthScore(numeric))
}

func TestBrandScore(t *testing.T) {
	assert.Equal(t, 8.5, BrandScore("Nike", ""))
	assert.Equal(t, 5.0, BrandScore("Acme Sports", ""))
	assert.Equal(t, 10.0, BrandScore("Bauer", deal.SportHockey))
	assert.Equal(t, 8.0, BrandScore("bauer", deal.SportSoccer))
	// bonus is capped, CCM hockey would otherwise be 9.5
	assert.Equal(t, 9.5, BrandScore("CCM", deal.SportHockey))
}

func TestInventoryScore(t *testing.T) {
	full := priced("30.00", "")
	full.Stock = deal.StockIn
	full.Sizes = []string{"S", "M", "L"}
	full.CouponCode = "SAVE20"
	assert.Equal(t, 5.0, InventoryScore(full))

	out := priced("30.00", "")
	out.Stock = deal.StockOut
	assert.Equal(t, 0.0, InventoryScore(out))

	limited := priced("30.00", "")
	limited.Stock = deal.StockIn
	limited.StockLevel = "limited"
	assert.Equal(t, 3.0, InventoryScore(limited))
}

func TestScoreComposite(t *testing.T) {
	s := &Scorer{TargetSport: deal.SportBasketball}

	d := priced("45.00", "90.00")
	d.Title = "Nike Youth Basketball Shoe"
	d.Brand = "Nike"
	d.Sport = deal.SportBasketball
	d.Category = deal.CategoryFootwear
	d.YouthFlag = true
	s.Score(d)

	assert.True(t, d.Scored)
	assert.GreaterOrEqual(t, d.Score, 0.0)
	assert.LessOrEqual(t, d.Score, 100.0)
	// 50% discount=45, price 45=13.75, youth 15+3=18, brand 8.5, stock 0
	assert.Equal(t, 85.3, d.Score)
	// sport 30 + youth 9 + category 10 + brand 2.55
	assert.Equal(t, 51.6, d.RelevanceScore)

	// re-scoring does not drift
	s.Score(d)
	assert.Equal(t, 85.3, d.Score)
}
