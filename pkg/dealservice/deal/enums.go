package deal

import (
	"fmt"
	"strings"
)

// Sport labels the sport a product belongs to
type Sport string

const (
	SportSoccer     Sport = "soccer"
	SportBasketball Sport = "basketball"
	SportHockey     Sport = "hockey"
	SportLacrosse   Sport = "lacrosse"
	SportTennis     Sport = "tennis"
	SportBaseball   Sport = "baseball"
	SportSoftball   Sport = "softball"
	SportRunning    Sport = "running"
	SportFootball   Sport = "football"
	SportMulti      Sport = "multi"
)

var validSports = map[Sport]struct{}{
	SportSoccer:     {},
	SportBasketball: {},
	SportHockey:     {},
	SportLacrosse:   {},
	SportTennis:     {},
	SportBaseball:   {},
	SportSoftball:   {},
	SportRunning:    {},
	SportFootball:   {},
	SportMulti:      {},
}

// ParseSport maps a string tag to a Sport, empty input stays empty
func ParseSport(s string) (Sport, error) {
	if s == "" {
		return "", nil
	}
	sp := Sport(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validSports[sp]; !ok {
		return "", fmt.Errorf("Unknown sport - %s", s)
	}
	return sp, nil
}

// Category labels the product category
type Category string

const (
	CategoryFootwear    Category = "footwear"
	CategoryApparel     Category = "apparel"
	CategoryProtective  Category = "protective"
	CategoryEquipment   Category = "equipment"
	CategoryBags        Category = "bags"
	CategoryAccessories Category = "accessories"
)

var validCategories = map[Category]struct{}{
	CategoryFootwear:    {},
	CategoryApparel:     {},
	CategoryProtective:  {},
	CategoryEquipment:   {},
	CategoryBags:        {},
	CategoryAccessories: {},
}

// ParseCategory maps a string tag to a Category, empty input stays empty
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return "", nil
	}
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validCategories[c]; !ok {
		return "", fmt.Errorf("Unknown category - %s", s)
	}
	return c, nil
}

// Stock is the tri-state availability of a listing
type Stock int8

const (
	StockUnknown Stock = iota
	StockIn
	StockOut
)

func (s Stock) String() string {
	switch s {
	case StockIn:
		return "in_stock"
	case StockOut:
		return "out_of_stock"
	default:
		return "unknown"
	}
}

// Known reports whether the stock state was actually observed
func (s Stock) Known() bool {
	return s != StockUnknown
}
