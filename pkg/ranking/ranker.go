package ranking

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"stillgrove.com/godealyourself/pkg/dealservice/deal"
)

// Rank filters on minimum discount and orders by composite score.
// Deals whose discount cannot be computed always pass the filter.
// Equal scores break ascending by ID so the order is stable
// across runs regardless of input order.
func Rank(deals []*deal.Deal, minDiscount float64) []*deal.Deal {
	out := make([]*deal.Deal, 0, len(deals))
	for _, d := range deals {
		if pct, ok := d.DiscountPct(); ok && pct < minDiscount {
			continue
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	log.WithFields(log.Fields{
		"input":        len(deals),
		"ranked":       len(out),
		"min_discount": minDiscount,
	}).Infoln("Ranked deals")

	return out
}

// TopBySport partitions by sport and keeps the n best of each
func TopBySport(deals []*deal.Deal, n int) map[deal.Sport][]*deal.Deal {
	groups := make(map[deal.Sport][]*deal.Deal)
	for _, d := range deals {
		if d.Sport == "" {
			continue
		}
		groups[d.Sport] = append(groups[d.Sport], d)
	}
	for sport, group := range groups {
		groups[sport] = truncate(sortGroup(group), n)
	}
	return groups
}

// TopByCategory partitions by category and keeps the n best of each
func TopByCategory(deals []*deal.Deal, n int) map[deal.Category][]*deal.Deal {
	groups := make(map[deal.Category][]*deal.Deal)
	for _, d := range deals {
		if d.Category == "" {
			continue
		}
		groups[d.Category] = append(groups[d.Category], d)
	}
	for cat, group := range groups {
		groups[cat] = truncate(sortGroup(group), n)
	}
	return groups
}

// FilterYouth keeps only youth-flagged or youth-sized deals
func FilterYouth(deals []*deal.Deal) []*deal.Deal {
	out := make([]*deal.Deal, 0, len(deals))
	for _, d := range deals {
		if d.IsYouthSized() {
			out = append(out, d)
		}
	}
	return out
}

// Limit truncates without copying the underlying deals
func Limit(deals []*deal.Deal, n int) []*deal.Deal {
	return truncate(deals, n)
}

func sortGroup(group []*deal.Deal) []*deal.Deal {
	sort.SliceStable(group, func(i, j int) bool {
		if group[i].Score != group[j].Score {
			return group[i].Score > group[j].Score
		}
		return group[i].ID < group[j].ID
	})
	return group
}

func truncate(deals []*deal.Deal, n int) []*deal.Deal {
	if n <= 0 || n >= len(deals) {
		return deals
	}
	return deals[:n]
}
