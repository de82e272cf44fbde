package store

import "stillgrove.com/godealyourself/pkg/dealservice/deal"

// Store persists ranked deals. Upsert is idempotent on deal ID,
// re-running a batch overwrites rather than duplicates.
type Store interface {
	Upsert(deals []*deal.Deal) error
	RecentDeals(lookbackDays int64) ([]*deal.Deal, error)
}
