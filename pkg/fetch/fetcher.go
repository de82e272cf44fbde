package fetch

import "context"

// Fetcher retrieves one document body. Implementations are safe
// for concurrent use by a single source pipeline.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
