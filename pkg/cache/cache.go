package cache

import "errors"

// ErrMiss is returned by Load when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Cache is a key value store used to hold fetched pages between runs
type Cache interface {
	Load(key string) ([]byte, error)
	Store(updates map[string][]byte) error
	Close()
}
