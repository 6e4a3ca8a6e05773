package fetcher

import (
	"context"
	"encoding/json"
)

// Source retrieves raw market data for one server and the localized item-name table.
type Source interface {
	FetchEntries(ctx context.Context, serverID string) ([]json.RawMessage, error)
	FetchItemNames(ctx context.Context, lang string) (map[string]string, error)
}

// CacheRecorder observes read-through cache outcomes per resource kind.
type CacheRecorder interface {
	CacheHit(resource string)
	CacheMiss(resource string)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit(string)  {}
func (nopRecorder) CacheMiss(string) {}
