package fetch

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedFetcher fronts a Fetcher with a Redis TTL cache so that a scan and a
// burst of events against the same organization do not refetch the same
// document. Cache failures fall through to the origin.
type CachedFetcher struct {
	next   Fetcher
	client *redis.Client
	ttl    time.Duration
}

func NewCachedFetcher(next Fetcher, client *redis.Client, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, client: client, ttl: ttl}
}

func cacheKey(uri string) string {
	return "orgtrust:doc:" + uri
}

func (f *CachedFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if cached, err := f.client.Get(ctx, cacheKey(uri)).Bytes(); err == nil {
		return cached, nil
	}
	body, err := f.next.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	// Best effort; the origin result stands even if the cache write fails.
	_ = f.client.Set(ctx, cacheKey(uri), body, f.ttl).Err()
	return body, nil
}

// Invalidate drops the cached copy of a URI. The event reconciler calls this
// when the on-chain pointer or hash for a document changes.
func (f *CachedFetcher) Invalidate(ctx context.Context, uri string) error {
	return f.client.Del(ctx, cacheKey(uri)).Err()
}
