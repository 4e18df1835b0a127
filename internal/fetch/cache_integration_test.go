//go:build integration

package fetch_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"orgtrust/internal/fetch"
	"orgtrust/pkg/testutil/containers"
)

type countingFetcher struct {
	calls atomic.Int32
	body  []byte
}

func (f *countingFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	return f.body, nil
}

type CachedFetcherSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestCachedFetcherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedFetcherSuite))
}

func (s *CachedFetcherSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedFetcherSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *CachedFetcherSuite) TestCaching() {
	ctx := context.Background()
	origin := &countingFetcher{body: []byte(`{"legalEntity":{}}`)}
	cached := fetch.NewCachedFetcher(origin, s.redis.Client, time.Minute)

	s.Run("second fetch is served from cache", func() {
		uri := "https://docs.example/acme.json"

		first, err := cached.Fetch(ctx, uri)
		s.Require().NoError(err)
		second, err := cached.Fetch(ctx, uri)
		s.Require().NoError(err)

		s.Equal(first, second)
		s.Equal(int32(1), origin.calls.Load())
	})

	s.Run("distinct URIs do not share entries", func() {
		before := origin.calls.Load()
		_, err := cached.Fetch(ctx, "https://docs.example/other.json")
		s.Require().NoError(err)
		s.Equal(before+1, origin.calls.Load())
	})

	s.Run("invalidate forces a refetch", func() {
		uri := "https://docs.example/stale.json"

		_, err := cached.Fetch(ctx, uri)
		s.Require().NoError(err)
		before := origin.calls.Load()

		s.Require().NoError(cached.Invalidate(ctx, uri))

		_, err = cached.Fetch(ctx, uri)
		s.Require().NoError(err)
		s.Equal(before+1, origin.calls.Load())
	})
}
