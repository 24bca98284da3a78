package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadThroughCache_CachesLoaderResult(t *testing.T) {
	backing := NewInMemoryCacheManager[string, []uint64]("trace", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	loader := func(ctx context.Context, id uint64) ([]uint64, error) {
		calls++
		return []uint64{1, 2, id}, nil
	}

	rtc := NewReadThroughCache(backing, loader, false)

	first, err := rtc.Get(context.Background(), "trace:3", 3, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, first)
	require.Equal(t, 1, calls)

	second, err := rtc.Get(context.Background(), "trace:3", 3, time.Minute)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls, "second read should come from cache")
}

func TestReadThroughCache_SkipCacheAlwaysCallsLoader(t *testing.T) {
	backing := NewInMemoryCacheManager[string, int]("trace", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	loader := func(ctx context.Context, n int) (int, error) {
		calls++
		return n * 2, nil
	}

	rtc := NewReadThroughCache(backing, loader, true)

	for range 3 {
		got, err := rtc.Get(context.Background(), "k", 5, time.Minute)
		require.NoError(t, err)
		require.Equal(t, 10, got)
	}
	require.Equal(t, 3, calls)
}

func TestReadThroughCache_LoaderErrorNotCached(t *testing.T) {
	backing := NewInMemoryCacheManager[string, int]("trace", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	loader := func(ctx context.Context, n int) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return n, nil
	}

	rtc := NewReadThroughCache(backing, loader, false)

	_, err := rtc.Get(context.Background(), "k", 7, time.Minute)
	require.Error(t, err)

	got, err := rtc.Get(context.Background(), "k", 7, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 7, got)
	require.Equal(t, 2, calls, "error result must not be cached")
}
