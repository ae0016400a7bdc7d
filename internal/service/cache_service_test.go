package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type memoryCache struct {
	items   map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.failGet {
		return errors.New("connection refused")
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "perf:student:22A91A0501", CacheKey("student", "22A91A0501"))
	assert.Equal(t, "perf:class:2:3", CacheKey("class", int64(2), 3))
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCache()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out map[string]int
	assert.False(t, svc.Get(ctx, "perf:a", &out))

	svc.Set(ctx, "perf:a", map[string]int{"total": 3}, 0)
	assert.Equal(t, time.Minute, repo.ttls["perf:a"])

	require.True(t, svc.Get(ctx, "perf:a", &out))
	assert.Equal(t, 3, out["total"])
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))

	svc.Set(ctx, "perf:student:1", 1, time.Second)
	svc.Set(ctx, "perf:student:2", 2, time.Second)
	svc.InvalidatePattern(ctx, "perf:student:*")
	svc.Invalidate(ctx, "perf:a")
	assert.Empty(t, repo.items)
}

func TestCacheServiceFailsOpen(t *testing.T) {
	repo := newMemoryCache()
	repo.failGet = true
	svc := NewCacheService(repo, nil, 0, nil, true)

	var out int
	assert.False(t, svc.Get(context.Background(), "perf:x", &out))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCache()
	disabled := NewCacheService(repo, nil, 0, nil, false)
	disabled.Set(context.Background(), "perf:x", 1, 0)
	assert.Empty(t, repo.items)
	assert.False(t, disabled.Enabled())

	noRepo := NewCacheService(nil, nil, 0, nil, true)
	assert.False(t, noRepo.Enabled())

	var nilSvc *CacheService
	var out int
	assert.False(t, nilSvc.Get(context.Background(), "perf:x", &out))
}
