package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback_service/internal/cache"
	"feedback_service/internal/domain"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	m.ttls[key] = ttl
}

func (m *memStore) SetNX(_ context.Context, key string, data []byte, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false
	}
	m.data[key] = data
	m.ttls[key] = ttl
	return true
}

func (m *memStore) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func sampleView() *domain.PublicFeedbackView {
	response := "Fixed on Monday"
	return &domain.PublicFeedbackView{
		TrackingCode: "TNG-20240901-5",
		Status:       domain.StatusResponded,
		Category:     domain.CategoryFacilities,
		Subject:      "Heater",
		Message:      "Cold room",
		Response:     &response,
		CreatedAt:    time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestTrackingCache(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	c := cache.NewTrackingCache(store, time.Minute, nil)
	view := sampleView()

	_, ok := c.Get(ctx, 5)
	assert.False(t, ok)

	c.Fill(ctx, 5, view)
	assert.Equal(t, time.Minute, store.ttls["feedback:track:5"])

	got, ok := c.Get(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, view, got)

	// a second fill keeps the first entry
	other := sampleView()
	other.Status = domain.StatusPending
	c.Fill(ctx, 5, other)
	got, ok = c.Get(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, domain.StatusResponded, got.Status)
}

func TestTrackingCache_InvalidateBlocksLateFill(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	c := cache.NewTrackingCache(store, time.Minute, nil, cache.WithInvalidationHold(10*time.Second))
	c.Fill(ctx, 5, sampleView())

	c.Invalidate(ctx, 5)
	assert.Equal(t, 10*time.Second, store.ttls["feedback:track:5"])
	_, ok := c.Get(ctx, 5)
	assert.False(t, ok)

	// a reader that loaded the row before the write lands its fill now
	c.Fill(ctx, 5, sampleView())
	_, ok = c.Get(ctx, 5)
	assert.False(t, ok)

	// once the hold expires the key is free again
	store.Delete(ctx, "feedback:track:5")
	c.Fill(ctx, 5, sampleView())
	_, ok = c.Get(ctx, 5)
	assert.True(t, ok)
}

func TestTrackingCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.Set(ctx, "feedback:track:9", []byte("{not json"), 0)

	c := cache.NewTrackingCache(store, time.Minute, nil)
	_, ok := c.Get(ctx, 9)
	assert.False(t, ok)

	_, stillThere := store.Get(ctx, "feedback:track:9")
	assert.False(t, stillThere)
}

func TestRedisCache_UnreachableIsMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	c := cache.NewRedisCache(rdb)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Second)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.False(t, c.SetNX(ctx, "k", []byte("v"), time.Second))
	c.Delete(ctx, "k")
}
