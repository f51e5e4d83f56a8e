package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a best-effort byte cache: any Redis failure reads as a miss
// and writes are dropped.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	r.rdb.Set(ctx, key, data, ttl)
}

// SetNX stores data only when key is absent and reports whether it did.
func (r *RedisCache) SetNX(ctx context.Context, key string, data []byte, ttl time.Duration) bool {
	ok, err := r.rdb.SetNX(ctx, key, data, ttl).Result()
	return err == nil && ok
}

func (r *RedisCache) Delete(ctx context.Context, key string) {
	r.rdb.Del(ctx, key)
}
