package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs the Cache with a shared redis instance so a fleet of batch
// workers can reuse each other's valuations.
type Redis struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// NewRedis connects to addr. Entries expire after ttl; zero keeps them
// forever.
func NewRedis(addr string, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Redis{
		client: rdb,
		ctx:    context.Background(),
		ttl:    ttl,
	}
}

func (r *Redis) Get(key string) (string, bool) {
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (r *Redis) Set(key string, value string) error {
	return r.client.Set(r.ctx, key, value, r.ttl).Err()
}

// Ping verifies the connection, for startup checks.
func (r *Redis) Ping() error {
	return r.client.Ping(r.ctx).Err()
}
