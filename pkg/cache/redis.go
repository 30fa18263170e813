package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs the Cache interface with a shared redis instance, so
// multiple backend replicas see the same cached records.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the given address and verifies the connection.
func NewRedis(addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(key string) (string, bool) {
	value, err := r.client.Get(context.Background(), key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

func (r *Redis) Set(key, value string, ttl time.Duration) {
	r.client.Set(context.Background(), key, value, ttl)
}

func (r *Redis) Delete(key string) {
	r.client.Del(context.Background(), key)
}
