package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisPermissionCache struct {
	client *redis.Client
}

func NewRedisPermissionCache(addr string, password string, db int) *RedisPermissionCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisPermissionCache{client: client}
}

func (c *RedisPermissionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisPermissionCache) Close() error {
	return c.client.Close()
}

func (c *RedisPermissionCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var perms []string
	if err := json.Unmarshal([]byte(val), &perms); err != nil {
		return nil, false, err
	}
	return perms, true, nil
}

func (c *RedisPermissionCache) Set(ctx context.Context, key string, permissions []string, ttl time.Duration) error {
	payload, err := json.Marshal(permissions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisPermissionCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
