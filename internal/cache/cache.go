package cache

import (
	"context"
	"time"
)

// PermissionCache holds resolved permission sets keyed by user so the
// authorization gate does not hit the database on every request. A cache miss
// or error is never fatal; callers fall through to the store.
type PermissionCache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, permissions []string, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopPermissionCache struct{}

func (NoopPermissionCache) Get(_ context.Context, _ string) ([]string, bool, error) {
	return nil, false, nil
}

func (NoopPermissionCache) Set(_ context.Context, _ string, _ []string, _ time.Duration) error {
	return nil
}

func (NoopPermissionCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
