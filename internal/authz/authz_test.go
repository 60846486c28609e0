package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"larispos/backend/internal/cache"
	"larispos/backend/internal/domain"
)

type fakeGrants struct {
	perms map[int64][]string
	calls int
	err   error
}

func (f *fakeGrants) ListUserPermissions(_ context.Context, userID int64) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.perms[userID], nil
}

func TestAdminHoldsEveryPermission(t *testing.T) {
	r := NewResolver(&fakeGrants{}, cache.NoopPermissionCache{}, time.Minute)

	for _, role := range []domain.Role{domain.RoleSuperAdmin, domain.RoleAdmin} {
		d, err := r.Resolve(context.Background(), domain.Actor{UserID: 1, Role: role})
		require.NoError(t, err)
		for _, p := range AllPermissions() {
			require.True(t, d.Allows(p), "role %s should allow %s", role, p)
		}
	}
}

func TestCashierOnlyGetsExplicitGrants(t *testing.T) {
	grants := &fakeGrants{perms: map[int64][]string{
		7: {string(PermProcessSales), string(PermManageCustomers)},
	}}
	r := NewResolver(grants, cache.NoopPermissionCache{}, time.Minute)

	d, err := r.Resolve(context.Background(), domain.Actor{UserID: 7, TenantID: 1, Role: domain.RoleCashier})
	require.NoError(t, err)
	require.True(t, d.Allows(PermProcessSales))
	require.True(t, d.Allows(PermManageCustomers))
	require.False(t, d.Allows(PermManageUsers))
	require.False(t, d.Allows(PermManageExpenses))
}

func TestUngrantedActorAllowsNothing(t *testing.T) {
	r := NewResolver(&fakeGrants{}, cache.NoopPermissionCache{}, time.Minute)

	d, err := r.Resolve(context.Background(), domain.Actor{UserID: 9, TenantID: 1, Role: domain.RoleStaff})
	require.NoError(t, err)
	for _, p := range AllPermissions() {
		require.False(t, d.Allows(p))
	}
}

type mapCache struct {
	entries map[string][]string
}

func (m *mapCache) Get(_ context.Context, key string) ([]string, bool, error) {
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, perms []string, _ time.Duration) error {
	m.entries[key] = perms
	return nil
}

func (m *mapCache) Invalidate(_ context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func TestResolveUsesCacheOnSecondCall(t *testing.T) {
	grants := &fakeGrants{perms: map[int64][]string{5: {string(PermRecordStock)}}}
	c := &mapCache{entries: map[string][]string{}}
	r := NewResolver(grants, c, time.Minute)

	actor := domain.Actor{UserID: 5, TenantID: 1, Role: domain.RoleStockKeeper}

	d, err := r.Resolve(context.Background(), actor)
	require.NoError(t, err)
	require.True(t, d.Allows(PermRecordStock))
	require.Equal(t, 1, grants.calls)

	d, err = r.Resolve(context.Background(), actor)
	require.NoError(t, err)
	require.True(t, d.Allows(PermRecordStock))
	require.Equal(t, 1, grants.calls, "second resolve should hit the cache")

	r.Invalidate(context.Background(), actor.UserID)
	_, err = r.Resolve(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, 2, grants.calls)
}

func TestResolvePropagatesStoreError(t *testing.T) {
	grants := &fakeGrants{err: errors.New("db down")}
	r := NewResolver(grants, cache.NoopPermissionCache{}, time.Minute)

	_, err := r.Resolve(context.Background(), domain.Actor{UserID: 3, TenantID: 1, Role: domain.RoleCashier})
	require.Error(t, err)
}
