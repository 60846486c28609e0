// Package authz resolves what an authenticated actor may do. Admins hold
// every permission by role; other tenant roles only get what was explicitly
// granted to the user.
package authz

import (
	"context"
	"fmt"
	"time"

	"larispos/backend/internal/cache"
	"larispos/backend/internal/domain"
)

type Permission string

const (
	PermManageCategories Permission = "manage_categories"
	PermManageProducts   Permission = "manage_products"
	PermManageCustomers  Permission = "manage_customers"
	PermManageSuppliers  Permission = "manage_suppliers"
	PermProcessSales     Permission = "process_sales"
	PermRecordStock      Permission = "record_stock"
	PermManageExpenses   Permission = "manage_expenses"
	PermManageUsers      Permission = "manage_users"
	PermViewReports      Permission = "view_reports"
)

func AllPermissions() []Permission {
	return []Permission{
		PermManageCategories,
		PermManageProducts,
		PermManageCustomers,
		PermManageSuppliers,
		PermProcessSales,
		PermRecordStock,
		PermManageExpenses,
		PermManageUsers,
		PermViewReports,
	}
}

func IsValidPermission(p Permission) bool {
	for _, known := range AllPermissions() {
		if known == p {
			return true
		}
	}
	return false
}

// GrantStore loads the explicit per-user grants.
type GrantStore interface {
	ListUserPermissions(ctx context.Context, userID int64) ([]string, error)
}

// Decision is the resolved permission set for one actor on one request.
type Decision struct {
	all   bool
	perms map[Permission]bool
}

func (d Decision) Allows(p Permission) bool {
	if d.all {
		return true
	}
	return d.perms[p]
}

type Resolver struct {
	grants GrantStore
	cache  cache.PermissionCache
	ttl    time.Duration
}

func NewResolver(grants GrantStore, permCache cache.PermissionCache, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Resolver{grants: grants, cache: permCache, ttl: ttl}
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("perms:%d", userID)
}

// Resolve builds the Decision for the actor. Cache failures fall through to
// the grant store; a request is never denied because redis is down.
func (r *Resolver) Resolve(ctx context.Context, actor domain.Actor) (Decision, error) {
	if actor.Role == domain.RoleSuperAdmin || actor.Role == domain.RoleAdmin {
		return Decision{all: true}, nil
	}

	key := cacheKey(actor.UserID)
	if cached, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		return decisionFrom(cached), nil
	}

	granted, err := r.grants.ListUserPermissions(ctx, actor.UserID)
	if err != nil {
		return Decision{}, err
	}
	_ = r.cache.Set(ctx, key, granted, r.ttl)
	return decisionFrom(granted), nil
}

// Invalidate drops the cached permission set after a grant change.
func (r *Resolver) Invalidate(ctx context.Context, userID int64) {
	_ = r.cache.Invalidate(ctx, cacheKey(userID))
}

func decisionFrom(granted []string) Decision {
	perms := make(map[Permission]bool, len(granted))
	for _, g := range granted {
		perms[Permission(g)] = true
	}
	return Decision{perms: perms}
}
