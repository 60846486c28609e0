package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"larispos/backend/internal/authz"
	"larispos/backend/internal/cache"
	"larispos/backend/internal/domain"
	"larispos/backend/internal/numbering"
	"larispos/backend/internal/store"
	"larispos/backend/internal/store/memory"
)

func newTestService(t *testing.T, taxRatePercent decimal.Decimal) *Service {
	t.Helper()
	repo := memory.New()
	resolver := authz.NewResolver(repo, cache.NoopPermissionCache{}, time.Minute)
	numbers := numbering.New(repo)
	return New(repo, resolver, numbers, zaptest.NewLogger(t), taxRatePercent)
}

var tenantSeq int

func registerTenant(t *testing.T, svc *Service, business string) *domain.RegisterTenantResponse {
	t.Helper()
	tenantSeq++
	resp, err := svc.RegisterTenant(context.Background(), domain.RegisterTenantRequest{
		BusinessName: business,
		Username:     fmt.Sprintf("owner%d", tenantSeq),
		Email:        fmt.Sprintf("owner%d@example.test", tenantSeq),
		Password:     "s3cret-pass",
	})
	require.NoError(t, err)
	return resp
}

func actorCtx(resp *domain.RegisterTenantResponse) context.Context {
	return WithActor(context.Background(), domain.Actor{
		UserID:   resp.Admin.ID,
		TenantID: resp.Tenant.ID,
		Username: resp.Admin.Username,
		Role:     resp.Admin.Role,
	})
}

func mustProduct(t *testing.T, svc *Service, ctx context.Context, name string, sku string, price int64, stock int) *domain.Product {
	t.Helper()
	p, err := svc.CreateProduct(ctx, domain.ProductRequest{
		Name:      name,
		SKU:       sku,
		Price:     decimal.NewFromInt(price),
		CostPrice: decimal.NewFromInt(price / 2),
		Stock:     stock,
	})
	require.NoError(t, err)
	return p
}

func TestRegisterTenantCreatesAdmin(t *testing.T) {
	svc := newTestService(t, decimal.Zero)

	resp := registerTenant(t, svc, "Warung Maju")
	require.NotEmpty(t, resp.Tenant.Code)
	require.Equal(t, domain.StatusActive, resp.Tenant.Status)
	require.Equal(t, domain.RoleAdmin, resp.Admin.Role)
	require.NotNil(t, resp.Admin.TenantID)
	require.Equal(t, resp.Tenant.ID, *resp.Admin.TenantID)
}

func TestRegisterTenantRejectsShortPassword(t *testing.T) {
	svc := newTestService(t, decimal.Zero)

	_, err := svc.RegisterTenant(context.Background(), domain.RegisterTenantRequest{
		BusinessName: "Toko",
		Username:     "shorty",
		Password:     "short",
	})
	require.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestUnauthenticatedCallsAreRejected(t *testing.T) {
	svc := newTestService(t, decimal.Zero)

	_, err := svc.ListProducts(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Checkout(context.Background(), domain.CheckoutRequest{})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTenantIsolation(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenantA := registerTenant(t, svc, "Toko A")
	tenantB := registerTenant(t, svc, "Toko B")
	ctxA := actorCtx(tenantA)
	ctxB := actorCtx(tenantB)

	product := mustProduct(t, svc, ctxA, "Kopi Sachet", "KOP-001", 2500, 50)

	// Tenant B cannot see, edit, or delete tenant A's product.
	_, err := svc.GetProduct(ctxB, product.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.UpdateProduct(ctxB, product.ID, domain.ProductRequest{
		Name: "Hijacked", SKU: "KOP-001", Price: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.DeleteProduct(ctxB, product.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	listB, err := svc.ListProducts(ctxB)
	require.NoError(t, err)
	require.Empty(t, listB)

	listA, err := svc.ListProducts(ctxA)
	require.NoError(t, err)
	require.Len(t, listA, 1)
}

func TestCategoryDeleteBlockedWhileReferenced(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Kategori")
	ctx := actorCtx(tenant)

	category, err := svc.CreateCategory(ctx, domain.CategoryRequest{Name: "Minuman"})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, domain.ProductRequest{
		Name:       "Teh Kotak",
		SKU:        "TEH-001",
		CategoryID: &category.ID,
		Price:      decimal.NewFromInt(4000),
	})
	require.NoError(t, err)

	result, err := svc.DeleteCategory(ctx, category.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DeletionBlocked, result.Outcome)
	require.Equal(t, 1, result.ReferenceCount)

	// Still listed after the blocked delete.
	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
}

func TestProductDeleteHardWhenUnreferenced(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Bersih")
	ctx := actorCtx(tenant)

	product := mustProduct(t, svc, ctx, "Permen", "PRM-001", 500, 10)

	result, err := svc.DeleteProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DeletionHard, result.Outcome)

	_, err = svc.GetProduct(ctx, product.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestProductDeleteSoftAfterSale(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Laris")
	ctx := actorCtx(tenant)

	product := mustProduct(t, svc, ctx, "Roti Tawar", "ROT-001", 15000, 20)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems:  []domain.CartLine{{ProductID: product.ID, Price: product.Price, Quantity: 1}},
		AmountPaid: decimal.NewFromInt(15000),
	})
	require.NoError(t, err)

	result, err := svc.DeleteProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DeletionSoft, result.Outcome)
	require.Positive(t, result.ReferenceCount)

	// Soft-deleted product is retained as inactive.
	kept, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInactive, kept.Status)
}

func TestProductEditKeepsSoftDeletedInactive(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Arsip")
	ctx := actorCtx(tenant)

	product := mustProduct(t, svc, ctx, "Kecap", "KCP-001", 9000, 15)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems:  []domain.CartLine{{ProductID: product.ID, Price: product.Price, Quantity: 1}},
		AmountPaid: decimal.NewFromInt(9000),
	})
	require.NoError(t, err)

	result, err := svc.DeleteProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DeletionSoft, result.Outcome)

	// An ordinary edit must not bring the product back.
	edited, err := svc.UpdateProduct(ctx, product.ID, domain.ProductRequest{
		Name:  "Kecap Manis",
		SKU:   "KCP-001",
		Price: decimal.NewFromInt(9500),
	})
	require.NoError(t, err)
	require.Equal(t, "Kecap Manis", edited.Name)
	require.Equal(t, domain.StatusInactive, edited.Status)

	// Reactivation is its own operation.
	restored, err := svc.ReactivateProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, restored.Status)
}

func TestReactivateProductCrossTenantIsNotFound(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenantA := registerTenant(t, svc, "Toko A")
	tenantB := registerTenant(t, svc, "Toko B")

	product := mustProduct(t, svc, actorCtx(tenantA), "Garam", "GRM-001", 2000, 5)

	_, err := svc.ReactivateProduct(actorCtx(tenantB), product.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCustomerEditKeepsSoftDeletedInactive(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Setia")
	ctx := actorCtx(tenant)

	product := mustProduct(t, svc, ctx, "Kopi", "KOP-002", 5000, 20)
	customer, err := svc.CreateCustomer(ctx, domain.CustomerRequest{Name: "Budi"})
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, domain.CheckoutRequest{
		CustomerID: &customer.ID,
		CartItems:  []domain.CartLine{{ProductID: product.ID, Price: product.Price, Quantity: 1}},
		AmountPaid: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)

	result, err := svc.DeleteCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DeletionSoft, result.Outcome)

	edited, err := svc.UpdateCustomer(ctx, customer.ID, domain.CustomerRequest{
		Name:  "Budi",
		Phone: "0812000111",
	})
	require.NoError(t, err)
	require.Equal(t, "0812000111", edited.Phone)
	require.Equal(t, domain.StatusInactive, edited.Status)
}

func TestCustomerDeleteSoftWithSales(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Pelanggan")
	ctx := actorCtx(tenant)

	product := mustProduct(t, svc, ctx, "Sabun", "SAB-001", 3000, 30)
	customer, err := svc.CreateCustomer(ctx, domain.CustomerRequest{Name: "Dewi"})
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, domain.CheckoutRequest{
		CustomerID: &customer.ID,
		CartItems:  []domain.CartLine{{ProductID: product.ID, Price: product.Price, Quantity: 2}},
		AmountPaid: decimal.NewFromInt(6000),
	})
	require.NoError(t, err)

	result, err := svc.DeleteCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DeletionSoft, result.Outcome)
	require.Equal(t, 1, result.ReferenceCount)

	kept, err := svc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInactive, kept.Status)
}

func TestCashierNeedsExplicitGrant(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Kasir")
	adminCtx := actorCtx(tenant)

	product := mustProduct(t, svc, adminCtx, "Mie Instan", "MIE-001", 3500, 100)

	cashier, err := svc.CreateUser(adminCtx, domain.UserCreateRequest{
		Username: "kasir1",
		Password: "kasir-pass-1",
		Role:     domain.RoleCashier,
	})
	require.NoError(t, err)

	cashierCtx := WithActor(context.Background(), domain.Actor{
		UserID:   cashier.ID,
		TenantID: tenant.Tenant.ID,
		Username: cashier.Username,
		Role:     cashier.Role,
	})

	checkout := domain.CheckoutRequest{
		CartItems:  []domain.CartLine{{ProductID: product.ID, Price: product.Price, Quantity: 1}},
		AmountPaid: decimal.NewFromInt(3500),
	}

	_, err = svc.Checkout(cashierCtx, checkout)
	require.ErrorIs(t, err, ErrForbidden)

	err = svc.SetUserPermission(adminCtx, cashier.ID, domain.PermissionGrantRequest{
		Permission: string(authz.PermProcessSales),
		Granted:    true,
	})
	require.NoError(t, err)

	_, err = svc.Checkout(cashierCtx, checkout)
	require.NoError(t, err)

	// Sales permission does not open up user management.
	_, err = svc.ListUsers(cashierCtx)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCreateUserRejectsInvalidRole(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Peran")
	ctx := actorCtx(tenant)

	_, err := svc.CreateUser(ctx, domain.UserCreateRequest{
		Username: "bos",
		Password: "long-enough",
		Role:     domain.RoleSuperAdmin,
	})
	require.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestSetUserPermissionRejectsUnknownPermission(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Izin")
	ctx := actorCtx(tenant)

	staff, err := svc.CreateUser(ctx, domain.UserCreateRequest{
		Username: "staff1",
		Password: "staff-pass-1",
		Role:     domain.RoleStaff,
	})
	require.NoError(t, err)

	err = svc.SetUserPermission(ctx, staff.ID, domain.PermissionGrantRequest{
		Permission: "rule_the_world",
		Granted:    true,
	})
	require.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestSetUserPermissionCrossTenantIsNotFound(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenantA := registerTenant(t, svc, "Toko A")
	tenantB := registerTenant(t, svc, "Toko B")

	staff, err := svc.CreateUser(actorCtx(tenantA), domain.UserCreateRequest{
		Username: "staffa",
		Password: "staff-pass-a",
		Role:     domain.RoleStaff,
	})
	require.NoError(t, err)

	err = svc.SetUserPermission(actorCtx(tenantB), staff.ID, domain.PermissionGrantRequest{
		Permission: string(authz.PermProcessSales),
		Granted:    true,
	})
	require.ErrorIs(t, err, store.ErrNotFound)
}
