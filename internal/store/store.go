package store

import (
	"context"
	"errors"

	"larispos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicate         = errors.New("duplicate entry")
	ErrDuplicateNumber   = errors.New("duplicate document number")
)

// Repository is the persistence contract. Every method on tenant-scoped data
// takes the tenant id and must fold it into each statement it runs; a row that
// exists under another tenant is indistinguishable from a missing row
// (ErrNotFound for both).
type Repository interface {
	// Tenants and users.
	CreateTenantWithAdmin(ctx context.Context, tenant domain.Tenant, admin domain.User) (*domain.Tenant, *domain.User, error)
	GetTenantByCode(ctx context.Context, code string) (*domain.Tenant, error)
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context, tenantID int64) ([]domain.User, error)
	ListUserPermissions(ctx context.Context, userID int64) ([]string, error)
	SetUserPermission(ctx context.Context, tenantID int64, userID int64, permission string, granted bool) error

	// Categories.
	CreateCategory(ctx context.Context, tenantID int64, category domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, tenantID int64, category domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, tenantID int64, id int64) (domain.DeletionResult, error)
	ListCategories(ctx context.Context, tenantID int64) ([]domain.Category, error)

	// Products.
	CreateProduct(ctx context.Context, tenantID int64, product domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, tenantID int64, id int64) (*domain.Product, error)
	UpdateProduct(ctx context.Context, tenantID int64, product domain.Product) (*domain.Product, error)
	SetProductStatus(ctx context.Context, tenantID int64, id int64, status string) error
	DeleteProduct(ctx context.Context, tenantID int64, id int64) (domain.DeletionResult, error)
	ListProducts(ctx context.Context, tenantID int64) ([]domain.Product, error)

	// Customers.
	CreateCustomer(ctx context.Context, tenantID int64, customer domain.Customer) (*domain.Customer, error)
	GetCustomer(ctx context.Context, tenantID int64, id int64) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, tenantID int64, customer domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, tenantID int64, id int64) (domain.DeletionResult, error)
	ListCustomers(ctx context.Context, tenantID int64) ([]domain.Customer, error)

	// Suppliers.
	CreateSupplier(ctx context.Context, tenantID int64, supplier domain.Supplier) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, tenantID int64, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, tenantID int64, id int64) (domain.DeletionResult, error)
	ListSuppliers(ctx context.Context, tenantID int64) ([]domain.Supplier, error)

	// Stock ledger. RecordStockMovement inserts the movement row and applies
	// the signed quantity to the product stock in one transaction.
	RecordStockMovement(ctx context.Context, tenantID int64, movement domain.StockMovement) (*domain.StockMovement, error)
	ListStockMovements(ctx context.Context, tenantID int64, productID int64, limit int) ([]domain.StockMovement, error)

	// Sales. CreateSale persists the header and items, decrements stock per
	// line, appends an "out" movement per line, and accrues customer loyalty,
	// all in one transaction.
	CreateSale(ctx context.Context, tenantID int64, sale domain.Sale, items []domain.SaleItem) (*domain.Sale, error)
	GetSale(ctx context.Context, tenantID int64, id int64) (*domain.Sale, error)
	ListSales(ctx context.Context, tenantID int64, limit int) ([]domain.Sale, error)
	CountSalesWithInvoicePrefix(ctx context.Context, tenantID int64, prefix string) (int, error)

	// Expenses.
	CreateExpense(ctx context.Context, tenantID int64, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, tenantID int64, limit int) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, tenantID int64, id int64) (domain.DeletionResult, error)
	CountExpensesWithNumberPrefix(ctx context.Context, tenantID int64, prefix string) (int, error)
}
