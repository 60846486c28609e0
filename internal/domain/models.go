package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleSupervisor  Role = "supervisor"
	RoleCashier     Role = "cashier"
	RoleStaff       Role = "staff"
	RoleStockKeeper Role = "stock_keeper"
)

// TenantRoles are the roles assignable inside a tenant. super_admin is global
// and never tenant-scoped.
func TenantRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleSupervisor, RoleCashier, RoleStaff, RoleStockKeeper}
}

func IsValidTenantRole(role Role) bool {
	for _, r := range TenantRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the resolved request context: who is calling and which tenant the
// call is scoped to. TenantID is 0 only for super_admin.
type Actor struct {
	UserID   int64
	TenantID int64
	Username string
	Role     Role
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

const (
	PaymentStatusPaid    = "paid"
	PaymentStatusPartial = "partial"
	PaymentStatusUnpaid  = "unpaid"
)

const (
	MovementIn  = "in"
	MovementOut = "out"
)

type Tenant struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	BusinessName string    `json:"business_name"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type User struct {
	ID           int64     `json:"id"`
	TenantID     *int64    `json:"tenant_id,omitempty"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type Category struct {
	ID          int64     `json:"id"`
	TenantID    int64     `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID            int64           `json:"id"`
	TenantID      int64           `json:"-"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Barcode       string          `json:"barcode,omitempty"`
	CategoryID    *int64          `json:"category_id,omitempty"`
	Price         decimal.Decimal `json:"price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinimumStock  int             `json:"minimum_stock"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Customer struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"-"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty"`
	Address        string          `json:"address,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
	LoyaltyPoints  int64           `json:"loyalty_points"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Supplier struct {
	ID            int64     `json:"id"`
	TenantID      int64     `json:"-"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// StockMovement is one row of the append-only inventory ledger. UnitPrice is
// the product cost price for "in" movements and the selling price for "out".
type StockMovement struct {
	ID         int64           `json:"id"`
	TenantID   int64           `json:"-"`
	ProductID  int64           `json:"product_id"`
	Type       string          `json:"type"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalValue decimal.Decimal `json:"total_value"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Sale struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"-"`
	InvoiceNumber  string          `json:"invoice_number"`
	CustomerID     *int64          `json:"customer_id,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentStatus  string          `json:"payment_status"`
	CreatedBy      int64           `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []SaleItem      `json:"items,omitempty"`
}

type SaleItem struct {
	ID         int64           `json:"id"`
	SaleID     int64           `json:"sale_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type Expense struct {
	ID            int64           `json:"id"`
	TenantID      int64           `json:"-"`
	ExpenseNumber string          `json:"expense_number"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	ExpenseDate   time.Time       `json:"expense_date"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type DeletionOutcome string

const (
	DeletionHard    DeletionOutcome = "hard_deleted"
	DeletionSoft    DeletionOutcome = "soft_deleted"
	DeletionBlocked DeletionOutcome = "blocked"
)

// DeletionResult reports what a delete actually did. ReferenceCount is the
// number of dependent rows that forced a soft delete or a block.
type DeletionResult struct {
	Outcome        DeletionOutcome `json:"outcome"`
	ReferenceCount int             `json:"reference_count"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        Role   `json:"role"`
	TenantID    int64  `json:"tenant_id,omitempty"`
	ExpiresAt   string `json:"expires_at"`
}

type RegisterTenantRequest struct {
	BusinessName string `json:"business_name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

type RegisterTenantResponse struct {
	Tenant Tenant `json:"tenant"`
	Admin  User   `json:"admin"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ProductRequest struct {
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Barcode      string          `json:"barcode"`
	CategoryID   *int64          `json:"category_id"`
	Price        decimal.Decimal `json:"price"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	Stock        int             `json:"stock"`
	MinimumStock int             `json:"minimum_stock"`
}

type CustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type SupplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

type ExpenseRequest struct {
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	ExpenseDate   string          `json:"expense_date"`
	Notes         string          `json:"notes"`
}

type StockMovementRequest struct {
	ProductID int64  `json:"product_id"`
	Type      string `json:"type"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

type CartLine struct {
	ProductID int64           `json:"id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type CheckoutRequest struct {
	CustomerID     *int64          `json:"customer_id"`
	CartItems      []CartLine      `json:"cart_items"`
	PaymentMethod  string          `json:"payment_method"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

type CheckoutResponse struct {
	SaleID         int64           `json:"sale_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	CustomerID     *int64          `json:"customer_id,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	PaymentStatus  string          `json:"payment_status"`
	LoyaltyEarned  int64           `json:"loyalty_earned"`
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type PermissionGrantRequest struct {
	Permission string `json:"permission"`
	Granted    bool   `json:"granted"`
}
