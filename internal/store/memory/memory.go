// Package memory is an in-process Repository used for tests and for running
// the server without a database. Semantics mirror the postgres store,
// including tenant scoping and document-number uniqueness.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"larispos/backend/internal/domain"
	"larispos/backend/internal/store"
)

type Store struct {
	mu sync.Mutex

	tenants     map[int64]domain.Tenant
	users       map[int64]domain.User
	permissions map[int64]map[string]bool
	categories  map[int64]domain.Category
	products    map[int64]domain.Product
	customers   map[int64]domain.Customer
	suppliers   map[int64]domain.Supplier
	movements   map[int64]domain.StockMovement
	sales       map[int64]domain.Sale
	saleItems   map[int64][]domain.SaleItem
	expenses    map[int64]domain.Expense

	nextID map[string]int64
}

func New() *Store {
	return &Store{
		tenants:     make(map[int64]domain.Tenant),
		users:       make(map[int64]domain.User),
		permissions: make(map[int64]map[string]bool),
		categories:  make(map[int64]domain.Category),
		products:    make(map[int64]domain.Product),
		customers:   make(map[int64]domain.Customer),
		suppliers:   make(map[int64]domain.Supplier),
		movements:   make(map[int64]domain.StockMovement),
		sales:       make(map[int64]domain.Sale),
		saleItems:   make(map[int64][]domain.SaleItem),
		expenses:    make(map[int64]domain.Expense),
		nextID:      make(map[string]int64),
	}
}

// NewSeeded returns a store preloaded with a demo tenant so the server is
// usable without a database. The admin password is "admin123".
func NewSeeded() *Store {
	s := New()
	ctx := context.Background()

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)

	tenant, _, _ := s.CreateTenantWithAdmin(ctx,
		domain.Tenant{Code: "demo", BusinessName: "Toko Demo"},
		domain.User{Username: "admin", Email: "admin@tokodemo.id", PasswordHash: string(adminHash)},
	)

	snacks, _ := s.CreateCategory(ctx, tenant.ID, domain.Category{Name: "Makanan Ringan"})
	drinks, _ := s.CreateCategory(ctx, tenant.ID, domain.Category{Name: "Minuman"})

	seedProducts := []domain.Product{
		{Name: "Indomie Goreng", SKU: "IDM-001", CategoryID: &snacks.ID,
			Price: decimal.NewFromInt(3500), CostPrice: decimal.NewFromInt(2800), StockQuantity: 120, MinimumStock: 24},
		{Name: "Chitato Sapi Panggang", SKU: "CHT-001", CategoryID: &snacks.ID,
			Price: decimal.NewFromInt(12000), CostPrice: decimal.NewFromInt(9500), StockQuantity: 40, MinimumStock: 10},
		{Name: "Teh Botol Sosro", SKU: "TBS-001", CategoryID: &drinks.ID,
			Price: decimal.NewFromInt(5000), CostPrice: decimal.NewFromInt(3800), StockQuantity: 80, MinimumStock: 12},
		{Name: "Aqua 600ml", SKU: "AQA-001", CategoryID: &drinks.ID,
			Price: decimal.NewFromInt(4000), CostPrice: decimal.NewFromInt(3000), StockQuantity: 200, MinimumStock: 48},
	}
	for _, p := range seedProducts {
		_, _ = s.CreateProduct(ctx, tenant.ID, p)
	}

	_, _ = s.CreateCustomer(ctx, tenant.ID, domain.Customer{Name: "Budi Santoso", Phone: "081234567890"})
	_, _ = s.CreateSupplier(ctx, tenant.ID, domain.Supplier{Name: "PT Sumber Rejeki", ContactPerson: "Ibu Sari"})

	return s
}

func (s *Store) next(kind string) int64 {
	s.nextID[kind]++
	return s.nextID[kind]
}

func (s *Store) CreateTenantWithAdmin(_ context.Context, tenant domain.Tenant, admin domain.User) (*domain.Tenant, *domain.User, error) {
	if tenant.Code == "" || tenant.BusinessName == "" || admin.Username == "" || admin.PasswordHash == "" {
		return nil, nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if t.Code == tenant.Code {
			return nil, nil, store.ErrDuplicate
		}
	}
	for _, u := range s.users {
		if u.Username == admin.Username {
			return nil, nil, store.ErrDuplicate
		}
	}

	tenant.ID = s.next("tenant")
	tenant.Status = domain.StatusActive
	tenant.CreatedAt = time.Now()
	s.tenants[tenant.ID] = tenant

	admin.ID = s.next("user")
	admin.TenantID = &tenant.ID
	admin.Role = domain.RoleAdmin
	admin.Status = domain.StatusActive
	admin.CreatedAt = time.Now()
	s.users[admin.ID] = admin

	return &tenant, &admin, nil
}

func (s *Store) GetTenantByCode(_ context.Context, code string) (*domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if t.Code == code {
			out := t
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	if user.Username == "" || user.PasswordHash == "" || user.Role == "" {
		return nil, store.ErrInvalidInput
	}
	if user.Role != domain.RoleSuperAdmin && user.TenantID == nil {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return nil, store.ErrDuplicate
		}
	}

	user.ID = s.next("user")
	if user.Status == "" {
		user.Status = domain.StatusActive
	}
	user.CreatedAt = time.Now()
	s.users[user.ID] = user
	out := user
	return &out, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, tenantID int64) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]domain.User, 0, 8)
	for _, u := range s.users {
		if u.TenantID != nil && *u.TenantID == tenantID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) ListUserPermissions(_ context.Context, userID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	perms := make([]string, 0, 8)
	for p, granted := range s.permissions[userID] {
		if granted {
			perms = append(perms, p)
		}
	}
	sort.Strings(perms)
	return perms, nil
}

func (s *Store) SetUserPermission(_ context.Context, tenantID int64, userID int64, permission string, granted bool) error {
	if permission == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok || u.TenantID == nil || *u.TenantID != tenantID {
		return store.ErrNotFound
	}
	if s.permissions[userID] == nil {
		s.permissions[userID] = make(map[string]bool)
	}
	s.permissions[userID][permission] = granted
	return nil
}

func (s *Store) CreateCategory(_ context.Context, tenantID int64, category domain.Category) (*domain.Category, error) {
	if category.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	category.ID = s.next("category")
	category.TenantID = tenantID
	category.CreatedAt = time.Now()
	s.categories[category.ID] = category
	out := category
	return &out, nil
}

func (s *Store) UpdateCategory(_ context.Context, tenantID int64, category domain.Category) (*domain.Category, error) {
	if category.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[category.ID]
	if !ok || existing.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	existing.Name = category.Name
	existing.Description = category.Description
	s.categories[category.ID] = existing
	out := existing
	return &out, nil
}

func (s *Store) DeleteCategory(_ context.Context, tenantID int64, id int64) (domain.DeletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[id]
	if !ok || existing.TenantID != tenantID {
		return domain.DeletionResult{}, store.ErrNotFound
	}

	refs := 0
	for _, p := range s.products {
		if p.TenantID == tenantID && p.CategoryID != nil && *p.CategoryID == id {
			refs++
		}
	}
	if refs > 0 {
		return domain.DeletionResult{Outcome: domain.DeletionBlocked, ReferenceCount: refs}, nil
	}

	delete(s.categories, id)
	return domain.DeletionResult{Outcome: domain.DeletionHard}, nil
}

func (s *Store) ListCategories(_ context.Context, tenantID int64) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := make([]domain.Category, 0, 16)
	for _, c := range s.categories {
		if c.TenantID == tenantID {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *Store) CreateProduct(_ context.Context, tenantID int64, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SKU == "" {
		return nil, store.ErrInvalidInput
	}
	if product.Price.IsNegative() || product.CostPrice.IsNegative() || product.StockQuantity < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.TenantID == tenantID && p.SKU == product.SKU {
			return nil, store.ErrDuplicate
		}
	}
	if product.CategoryID != nil {
		c, ok := s.categories[*product.CategoryID]
		if !ok || c.TenantID != tenantID {
			return nil, store.ErrNotFound
		}
	}

	product.ID = s.next("product")
	product.TenantID = tenantID
	product.Status = domain.StatusActive
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	s.products[product.ID] = product
	out := product
	return &out, nil
}

func (s *Store) GetProduct(_ context.Context, tenantID int64, id int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	out := p
	return &out, nil
}

func (s *Store) UpdateProduct(_ context.Context, tenantID int64, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SKU == "" {
		return nil, store.ErrInvalidInput
	}
	if product.Price.IsNegative() || product.CostPrice.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok || existing.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	for _, p := range s.products {
		if p.TenantID == tenantID && p.ID != product.ID && p.SKU == product.SKU {
			return nil, store.ErrDuplicate
		}
	}

	existing.Name = product.Name
	existing.SKU = product.SKU
	existing.Barcode = product.Barcode
	existing.CategoryID = product.CategoryID
	existing.Price = product.Price
	existing.CostPrice = product.CostPrice
	existing.MinimumStock = product.MinimumStock
	existing.UpdatedAt = time.Now()
	s.products[product.ID] = existing
	out := existing
	return &out, nil
}

func (s *Store) SetProductStatus(_ context.Context, tenantID int64, id int64, status string) error {
	if status != domain.StatusActive && status != domain.StatusInactive {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[id]
	if !ok || existing.TenantID != tenantID {
		return store.ErrNotFound
	}
	existing.Status = status
	existing.UpdatedAt = time.Now()
	s.products[id] = existing
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, tenantID int64, id int64) (domain.DeletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[id]
	if !ok || existing.TenantID != tenantID {
		return domain.DeletionResult{}, store.ErrNotFound
	}

	refs := 0
	for _, items := range s.saleItems {
		for _, item := range items {
			if item.ProductID == id {
				refs++
			}
		}
	}
	for _, m := range s.movements {
		if m.TenantID == tenantID && m.ProductID == id {
			refs++
		}
	}

	if refs > 0 {
		existing.Status = domain.StatusInactive
		existing.UpdatedAt = time.Now()
		s.products[id] = existing
		return domain.DeletionResult{Outcome: domain.DeletionSoft, ReferenceCount: refs}, nil
	}

	delete(s.products, id)
	return domain.DeletionResult{Outcome: domain.DeletionHard}, nil
}

func (s *Store) ListProducts(_ context.Context, tenantID int64) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]domain.Product, 0, 32)
	for _, p := range s.products {
		if p.TenantID == tenantID {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *Store) CreateCustomer(_ context.Context, tenantID int64, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customer.ID = s.next("customer")
	customer.TenantID = tenantID
	customer.Status = domain.StatusActive
	customer.CreatedAt = time.Now()
	s.customers[customer.ID] = customer
	out := customer
	return &out, nil
}

func (s *Store) GetCustomer(_ context.Context, tenantID int64, id int64) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok || c.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	out := c
	return &out, nil
}

func (s *Store) UpdateCustomer(_ context.Context, tenantID int64, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.customers[customer.ID]
	if !ok || existing.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	existing.Name = customer.Name
	existing.Phone = customer.Phone
	existing.Email = customer.Email
	existing.Address = customer.Address
	s.customers[customer.ID] = existing
	out := existing
	return &out, nil
}

func (s *Store) DeleteCustomer(_ context.Context, tenantID int64, id int64) (domain.DeletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.customers[id]
	if !ok || existing.TenantID != tenantID {
		return domain.DeletionResult{}, store.ErrNotFound
	}

	refs := 0
	for _, sale := range s.sales {
		if sale.TenantID == tenantID && sale.CustomerID != nil && *sale.CustomerID == id {
			refs++
		}
	}

	if refs > 0 {
		existing.Status = domain.StatusInactive
		s.customers[id] = existing
		return domain.DeletionResult{Outcome: domain.DeletionSoft, ReferenceCount: refs}, nil
	}

	delete(s.customers, id)
	return domain.DeletionResult{Outcome: domain.DeletionHard}, nil
}

func (s *Store) ListCustomers(_ context.Context, tenantID int64) ([]domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers := make([]domain.Customer, 0, 16)
	for _, c := range s.customers {
		if c.TenantID == tenantID {
			customers = append(customers, c)
		}
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].Name < customers[j].Name })
	return customers, nil
}

func (s *Store) CreateSupplier(_ context.Context, tenantID int64, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	supplier.ID = s.next("supplier")
	supplier.TenantID = tenantID
	supplier.Status = domain.StatusActive
	supplier.CreatedAt = time.Now()
	s.suppliers[supplier.ID] = supplier
	out := supplier
	return &out, nil
}

func (s *Store) UpdateSupplier(_ context.Context, tenantID int64, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.suppliers[supplier.ID]
	if !ok || existing.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	existing.Name = supplier.Name
	existing.ContactPerson = supplier.ContactPerson
	existing.Phone = supplier.Phone
	existing.Email = supplier.Email
	existing.Address = supplier.Address
	s.suppliers[supplier.ID] = existing
	out := existing
	return &out, nil
}

func (s *Store) DeleteSupplier(_ context.Context, tenantID int64, id int64) (domain.DeletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.suppliers[id]
	if !ok || existing.TenantID != tenantID {
		return domain.DeletionResult{}, store.ErrNotFound
	}
	delete(s.suppliers, id)
	return domain.DeletionResult{Outcome: domain.DeletionHard}, nil
}

func (s *Store) ListSuppliers(_ context.Context, tenantID int64) ([]domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	suppliers := make([]domain.Supplier, 0, 16)
	for _, sp := range s.suppliers {
		if sp.TenantID == tenantID {
			suppliers = append(suppliers, sp)
		}
	}
	sort.Slice(suppliers, func(i, j int) bool { return suppliers[i].Name < suppliers[j].Name })
	return suppliers, nil
}

func (s *Store) RecordStockMovement(_ context.Context, tenantID int64, movement domain.StockMovement) (*domain.StockMovement, error) {
	if movement.Quantity <= 0 {
		return nil, store.ErrInvalidInput
	}
	if movement.Type != domain.MovementIn && movement.Type != domain.MovementOut {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[movement.ProductID]
	if !ok || p.TenantID != tenantID {
		return nil, store.ErrNotFound
	}

	if movement.Type == domain.MovementOut {
		if p.StockQuantity < movement.Quantity {
			return nil, fmt.Errorf("%w: product %d has %d, wanted %d",
				store.ErrInsufficientStock, p.ID, p.StockQuantity, movement.Quantity)
		}
		p.StockQuantity -= movement.Quantity
		movement.UnitPrice = p.Price
	} else {
		p.StockQuantity += movement.Quantity
		movement.UnitPrice = p.CostPrice
	}
	movement.TotalValue = movement.UnitPrice.Mul(decimal.NewFromInt(int64(movement.Quantity)))

	p.UpdatedAt = time.Now()
	s.products[p.ID] = p

	movement.ID = s.next("movement")
	movement.TenantID = tenantID
	movement.CreatedAt = time.Now()
	s.movements[movement.ID] = movement
	out := movement
	return &out, nil
}

func (s *Store) ListStockMovements(_ context.Context, tenantID int64, productID int64, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	movements := make([]domain.StockMovement, 0, 32)
	for _, m := range s.movements {
		if m.TenantID != tenantID {
			continue
		}
		if productID > 0 && m.ProductID != productID {
			continue
		}
		movements = append(movements, m)
	}
	sort.Slice(movements, func(i, j int) bool { return movements[i].ID > movements[j].ID })
	if len(movements) > limit {
		movements = movements[:limit]
	}
	return movements, nil
}

func (s *Store) CreateSale(_ context.Context, tenantID int64, sale domain.Sale, items []domain.SaleItem) (*domain.Sale, error) {
	if len(items) == 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sales {
		if existing.TenantID == tenantID && existing.InvoiceNumber == sale.InvoiceNumber {
			return nil, store.ErrDuplicateNumber
		}
	}

	// Validate every line before mutating anything so a failed checkout leaves
	// no partial state behind. Quantities are aggregated per product so
	// duplicate cart lines cannot oversell.
	needed := make(map[int64]int, len(items))
	for _, item := range items {
		needed[item.ProductID] += item.Quantity
	}
	for id, qty := range needed {
		p, ok := s.products[id]
		if !ok || p.TenantID != tenantID {
			return nil, fmt.Errorf("%w: product %d", store.ErrNotFound, id)
		}
		if p.StockQuantity < qty {
			return nil, fmt.Errorf("%w: product %d has %d, wanted %d",
				store.ErrInsufficientStock, id, p.StockQuantity, qty)
		}
	}
	if sale.CustomerID != nil {
		c, ok := s.customers[*sale.CustomerID]
		if !ok || c.TenantID != tenantID {
			return nil, fmt.Errorf("%w: customer %d", store.ErrNotFound, *sale.CustomerID)
		}
	}

	sale.ID = s.next("sale")
	sale.TenantID = tenantID
	sale.CreatedAt = time.Now()
	s.sales[sale.ID] = sale

	stored := make([]domain.SaleItem, 0, len(items))
	for _, item := range items {
		item.ID = s.next("sale_item")
		item.SaleID = sale.ID
		stored = append(stored, item)

		p := s.products[item.ProductID]
		p.StockQuantity -= item.Quantity
		p.UpdatedAt = time.Now()
		s.products[p.ID] = p

		m := domain.StockMovement{
			ID:         s.next("movement"),
			TenantID:   tenantID,
			ProductID:  item.ProductID,
			Type:       domain.MovementOut,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalValue: item.TotalPrice,
			Notes:      "sale " + sale.InvoiceNumber,
			CreatedAt:  time.Now(),
		}
		s.movements[m.ID] = m
	}
	s.saleItems[sale.ID] = stored

	if sale.CustomerID != nil {
		c := s.customers[*sale.CustomerID]
		c.LoyaltyPoints += sale.TotalAmount.Div(decimal.NewFromInt(100)).Floor().IntPart()
		c.TotalPurchases = c.TotalPurchases.Add(sale.TotalAmount)
		s.customers[c.ID] = c
	}

	sale.Items = stored
	out := sale
	return &out, nil
}

func (s *Store) GetSale(_ context.Context, tenantID int64, id int64) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok || sale.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	sale.Items = append([]domain.SaleItem(nil), s.saleItems[id]...)
	out := sale
	return &out, nil
}

func (s *Store) ListSales(_ context.Context, tenantID int64, limit int) ([]domain.Sale, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sales := make([]domain.Sale, 0, 32)
	for _, sale := range s.sales {
		if sale.TenantID == tenantID {
			sales = append(sales, sale)
		}
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].ID > sales[j].ID })
	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

func (s *Store) CountSalesWithInvoicePrefix(_ context.Context, tenantID int64, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, sale := range s.sales {
		if sale.TenantID == tenantID && strings.HasPrefix(sale.InvoiceNumber, prefix) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateExpense(_ context.Context, tenantID int64, expense domain.Expense) (*domain.Expense, error) {
	if expense.Category == "" || !expense.Amount.IsPositive() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.expenses {
		if e.TenantID == tenantID && e.ExpenseNumber == expense.ExpenseNumber {
			return nil, store.ErrDuplicateNumber
		}
	}

	expense.ID = s.next("expense")
	expense.TenantID = tenantID
	expense.CreatedAt = time.Now()
	s.expenses[expense.ID] = expense
	out := expense
	return &out, nil
}

func (s *Store) ListExpenses(_ context.Context, tenantID int64, limit int) ([]domain.Expense, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expenses := make([]domain.Expense, 0, 16)
	for _, e := range s.expenses {
		if e.TenantID == tenantID {
			expenses = append(expenses, e)
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].ExpenseDate.Equal(expenses[j].ExpenseDate) {
			return expenses[i].ExpenseDate.After(expenses[j].ExpenseDate)
		}
		return expenses[i].ID > expenses[j].ID
	})
	if len(expenses) > limit {
		expenses = expenses[:limit]
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(_ context.Context, tenantID int64, id int64) (domain.DeletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok || e.TenantID != tenantID {
		return domain.DeletionResult{}, store.ErrNotFound
	}
	delete(s.expenses, id)
	return domain.DeletionResult{Outcome: domain.DeletionHard}, nil
}

func (s *Store) CountExpensesWithNumberPrefix(_ context.Context, tenantID int64, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, e := range s.expenses {
		if e.TenantID == tenantID && strings.HasPrefix(e.ExpenseNumber, prefix) {
			count++
		}
	}
	return count, nil
}
