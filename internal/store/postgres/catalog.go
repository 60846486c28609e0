package postgres

import (
	"context"
	"database/sql"
	"errors"

	"larispos/backend/internal/domain"
	"larispos/backend/internal/store"
)

func (s *Store) CreateCategory(ctx context.Context, tenantID int64, category domain.Category) (*domain.Category, error) {
	if category.Name == "" {
		return nil, store.ErrInvalidInput
	}

	category.TenantID = tenantID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (tenant_id, name, description)
		VALUES ($1,$2,$3)
		RETURNING id, created_at
	`, tenantID, category.Name, category.Description).Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Store) UpdateCategory(ctx context.Context, tenantID int64, category domain.Category) (*domain.Category, error) {
	if category.Name == "" {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = $3, description = $4
		WHERE id = $1 AND tenant_id = $2
	`, category.ID, tenantID, category.Name, category.Description)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	category.TenantID = tenantID
	return &category, nil
}

func (s *Store) DeleteCategory(ctx context.Context, tenantID int64, id int64) (domain.DeletionResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.DeletionResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var existing int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM categories WHERE id = $1 AND tenant_id = $2 FOR UPDATE
	`, id, tenantID).Scan(&existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DeletionResult{}, store.ErrNotFound
		}
		return domain.DeletionResult{}, err
	}

	var refs int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM products WHERE category_id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(&refs)
	if err != nil {
		return domain.DeletionResult{}, err
	}
	if refs > 0 {
		// Category deletes are blocked outright, never downgraded.
		return domain.DeletionResult{Outcome: domain.DeletionBlocked, ReferenceCount: refs}, nil
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM categories WHERE id = $1 AND tenant_id = $2
	`, id, tenantID); err != nil {
		return domain.DeletionResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.DeletionResult{}, err
	}
	return domain.DeletionResult{Outcome: domain.DeletionHard}, nil
}

func (s *Store) ListCategories(ctx context.Context, tenantID int64) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, description, created_at
		FROM categories
		WHERE tenant_id = $1
		ORDER BY name
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 32)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) CreateProduct(ctx context.Context, tenantID int64, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SKU == "" {
		return nil, store.ErrInvalidInput
	}
	if product.Price.IsNegative() || product.CostPrice.IsNegative() || product.StockQuantity < 0 {
		return nil, store.ErrInvalidInput
	}

	if product.CategoryID != nil {
		var catID int64
		err := s.db.QueryRowContext(ctx, `
			SELECT id FROM categories WHERE id = $1 AND tenant_id = $2
		`, *product.CategoryID, tenantID).Scan(&catID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}
	}

	product.TenantID = tenantID
	product.Status = domain.StatusActive
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (tenant_id, name, sku, barcode, category_id, price, cost_price, stock_quantity, minimum_stock, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at, updated_at
	`, tenantID, product.Name, product.SKU, product.Barcode, nullInt64(product.CategoryID), product.Price, product.CostPrice,
		product.StockQuantity, product.MinimumStock, product.Status).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &product, nil
}

func (s *Store) GetProduct(ctx context.Context, tenantID int64, id int64) (*domain.Product, error) {
	var p domain.Product
	var categoryID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, sku, barcode, category_id, price, cost_price, stock_quantity, minimum_stock, status, created_at, updated_at
		FROM products
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(&p.ID, &p.TenantID, &p.Name, &p.SKU, &p.Barcode, &categoryID, &p.Price, &p.CostPrice,
		&p.StockQuantity, &p.MinimumStock, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	p.CategoryID = int64Ptr(categoryID)
	return &p, nil
}

// UpdateProduct never touches stock_quantity or status; stock mutations go
// through the ledger and sale paths, status through delete and reactivate.
func (s *Store) UpdateProduct(ctx context.Context, tenantID int64, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SKU == "" {
		return nil, store.ErrInvalidInput
	}
	if product.Price.IsNegative() || product.CostPrice.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $3, sku = $4, barcode = $5, category_id = $6, price = $7, cost_price = $8, minimum_stock = $9, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
	`, product.ID, tenantID, product.Name, product.SKU, product.Barcode, nullInt64(product.CategoryID),
		product.Price, product.CostPrice, product.MinimumStock)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetProduct(ctx, tenantID, product.ID)
}

func (s *Store) SetProductStatus(ctx context.Context, tenantID int64, id int64, status string) error {
	if status != domain.StatusActive && status != domain.StatusInactive {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET status = $3, updated_at = now() WHERE id = $1 AND tenant_id = $2
	`, id, tenantID, status)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, tenantID int64, id int64) (domain.DeletionResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.DeletionResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var existing int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM products WHERE id = $1 AND tenant_id = $2 FOR UPDATE
	`, id, tenantID).Scan(&existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DeletionResult{}, store.ErrNotFound
		}
		return domain.DeletionResult{}, err
	}

	// Sale items and ledger rows both pin the product; either makes a hard
	// delete unsafe.
	var refs int
	err = tx.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM sale_items WHERE product_id = $1)
		     + (SELECT COUNT(*) FROM stock_movements WHERE product_id = $1 AND tenant_id = $2)
	`, id, tenantID).Scan(&refs)
	if err != nil {
		return domain.DeletionResult{}, err
	}

	if refs > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET status = $3, updated_at = now() WHERE id = $1 AND tenant_id = $2
		`, id, tenantID, domain.StatusInactive); err != nil {
			return domain.DeletionResult{}, err
		}
		if err := tx.Commit(); err != nil {
			return domain.DeletionResult{}, err
		}
		return domain.DeletionResult{Outcome: domain.DeletionSoft, ReferenceCount: refs}, nil
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM products WHERE id = $1 AND tenant_id = $2
	`, id, tenantID); err != nil {
		return domain.DeletionResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.DeletionResult{}, err
	}
	return domain.DeletionResult{Outcome: domain.DeletionHard}, nil
}

func (s *Store) ListProducts(ctx context.Context, tenantID int64) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, sku, barcode, category_id, price, cost_price, stock_quantity, minimum_stock, status, created_at, updated_at
		FROM products
		WHERE tenant_id = $1
		ORDER BY name
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		var categoryID sql.NullInt64
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.SKU, &p.Barcode, &categoryID, &p.Price, &p.CostPrice,
			&p.StockQuantity, &p.MinimumStock, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.CategoryID = int64Ptr(categoryID)
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) CreateCustomer(ctx context.Context, tenantID int64, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalidInput
	}

	customer.TenantID = tenantID
	customer.Status = domain.StatusActive
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO customers (tenant_id, name, phone, email, address, balance, loyalty_points, total_purchases, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at
	`, tenantID, customer.Name, customer.Phone, customer.Email, customer.Address,
		customer.Balance, customer.LoyaltyPoints, customer.TotalPurchases, customer.Status).Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) GetCustomer(ctx context.Context, tenantID int64, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, phone, email, address, balance, loyalty_points, total_purchases, status, created_at
		FROM customers
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email, &c.Address,
		&c.Balance, &c.LoyaltyPoints, &c.TotalPurchases, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, tenantID int64, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalidInput
	}

	// status is deliberately left alone so an edit cannot undo a soft delete.
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $3, phone = $4, email = $5, address = $6
		WHERE id = $1 AND tenant_id = $2
	`, customer.ID, tenantID, customer.Name, customer.Phone, customer.Email, customer.Address)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetCustomer(ctx, tenantID, customer.ID)
}

func (s *Store) DeleteCustomer(ctx context.Context, tenantID int64, id int64) (domain.DeletionResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return domain.DeletionResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var existing int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM customers WHERE id = $1 AND tenant_id = $2 FOR UPDATE
	`, id, tenantID).Scan(&existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DeletionResult{}, store.ErrNotFound
		}
		return domain.DeletionResult{}, err
	}

	var refs int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sales WHERE customer_id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(&refs)
	if err != nil {
		return domain.DeletionResult{}, err
	}

	if refs > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE customers SET status = $3 WHERE id = $1 AND tenant_id = $2
		`, id, tenantID, domain.StatusInactive); err != nil {
			return domain.DeletionResult{}, err
		}
		if err := tx.Commit(); err != nil {
			return domain.DeletionResult{}, err
		}
		return domain.DeletionResult{Outcome: domain.DeletionSoft, ReferenceCount: refs}, nil
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM customers WHERE id = $1 AND tenant_id = $2
	`, id, tenantID); err != nil {
		return domain.DeletionResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.DeletionResult{}, err
	}
	return domain.DeletionResult{Outcome: domain.DeletionHard}, nil
}

func (s *Store) ListCustomers(ctx context.Context, tenantID int64) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, phone, email, address, balance, loyalty_points, total_purchases, status, created_at
		FROM customers
		WHERE tenant_id = $1
		ORDER BY name
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email, &c.Address,
			&c.Balance, &c.LoyaltyPoints, &c.TotalPurchases, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) CreateSupplier(ctx context.Context, tenantID int64, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, store.ErrInvalidInput
	}

	supplier.TenantID = tenantID
	supplier.Status = domain.StatusActive
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO suppliers (tenant_id, name, contact_person, phone, email, address, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at
	`, tenantID, supplier.Name, supplier.ContactPerson, supplier.Phone, supplier.Email, supplier.Address, supplier.Status).
		Scan(&supplier.ID, &supplier.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, tenantID int64, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRowContext(ctx, `
		UPDATE suppliers
		SET name = $3, contact_person = $4, phone = $5, email = $6, address = $7
		WHERE id = $1 AND tenant_id = $2
		RETURNING status, created_at
	`, supplier.ID, tenantID, supplier.Name, supplier.ContactPerson, supplier.Phone, supplier.Email, supplier.Address).
		Scan(&supplier.Status, &supplier.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	supplier.TenantID = tenantID
	return &supplier, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, tenantID int64, id int64) (domain.DeletionResult, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM suppliers WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	if err != nil {
		return domain.DeletionResult{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.DeletionResult{}, err
	}
	if affected == 0 {
		return domain.DeletionResult{}, store.ErrNotFound
	}
	return domain.DeletionResult{Outcome: domain.DeletionHard}, nil
}

func (s *Store) ListSuppliers(ctx context.Context, tenantID int64) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, contact_person, phone, email, address, status, created_at
		FROM suppliers
		WHERE tenant_id = $1
		ORDER BY name
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		var sp domain.Supplier
		if err := rows.Scan(&sp.ID, &sp.TenantID, &sp.Name, &sp.ContactPerson, &sp.Phone, &sp.Email, &sp.Address, &sp.Status, &sp.CreatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sp)
	}
	return suppliers, rows.Err()
}
