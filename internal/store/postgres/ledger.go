package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"larispos/backend/internal/domain"
	"larispos/backend/internal/store"
)

func (s *Store) RecordStockMovement(ctx context.Context, tenantID int64, movement domain.StockMovement) (*domain.StockMovement, error) {
	if movement.Quantity <= 0 {
		return nil, store.ErrInvalidInput
	}
	if movement.Type != domain.MovementIn && movement.Type != domain.MovementOut {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var p domain.Product
	err = tx.QueryRowContext(ctx, `
		SELECT id, price, cost_price, stock_quantity
		FROM products
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`, movement.ProductID, tenantID).Scan(&p.ID, &p.Price, &p.CostPrice, &p.StockQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	delta := movement.Quantity
	if movement.Type == domain.MovementOut {
		if p.StockQuantity < movement.Quantity {
			return nil, fmt.Errorf("%w: product %d has %d, wanted %d",
				store.ErrInsufficientStock, p.ID, p.StockQuantity, movement.Quantity)
		}
		delta = -movement.Quantity
		movement.UnitPrice = p.Price
	} else {
		movement.UnitPrice = p.CostPrice
	}
	movement.TotalValue = movement.UnitPrice.Mul(decimalFromInt(movement.Quantity))
	movement.TenantID = tenantID

	err = tx.QueryRowContext(ctx, `
		INSERT INTO stock_movements (tenant_id, product_id, type, quantity, unit_price, total_value, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at
	`, tenantID, movement.ProductID, movement.Type, movement.Quantity,
		movement.UnitPrice, movement.TotalValue, movement.Notes).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products SET stock_quantity = stock_quantity + $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
	`, movement.ProductID, tenantID, delta); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &movement, nil
}

func (s *Store) ListStockMovements(ctx context.Context, tenantID int64, productID int64, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, tenant_id, product_id, type, quantity, unit_price, total_value, notes, created_at
		FROM stock_movements
		WHERE tenant_id = $1`
	args := []any{tenantID}
	if productID > 0 {
		query += ` AND product_id = $2 ORDER BY created_at DESC, id DESC LIMIT $3`
		args = append(args, productID, limit)
	} else {
		query += ` ORDER BY created_at DESC, id DESC LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, limit)
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ProductID, &m.Type, &m.Quantity,
			&m.UnitPrice, &m.TotalValue, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// CreateSale commits the entire checkout as one serializable transaction:
// header, items, per-line stock decrement, per-line "out" ledger row, and the
// customer loyalty accrual. Any failure rolls the whole sale back.
func (s *Store) CreateSale(ctx context.Context, tenantID int64, sale domain.Sale, items []domain.SaleItem) (*domain.Sale, error) {
	if len(items) == 0 {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}

	// Lock every line's product up front, ordered by id so concurrent
	// checkouts cannot deadlock against each other.
	rows, err := tx.QueryContext(ctx, `
		SELECT id, stock_quantity
		FROM products
		WHERE tenant_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE
	`, tenantID, productIDs)
	if err != nil {
		return nil, err
	}
	stock := make(map[int64]int, len(items))
	for rows.Next() {
		var id int64
		var qty int
		if err := rows.Scan(&id, &qty); err != nil {
			rows.Close()
			return nil, err
		}
		stock[id] = qty
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Validate against the aggregate per product so duplicate cart lines
	// cannot oversell past the locked stock.
	needed := make(map[int64]int, len(items))
	for _, item := range items {
		needed[item.ProductID] += item.Quantity
	}
	for id, qty := range needed {
		have, ok := stock[id]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", store.ErrNotFound, id)
		}
		if have < qty {
			return nil, fmt.Errorf("%w: product %d has %d, wanted %d",
				store.ErrInsufficientStock, id, have, qty)
		}
	}

	sale.TenantID = tenantID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO sales (tenant_id, invoice_number, customer_id, subtotal, tax_amount, discount_amount,
			total_amount, amount_paid, amount_due, payment_method, payment_status, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at
	`, tenantID, sale.InvoiceNumber, nullInt64(sale.CustomerID), sale.Subtotal, sale.TaxAmount,
		sale.DiscountAmount, sale.TotalAmount, sale.AmountPaid, sale.AmountDue,
		sale.PaymentMethod, sale.PaymentStatus, sale.CreatedBy).Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	for i := range items {
		item := &items[i]
		item.SaleID = sale.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, total_price)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING id
		`, sale.ID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice).Scan(&item.ID)
		if err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET stock_quantity = stock_quantity - $3, updated_at = now()
			WHERE id = $1 AND tenant_id = $2
		`, item.ProductID, tenantID, item.Quantity); err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stock_movements (tenant_id, product_id, type, quantity, unit_price, total_value, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, tenantID, item.ProductID, domain.MovementOut, item.Quantity,
			item.UnitPrice, item.TotalPrice, "sale "+sale.InvoiceNumber); err != nil {
			return nil, err
		}
	}

	if sale.CustomerID != nil {
		points := sale.TotalAmount.Div(decimalFromInt(100)).Floor().IntPart()
		res, err := tx.ExecContext(ctx, `
			UPDATE customers
			SET loyalty_points = loyalty_points + $3, total_purchases = total_purchases + $4
			WHERE id = $1 AND tenant_id = $2
		`, *sale.CustomerID, tenantID, points, sale.TotalAmount)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, fmt.Errorf("%w: customer %d", store.ErrNotFound, *sale.CustomerID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	sale.Items = items
	return &sale, nil
}

func (s *Store) GetSale(ctx context.Context, tenantID int64, id int64) (*domain.Sale, error) {
	var sale domain.Sale
	var customerID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, invoice_number, customer_id, subtotal, tax_amount, discount_amount,
			total_amount, amount_paid, amount_due, payment_method, payment_status, created_by, created_at
		FROM sales
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID).Scan(&sale.ID, &sale.TenantID, &sale.InvoiceNumber, &customerID,
		&sale.Subtotal, &sale.TaxAmount, &sale.DiscountAmount, &sale.TotalAmount,
		&sale.AmountPaid, &sale.AmountDue, &sale.PaymentMethod, &sale.PaymentStatus,
		&sale.CreatedBy, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.CustomerID = int64Ptr(customerID)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, total_price
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id
	`, sale.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, err
		}
		sale.Items = append(sale.Items, item)
	}
	return &sale, rows.Err()
}

func (s *Store) ListSales(ctx context.Context, tenantID int64, limit int) ([]domain.Sale, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, invoice_number, customer_id, subtotal, tax_amount, discount_amount,
			total_amount, amount_paid, amount_due, payment_method, payment_status, created_by, created_at
		FROM sales
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, limit)
	for rows.Next() {
		var sale domain.Sale
		var customerID sql.NullInt64
		if err := rows.Scan(&sale.ID, &sale.TenantID, &sale.InvoiceNumber, &customerID,
			&sale.Subtotal, &sale.TaxAmount, &sale.DiscountAmount, &sale.TotalAmount,
			&sale.AmountPaid, &sale.AmountDue, &sale.PaymentMethod, &sale.PaymentStatus,
			&sale.CreatedBy, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.CustomerID = int64Ptr(customerID)
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) CountSalesWithInvoicePrefix(ctx context.Context, tenantID int64, prefix string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sales WHERE tenant_id = $1 AND invoice_number LIKE $2 || '%'
	`, tenantID, prefix).Scan(&count)
	return count, err
}

func (s *Store) CreateExpense(ctx context.Context, tenantID int64, expense domain.Expense) (*domain.Expense, error) {
	if expense.Category == "" || !expense.Amount.IsPositive() {
		return nil, store.ErrInvalidInput
	}

	expense.TenantID = tenantID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO expenses (tenant_id, expense_number, category, amount, payment_method, expense_date, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at
	`, tenantID, expense.ExpenseNumber, expense.Category, expense.Amount,
		expense.PaymentMethod, expense.ExpenseDate, expense.Notes).Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &expense, nil
}

func (s *Store) ListExpenses(ctx context.Context, tenantID int64, limit int) ([]domain.Expense, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, expense_number, category, amount, payment_method, expense_date, notes, created_at
		FROM expenses
		WHERE tenant_id = $1
		ORDER BY expense_date DESC, id DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, limit)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ExpenseNumber, &e.Category, &e.Amount,
			&e.PaymentMethod, &e.ExpenseDate, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Store) DeleteExpense(ctx context.Context, tenantID int64, id int64) (domain.DeletionResult, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM expenses WHERE id = $1 AND tenant_id = $2
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

func (s *Store) CountExpensesWithNumberPrefix(ctx context.Context, tenantID int64, prefix string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM expenses WHERE tenant_id = $1 AND expense_number LIKE $2 || '%'
	`, tenantID, prefix).Scan(&count)
	return count, err
}
