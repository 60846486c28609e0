package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"larispos/backend/internal/domain"
	"larispos/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema applies the bootstrap DDL. Every statement is idempotent so a
// restart against an existing database is a no-op.
func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaDDL)
	return err
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS tenants (
	id            BIGSERIAL PRIMARY KEY,
	code          TEXT NOT NULL UNIQUE,
	business_name TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'active',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	tenant_id     BIGINT REFERENCES tenants(id),
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'active',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_permissions (
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	permission TEXT NOT NULL,
	granted    BOOLEAN NOT NULL DEFAULT true,
	PRIMARY KEY (user_id, permission)
);

CREATE TABLE IF NOT EXISTS categories (
	id          BIGSERIAL PRIMARY KEY,
	tenant_id   BIGINT NOT NULL REFERENCES tenants(id),
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id             BIGSERIAL PRIMARY KEY,
	tenant_id      BIGINT NOT NULL REFERENCES tenants(id),
	name           TEXT NOT NULL,
	sku            TEXT NOT NULL,
	barcode        TEXT NOT NULL DEFAULT '',
	category_id    BIGINT REFERENCES categories(id),
	price          NUMERIC(14,2) NOT NULL,
	cost_price     NUMERIC(14,2) NOT NULL DEFAULT 0,
	stock_quantity INT NOT NULL DEFAULT 0,
	minimum_stock  INT NOT NULL DEFAULT 0,
	status         TEXT NOT NULL DEFAULT 'active',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (tenant_id, sku)
);

CREATE TABLE IF NOT EXISTS customers (
	id              BIGSERIAL PRIMARY KEY,
	tenant_id       BIGINT NOT NULL REFERENCES tenants(id),
	name            TEXT NOT NULL,
	phone           TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	address         TEXT NOT NULL DEFAULT '',
	balance         NUMERIC(14,2) NOT NULL DEFAULT 0,
	loyalty_points  BIGINT NOT NULL DEFAULT 0,
	total_purchases NUMERIC(14,2) NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'active',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS suppliers (
	id             BIGSERIAL PRIMARY KEY,
	tenant_id      BIGINT NOT NULL REFERENCES tenants(id),
	name           TEXT NOT NULL,
	contact_person TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	address        TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'active',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sales (
	id              BIGSERIAL PRIMARY KEY,
	tenant_id       BIGINT NOT NULL REFERENCES tenants(id),
	invoice_number  TEXT NOT NULL,
	customer_id     BIGINT REFERENCES customers(id),
	subtotal        NUMERIC(14,2) NOT NULL,
	tax_amount      NUMERIC(14,2) NOT NULL DEFAULT 0,
	discount_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_amount    NUMERIC(14,2) NOT NULL,
	amount_paid     NUMERIC(14,2) NOT NULL DEFAULT 0,
	amount_due      NUMERIC(14,2) NOT NULL DEFAULT 0,
	payment_method  TEXT NOT NULL DEFAULT 'cash',
	payment_status  TEXT NOT NULL DEFAULT 'paid',
	created_by      BIGINT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (tenant_id, invoice_number)
);

CREATE TABLE IF NOT EXISTS sale_items (
	id          BIGSERIAL PRIMARY KEY,
	sale_id     BIGINT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
	product_id  BIGINT NOT NULL REFERENCES products(id),
	quantity    INT NOT NULL,
	unit_price  NUMERIC(14,2) NOT NULL,
	total_price NUMERIC(14,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS stock_movements (
	id          BIGSERIAL PRIMARY KEY,
	tenant_id   BIGINT NOT NULL REFERENCES tenants(id),
	product_id  BIGINT NOT NULL REFERENCES products(id),
	type        TEXT NOT NULL CHECK (type IN ('in', 'out')),
	quantity    INT NOT NULL,
	unit_price  NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_value NUMERIC(14,2) NOT NULL DEFAULT 0,
	notes       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS expenses (
	id             BIGSERIAL PRIMARY KEY,
	tenant_id      BIGINT NOT NULL REFERENCES tenants(id),
	expense_number TEXT NOT NULL,
	category       TEXT NOT NULL,
	amount         NUMERIC(14,2) NOT NULL,
	payment_method TEXT NOT NULL DEFAULT 'cash',
	expense_date   DATE NOT NULL,
	notes          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (tenant_id, expense_number)
);

CREATE INDEX IF NOT EXISTS idx_sales_tenant_created ON sales (tenant_id, created_at);
CREATE INDEX IF NOT EXISTS idx_stock_movements_tenant_product ON stock_movements (tenant_id, product_id);
CREATE INDEX IF NOT EXISTS idx_expenses_tenant ON expenses (tenant_id);
`

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// mapUniqueViolation distinguishes a colliding document number from any other
// unique-constraint hit so the sale engine can retry number generation.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	if strings.Contains(pgErr.ConstraintName, "invoice_number") || strings.Contains(pgErr.ConstraintName, "expense_number") {
		return store.ErrDuplicateNumber
	}
	return store.ErrDuplicate
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func (s *Store) CreateTenantWithAdmin(ctx context.Context, tenant domain.Tenant, admin domain.User) (*domain.Tenant, *domain.User, error) {
	if tenant.Code == "" || tenant.BusinessName == "" || admin.Username == "" || admin.PasswordHash == "" {
		return nil, nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	tenant.Status = domain.StatusActive
	err = tx.QueryRowContext(ctx, `
		INSERT INTO tenants (code, business_name, status)
		VALUES ($1,$2,$3)
		RETURNING id, created_at
	`, tenant.Code, tenant.BusinessName, tenant.Status).Scan(&tenant.ID, &tenant.CreatedAt)
	if err != nil {
		return nil, nil, mapUniqueViolation(err)
	}

	admin.Role = domain.RoleAdmin
	admin.Status = domain.StatusActive
	admin.TenantID = &tenant.ID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (tenant_id, username, email, password_hash, role, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`, tenant.ID, admin.Username, admin.Email, admin.PasswordHash, admin.Role, admin.Status).Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		return nil, nil, mapUniqueViolation(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &tenant, &admin, nil
}

func (s *Store) GetTenantByCode(ctx context.Context, code string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, business_name, status, created_at
		FROM tenants
		WHERE code = $1
	`, code).Scan(&t.ID, &t.Code, &t.BusinessName, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.Username == "" || user.PasswordHash == "" || user.Role == "" {
		return nil, store.ErrInvalidInput
	}
	if user.Role != domain.RoleSuperAdmin && user.TenantID == nil {
		return nil, store.ErrInvalidInput
	}
	if user.Status == "" {
		user.Status = domain.StatusActive
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (tenant_id, username, email, password_hash, role, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`, nullInt64(user.TenantID), user.Username, user.Email, user.PasswordHash, user.Role, user.Status).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	var tenantID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, username, email, password_hash, role, status, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&u.ID, &tenantID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	u.TenantID = int64Ptr(tenantID)
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, tenantID int64) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, username, email, role, status, created_at
		FROM users
		WHERE tenant_id = $1
		ORDER BY username
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 16)
	for rows.Next() {
		var u domain.User
		var tid sql.NullInt64
		if err := rows.Scan(&u.ID, &tid, &u.Username, &u.Email, &u.Role, &u.Status, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.TenantID = int64Ptr(tid)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) ListUserPermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT permission
		FROM user_permissions
		WHERE user_id = $1 AND granted = true
		ORDER BY permission
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := make([]string, 0, 8)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (s *Store) SetUserPermission(ctx context.Context, tenantID int64, userID int64, permission string, granted bool) error {
	if permission == "" {
		return store.ErrInvalidInput
	}

	// The target user must belong to the caller's tenant; the predicate keeps
	// grants from crossing tenants regardless of the supplied user id.
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM users WHERE id = $1 AND tenant_id = $2
	`, userID, tenantID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_permissions (user_id, permission, granted)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, permission)
		DO UPDATE SET granted = EXCLUDED.granted
	`, userID, permission, granted)
	return err
}
