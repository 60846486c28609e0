package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"larispos/backend/internal/domain"
	"larispos/backend/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCheckoutComputesTotals(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Hitung")
	ctx := actorCtx(tenant)

	a := mustProduct(t, svc, ctx, "Item A", "ITA-001", 100, 50)
	b := mustProduct(t, svc, ctx, "Item B", "ITB-001", 100, 50)

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems: []domain.CartLine{
			{ProductID: a.ID, Price: dec("10.25"), Quantity: 2},
			{ProductID: b.ID, Price: dec("16.00"), Quantity: 1},
		},
		AmountPaid: dec("36.50"),
	})
	require.NoError(t, err)

	require.True(t, resp.Subtotal.Equal(dec("36.50")), "subtotal %s", resp.Subtotal)
	require.True(t, resp.TaxAmount.IsZero())
	require.True(t, resp.TotalAmount.Equal(dec("36.50")))
	require.True(t, resp.AmountDue.IsZero())
	require.Equal(t, domain.PaymentStatusPaid, resp.PaymentStatus)
	require.Zero(t, resp.LoyaltyEarned)
}

func TestCheckoutAppliesTaxRate(t *testing.T) {
	svc := newTestService(t, decimal.NewFromInt(10))
	tenant := registerTenant(t, svc, "Toko Pajak")
	ctx := actorCtx(tenant)

	p := mustProduct(t, svc, ctx, "Item", "ITM-001", 100, 10)

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems:  []domain.CartLine{{ProductID: p.ID, Price: dec("100"), Quantity: 1}},
		AmountPaid: dec("110"),
	})
	require.NoError(t, err)

	require.True(t, resp.TaxAmount.Equal(dec("10")), "tax %s", resp.TaxAmount)
	require.True(t, resp.TotalAmount.Equal(dec("110")))
	require.Equal(t, domain.PaymentStatusPaid, resp.PaymentStatus)
}

func TestCheckoutAccruesLoyalty(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Poin")
	ctx := actorCtx(tenant)

	p := mustProduct(t, svc, ctx, "Beras 5kg", "BRS-001", 125, 20)
	customer, err := svc.CreateCustomer(ctx, domain.CustomerRequest{Name: "Agus"})
	require.NoError(t, err)

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CustomerID: &customer.ID,
		CartItems:  []domain.CartLine{{ProductID: p.ID, Price: dec("125"), Quantity: 2}},
		AmountPaid: dec("250"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), resp.LoyaltyEarned)

	updated, err := svc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.LoyaltyPoints)
	require.True(t, updated.TotalPurchases.Equal(dec("250")))
}

func TestCheckoutDegradesUnknownCustomerToAnonymous(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenantA := registerTenant(t, svc, "Toko A")
	tenantB := registerTenant(t, svc, "Toko B")
	ctxA := actorCtx(tenantA)
	ctxB := actorCtx(tenantB)

	// The customer belongs to tenant A; tenant B's checkout references it.
	foreign, err := svc.CreateCustomer(ctxA, domain.CustomerRequest{Name: "Pelanggan A"})
	require.NoError(t, err)

	p := mustProduct(t, svc, ctxB, "Gula", "GUL-001", 12000, 10)

	resp, err := svc.Checkout(ctxB, domain.CheckoutRequest{
		CustomerID: &foreign.ID,
		CartItems:  []domain.CartLine{{ProductID: p.ID, Price: p.Price, Quantity: 1}},
		AmountPaid: decimal.NewFromInt(12000),
	})
	require.NoError(t, err)
	require.Nil(t, resp.CustomerID, "sale should complete as anonymous")
	require.Zero(t, resp.LoyaltyEarned)

	// Tenant A's customer is untouched.
	unchanged, err := svc.GetCustomer(ctxA, foreign.ID)
	require.NoError(t, err)
	require.Zero(t, unchanged.LoyaltyPoints)
	require.True(t, unchanged.TotalPurchases.IsZero())
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Kosong")

	_, err := svc.Checkout(actorCtx(tenant), domain.CheckoutRequest{})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutInsufficientStockIsAtomic(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Habis")
	ctx := actorCtx(tenant)

	plenty := mustProduct(t, svc, ctx, "Item Banyak", "BNY-001", 1000, 100)
	scarce := mustProduct(t, svc, ctx, "Item Langka", "LGK-001", 1000, 1)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems: []domain.CartLine{
			{ProductID: plenty.ID, Price: plenty.Price, Quantity: 5},
			{ProductID: scarce.ID, Price: scarce.Price, Quantity: 3},
		},
		AmountPaid: decimal.NewFromInt(8000),
	})
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	// No line was applied: the first product's stock is intact and no sale
	// or ledger rows exist.
	p, err := svc.GetProduct(ctx, plenty.ID)
	require.NoError(t, err)
	require.Equal(t, 100, p.StockQuantity)

	sales, err := svc.ListSales(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, sales)

	movements, err := svc.ListStockMovements(ctx, 0, 10)
	require.NoError(t, err)
	require.Empty(t, movements)
}

func TestCheckoutDuplicateCartLinesCannotOversell(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Ganda")
	ctx := actorCtx(tenant)

	p := mustProduct(t, svc, ctx, "Sabun", "SBN-001", 4000, 3)

	// Two lines of 2 each pass a per-line check against stock 3 but their
	// sum does not; the checkout must refuse and leave nothing behind.
	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems: []domain.CartLine{
			{ProductID: p.ID, Price: p.Price, Quantity: 2},
			{ProductID: p.ID, Price: p.Price, Quantity: 2},
		},
		AmountPaid: decimal.NewFromInt(16000),
	})
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	after, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 3, after.StockQuantity)

	sales, err := svc.ListSales(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, sales)

	movements, err := svc.ListStockMovements(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Empty(t, movements)

	// Duplicate lines whose sum fits still go through.
	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems: []domain.CartLine{
			{ProductID: p.ID, Price: p.Price, Quantity: 2},
			{ProductID: p.ID, Price: p.Price, Quantity: 1},
		},
		AmountPaid: decimal.NewFromInt(12000),
	})
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPaid, resp.PaymentStatus)

	after, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 0, after.StockQuantity)
}

func TestCheckoutPartialPayment(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Cicil")
	ctx := actorCtx(tenant)

	p := mustProduct(t, svc, ctx, "Minyak Goreng", "MYK-001", 20000, 10)

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems:  []domain.CartLine{{ProductID: p.ID, Price: p.Price, Quantity: 2}},
		AmountPaid: decimal.NewFromInt(15000),
	})
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPartial, resp.PaymentStatus)
	require.True(t, resp.AmountDue.Equal(dec("25000")))
}

func TestCheckoutUnpaidWhenNothingPaid(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Bon")
	ctx := actorCtx(tenant)

	p := mustProduct(t, svc, ctx, "Telur", "TLR-001", 2000, 30)

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems: []domain.CartLine{{ProductID: p.ID, Price: p.Price, Quantity: 10}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusUnpaid, resp.PaymentStatus)
	require.True(t, resp.AmountDue.Equal(dec("20000")))
}

func TestInvoiceNumbersAreSequentialPerTenant(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Nomor")
	ctx := actorCtx(tenant)

	p := mustProduct(t, svc, ctx, "Kerupuk", "KRP-001", 1000, 50)

	first, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems:  []domain.CartLine{{ProductID: p.ID, Price: p.Price, Quantity: 1}},
		AmountPaid: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	second, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems:  []domain.CartLine{{ProductID: p.ID, Price: p.Price, Quantity: 1}},
		AmountPaid: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	require.NotEqual(t, first.InvoiceNumber, second.InvoiceNumber)
	require.Regexp(t, `^INV-\d{8}-0001$`, first.InvoiceNumber)
	require.Regexp(t, `^INV-\d{8}-0002$`, second.InvoiceNumber)

	// A fresh tenant restarts its own sequence.
	other := registerTenant(t, svc, "Toko Lain")
	otherCtx := actorCtx(other)
	q := mustProduct(t, svc, otherCtx, "Kerupuk", "KRP-001", 1000, 50)

	otherFirst, err := svc.Checkout(otherCtx, domain.CheckoutRequest{
		CartItems:  []domain.CartLine{{ProductID: q.ID, Price: q.Price, Quantity: 1}},
		AmountPaid: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	require.Regexp(t, `^INV-\d{8}-0001$`, otherFirst.InvoiceNumber)
}

func TestCheckoutWritesSaleAndLedger(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Jejak")
	ctx := actorCtx(tenant)

	p := mustProduct(t, svc, ctx, "Susu Kotak", "SSU-001", 6000, 12)

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems:  []domain.CartLine{{ProductID: p.ID, Price: p.Price, Quantity: 3}},
		AmountPaid: decimal.NewFromInt(18000),
	})
	require.NoError(t, err)

	sale, err := svc.GetSale(ctx, resp.SaleID)
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	require.Equal(t, 3, sale.Items[0].Quantity)

	after, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 9, after.StockQuantity)

	movements, err := svc.ListStockMovements(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.Equal(t, domain.MovementOut, movements[0].Type)
	require.Equal(t, 3, movements[0].Quantity)
	require.True(t, movements[0].UnitPrice.Equal(p.Price))
}

func TestCheckoutRejectsNegativeTotal(t *testing.T) {
	svc := newTestService(t, decimal.Zero)
	tenant := registerTenant(t, svc, "Toko Diskon")
	ctx := actorCtx(tenant)

	p := mustProduct(t, svc, ctx, "Korek", "KRK-001", 2000, 10)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems:      []domain.CartLine{{ProductID: p.ID, Price: p.Price, Quantity: 1}},
		DiscountAmount: decimal.NewFromInt(5000),
	})
	require.ErrorIs(t, err, store.ErrInvalidInput)
}
