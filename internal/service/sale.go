package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"larispos/backend/internal/authz"
	"larispos/backend/internal/domain"
	"larispos/backend/internal/store"
)

const checkoutNumberRetries = 3

// Checkout runs the whole sale: validate the cart, price it, resolve the
// customer, number the invoice, and hand the assembled sale to the repository
// for the single atomic write. A duplicate invoice number from a concurrent
// checkout regenerates the number and retries.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	actor, err := s.authorize(ctx, authz.PermProcessSales)
	if err != nil {
		return nil, err
	}

	if len(req.CartItems) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range req.CartItems {
		if line.ProductID <= 0 || line.Quantity <= 0 || line.Price.IsNegative() {
			return nil, store.ErrInvalidInput
		}
	}
	if req.DiscountAmount.IsNegative() || req.AmountPaid.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}

	// An unknown or cross-tenant customer id degrades the sale to anonymous
	// rather than failing the checkout.
	customerID := req.CustomerID
	if customerID != nil {
		if _, err := s.repo.GetCustomer(ctx, actor.TenantID, *customerID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			s.logger.Warn("checkout customer not found in tenant, selling anonymous",
				zap.Int64("tenant_id", actor.TenantID),
				zap.Int64("customer_id", *customerID))
			customerID = nil
		}
	}

	subtotal := decimal.Zero
	items := make([]domain.SaleItem, 0, len(req.CartItems))
	for _, line := range req.CartItems {
		lineTotal := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, domain.SaleItem{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitPrice:  line.Price,
			TotalPrice: lineTotal,
		})
	}

	tax := subtotal.Mul(s.taxRate).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(tax).Sub(req.DiscountAmount)
	if total.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	due := total.Sub(req.AmountPaid)
	status := domain.PaymentStatusUnpaid
	switch {
	case due.LessThanOrEqual(decimal.Zero):
		status = domain.PaymentStatusPaid
		due = decimal.Zero
	case req.AmountPaid.IsPositive():
		status = domain.PaymentStatusPartial
	}

	var created *domain.Sale
	for attempt := 0; attempt < checkoutNumberRetries; attempt++ {
		invoice, err := s.numbers.NextInvoiceNumber(ctx, actor.TenantID)
		if err != nil {
			return nil, err
		}

		sale := domain.Sale{
			InvoiceNumber:  invoice,
			CustomerID:     customerID,
			Subtotal:       subtotal,
			TaxAmount:      tax,
			DiscountAmount: req.DiscountAmount,
			TotalAmount:    total,
			AmountPaid:     req.AmountPaid,
			AmountDue:      due,
			PaymentMethod:  req.PaymentMethod,
			PaymentStatus:  status,
			CreatedBy:      actor.UserID,
		}

		created, err = s.repo.CreateSale(ctx, actor.TenantID, sale, items)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrDuplicateNumber) && attempt < checkoutNumberRetries-1 {
			s.logger.Warn("invoice number collision, retrying",
				zap.Int64("tenant_id", actor.TenantID),
				zap.String("invoice_number", invoice))
			continue
		}
		return nil, err
	}

	var loyalty int64
	if created.CustomerID != nil {
		loyalty = created.TotalAmount.Div(decimal.NewFromInt(100)).Floor().IntPart()
	}

	s.logger.Info("sale completed",
		zap.Int64("tenant_id", actor.TenantID),
		zap.String("invoice_number", created.InvoiceNumber),
		zap.String("total", created.TotalAmount.String()),
		zap.Int("lines", len(created.Items)))

	return &domain.CheckoutResponse{
		SaleID:         created.ID,
		InvoiceNumber:  created.InvoiceNumber,
		CustomerID:     created.CustomerID,
		Subtotal:       created.Subtotal,
		TaxAmount:      created.TaxAmount,
		DiscountAmount: created.DiscountAmount,
		TotalAmount:    created.TotalAmount,
		AmountPaid:     created.AmountPaid,
		AmountDue:      created.AmountDue,
		PaymentStatus:  created.PaymentStatus,
		LoyaltyEarned:  loyalty,
	}, nil
}

func (s *Service) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	actor, err := s.authorizeAny(ctx, authz.PermProcessSales, authz.PermViewReports)
	if err != nil {
		return nil, err
	}
	return s.repo.GetSale(ctx, actor.TenantID, id)
}

func (s *Service) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	actor, err := s.authorizeAny(ctx, authz.PermProcessSales, authz.PermViewReports)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSales(ctx, actor.TenantID, limit)
}
