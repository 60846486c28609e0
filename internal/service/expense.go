package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"larispos/backend/internal/authz"
	"larispos/backend/internal/domain"
	"larispos/backend/internal/store"
)

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseRequest) (*domain.Expense, error) {
	actor, err := s.authorize(ctx, authz.PermManageExpenses)
	if err != nil {
		return nil, err
	}

	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" || !req.Amount.IsPositive() {
		return nil, store.ErrInvalidInput
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}

	expenseDate := time.Now()
	if req.ExpenseDate != "" {
		expenseDate, err = time.Parse("2006-01-02", req.ExpenseDate)
		if err != nil {
			return nil, store.ErrInvalidInput
		}
	}

	for attempt := 0; attempt < checkoutNumberRetries; attempt++ {
		number, err := s.numbers.NextExpenseNumber(ctx, actor.TenantID)
		if err != nil {
			return nil, err
		}

		created, err := s.repo.CreateExpense(ctx, actor.TenantID, domain.Expense{
			ExpenseNumber: number,
			Category:      req.Category,
			Amount:        req.Amount,
			PaymentMethod: req.PaymentMethod,
			ExpenseDate:   expenseDate,
			Notes:         strings.TrimSpace(req.Notes),
		})
		if err == nil {
			return created, nil
		}
		if errors.Is(err, store.ErrDuplicateNumber) && attempt < checkoutNumberRetries-1 {
			s.logger.Warn("expense number collision, retrying",
				zap.Int64("tenant_id", actor.TenantID),
				zap.String("expense_number", number))
			continue
		}
		return nil, err
	}
	return nil, store.ErrDuplicateNumber
}

func (s *Service) ListExpenses(ctx context.Context, limit int) ([]domain.Expense, error) {
	actor, err := s.authorizeAny(ctx, authz.PermManageExpenses, authz.PermViewReports)
	if err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, actor.TenantID, limit)
}

func (s *Service) DeleteExpense(ctx context.Context, id int64) (domain.DeletionResult, error) {
	actor, err := s.authorize(ctx, authz.PermManageExpenses)
	if err != nil {
		return domain.DeletionResult{}, err
	}
	return s.repo.DeleteExpense(ctx, actor.TenantID, id)
}
