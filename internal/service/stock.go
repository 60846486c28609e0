package service

import (
	"context"

	"go.uber.org/zap"

	"larispos/backend/internal/authz"
	"larispos/backend/internal/domain"
	"larispos/backend/internal/store"
)

func (s *Service) RecordStockMovement(ctx context.Context, req domain.StockMovementRequest) (*domain.StockMovement, error) {
	actor, err := s.authorize(ctx, authz.PermRecordStock)
	if err != nil {
		return nil, err
	}

	if req.ProductID <= 0 || req.Quantity <= 0 {
		return nil, store.ErrInvalidInput
	}
	if req.Type != domain.MovementIn && req.Type != domain.MovementOut {
		return nil, store.ErrInvalidInput
	}

	movement, err := s.repo.RecordStockMovement(ctx, actor.TenantID, domain.StockMovement{
		ProductID: req.ProductID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock movement recorded",
		zap.Int64("tenant_id", actor.TenantID),
		zap.Int64("product_id", movement.ProductID),
		zap.String("type", movement.Type),
		zap.Int("quantity", movement.Quantity))
	return movement, nil
}

// ListStockMovements returns recent ledger rows, optionally filtered by
// product. productID 0 means all products.
func (s *Service) ListStockMovements(ctx context.Context, productID int64, limit int) ([]domain.StockMovement, error) {
	actor, err := s.authorizeAny(ctx, authz.PermRecordStock, authz.PermViewReports)
	if err != nil {
		return nil, err
	}
	return s.repo.ListStockMovements(ctx, actor.TenantID, productID, limit)
}
