package service

import (
	"context"
	"strings"

	"larispos/backend/internal/authz"
	"larispos/backend/internal/domain"
	"larispos/backend/internal/store"
)

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryRequest) (*domain.Category, error) {
	actor, err := s.authorize(ctx, authz.PermManageCategories)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, store.ErrInvalidInput
	}

	return s.repo.CreateCategory(ctx, actor.TenantID, domain.Category{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
	})
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, req domain.CategoryRequest) (*domain.Category, error) {
	actor, err := s.authorize(ctx, authz.PermManageCategories)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, store.ErrInvalidInput
	}

	return s.repo.UpdateCategory(ctx, actor.TenantID, domain.Category{
		ID:          id,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
	})
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) (domain.DeletionResult, error) {
	actor, err := s.authorize(ctx, authz.PermManageCategories)
	if err != nil {
		return domain.DeletionResult{}, err
	}
	return s.repo.DeleteCategory(ctx, actor.TenantID, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	actor, err := s.authorizeAny(ctx, authz.PermManageCategories, authz.PermManageProducts, authz.PermProcessSales)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCategories(ctx, actor.TenantID)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error) {
	actor, err := s.authorize(ctx, authz.PermManageProducts)
	if err != nil {
		return nil, err
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	if req.SKU == "" || req.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if req.Price.IsNegative() || req.CostPrice.IsNegative() || req.Stock < 0 || req.MinimumStock < 0 {
		return nil, store.ErrInvalidInput
	}

	return s.repo.CreateProduct(ctx, actor.TenantID, domain.Product{
		Name:          req.Name,
		SKU:           req.SKU,
		Barcode:       strings.TrimSpace(req.Barcode),
		CategoryID:    req.CategoryID,
		Price:         req.Price,
		CostPrice:     req.CostPrice,
		StockQuantity: req.Stock,
		MinimumStock:  req.MinimumStock,
	})
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	actor, err := s.authorizeAny(ctx, authz.PermManageProducts, authz.PermProcessSales, authz.PermRecordStock)
	if err != nil {
		return nil, err
	}
	return s.repo.GetProduct(ctx, actor.TenantID, id)
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductRequest) (*domain.Product, error) {
	actor, err := s.authorize(ctx, authz.PermManageProducts)
	if err != nil {
		return nil, err
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	if req.SKU == "" || req.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if req.Price.IsNegative() || req.CostPrice.IsNegative() || req.MinimumStock < 0 {
		return nil, store.ErrInvalidInput
	}

	return s.repo.UpdateProduct(ctx, actor.TenantID, domain.Product{
		ID:           id,
		Name:         req.Name,
		SKU:          req.SKU,
		Barcode:      strings.TrimSpace(req.Barcode),
		CategoryID:   req.CategoryID,
		Price:        req.Price,
		CostPrice:    req.CostPrice,
		MinimumStock: req.MinimumStock,
	})
}

// ReactivateProduct lifts a soft delete. Edits never change status, so this
// is the only way back to active.
func (s *Service) ReactivateProduct(ctx context.Context, id int64) (*domain.Product, error) {
	actor, err := s.authorize(ctx, authz.PermManageProducts)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetProductStatus(ctx, actor.TenantID, id, domain.StatusActive); err != nil {
		return nil, err
	}
	return s.repo.GetProduct(ctx, actor.TenantID, id)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) (domain.DeletionResult, error) {
	actor, err := s.authorize(ctx, authz.PermManageProducts)
	if err != nil {
		return domain.DeletionResult{}, err
	}
	return s.repo.DeleteProduct(ctx, actor.TenantID, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	actor, err := s.authorizeAny(ctx, authz.PermManageProducts, authz.PermProcessSales, authz.PermRecordStock)
	if err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx, actor.TenantID)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerRequest) (*domain.Customer, error) {
	actor, err := s.authorize(ctx, authz.PermManageCustomers)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, store.ErrInvalidInput
	}

	return s.repo.CreateCustomer(ctx, actor.TenantID, domain.Customer{
		Name:    req.Name,
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
	})
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	actor, err := s.authorizeAny(ctx, authz.PermManageCustomers, authz.PermProcessSales)
	if err != nil {
		return nil, err
	}
	return s.repo.GetCustomer(ctx, actor.TenantID, id)
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, req domain.CustomerRequest) (*domain.Customer, error) {
	actor, err := s.authorize(ctx, authz.PermManageCustomers)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, store.ErrInvalidInput
	}

	return s.repo.UpdateCustomer(ctx, actor.TenantID, domain.Customer{
		ID:      id,
		Name:    req.Name,
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
	})
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) (domain.DeletionResult, error) {
	actor, err := s.authorize(ctx, authz.PermManageCustomers)
	if err != nil {
		return domain.DeletionResult{}, err
	}
	return s.repo.DeleteCustomer(ctx, actor.TenantID, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	actor, err := s.authorizeAny(ctx, authz.PermManageCustomers, authz.PermProcessSales)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCustomers(ctx, actor.TenantID)
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierRequest) (*domain.Supplier, error) {
	actor, err := s.authorize(ctx, authz.PermManageSuppliers)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, store.ErrInvalidInput
	}

	return s.repo.CreateSupplier(ctx, actor.TenantID, domain.Supplier{
		Name:          req.Name,
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		Address:       strings.TrimSpace(req.Address),
	})
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, req domain.SupplierRequest) (*domain.Supplier, error) {
	actor, err := s.authorize(ctx, authz.PermManageSuppliers)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, store.ErrInvalidInput
	}

	return s.repo.UpdateSupplier(ctx, actor.TenantID, domain.Supplier{
		ID:            id,
		Name:          req.Name,
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		Address:       strings.TrimSpace(req.Address),
	})
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) (domain.DeletionResult, error) {
	actor, err := s.authorize(ctx, authz.PermManageSuppliers)
	if err != nil {
		return domain.DeletionResult{}, err
	}
	return s.repo.DeleteSupplier(ctx, actor.TenantID, id)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	actor, err := s.authorize(ctx, authz.PermManageSuppliers)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSuppliers(ctx, actor.TenantID)
}
