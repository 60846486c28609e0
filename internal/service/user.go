package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"larispos/backend/internal/authz"
	"larispos/backend/internal/domain"
	"larispos/backend/internal/store"
)

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (*domain.User, error) {
	actor, err := s.authorize(ctx, authz.PermManageUsers)
	if err != nil {
		return nil, err
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || len(req.Password) < 8 {
		return nil, store.ErrInvalidInput
	}
	if !domain.IsValidTenantRole(req.Role) {
		return nil, store.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateUser(ctx, domain.User{
		TenantID:     &actor.TenantID,
		Username:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		Role:         req.Role,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.Int64("tenant_id", actor.TenantID),
		zap.String("username", created.Username),
		zap.String("role", string(created.Role)))
	return created, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	actor, err := s.authorize(ctx, authz.PermManageUsers)
	if err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx, actor.TenantID)
}

// SetUserPermission grants or revokes one permission for a user in the
// caller's tenant and drops that user's cached permission set.
func (s *Service) SetUserPermission(ctx context.Context, userID int64, req domain.PermissionGrantRequest) error {
	actor, err := s.authorize(ctx, authz.PermManageUsers)
	if err != nil {
		return err
	}

	if !authz.IsValidPermission(authz.Permission(req.Permission)) {
		return store.ErrInvalidInput
	}

	if err := s.repo.SetUserPermission(ctx, actor.TenantID, userID, req.Permission, req.Granted); err != nil {
		return err
	}
	s.authz.Invalidate(ctx, userID)
	return nil
}
