package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"larispos/backend/internal/authz"
	"larispos/backend/internal/domain"
	"larispos/backend/internal/numbering"
	"larispos/backend/internal/store"
)

var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("permission denied")
	ErrNoTenantAssigned = errors.New("no tenant assigned")
	ErrEmptyCart        = errors.New("cart is empty")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo    store.Repository
	authz   *authz.Resolver
	numbers *numbering.Generator
	logger  *zap.Logger
	taxRate decimal.Decimal
}

func New(repo store.Repository, resolver *authz.Resolver, numbers *numbering.Generator, logger *zap.Logger, taxRatePercent decimal.Decimal) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:    repo,
		authz:   resolver,
		numbers: numbers,
		logger:  logger,
		taxRate: taxRatePercent,
	}
}

// authorize resolves the actor from the context and checks one permission.
// Every tenant-scoped operation goes through here; the returned actor carries
// the tenant id that all repository calls must use.
func (s *Service) authorize(ctx context.Context, perm authz.Permission) (domain.Actor, error) {
	return s.authorizeAny(ctx, perm)
}

// authorizeAny passes if the actor holds at least one of the permissions.
func (s *Service) authorizeAny(ctx context.Context, perms ...authz.Permission) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, ErrUnauthenticated
	}
	if actor.TenantID == 0 {
		return domain.Actor{}, ErrNoTenantAssigned
	}

	decision, err := s.authz.Resolve(ctx, actor)
	if err != nil {
		return domain.Actor{}, err
	}
	for _, p := range perms {
		if decision.Allows(p) {
			return actor, nil
		}
	}

	s.logger.Warn("permission denied",
		zap.Int64("user_id", actor.UserID),
		zap.Int64("tenant_id", actor.TenantID),
		zap.String("role", string(actor.Role)))
	return domain.Actor{}, ErrForbidden
}

// RegisterTenant provisions a tenant together with its first admin user. It
// is the only unauthenticated write in the system.
func (s *Service) RegisterTenant(ctx context.Context, req domain.RegisterTenantRequest) (*domain.RegisterTenantResponse, error) {
	req.BusinessName = strings.TrimSpace(req.BusinessName)
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.TrimSpace(req.Email)

	if req.BusinessName == "" || req.Username == "" || len(req.Password) < 8 {
		return nil, store.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tenant := domain.Tenant{
		Code:         uuid.NewString()[:8],
		BusinessName: req.BusinessName,
	}
	admin := domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	createdTenant, createdAdmin, err := s.repo.CreateTenantWithAdmin(ctx, tenant, admin)
	if err != nil {
		return nil, err
	}

	s.logger.Info("tenant registered",
		zap.Int64("tenant_id", createdTenant.ID),
		zap.String("code", createdTenant.Code))

	return &domain.RegisterTenantResponse{Tenant: *createdTenant, Admin: *createdAdmin}, nil
}

// LookupTenant resolves a tenant by registration code. Public; clients use it
// to label their login screen.
func (s *Service) LookupTenant(ctx context.Context, code string) (*domain.Tenant, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, store.ErrInvalidInput
	}
	return s.repo.GetTenantByCode(ctx, code)
}
