package httpapi

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"larispos/backend/internal/domain"
	"larispos/backend/internal/store/memory"
)

func seedUser(t *testing.T, repo *memory.Store, username string, password string, status string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	_, admin, err := repo.CreateTenantWithAdmin(context.Background(),
		domain.Tenant{Code: "t-" + username, BusinessName: "Toko " + username},
		domain.User{Username: username, PasswordHash: string(hash)},
	)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if status != domain.StatusActive {
		// The memory store has no status update; recreate through CreateUser.
		inactive, err := repo.CreateUser(context.Background(), domain.User{
			TenantID:     admin.TenantID,
			Username:     username + "-inactive",
			PasswordHash: string(hash),
			Role:         domain.RoleCashier,
			Status:       status,
		})
		if err != nil {
			t.Fatalf("seed inactive user: %v", err)
		}
		return inactive
	}
	return admin
}

func TestLoginAndParseTokenRoundTrip(t *testing.T) {
	repo := memory.New()
	user := seedUser(t, repo, "roundtrip", "pass-word-1", domain.StatusActive)
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, repo)

	resp, err := auth.Login(context.Background(), domain.LoginRequest{
		Username: "roundtrip",
		Password: "pass-word-1",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected access token")
	}
	if resp.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.UserID != user.ID {
		t.Fatalf("actor user id %d, want %d", actor.UserID, user.ID)
	}
	if user.TenantID == nil || actor.TenantID != *user.TenantID {
		t.Fatalf("actor tenant id %d, want %v", actor.TenantID, user.TenantID)
	}
	if actor.Role != domain.RoleAdmin {
		t.Fatalf("actor role %s, want admin", actor.Role)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := memory.New()
	seedUser(t, repo, "wrongpass", "correct-pass", domain.StatusActive)
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, repo)

	_, err := auth.Login(context.Background(), domain.LoginRequest{
		Username: "wrongpass",
		Password: "not-the-password",
	})
	if err == nil {
		t.Fatalf("expected login to fail")
	}
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, memory.New())

	_, err := auth.Login(context.Background(), domain.LoginRequest{
		Username: "nobody",
		Password: "whatever",
	})
	if err == nil {
		t.Fatalf("expected login to fail")
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	repo := memory.New()
	seedUser(t, repo, "dormant", "pass-word-1", domain.StatusInactive)
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, repo)

	_, err := auth.Login(context.Background(), domain.LoginRequest{
		Username: "dormant-inactive",
		Password: "pass-word-1",
	})
	if err == nil {
		t.Fatalf("expected inactive account to be rejected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, memory.New())

	if _, err := auth.ParseToken("not-a-token"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	repo := memory.New()
	seedUser(t, repo, "secrets", "pass-word-1", domain.StatusActive)
	signer := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, repo)
	verifier := NewAuthManager("ffffffffffffffffffffffffffffffff", time.Hour, repo)

	resp, err := signer.Login(context.Background(), domain.LoginRequest{
		Username: "secrets",
		Password: "pass-word-1",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}
