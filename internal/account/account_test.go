package account_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"grab-a-time/internal/account"
	"grab-a-time/internal/auth"
	"grab-a-time/internal/store"
)

const secret = "test-secret"

func setup(t *testing.T) *account.Service {
	t.Helper()
	return account.New(store.NewMemory(), secret, zap.NewNop())
}

func register(t *testing.T, svc *account.Service, email string) *account.Session {
	t.Helper()
	s, err := svc.Register(context.Background(), account.RegisterInput{
		Email: email, Password: "testpass123", Name: "Test Owner",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return s
}

func TestRegister(t *testing.T) {
	svc := setup(t)
	s := register(t, svc, "owner@test.com")

	if s.Owner.ID == "" || s.AccessToken == "" || s.RefreshToken == "" {
		t.Fatalf("incomplete session: %+v", s)
	}
	claims, err := auth.ParseToken(s.AccessToken, secret)
	if err != nil || claims.OwnerID != s.Owner.ID {
		t.Fatalf("token: %+v, %v", claims, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := setup(t)

	tests := []struct {
		name string
		in   account.RegisterInput
	}{
		{"empty email", account.RegisterInput{Email: "", Password: "testpass123", Name: "X"}},
		{"bad email", account.RegisterInput{Email: "owner", Password: "testpass123", Name: "X"}},
		{"empty password", account.RegisterInput{Email: "a@b.com", Password: "", Name: "X"}},
		{"short password", account.RegisterInput{Email: "a@b.com", Password: "short", Name: "X"}},
		{"empty name", account.RegisterInput{Email: "a@b.com", Password: "testpass123", Name: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.in); !errors.Is(err, account.ErrInvalidInput) {
				t.Fatalf("got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc := setup(t)
	register(t, svc, "dup@test.com")
	_, err := svc.Register(context.Background(), account.RegisterInput{
		Email: "dup@test.com", Password: "testpass123", Name: "Second",
	})
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("got %v, want ErrDuplicateEmail", err)
	}
}

func TestLogin(t *testing.T) {
	svc := setup(t)
	reg := register(t, svc, "login@test.com")
	ctx := context.Background()

	s, err := svc.Login(ctx, "login@test.com", "testpass123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if s.Owner.ID != reg.Owner.ID || s.Owner.Name != "Test Owner" {
		t.Errorf("owner = %+v", s.Owner)
	}

	if _, err := svc.Login(ctx, "login@test.com", "wrongpassword"); !errors.Is(err, account.ErrBadCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@nowhere.com", "testpass123"); !errors.Is(err, account.ErrBadCredentials) {
		t.Errorf("unknown owner: got %v", err)
	}
	if _, err := svc.Login(ctx, "", ""); !errors.Is(err, account.ErrInvalidInput) {
		t.Errorf("empty: got %v", err)
	}
}

func TestRefreshRotates(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	first := register(t, svc, "refresh@test.com")

	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("refresh token not rotated")
	}
	if second.Owner.ID != first.Owner.ID {
		t.Errorf("owner changed: %s", second.Owner.ID)
	}

	// reusing the old token revokes the whole family
	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, account.ErrBadCredentials) {
		t.Fatalf("reuse: got %v", err)
	}
	if _, err := svc.Refresh(ctx, second.RefreshToken); !errors.Is(err, account.ErrBadCredentials) {
		t.Fatalf("token survived reuse detection: %v", err)
	}
}

func TestRefreshUnknownAndLogout(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	if _, err := svc.Refresh(ctx, "deadbeef"); !errors.Is(err, account.ErrBadCredentials) {
		t.Errorf("unknown token: got %v", err)
	}
	if _, err := svc.Refresh(ctx, ""); !errors.Is(err, account.ErrBadCredentials) {
		t.Errorf("empty token: got %v", err)
	}

	s := register(t, svc, "logout@test.com")
	if err := svc.Logout(ctx, s.Owner.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, s.RefreshToken); !errors.Is(err, account.ErrBadCredentials) {
		t.Errorf("refresh after logout: got %v", err)
	}
}
