package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sokoni/marketplace-api/internal/core/domain"
	"github.com/sokoni/marketplace-api/internal/token"
)

type stubAuthRepo struct {
	users map[string]*domain.User // keyed by email
	seq   int
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	created := cloneUser(user)
	r.seq++
	created.ID = string(rune('0' + r.seq))
	r.users[created.Email] = cloneUser(created)
	return created, nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func newTestAuthService() (*AuthService, *stubAuthRepo) {
	repo := newStubAuthRepo()
	return NewAuthService(repo, token.NewJWT("test-secret", time.Hour)), repo
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _ := newTestAuthService()

	user, tok, err := svc.Register(context.Background(), "Alice", "alice@example.com", "pass123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user == nil || tok == "" {
		t.Fatalf("expected user and token, got %+v / %q", user, tok)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, repo := newTestAuthService()

	var ve *domain.ValidationError
	if _, _, err := svc.Register(context.Background(), "", "a@example.com", "pass"); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, _, err := svc.Register(context.Background(), "Bob", "b@example.com", ""); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("no user should be stored, got %d", len(repo.users))
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	if _, _, err := svc.Register(context.Background(), "Bob", "bob@example.com", "pass"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, _, err := svc.Register(context.Background(), "Bobby", "bob@example.com", "pass2"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_RegisterThenLogin_RoundTrip(t *testing.T) {
	svc, _ := newTestAuthService()

	registered, _, err := svc.Register(context.Background(), "Carol", "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, tok, err := svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("expected user %s, got %s", registered.ID, user.ID)
	}

	// The token must decode back to the same identity.
	identity, err := token.NewJWT("test-secret", time.Hour).Verify(tok)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if identity.ID != registered.ID || identity.Email != "carol@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, _ := newTestAuthService()

	_, _, _ = svc.Register(context.Background(), "Dave", "dave@example.com", "goodpass")
	if _, _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	// Unknown email and wrong password must be indistinguishable.
	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Register_NormalisesEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	if _, _, err := svc.Register(context.Background(), "Eve", "EVE@Example.com", "pass"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "eve@example.com", "pass"); err != nil {
		t.Fatalf("login with lowercased email failed: %v", err)
	}
}
