package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sokoni/marketplace-api/internal/core/domain"
	"github.com/sokoni/marketplace-api/internal/core/ports"
)

// AuthService implements signup and login on top of the credential store
// and the token manager.
type AuthService struct {
	repo   ports.AuthRepository
	tokens ports.TokenManager
}

func NewAuthService(repo ports.AuthRepository, tokens ports.TokenManager) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// Register creates an account and logs it in. The plaintext password never
// leaves this function; only its bcrypt hash is stored.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return nil, "", domain.NewValidationError("name, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	tok, err := s.tokens.Issue(identityOf(created))
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return created, tok, nil
}

// Login verifies credentials and returns the user with a fresh token.
// An unknown email and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", domain.NewValidationError("email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(identityOf(user))
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, tok, nil
}

func identityOf(u *domain.User) domain.Identity {
	return domain.Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}
