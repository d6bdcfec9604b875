package ports

import (
	"context"

	"github.com/sokoni/marketplace-api/internal/core/domain"
)

// AuthService covers signup and login. Both return a freshly issued session
// token alongside the user so the client is authenticated immediately.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
}
