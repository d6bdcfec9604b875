package ports

import (
	"context"

	"github.com/sokoni/marketplace-api/internal/core/domain"
)

// AuthRepository persists user identities. Email uniqueness is enforced at
// this layer: Create returns domain.ErrUserExists on a duplicate email.
type AuthRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}
