package ports

import "github.com/sokoni/marketplace-api/internal/core/domain"

// TokenManager mints and validates self-contained signed session tokens.
// Tokens are stateless: any holder of the signing secret can verify them
// without a shared-state lookup, at the cost that they cannot be revoked
// before expiry.
type TokenManager interface {
	Issue(identity domain.Identity) (string, error)
	Verify(token string) (domain.Identity, error)
}
