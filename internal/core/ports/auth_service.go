package ports

import (
	"context"

	"github.com/minicrm/lead-api/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	Logout(ctx context.Context, claims domain.Claims) error
	// ParseToken validates a bearer token and returns its claims. Revoked tokens fail with domain.ErrUnauthorized.
	ParseToken(ctx context.Context, token string) (*domain.Claims, error)
}
