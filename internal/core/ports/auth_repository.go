package ports

import (
	"context"
	"time"

	"github.com/minicrm/lead-api/internal/core/domain"
)

// AuthRepository defines the interface for user persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByIDs returns the users that exist among ids, keyed by ID. Unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// TokenBlacklist records revoked access tokens until they would have expired anyway.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
