package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// minRevocationTTL keeps a revoked entry around briefly even for tokens that are
// already at (or past) their expiry, covering clock skew between replicas.
const minRevocationTTL = time.Minute

// TokenBlacklist records revoked JWT ids in Redis.
// Key format: revoked:<jti>
type TokenBlacklist struct {
	client *redis.Client
	now    func() time.Time
}

// NewTokenBlacklist creates a TokenBlacklist wrapping the given Redis client.
func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client, now: time.Now}
}

// Revoke marks tokenID as revoked until the token's own expiry.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(b.now())
	if ttl < minRevocationTTL {
		ttl = minRevocationTTL
	}
	if err := b.client.Set(ctx, b.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, b.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (b *TokenBlacklist) key(tokenID string) string {
	return "revoked:" + tokenID
}
