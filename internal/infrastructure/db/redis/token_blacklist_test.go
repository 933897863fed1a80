package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*TokenBlacklist, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewTokenBlacklist(client), mr
}

func TestTokenBlacklist_RevokeAndCheck(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "abc", time.Now().Add(time.Hour)))

	revoked, err = bl.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl := mr.TTL("revoked:abc")
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "unexpected ttl %v", ttl)
}

func TestTokenBlacklist_ExpiresWithToken(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "abc", time.Now().Add(10*time.Minute)))
	mr.FastForward(11 * time.Minute)

	revoked, err := bl.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenBlacklist_PastExpiryUsesMinimumTTL(t *testing.T) {
	bl, mr := newTestBlacklist(t)

	require.NoError(t, bl.Revoke(context.Background(), "old", time.Now().Add(-time.Hour)))
	assert.Equal(t, minRevocationTTL, mr.TTL("revoked:old"))
}

func TestTokenBlacklist_RedisDown(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	mr.Close()

	_, err := bl.IsRevoked(context.Background(), "abc")
	assert.Error(t, err)
}
