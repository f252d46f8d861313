package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasa/platform/storage/memory"
)

func Test_RevocationStore_revoke(t *testing.T) {
	store := memory.NewRevocationStore()
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Hour))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 1, store.Len())
}

func Test_RevocationStore_entriesExpire(t *testing.T) {
	store := memory.NewRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-1", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry outlived its token")
	assert.Equal(t, 0, store.Len(), "expired entry is dropped on read")
}

func Test_RevocationStore_claimIsExclusive(t *testing.T) {
	store := memory.NewRevocationStore()
	ctx := context.Background()

	claimed, err := store.Claim(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Claim(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, claimed, "second claim must lose")

	// a claimed jti counts as revoked
	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func Test_RevocationStore_claimAgainAfterExpiry(t *testing.T) {
	store := memory.NewRevocationStore()
	ctx := context.Background()

	claimed, err := store.Claim(ctx, "jti-1", 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, claimed)

	time.Sleep(20 * time.Millisecond)

	claimed, err = store.Claim(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed, "expired entries do not block a fresh claim")
}

func Test_RevocationStore_sweep(t *testing.T) {
	store := memory.NewRevocationStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, store.Revoke(ctx, "short", 5*time.Millisecond))
	require.NoError(t, store.Revoke(ctx, "long", time.Hour))
	assert.Equal(t, 2, store.Len())

	store.StartSweeping(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return store.Len() == 1
	}, time.Second, 10*time.Millisecond, "sweep should purge the expired entry only")
}
