package auth

import (
	"context"
	"time"
)

// RevocationStore tracks invalidated refresh tokens by jti until their
// natural expiry. A multi-instance deployment requires a shared store
// (storage/redis); the in-process store (storage/memory) is only correct
// for single-instance deployments.
//
// Callers must treat store failures as fail-closed: a revocation check
// that errors never admits a possibly-revoked token.
type RevocationStore interface {
	// Revoke marks the jti unusable. ttl bounds the entry's lifetime and
	// must not exceed the token's own time to expiry.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether the jti has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// Claim atomically records the jti as revoked and reports whether this
	// caller was first. Rotation uses it as claim-and-revoke so a refresh
	// token is effectively single-use even under concurrent replay.
	Claim(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}
