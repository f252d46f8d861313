package memory

import (
	"context"
	"sync"
	"time"

	"github.com/darasa/platform/core/auth"
)

// RevocationStore is an in-process revocation registry. Entries self-expire
// at the revoked token's own expiry so memory stays bounded. Correct only
// for single-instance deployments; multi-instance needs storage/redis.
type RevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> expiry
}

var _ auth.RevocationStore = (*RevocationStore)(nil)

func NewRevocationStore() *RevocationStore {
	return &RevocationStore{entries: make(map[string]time.Time)}
}

// StartSweeping runs a background purge off the hot authentication path.
// It returns immediately; the sweep stops when ctx is cancelled.
func (s *RevocationStore) StartSweeping(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *RevocationStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[jti] = time.Now().Add(ttl)
	s.mu.Unlock()
	return nil
}

func (s *RevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	expiry, ok := s.entries[jti]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		// lazily drop entries outliving their token
		s.mu.Lock()
		delete(s.entries, jti)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (s *RevocationStore) Claim(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if expiry, ok := s.entries[jti]; ok && now.Before(expiry) {
		return false, nil
	}
	s.entries[jti] = now.Add(ttl)
	return true, nil
}

func (s *RevocationStore) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti, expiry := range s.entries {
		if now.After(expiry) {
			delete(s.entries, jti)
		}
	}
}

// Len reports the live entry count; used by tests and health reporting.
func (s *RevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
