package auth

import (
	"context"
	"time"

	"acquisitions/internal/cache"
)

const revokedKeyPrefix = "revoked_session:"

// SessionStoreInterface defines session revocation operations.
type SessionStoreInterface interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionStore tracks revoked session token IDs in Redis. Entries live only
// until the token would have expired anyway.
type SessionStore struct {
	cache *cache.Client
}

var _ SessionStoreInterface = (*SessionStore)(nil)

// NewSessionStore creates a session store backed by the cache client.
func NewSessionStore(cache *cache.Client) *SessionStore {
	return &SessionStore{cache: cache}
}

// Revoke marks a token ID as revoked until its natural expiry.
func (s *SessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return nil
	}
	return s.cache.Set(ctx, revokedKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsRevoked checks whether a token ID has been revoked. Cache errors read as
// "not revoked" so an unreachable redis does not lock everyone out.
func (s *SessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedKeyPrefix+tokenID)
	if err != nil {
		return false, nil
	}
	return data != nil, nil
}
