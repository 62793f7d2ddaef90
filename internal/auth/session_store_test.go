package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionStore_FailsSafeWithoutRedis(t *testing.T) {
	// A nil cache client must behave like "nothing revoked", never error.
	store := NewSessionStore(nil)

	err := store.Revoke(context.Background(), "some-jti", time.Minute)
	assert.NoError(t, err)

	revoked, err := store.IsRevoked(context.Background(), "some-jti")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestSessionStore_EmptyTokenID(t *testing.T) {
	store := NewSessionStore(nil)
	assert.NoError(t, store.Revoke(context.Background(), "", time.Minute))
}
