package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpired_BoundaryIsExclusive(t *testing.T) {
	now := time.Now()
	session := Session{ExpiresAt: now}

	// A grant is valid only strictly before its expiry instant.
	assert.False(t, session.Expired(now.Add(-time.Nanosecond)))
	assert.True(t, session.Expired(now))
	assert.True(t, session.Expired(now.Add(time.Nanosecond)))
}

func TestTokenExpired_BoundaryIsExclusive(t *testing.T) {
	now := time.Now()
	token := Token{ExpiresAt: now}

	assert.False(t, token.Expired(now.Add(-time.Second)))
	assert.True(t, token.Expired(now))
}

func TestUserConfirmed(t *testing.T) {
	var user User
	assert.False(t, user.Confirmed())

	at := time.Now()
	user.ConfirmedAt = &at
	assert.True(t, user.Confirmed())
}
