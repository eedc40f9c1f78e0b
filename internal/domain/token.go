package domain

import "time"

// TokenType discriminates the single-use verification token flows.
type TokenType string

const (
	TokenTypeEmailConfirmation    TokenType = "email-confirmation"
	TokenTypeChangeEmail          TokenType = "change-email"
	TokenTypeRequestPasswordReset TokenType = "request-password-reset"
)

// Token is a single-use credential. At most one live token of a given type
// exists per user: issuing a new one first removes all tokens of that type.
// Tokens are consumed (deleted) exactly once or expire lazily at consumption
// time; there is no background sweep.
type Token struct {
	ID        string    `json:"id" db:"id"`
	Type      TokenType `json:"type" db:"type"`
	Token     string    `json:"-" db:"token"`
	UserID    string    `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TokenInsert is the caller-supplied part of a new token row.
// UserID is overridden by user-scoped repositories.
type TokenInsert struct {
	Type      TokenType
	Token     string
	ExpiresAt time.Time
	UserID    string
}

// Expired reports whether the token is past its expiry. The boundary is
// exclusive: a token is valid only while now < ExpiresAt.
func (t Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
