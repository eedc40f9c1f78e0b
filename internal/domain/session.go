package domain

import "time"

// Session is a fixed-duration bearer grant. The Session field is the opaque
// credential handed to the browser, distinct from the primary key.
type Session struct {
	ID        string    `json:"id" db:"id"`
	Session   string    `json:"-" db:"session"`
	UserID    string    `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SessionInsert is the caller-supplied part of a new session row.
// UserID is overridden by user-scoped repositories.
type SessionInsert struct {
	Session   string
	ExpiresAt time.Time
	UserID    string
}

// Expired reports whether the session is past its expiry. The boundary is
// exclusive: a session is valid only while now < ExpiresAt.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
