package domain

import "time"

// User represents an account holder. ConfirmedAt is nil until the user
// follows the email confirmation link.
type User struct {
	ID          string     `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	ConfirmedAt *time.Time `json:"confirmed_at" db:"confirmed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// UserInsert is the caller-supplied part of a new user row.
type UserInsert struct {
	Email string
}

// Confirmed reports whether the user's email address has been confirmed.
func (u User) Confirmed() bool {
	return u.ConfirmedAt != nil
}

// Password is a hashed credential owned by exactly one user. The reset flow
// deletes and recreates rows rather than updating in place, so a signed-up
// user has exactly one row at any time.
type Password struct {
	ID        string    `json:"-" db:"id"`
	Password  string    `json:"-" db:"password"`
	UserID    string    `json:"-" db:"user_id"`
	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// PasswordInsert is the caller-supplied part of a new password row.
// UserID is overridden by user-scoped repositories.
type PasswordInsert struct {
	Password string
	UserID   string
}
