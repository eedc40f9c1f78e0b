package utils

import "regexp"

// Accepted password length range. The upper bound keeps inputs under
// bcrypt's 72-byte limit with margin.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 60
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword checks the accepted length range.
func ValidatePassword(password string) bool {
	return len(password) >= MinPasswordLength && len(password) <= MaxPasswordLength
}
