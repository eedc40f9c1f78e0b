package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/saas-starter/auth-service/internal/domain"
)

// EmailChangeClaims is the payload of the stateless email-change token. The
// target address travels inside the token itself, tamper-evident under the
// HMAC signature, instead of in a database column.
type EmailChangeClaims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// EmailTokenSigner issues and verifies signed email-change tokens.
type EmailTokenSigner struct {
	secret []byte
}

// NewEmailTokenSigner creates a signer over the shared HMAC secret.
func NewEmailTokenSigner(secret string) *EmailTokenSigner {
	return &EmailTokenSigner{secret: []byte(secret)}
}

// Sign creates a token carrying the target email address.
func (s *EmailTokenSigner) Sign(email string, expiresAt time.Time) (string, error) {
	claims := &EmailChangeClaims{
		Email: email,
		Type:  string(domain.TokenTypeChangeEmail),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign email change token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, checking the signature and the
// embedded type discriminator.
func (s *EmailTokenSigner) Verify(tokenString string) (*EmailChangeClaims, error) {
	claims := &EmailChangeClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse email change token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid email change token")
	}
	if claims.Type != string(domain.TokenTypeChangeEmail) {
		return nil, fmt.Errorf("unexpected token type %q", claims.Type)
	}

	return claims, nil
}
