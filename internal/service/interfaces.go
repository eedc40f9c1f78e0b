package service

import (
	"context"

	"github.com/saas-starter/auth-service/internal/domain"
)

// Auth is the session+user pair resolved from a session token. It is the
// unit the session gate attaches to the request context.
type Auth struct {
	User    domain.User
	Session domain.Session
}

// AuthService orchestrates the credential, session and verification-token
// flows. Every multi-step operation runs inside one database transaction.
type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password string) error
	ConfirmEmail(ctx context.Context, token string) (*domain.Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) (*domain.Session, error)
	GetAuthUser(ctx context.Context, sessionToken string) (*Auth, error)
	RequestEmailChange(ctx context.Context, user domain.User, newEmail string) error
	ConfirmEmailChange(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, user domain.User, oldPassword, newPassword string) error
	ResendConfirmationEmail(ctx context.Context, user domain.User) error
	SignOut(ctx context.Context, session domain.Session) error
}
