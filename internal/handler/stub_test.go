package handler

import (
	"context"

	"github.com/saas-starter/auth-service/internal/domain"
	"github.com/saas-starter/auth-service/internal/service"
)

// authServiceStub scripts the auth service per test. Unset methods panic via
// the nil embedded interface, which surfaces unexpected calls immediately.
type authServiceStub struct {
	service.AuthService

	signIn               func(ctx context.Context, email, password string) (*domain.Session, error)
	signUp               func(ctx context.Context, email, password string) error
	confirmEmail         func(ctx context.Context, token string) (*domain.Session, error)
	requestPasswordReset func(ctx context.Context, email string) error
	resetPassword        func(ctx context.Context, token, password string) (*domain.Session, error)
	getAuthUser          func(ctx context.Context, sessionToken string) (*service.Auth, error)
	confirmEmailChange   func(ctx context.Context, token string) error
	signOut              func(ctx context.Context, session domain.Session) error
}

func (s *authServiceStub) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	return s.signIn(ctx, email, password)
}

func (s *authServiceStub) SignUp(ctx context.Context, email, password string) error {
	return s.signUp(ctx, email, password)
}

func (s *authServiceStub) ConfirmEmail(ctx context.Context, token string) (*domain.Session, error) {
	return s.confirmEmail(ctx, token)
}

func (s *authServiceStub) RequestPasswordReset(ctx context.Context, email string) error {
	return s.requestPasswordReset(ctx, email)
}

func (s *authServiceStub) ResetPassword(ctx context.Context, token, password string) (*domain.Session, error) {
	return s.resetPassword(ctx, token, password)
}

func (s *authServiceStub) GetAuthUser(ctx context.Context, sessionToken string) (*service.Auth, error) {
	return s.getAuthUser(ctx, sessionToken)
}

func (s *authServiceStub) ConfirmEmailChange(ctx context.Context, token string) error {
	return s.confirmEmailChange(ctx, token)
}

func (s *authServiceStub) SignOut(ctx context.Context, session domain.Session) error {
	return s.signOut(ctx, session)
}
