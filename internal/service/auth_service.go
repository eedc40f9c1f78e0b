package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/saas-starter/auth-service/internal/apperr"
	"github.com/saas-starter/auth-service/internal/domain"
	"github.com/saas-starter/auth-service/internal/repository"
	"github.com/saas-starter/auth-service/internal/utils"
)

// AuthOptions carries the policy knobs of the auth flows.
type AuthOptions struct {
	// ClientURL is the browser-facing application origin; redirect-style
	// failures and the reset-password link point here.
	ClientURL string
	// APIURL is this service's public origin; confirmation links point here.
	APIURL string
	// MailFrom is the sender address for all outbound mail.
	MailFrom string

	BCryptCost           int
	SessionTTL           time.Duration
	ConfirmationTokenTTL time.Duration
	EmailChangeTokenTTL  time.Duration
	ResetTokenTTL        time.Duration
}

// authService implements AuthService.
type authService struct {
	db     *repository.Database
	mailer Mailer
	signer *utils.EmailTokenSigner
	opts   AuthOptions
}

// NewAuthService creates the auth service.
func NewAuthService(db *repository.Database, mailer Mailer, signer *utils.EmailTokenSigner, opts AuthOptions) AuthService {
	return &authService{
		db:     db,
		mailer: mailer,
		signer: signer,
		opts:   opts,
	}
}

func incorrectCredentials() *apperr.Error {
	// Identical error for unknown email and wrong password, so the endpoint
	// cannot be used to enumerate accounts.
	return apperr.Conflict(apperr.CodeIncorrectCredentials, "incorrect email address or password")
}

// SignIn authenticates by email and password and opens a session. Email
// confirmation is not required here; only the strict middleware variant
// enforces it.
func (s *authService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var session *domain.Session

	err := s.db.Transaction(ctx, func(tx *repository.Database) error {
		user, err := tx.Users.FindFirst(ctx, repository.ByEmail(email))
		if err != nil {
			return err
		}
		if user == nil {
			return incorrectCredentials()
		}

		stored, err := tx.Passwords.ForUser(user.ID).FindFirst(ctx, repository.FindOptions{})
		if err != nil {
			return err
		}
		if stored == nil {
			return fmt.Errorf("user %s has no password", user.ID)
		}

		if !utils.CheckPasswordHash(password, stored.Password) {
			return incorrectCredentials()
		}

		session, err = s.createSession(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SignUp registers a new unconfirmed user and emails a confirmation link.
func (s *authService) SignUp(ctx context.Context, email, password string) error {
	if !utils.ValidatePassword(password) {
		return apperr.New(400, "invalid-password", "password length out of range")
	}

	return s.db.Transaction(ctx, func(tx *repository.Database) error {
		existing, err := tx.Users.FindFirst(ctx, repository.ByEmail(email))
		if err != nil {
			return err
		}
		if existing != nil {
			return emailInUse()
		}

		user, err := tx.Users.CreateFirst(ctx, domain.UserInsert{Email: email})
		if err != nil {
			// Two concurrent sign-ups can both pass the lookup above; the
			// unique constraint decides the race and the loser lands here.
			if errors.Is(err, repository.ErrDuplicate) {
				return emailInUse()
			}
			return err
		}

		hashed, err := utils.HashPassword(password, s.opts.BCryptCost)
		if err != nil {
			return err
		}
		if _, err := tx.Passwords.ForUser(user.ID).CreateFirst(ctx, domain.PasswordInsert{Password: hashed}); err != nil {
			return err
		}

		if err := tx.Tokens.ForUser(user.ID).Remove(ctx, repository.ByType(domain.TokenTypeEmailConfirmation)); err != nil {
			return err
		}
		return s.sendEmailConfirmation(ctx, tx, *user)
	})
}

// ConfirmEmail consumes an email-confirmation token, marks the user
// confirmed and opens a session. Failures redirect to the client error page.
func (s *authService) ConfirmEmail(ctx context.Context, tokenValue string) (*domain.Session, error) {
	var session *domain.Session

	err := s.db.Transaction(ctx, func(tx *repository.Database) error {
		token, err := tx.Tokens.FindFirst(ctx, repository.FindOptions{
			Where: repository.Eq(repository.TokenFields.Token, tokenValue),
		})
		if err != nil {
			return err
		}
		if token == nil || token.Type != domain.TokenTypeEmailConfirmation {
			return apperr.ClientRedirect(s.opts.ClientURL, apperr.CodeInvalidConfirmationURL)
		}
		if token.Expired(time.Now()) {
			return apperr.ClientRedirect(s.opts.ClientURL, apperr.CodeConfirmationURLExpired)
		}

		user, err := tx.Users.FindFirstOrThrow(ctx, repository.FindOptions{
			Where: repository.IDIn(token.UserID),
		})
		if err != nil {
			return err
		}

		// Confirmation and token consumption commit or roll back together.
		repository.MarkConfirmed(user, time.Now())
		if err := repository.Save(ctx, tx.Users.Repo, *user); err != nil {
			return err
		}
		if err := repository.Remove(ctx, tx.Tokens.Repo, token.ID); err != nil {
			return err
		}

		session, err = s.createSession(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// RequestPasswordReset issues a reset token and emails the reset link. An
// unknown email succeeds silently so the endpoint cannot be used to probe
// for accounts.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.db.Transaction(ctx, func(tx *repository.Database) error {
		user, err := tx.Users.FindFirst(ctx, repository.ByEmail(email))
		if err != nil {
			return err
		}
		if user == nil {
			return nil
		}

		tokens := tx.Tokens.ForUser(user.ID)
		if err := tokens.Remove(ctx, repository.ByType(domain.TokenTypeRequestPasswordReset)); err != nil {
			return err
		}

		token, err := tokens.CreateFirst(ctx, domain.TokenInsert{
			Type:      domain.TokenTypeRequestPasswordReset,
			Token:     uuid.NewString(),
			ExpiresAt: time.Now().Add(s.opts.ResetTokenTTL),
		})
		if err != nil {
			return err
		}

		link := s.opts.ClientURL + "/reset-password?token=" + url.QueryEscape(token.Token)
		return s.mailer.SendMail(ctx, Mail{
			From:    s.opts.MailFrom,
			To:      []string{user.Email},
			Subject: "Reset password",
			HTML:    anchor(link, "Reset password"),
		})
	})
}

// ResetPassword consumes a reset token, replaces the user's password and
// opens a session. The old password rows are deleted, not updated, so the
// one-active-password invariant holds.
func (s *authService) ResetPassword(ctx context.Context, tokenValue, password string) (*domain.Session, error) {
	var session *domain.Session

	err := s.db.Transaction(ctx, func(tx *repository.Database) error {
		token, err := tx.Tokens.FindFirstOrThrow(ctx, repository.FindOptions{
			Where: repository.Eq(repository.TokenFields.Token, tokenValue),
		})
		if err != nil {
			return err
		}
		if token.Type != domain.TokenTypeRequestPasswordReset {
			return apperr.Conflict(apperr.CodeInvalidToken, "invalid token")
		}
		if token.Expired(time.Now()) {
			return apperr.Conflict(apperr.CodeURLExpired, "url expired")
		}

		passwords := tx.Passwords.ForUser(token.UserID)
		if err := passwords.Remove(ctx, repository.FindOptions{}); err != nil {
			return err
		}

		hashed, err := utils.HashPassword(password, s.opts.BCryptCost)
		if err != nil {
			return err
		}
		if _, err := passwords.CreateFirst(ctx, domain.PasswordInsert{Password: hashed}); err != nil {
			return err
		}

		if err := repository.Remove(ctx, tx.Tokens.Repo, token.ID); err != nil {
			return err
		}

		session, err = s.createSession(ctx, tx, token.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetAuthUser resolves a session token to a live session+user pair. It is
// the single trust boundary for every authenticated endpoint: absent and
// expired sessions are indistinguishable to the caller.
func (s *authService) GetAuthUser(ctx context.Context, sessionToken string) (*Auth, error) {
	var auth *Auth

	err := s.db.Transaction(ctx, func(tx *repository.Database) error {
		session, err := tx.Sessions.FindFirst(ctx, repository.FindOptions{
			Where: repository.Eq(repository.SessionFields.Session, sessionToken),
		})
		if err != nil {
			return err
		}
		if session == nil || session.Expired(time.Now()) {
			return apperr.Unauthorized()
		}

		user, err := tx.Users.FindFirstOrThrow(ctx, repository.FindOptions{
			Where: repository.IDIn(session.UserID),
		})
		if err != nil {
			return err
		}

		auth = &Auth{User: *user, Session: *session}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// RequestEmailChange issues a signed stateless token carrying the target
// address and emails the confirmation link to that address.
func (s *authService) RequestEmailChange(ctx context.Context, user domain.User, newEmail string) error {
	return s.db.Transaction(ctx, func(tx *repository.Database) error {
		existing, err := tx.Users.FindFirst(ctx, repository.ByEmail(newEmail))
		if err != nil {
			return err
		}
		if existing != nil {
			return emailInUse()
		}

		expiresAt := time.Now().Add(s.opts.EmailChangeTokenTTL)
		signed, err := s.signer.Sign(newEmail, expiresAt)
		if err != nil {
			return err
		}

		tokens := tx.Tokens.ForUser(user.ID)
		if err := tokens.Remove(ctx, repository.ByType(domain.TokenTypeChangeEmail)); err != nil {
			return err
		}
		if _, err := tokens.CreateFirst(ctx, domain.TokenInsert{
			Type:      domain.TokenTypeChangeEmail,
			Token:     signed,
			ExpiresAt: expiresAt,
		}); err != nil {
			return err
		}

		link := s.opts.APIURL + "/api/auth/confirm-email-change?token=" + url.QueryEscape(signed)
		return s.mailer.SendMail(ctx, Mail{
			From:    s.opts.MailFrom,
			To:      []string{newEmail},
			Subject: "Change email address request confirmation",
			HTML:    anchor(link, "Confirm changing email address"),
		})
	})
}

// ConfirmEmailChange consumes a change-email token: the stored row must
// exist and be unexpired, the signature must verify, and the target address
// is re-checked against a concurrent taker before the swap. The token row is
// deleted in every successful branch.
func (s *authService) ConfirmEmailChange(ctx context.Context, tokenValue string) error {
	return s.db.Transaction(ctx, func(tx *repository.Database) error {
		token, err := tx.Tokens.FindFirst(ctx, repository.FindOptions{
			Where: repository.Eq(repository.TokenFields.Token, tokenValue),
		})
		if err != nil {
			return err
		}
		if token == nil || token.Type != domain.TokenTypeChangeEmail {
			return apperr.ClientRedirect(s.opts.ClientURL, apperr.CodeInvalidEmailChangeURL)
		}
		if token.Expired(time.Now()) {
			return apperr.ClientRedirect(s.opts.ClientURL, apperr.CodeEmailChangeURLExpired)
		}

		claims, err := s.signer.Verify(token.Token)
		if err != nil {
			return apperr.ClientRedirect(s.opts.ClientURL, apperr.CodeInvalidEmailChangeURL)
		}

		owner, err := tx.Users.FindFirstOrThrow(ctx, repository.FindOptions{
			Where: repository.IDIn(token.UserID),
		})
		if err != nil {
			return err
		}

		taker, err := tx.Users.FindFirst(ctx, repository.ByEmail(claims.Email))
		if err != nil {
			return err
		}
		if taker != nil && taker.ID != owner.ID {
			return apperr.ClientRedirect(s.opts.ClientURL, apperr.CodeEmailChangeAlreadyInUse)
		}

		if taker == nil {
			owner.Email = claims.Email
			if err := repository.Save(ctx, tx.Users.Repo, *owner); err != nil {
				return err
			}
		}

		return repository.Remove(ctx, tx.Tokens.Repo, token.ID)
	})
}

// ChangePassword verifies the current password and overwrites the stored
// hash in place.
func (s *authService) ChangePassword(ctx context.Context, user domain.User, oldPassword, newPassword string) error {
	if !utils.ValidatePassword(newPassword) {
		return apperr.New(400, "invalid-password", "password length out of range")
	}

	return s.db.Transaction(ctx, func(tx *repository.Database) error {
		passwords := tx.Passwords.ForUser(user.ID)

		stored, err := passwords.FindFirstOrThrow(ctx, repository.FindOptions{})
		if err != nil {
			return err
		}
		if !utils.CheckPasswordHash(oldPassword, stored.Password) {
			return apperr.Conflict(apperr.CodePasswordIncorrect, "the password is not correct")
		}

		hashed, err := utils.HashPassword(newPassword, s.opts.BCryptCost)
		if err != nil {
			return err
		}
		stored.Password = hashed
		return repository.Save(ctx, passwords.Repo, *stored)
	})
}

// ResendConfirmationEmail reissues the confirmation token. Already-confirmed
// users are a deliberate no-op.
func (s *authService) ResendConfirmationEmail(ctx context.Context, user domain.User) error {
	if user.Confirmed() {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *repository.Database) error {
		if err := tx.Tokens.ForUser(user.ID).Remove(ctx, repository.ByType(domain.TokenTypeEmailConfirmation)); err != nil {
			return err
		}
		return s.sendEmailConfirmation(ctx, tx, user)
	})
}

// SignOut deletes the session row. The cookie is cleared by the handler.
func (s *authService) SignOut(ctx context.Context, session domain.Session) error {
	return s.db.Transaction(ctx, func(tx *repository.Database) error {
		return repository.Remove(ctx, tx.Sessions.ForUser(session.UserID).Repo, session.ID)
	})
}

func (s *authService) createSession(ctx context.Context, tx *repository.Database, userID string) (*domain.Session, error) {
	return tx.Sessions.ForUser(userID).CreateFirst(ctx, domain.SessionInsert{
		Session:   uuid.NewString(),
		ExpiresAt: time.Now().Add(s.opts.SessionTTL),
	})
}

func (s *authService) sendEmailConfirmation(ctx context.Context, tx *repository.Database, user domain.User) error {
	token, err := tx.Tokens.ForUser(user.ID).CreateFirst(ctx, domain.TokenInsert{
		Type:      domain.TokenTypeEmailConfirmation,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.opts.ConfirmationTokenTTL),
	})
	if err != nil {
		return err
	}

	link := s.opts.APIURL + "/api/auth/confirm-email-address?token=" + url.QueryEscape(token.Token)
	return s.mailer.SendMail(ctx, Mail{
		From:    s.opts.MailFrom,
		To:      []string{user.Email},
		Subject: "Email confirmation",
		HTML:    anchor(link, "Confirm email"),
	})
}

func emailInUse() *apperr.Error {
	return apperr.Conflict(apperr.CodeEmailAddressInUse, "a user with this email address already exists")
}

func anchor(href, label string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, href, label)
}
