package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saas-starter/auth-service/internal/apperr"
	"github.com/saas-starter/auth-service/internal/domain"
	"github.com/saas-starter/auth-service/internal/dto"
	"github.com/saas-starter/auth-service/internal/service"
)

// AuthHandlerOptions configures cookie issuance and post-verification
// redirects.
type AuthHandlerOptions struct {
	CookieName string
	ClientURL  string
	SessionTTL time.Duration
	Production bool
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
	opts        AuthHandlerOptions
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, opts AuthHandlerOptions, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		opts:        opts,
		logger:      logger,
	}
}

// SignIn handles credential sign-in
// @Summary Sign in
// @Description Authenticate with email and password and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignInRequest true "Sign-in request"
// @Success 200
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.validationError(c, err)
		return
	}

	session, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, session)
	c.Status(http.StatusOK)
}

// SignUp handles account creation
// @Summary Sign up
// @Description Create an account and send an email confirmation link
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignUpRequest true "Sign-up request"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/sign-up [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.validationError(c, err)
		return
	}

	if err := h.authService.SignUp(c.Request.Context(), req.Email, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ConfirmEmailAddress consumes an email-confirmation link. Both outcomes
// are redirects: success lands on the client root with a fresh session
// cookie, failure on the client error page.
// @Summary Confirm email address
// @Tags auth
// @Param token query string true "Confirmation token"
// @Success 302
// @Router /auth/confirm-email-address [get]
func (h *AuthHandler) ConfirmEmailAddress(c *gin.Context) {
	token := c.Query("token")

	session, err := h.authService.ConfirmEmail(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, session)
	c.Redirect(http.StatusFound, h.opts.ClientURL)
}

// RequestPasswordReset sends a reset link. The response is 204 whether or
// not the address is known, so it cannot be used to probe for accounts.
// @Summary Request a password reset
// @Tags auth
// @Accept json
// @Param request body dto.RequestPasswordResetRequest true "Reset request"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/request-password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.RequestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.validationError(c, err)
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ResetPassword consumes a reset token and replaces the password
// @Summary Reset password
// @Tags auth
// @Accept json
// @Param token query string true "Reset token"
// @Param request body dto.ResetPasswordRequest true "New password"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.validationError(c, err)
		return
	}

	session, err := h.authService.ResetPassword(c.Request.Context(), c.Query("token"), req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, session)
	c.Status(http.StatusNoContent)
}

// GetUser returns the authenticated user
// @Summary Get current user
// @Tags auth
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/user [get]
func (h *AuthHandler) GetUser(c *gin.Context) {
	auth, ok := GetAuth(c)
	if !ok {
		respondError(c, h.logger, apperr.Unauthorized())
		return
	}

	c.JSON(http.StatusOK, userResponse(auth.User))
}

// ResendConfirmationEmail re-sends the confirmation link to the signed-in
// user. Already-confirmed users get a silent 204.
// @Summary Resend confirmation email
// @Tags auth
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/resend-email-confirmation [post]
func (h *AuthHandler) ResendConfirmationEmail(c *gin.Context) {
	auth, ok := GetAuth(c)
	if !ok {
		respondError(c, h.logger, apperr.Unauthorized())
		return
	}

	if err := h.authService.ResendConfirmationEmail(c.Request.Context(), auth.User); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RequestEmailChange sends a verification link to the requested address
// @Summary Request an email change
// @Tags auth
// @Accept json
// @Param request body dto.ChangeEmailRequest true "New address"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/request-email-change [post]
func (h *AuthHandler) RequestEmailChange(c *gin.Context) {
	auth, ok := GetAuth(c)
	if !ok {
		respondError(c, h.logger, apperr.Unauthorized())
		return
	}

	var req dto.ChangeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.validationError(c, err)
		return
	}

	if err := h.authService.RequestEmailChange(c.Request.Context(), auth.User, req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ConfirmEmailChange consumes an email-change link. Like email
// confirmation, every outcome is a redirect back to the client.
// @Summary Confirm an email change
// @Tags auth
// @Param token query string true "Email-change token"
// @Success 302
// @Router /auth/confirm-email-change [get]
func (h *AuthHandler) ConfirmEmailChange(c *gin.Context) {
	token := c.Query("token")

	if err := h.authService.ConfirmEmailChange(c.Request.Context(), token); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Redirect(http.StatusFound, h.opts.ClientURL)
}

// ChangePassword replaces the password after re-checking the current one
// @Summary Change password
// @Tags auth
// @Accept json
// @Param request body dto.ChangePasswordRequest true "Password change"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	auth, ok := GetAuth(c)
	if !ok {
		respondError(c, h.logger, apperr.Unauthorized())
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.validationError(c, err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), auth.User, req.Password, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SignOut removes the session and clears the cookie
// @Summary Sign out
// @Tags auth
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/sign-out [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	auth, ok := GetAuth(c)
	if !ok {
		respondError(c, h.logger, apperr.Unauthorized())
		return
	}

	if err := h.authService.SignOut(c.Request.Context(), auth.Session); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, session *domain.Session) {
	h.applyCookieMode(c)
	c.SetCookie(h.opts.CookieName, session.Session, int(h.opts.SessionTTL.Seconds()), "/", "", h.opts.Production, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	h.applyCookieMode(c)
	c.SetCookie(h.opts.CookieName, "", -1, "/", "", h.opts.Production, true)
}

// applyCookieMode pins SameSite before SetCookie writes the header: Strict
// in production, Lax otherwise so the confirmation redirect still carries
// the cookie during local development.
func (h *AuthHandler) applyCookieMode(c *gin.Context) {
	if h.opts.Production {
		c.SetSameSite(http.SameSiteStrictMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
}

func (h *AuthHandler) validationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Code:       "validation-failed",
		Message:    err.Error(),
		StatusCode: http.StatusBadRequest,
	})
}

func userResponse(u domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		ConfirmedAt: u.ConfirmedAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
