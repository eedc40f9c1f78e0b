package acceptance

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/saas-starter/auth-service/internal/dto"
)

func (s *Suite) postJSON(path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.BaseURL+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) signUp(email, password string) {
	resp := s.postJSON("/api/auth/sign-up", dto.SignUpRequest{Email: email, Password: password})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)
}

func (s *Suite) signIn(email, password string) *http.Cookie {
	resp := s.postJSON("/api/auth/sign-in", dto.SignInRequest{Email: email, Password: password})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	return s.sessionCookie(resp)
}

func (s *Suite) sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	s.T().Fatal("no session cookie in response")
	return nil
}

func (s *Suite) storedToken(email, tokenType string) string {
	var token string
	err := s.Postgres.DB.QueryRow(
		`SELECT t.token FROM tokens t JOIN users u ON u.id = t.user_id WHERE u.email = $1 AND t.type = $2`,
		email, tokenType,
	).Scan(&token)
	s.Require().NoError(err)
	return token
}

func (s *Suite) TestSignUpAndSignIn() {
	s.signUp("alice@example.com", "password123")

	cookie := s.signIn("alice@example.com", "password123")
	s.NotEmpty(cookie.Value)
	s.True(cookie.HttpOnly)
}

func (s *Suite) TestSignUp_DuplicateEmail() {
	s.signUp("bob@example.com", "password123")

	resp := s.postJSON("/api/auth/sign-up", dto.SignUpRequest{Email: "bob@example.com", Password: "password123"})
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("email-address-in-use", errResp.Code)
}

func (s *Suite) TestSignIn_WrongPasswordAndUnknownEmailLookAlike() {
	s.signUp("carol@example.com", "password123")

	wrongResp := s.postJSON("/api/auth/sign-in", dto.SignInRequest{Email: "carol@example.com", Password: "wrongpassword"})
	defer wrongResp.Body.Close()
	unknownResp := s.postJSON("/api/auth/sign-in", dto.SignInRequest{Email: "ghost@example.com", Password: "password123"})
	defer unknownResp.Body.Close()

	s.Equal(wrongResp.StatusCode, unknownResp.StatusCode)

	var wrongErr, unknownErr dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(wrongResp.Body).Decode(&wrongErr))
	s.Require().NoError(json.NewDecoder(unknownResp.Body).Decode(&unknownErr))
	s.Equal(wrongErr, unknownErr)
	s.Equal("incorrect-email-address-or-password", wrongErr.Code)
}

func (s *Suite) TestGetUser_WithSessionCookie() {
	s.signUp("dave@example.com", "password123")
	cookie := s.signIn("dave@example.com", "password123")

	req, err := http.NewRequest(http.MethodGet, s.BaseURL+"/api/auth/user", nil)
	s.Require().NoError(err)
	req.AddCookie(cookie)

	resp, err := s.Client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var user dto.UserResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&user))
	s.Equal("dave@example.com", user.Email)
	s.Nil(user.ConfirmedAt)
}

func (s *Suite) TestGetUser_WithoutSession() {
	resp, err := s.Client.Get(s.BaseURL + "/api/auth/user")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestConfirmEmailAddress() {
	s.signUp("erin@example.com", "password123")
	token := s.storedToken("erin@example.com", "email-confirmation")

	resp, err := s.Client.Get(s.BaseURL + "/api/auth/confirm-email-address?token=" + url.QueryEscape(token))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusFound, resp.StatusCode)
	s.Equal("http://localhost:3000", resp.Header.Get("Location"))
	s.NotEmpty(s.sessionCookie(resp).Value)

	// The link is single use.
	again, err := s.Client.Get(s.BaseURL + "/api/auth/confirm-email-address?token=" + url.QueryEscape(token))
	s.Require().NoError(err)
	defer again.Body.Close()

	s.Equal(http.StatusFound, again.StatusCode)
	s.Equal("http://localhost:3000/error?error=invalid-confirmation-url", again.Header.Get("Location"))
}

func (s *Suite) TestRequestPasswordReset_UnknownEmailIsSilent() {
	resp := s.postJSON("/api/auth/request-password-reset", dto.RequestPasswordResetRequest{Email: "nobody@example.com"})
	defer resp.Body.Close()

	s.Equal(http.StatusNoContent, resp.StatusCode)
}

func (s *Suite) TestResetPassword_EndToEnd() {
	s.signUp("frank@example.com", "password123")

	resp := s.postJSON("/api/auth/request-password-reset", dto.RequestPasswordResetRequest{Email: "frank@example.com"})
	resp.Body.Close()
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	token := s.storedToken("frank@example.com", "request-password-reset")

	resetResp := s.postJSON("/api/auth/reset-password?token="+url.QueryEscape(token), dto.ResetPasswordRequest{Password: "newpassword1"})
	defer resetResp.Body.Close()
	s.Require().Equal(http.StatusNoContent, resetResp.StatusCode)
	s.NotEmpty(s.sessionCookie(resetResp).Value)

	// The old password is gone, the new one works.
	oldResp := s.postJSON("/api/auth/sign-in", dto.SignInRequest{Email: "frank@example.com", Password: "password123"})
	oldResp.Body.Close()
	s.Equal(http.StatusConflict, oldResp.StatusCode)

	s.signIn("frank@example.com", "newpassword1")

	// The token was consumed.
	reuse := s.postJSON("/api/auth/reset-password?token="+url.QueryEscape(token), dto.ResetPasswordRequest{Password: "anotherpass1"})
	defer reuse.Body.Close()
	s.Equal(http.StatusNotFound, reuse.StatusCode)
}

func (s *Suite) TestSignOut() {
	s.signUp("grace@example.com", "password123")
	cookie := s.signIn("grace@example.com", "password123")

	req, err := http.NewRequest(http.MethodPost, s.BaseURL+"/api/auth/sign-out", nil)
	s.Require().NoError(err)
	req.AddCookie(cookie)

	resp, err := s.Client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	// The session is dead server-side, not just in the browser.
	probe, err := http.NewRequest(http.MethodGet, s.BaseURL+"/api/auth/user", nil)
	s.Require().NoError(err)
	probe.AddCookie(cookie)

	probeResp, err := s.Client.Do(probe)
	s.Require().NoError(err)
	defer probeResp.Body.Close()
	s.Equal(http.StatusUnauthorized, probeResp.StatusCode)
}

func (s *Suite) TestChangePassword_RequiresConfirmedEmail() {
	s.signUp("henry@example.com", "password123")
	cookie := s.signIn("henry@example.com", "password123")

	payload, err := json.Marshal(dto.ChangePasswordRequest{Password: "password123", NewPassword: "newpassword1"})
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.BaseURL+"/api/auth/change-password", bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	resp, err := s.Client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&errResp))
	s.Equal("required-email-confirmation", errResp.Code)
}
