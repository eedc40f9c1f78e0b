package apperr

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("user")

	assert.Equal(t, "user-not-found", err.Code)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "user-not-found: user not found", err.Error())
}

func TestUnauthorized(t *testing.T) {
	err := Unauthorized()

	assert.Equal(t, CodeUnauthorized, err.Code)
	assert.Equal(t, http.StatusUnauthorized, err.StatusCode)
}

func TestConflict(t *testing.T) {
	err := Conflict(CodeEmailAddressInUse, "a user with this email address already exists")

	assert.Equal(t, http.StatusConflict, err.StatusCode)
	assert.Equal(t, CodeEmailAddressInUse, err.Code)
}

func TestClientRedirect(t *testing.T) {
	err := ClientRedirect("https://app.example.com", CodeInvalidConfirmationURL)

	assert.Equal(t, CodeInvalidConfirmationURL, err.Code)
	assert.Equal(t, "https://app.example.com/error?error=invalid-confirmation-url", err.RedirectURL)
}

func TestClientRedirect_EscapesCode(t *testing.T) {
	err := ClientRedirect("https://app.example.com", "weird code&x")

	assert.Equal(t, "https://app.example.com/error?error=weird+code%26x", err.RedirectURL)
}
