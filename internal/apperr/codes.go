package apperr

// Stable error codes exposed to clients.
const (
	CodeUnauthorized         = "unauthorized"
	CodeInternalServerError  = "internal-server-error"
	CodeEmailAddressInUse    = "email-address-in-use"
	CodePasswordIncorrect    = "password-incorrect"
	CodeIncorrectCredentials = "incorrect-email-address-or-password"

	CodeInvalidToken = "invalid-token"
	CodeURLExpired   = "url-expired"

	CodeInvalidConfirmationURL    = "invalid-confirmation-url"
	CodeConfirmationURLExpired    = "confirmation-url-expired"
	CodeRequiredEmailConfirmation = "required-email-confirmation"

	CodeInvalidEmailChangeURL   = "invalid-email-change-url"
	CodeEmailChangeURLExpired   = "email-change-url-expired"
	CodeEmailChangeAlreadyInUse = "email-change-already-in-use"
)
