package domain

import "errors"

// User-facing auth errors. The messages are shown verbatim by the form UI,
// so missing-user and wrong-password must share the exact same error.
var (
	ErrInvalidCredentials = errors.New("Incorrect email or password")
	ErrEmailTaken         = errors.New("Email already used")
	ErrOAuthOnlyAccount   = errors.New("Account registered from oauth. Sign in with third-party app")
	ErrUnauthorized       = errors.New("Unauthorized")
)

// ValidationError reports the first violated rule for a form input,
// keyed by the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
