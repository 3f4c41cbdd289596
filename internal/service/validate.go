package service

import (
	"net/mail"
	"strings"

	"github.com/lukewarren/dashboard-auth/internal/domain"
)

const minPasswordLength = 8

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type LoginInput struct {
	Email    string
	Password string
}

// Validate normalizes the input in place and returns the first violated
// rule as a field-keyed validation error.
func (in *SignupInput) Validate() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	if in.FirstName == "" {
		return &domain.ValidationError{Field: "firstName", Message: "First name is required"}
	}

	in.LastName = strings.TrimSpace(in.LastName)
	if in.LastName == "" {
		return &domain.ValidationError{Field: "lastName", Message: "Last name is required"}
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}
	in.Email = email

	if len(in.Password) < minPasswordLength {
		return &domain.ValidationError{Field: "password", Message: "Password must be at least 8 characters"}
	}

	return nil
}

func (in *LoginInput) Validate() error {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}
	in.Email = email

	if in.Password == "" {
		return &domain.ValidationError{Field: "password", Message: "Password is required"}
	}

	return nil
}

// normalizeEmail trims, lowercases, and verifies the address is a bare
// RFC 5322 address (no display name).
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", &domain.ValidationError{Field: "email", Message: "Email is required"}
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &domain.ValidationError{Field: "email", Message: "Invalid email address"}
	}

	return email, nil
}
