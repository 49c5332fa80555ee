package identity

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidToken is returned for malformed, forged or wrong-type tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a well-formed token is past its expiry.
	ErrExpiredToken = errors.New("token has expired")

	// ErrTokenRevoked is returned for tokens invalidated by sign-out or rotation.
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrInvalidResetToken is returned for unknown or already used reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")

	// ErrAccountNotFound is returned when a token refers to a deleted account.
	ErrAccountNotFound = errors.New("account not found")
)
