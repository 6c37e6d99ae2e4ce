package auth

import "errors"

// Token verification failures. They never leave the authentication middleware.
var (
	ErrMalformedToken    = errors.New("malformed token")
	ErrSignatureMismatch = errors.New("token signature mismatch")
	ErrExpired           = errors.New("token expired")
)
