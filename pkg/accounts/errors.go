package accounts

import "errors"

var (
	// ErrUnauthenticated is returned when an operation needs a caller identity and none was resolved
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the caller is not currently an admin
	ErrForbidden = errors.New("admin access required")

	// ErrNotFound is returned when the target account does not exist
	ErrNotFound = errors.New("user not found")

	// ErrInvalidSelfDemotion is returned when an admin tries to remove their own admin status
	ErrInvalidSelfDemotion = errors.New("cannot remove your own administrator privileges")

	// ErrInvalidCredentials is returned for an unknown username or a wrong password
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidInput is returned when username or password is missing
	ErrInvalidInput = errors.New("username and password are required")

	// ErrPasswordTooLong is returned when a password exceeds what bcrypt can hash
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

	// ErrUsernameTaken is returned when registering a username that already exists
	ErrUsernameTaken = errors.New("username already taken")
)
