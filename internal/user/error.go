package user

import "errors"

const PgUniqueViolation = "23505"

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrNameRequired       = errors.New("first and last name are required")
)
