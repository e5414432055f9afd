package auth

import "errors"

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("malformed email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrResetTokenInvalid  = errors.New("password reset token is invalid or expired")
)
