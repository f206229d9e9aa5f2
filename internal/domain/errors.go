package domain

import "errors"

// Error taxonomy shared by the session and account modules. Handlers map
// these to transport codes through response.FromError.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("account not found")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenReused     = errors.New("refresh token reused")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrServerFault     = errors.New("server fault")
)
