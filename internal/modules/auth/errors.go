package auth

import "errors"

var (
	errMissingIdentifier = errors.New("handle or email is required")
	errPasswordMismatch  = errors.New("new password and confirmation do not match")
)
