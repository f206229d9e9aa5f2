package account

import "errors"

var (
	errAvatarRequired  = errors.New("avatar file is required")
	errNothingToUpdate = errors.New("displayName or email is required")
	errHandleTaken     = errors.New("handle is already registered")
	errEmailTaken      = errors.New("email is already registered")
)
