package user

import "errors"

var (
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrActorRequired           = errors.New("authenticated actor is required")
	ErrInvalidRole             = errors.New("invalid role")
)
