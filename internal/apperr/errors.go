package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalid     = errors.New("invalid argument")
	ErrNoToken     = errors.New("no access token configured")
	ErrRateLimited = errors.New("rate limited")
	ErrRemote      = errors.New("remote catalog error")
)
