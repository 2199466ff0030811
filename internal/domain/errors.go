package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrRateLimited   = errors.New("rate limited")
	ErrRejected      = errors.New("rejected by backend")
	ErrTransport     = errors.New("backend unreachable")
	ErrForbiddenRole = errors.New("role is not allowed to administer")
	ErrInvalidInput  = errors.New("invalid input")
	ErrStaleResponse = errors.New("response superseded by a newer request")
)
