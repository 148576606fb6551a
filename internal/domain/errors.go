package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidPayload     = errors.New("invalid request payload")
	ErrProviderFailure    = errors.New("provider failure")
	ErrDuplicateOperation = errors.New("duplicate operation")
)
