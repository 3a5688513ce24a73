package store

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrEmptyKey    = errors.New("key must not be empty")
	ErrNilValue    = errors.New("value must not be nil")
	ErrInvalidPage = errors.New("invalid page parameters")
)
