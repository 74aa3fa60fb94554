package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidKind = errors.New("invalid kind")
	ErrNoAtomic    = errors.New("no atomic notes given")
)
