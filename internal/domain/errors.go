package domain

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid planning configuration")
	ErrNotFound           = errors.New("not found")
	ErrAllocationMismatch = errors.New("allocation does not match produced quantity")
	ErrEmptySelection     = errors.New("empty selection")
	ErrAlreadyCommitted   = errors.New("allocation already committed")
)
