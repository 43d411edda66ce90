package findings

import "errors"

var (
	ErrNotFound        = errors.New("finding not found")
	ErrAlreadyResolved = errors.New("feedback already recorded")
	ErrInvalidInput    = errors.New("invalid input")
)
