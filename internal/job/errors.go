package job

import "errors"

var (
	ErrDuplicateID       = errors.New("job: duplicate id")
	ErrNotFound          = errors.New("job: not found")
	ErrInvalidTransition = errors.New("job: invalid status transition")
)
