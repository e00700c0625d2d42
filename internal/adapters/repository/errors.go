package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("match not found")
	ErrDuplicate    = errors.New("match already exists")
	ErrInvalidLimit = errors.New("invalid list limit")
)
