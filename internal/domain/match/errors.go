package match

import "errors"

// Sentinel kinds for match errors. Every failure returned by this package
// wraps exactly one of them.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
)
