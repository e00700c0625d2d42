package broadcast

import "errors"

// Sentinel kinds for broadcast errors.
var (
	ErrConnect = errors.New("broadcast connect failed")
	ErrPublish = errors.New("broadcast publish failed")
)
