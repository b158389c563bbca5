package platform

import "errors"

// Generator errors
var (
	ErrInvalidConfig = errors.New("invalid platform configuration")
	ErrClosed        = errors.New("platform generator is closed")
)
