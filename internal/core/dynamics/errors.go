package dynamics

import "errors"

// Engine errors
var (
	ErrInvalidConfig = errors.New("invalid drone engine configuration")
	ErrShapeMismatch = errors.New("action shape mismatch")
	ErrClosed        = errors.New("drone engine is closed")
)
