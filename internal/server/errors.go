package server

import "errors"

// Server-specific errors
var (
	ErrHubClosed      = errors.New("frame hub is closed")
	ErrListenerFailed = errors.New("failed to create listener")
)
