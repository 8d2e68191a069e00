package publisher

import "errors"

// Sentinel kinds for publisher errors.
var (
	ErrNotConnected = errors.New("publisher not connected")
	ErrPublish      = errors.New("publish failed")
)
