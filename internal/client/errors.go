package client

import (
	"errors"
	"fmt"
)

// Sentinel kinds for client errors.
var (
	ErrTransport     = errors.New("request failed")
	ErrDecode        = errors.New("decode response failed")
	ErrUnknownFilter = errors.New("unknown category filter")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}
