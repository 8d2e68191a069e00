package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound    = errors.New("event not found")
	ErrDuplicateID = errors.New("duplicate event id")
)
