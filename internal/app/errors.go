package service

import (
	"errors"
	"strings"

	"github.com/okian/minisched/internal/adapters/repository"
)

// Sentinel kinds for event store errors. Callers match with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = repository.ErrNotFound
)

// ValidationError reports which required creation fields were missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": missing " + strings.Join(e.Fields, ", ")
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
