package util

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrSessionNotFound = errors.New("Session not found")
	ErrUserNotFound    = errors.New("User not found")
	ErrEmailRegistered = errors.New("email already registered")
	ErrEmailImmutable  = errors.New("email cannot be changed")
	ErrConflict        = errors.New("session was modified concurrently")
	ErrSessionScored   = errors.New("session already scored")
)

// ValidationError 必填字段缺失或取值不合法
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func Required(field string) error {
	return &ValidationError{Field: field}
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
