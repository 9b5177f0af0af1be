package services

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrIncorrectAnswer    = errors.New("wrong answer to security question")
	ErrNoHint             = errors.New("no hint found for that username (or user doesn't exist)")
	ErrNoMatchingAccount  = errors.New("no matching account found")

	ErrInvalidSession = errors.New("invalid session")
	ErrSessionExpired = errors.New("session expired due to inactivity")
)

// ValidationError carries every rule a request broke. It is user-correctable
// and never logged as a failure.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func invalid(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}
