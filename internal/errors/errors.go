package errors

import (
	"errors"
	"fmt"
)

// Common error types for the DevInsights client
var (
	// Authentication errors
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidAuthResponse = errors.New("invalid response from authentication server")
	ErrCodeAlreadyUsed     = errors.New("authorization code already used")

	// Repository errors
	ErrInvalidRepoName    = errors.New("invalid repository name, expected owner/repo")
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrNoSelection        = errors.New("no repository selected")

	// State errors
	ErrStateCorrupt = errors.New("state file is corrupt")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
