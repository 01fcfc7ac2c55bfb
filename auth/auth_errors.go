package auth

import (
	"errors"

	ierrors "github.com/jrsteele09/devinsights/internal/errors"
)

var (
	InvalidCodeErr         = errors.New("authorization code is required")
	InvalidAuthResponseErr = ierrors.ErrInvalidAuthResponse
	NotAuthenticatedErr    = ierrors.ErrNotAuthenticated
	TokenExpiredErr        = ierrors.ErrTokenExpired
	CodeAlreadyUsedErr     = ierrors.ErrCodeAlreadyUsed
)
