package auth

import (
	"ScanCheckout/pkg/response"
	"net/http"
)

var (
	ErrInvalidCredentials = response.NewError(http.StatusUnauthorized, "terminal id or secret is wrong")
	ErrTerminalNotFound   = response.NewError(http.StatusNotFound, "terminal not found")
	ErrTerminalInactive   = response.NewError(http.StatusForbidden, "terminal is disabled")
	ErrTerminalExists     = response.NewError(http.StatusConflict, "terminal already exists")
	ErrRegistrationClosed = response.NewError(http.StatusForbidden, "terminal registration is disabled")
	ErrInvalidAdminKey    = response.NewError(http.StatusUnauthorized, "invalid admin key")
	ErrFailedToIssueToken = response.NewError(http.StatusInternalServerError, "failed to issue token")
	ErrFailedToHashSecret = response.NewError(http.StatusInternalServerError, "failed to hash secret")
)
