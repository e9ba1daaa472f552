package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingToken: no usable bearer credential on the request.
	ErrMissingToken = errors.New("auth: missing bearer token")
	// ErrInvalidToken: the credential is malformed or its signature does
	// not verify against the current secret.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrExpiredToken: the credential verified but its expiry has passed.
	// Kept distinct from ErrInvalidToken so callers can be told to
	// re-authenticate instead of being told the credential is garbage.
	ErrExpiredToken = errors.New("auth: token expired")
	// ErrIdentityNotFound: the token names an account that does not exist
	// or is disabled.
	ErrIdentityNotFound = errors.New("auth: account not found or disabled")
	// ErrUnauthenticated: no identity present where one is required.
	ErrUnauthenticated = errors.New("auth: authentication required")
	// ErrForbidden: the identity fails the route's capability check.
	ErrForbidden = errors.New("auth: insufficient permissions")

	// ErrNotFound is the store-level sentinel for missing rows.
	ErrNotFound = errors.New("auth: not found")
)

// ForbiddenError carries the roles that would have satisfied the failed
// check. It deliberately says nothing about why a self-or-privileged check
// failed beyond insufficient permissions.
type ForbiddenError struct {
	Satisfying []Role
}

func (e *ForbiddenError) Error() string {
	if len(e.Satisfying) == 0 {
		return "insufficient permissions"
	}
	names := make([]string, len(e.Satisfying))
	for i, r := range e.Satisfying {
		names[i] = string(r)
	}
	return fmt.Sprintf("insufficient permissions (requires %s)", strings.Join(names, " or "))
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }
