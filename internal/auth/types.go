package auth

import (
	"context"
	"strings"
	"time"
)

// Role is the access level attached to every account. The set is closed:
// routes declare which members may call them via a Capability.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleDriver     Role = "driver"
)

// ParseRole normalizes a raw role string against the closed role set.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleSupervisor:
		return RoleSupervisor, true
	case RoleDriver:
		return RoleDriver, true
	default:
		return "", false
	}
}

// Identity is an account record resolved once per request.
type Identity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IdentityStore is the persistence surface the verifier depends on.
type IdentityStore interface {
	// FindActiveByID returns the identity for id. Missing rows map to
	// ErrNotFound; disabled accounts come back with Active=false so the
	// verifier can tell a disabled account from a store fault.
	FindActiveByID(ctx context.Context, id string) (Identity, error)
	FindByEmail(ctx context.Context, email string) (Identity, error)
}
