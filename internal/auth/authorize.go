package auth

import (
	"context"
	"slices"
	"strings"
)

// Capability declares who may call a route: either an explicit role set, or
// the owner of the targeted resource (with admins and supervisors always
// allowed). Declaring the rule once per route keeps the role checks out of
// the handlers entirely.
type Capability struct {
	roles      []Role
	ownerParam string
	selfRule   bool
}

// AnyOf allows identities whose role is a member of the given set.
func AnyOf(roles ...Role) Capability {
	return Capability{roles: slices.Clone(roles)}
}

// SelfOrPrivileged allows admins, supervisors, and the identity whose id
// equals the route's ownerParam path value. Supervisors get blanket access
// to subordinate resources; the rule intentionally does not check an actual
// supervisor-to-driver relationship.
func SelfOrPrivileged(ownerParam string) Capability {
	return Capability{ownerParam: strings.TrimSpace(ownerParam), selfRule: true}
}

// OwnerParam names the path parameter holding the owning identifier, empty
// for role-set capabilities.
func (c Capability) OwnerParam() string { return c.ownerParam }

// Satisfying lists the roles that pass the check regardless of ownership.
func (c Capability) Satisfying() []Role {
	if c.selfRule {
		return []Role{RoleAdmin, RoleSupervisor}
	}
	return slices.Clone(c.roles)
}

// Allow decides whether the identity in ctx satisfies the capability.
// ownerID is the resolved path value for self-or-privileged rules and is
// ignored otherwise. A missing identity yields ErrUnauthenticated; a failed
// check yields a ForbiddenError naming the satisfying roles.
func (c Capability) Allow(ctx context.Context, ownerID string) error {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	return c.check(identity, ownerID)
}

func (c Capability) check(identity Identity, ownerID string) error {
	if c.selfRule {
		switch identity.Role {
		case RoleAdmin, RoleSupervisor:
			return nil
		}
		ownerID = strings.TrimSpace(ownerID)
		if ownerID != "" && identity.ID == ownerID {
			return nil
		}
		return &ForbiddenError{Satisfying: c.Satisfying()}
	}
	if slices.Contains(c.roles, identity.Role) {
		return nil
	}
	return &ForbiddenError{Satisfying: c.Satisfying()}
}
