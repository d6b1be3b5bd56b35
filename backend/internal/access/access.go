// Package access decides which student's data a caller may read or change.
package access

import (
	"context"

	"unipulse/backend/internal/shared"
)

// Identity is the authenticated caller attached to a request
type Identity struct {
	StudentID string
	Role      string
}

// IsAdmin reports whether the caller holds the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == shared.RoleAdmin
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id.StudentID != ""
}

// RequireAdmin rejects every role except admin
func RequireAdmin(id Identity) error {
	if !id.IsAdmin() {
		return shared.AccessDenied("admin access required")
	}
	return nil
}

// ResolveTarget returns the student whose data the caller may touch.
// Students are pinned to themselves; asking for anyone else is denied.
// Admins get the requested id unchanged, which may be empty.
func ResolveTarget(id Identity, requested string) (string, error) {
	switch id.Role {
	case shared.RoleAdmin:
		return requested, nil
	case shared.RoleStudent:
		if requested != "" && requested != id.StudentID {
			return "", shared.AccessDenied("access denied")
		}
		return id.StudentID, nil
	default:
		return "", shared.AccessDenied("unknown role")
	}
}

// RequireTarget is ResolveTarget for operations that need a concrete student
func RequireTarget(id Identity, requested string) (string, error) {
	target, err := ResolveTarget(id, requested)
	if err != nil {
		return "", err
	}
	if target == "" {
		return "", shared.Validation("student_id required for admin")
	}
	return target, nil
}

// CanRead reports whether the caller may read a record owned by owner
func CanRead(id Identity, owner string) bool {
	return id.IsAdmin() || (id.Role == shared.RoleStudent && id.StudentID == owner)
}
