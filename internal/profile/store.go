package profile

import (
	"context"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
)

// Store defines how role profiles are persisted. Get returns
// (nil, nil) when no profile exists for the user; a non-nil error
// means the store itself failed.
type Store interface {
	Get(ctx context.Context, userID string) (*RoleProfile, error)

	// Create inserts p unless a profile already exists for the user,
	// in which case the existing record is returned. This keeps
	// first-load provisioning race-free across concurrent sessions.
	Create(ctx context.Context, p RoleProfile) (*RoleProfile, error)

	// UpdateRole changes the role column. Privileged callers only.
	UpdateRole(ctx context.Context, userID string, role authz.Role) error
}
