// Package profile maps an authenticated user to the role record that
// drives every authorization decision.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
)

// RoleProfile is the application-level record tying a user to a role.
// Exactly one exists per user; the loader provisions a client profile
// on first authenticated load. The role column is only ever written by
// privileged operations, never by the profile's owner.
type RoleProfile struct {
	UserID      string
	Role        authz.Role
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LoadError wraps a profile lookup failure that is NOT "no profile
// yet". Callers must treat the role as unknown on a LoadError;
// defaulting to client here would hand out access on infrastructure
// failures.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("profile: load failed: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// displayNameFromEmail derives a presentable default name from the
// identity email, e.g. "jane.doe@example.com" -> "jane.doe".
func displayNameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
