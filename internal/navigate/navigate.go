// Package navigate decides where a role belongs in the application and
// whether the current location requires moving the user there. All
// functions are pure so redirect behavior stays testable and cannot
// loop on hidden state.
package navigate

import (
	"strings"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
)

const (
	ClientHome  = "/client"
	StylistHome = "/stylist"
	AdminHome   = "/admin"
)

// HomePath returns the canonical dashboard root for a role. Every
// stylist variant shares the stylist area. An unknown role maps to
// the site root, never to a privileged area.
func HomePath(role authz.Role) string {
	switch {
	case role == authz.RoleAdmin:
		return AdminHome
	case role.IsStylist():
		return StylistHome
	case role == authz.RoleClient:
		return ClientHome
	}
	return "/"
}

// Resolve reports whether a user with the given role standing at path
// should be redirected, and where to. No redirect is needed when the
// path already is the role's home, a subpath of it, or whitelisted.
func Resolve(role authz.Role, path string, whitelist []string) (string, bool) {
	home := HomePath(role)

	if path == home || isSubpath(path, home) {
		return "", false
	}

	for _, public := range whitelist {
		if path == public || isSubpath(path, public) {
			return "", false
		}
	}

	return home, true
}

// isSubpath matches strictly below base; "/" only matches itself so a
// whitelisted site root cannot swallow every path.
func isSubpath(path, base string) bool {
	if base == "/" {
		return false
	}
	return strings.HasPrefix(path, base+"/")
}
