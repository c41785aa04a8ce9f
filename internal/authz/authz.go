// Package authz holds the single authorization decision function used by
// every route guard in the service. Guards never re-implement role
// checks; divergent guard logic is what this package exists to prevent.
package authz

// Reason explains a Decision.
type Reason string

const (
	// ReasonUnauthenticated means there is no valid session.
	ReasonUnauthenticated Reason = "unauthenticated"

	// ReasonRoleMismatch means the session's role is not accepted
	// by the route.
	ReasonRoleMismatch Reason = "role_mismatch"

	// ReasonPending means the role is not yet known (profile still
	// loading or unavailable). Pending is NOT a denial: callers must
	// not redirect on it, only hold rendering and retry.
	ReasonPending Reason = "pending"
)

// Decision is the outcome of an authorization check. It is computed
// fresh per evaluation and never cached, since the role can change
// at any moment via real-time sync.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

// Authorize decides whether a principal may access a route requiring
// one of the roles in required. role is nil while the profile is
// unresolved; an unresolved role yields pending, never an implicit
// client (fail closed).
//
// Rules are evaluated strictly in order:
//
//  1. no authentication        -> deny, unauthenticated
//  2. empty requirement        -> allow
//  3. role unresolved          -> pending
//  4. role in required         -> allow
//  5. otherwise                -> deny, role_mismatch
//
// No I/O, no side effects.
func Authorize(role *Role, required RoleSet, isAuthenticated bool) Decision {
	if !isAuthenticated {
		return Decision{Allowed: false, Reason: ReasonUnauthenticated}
	}

	if required.Empty() {
		return Allow
	}

	if role == nil {
		return Decision{Allowed: false, Reason: ReasonPending}
	}

	if required.Has(*role) {
		return Allow
	}

	return Decision{Allowed: false, Reason: ReasonRoleMismatch}
}
