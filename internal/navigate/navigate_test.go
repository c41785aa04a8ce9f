package navigate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
)

func TestHomePath(t *testing.T) {
	assert.Equal(t, "/client", HomePath(authz.RoleClient))
	assert.Equal(t, "/stylist", HomePath(authz.RoleStylist))
	assert.Equal(t, "/stylist", HomePath(authz.RoleColorist))
	assert.Equal(t, "/stylist", HomePath(authz.RoleBarber))
	assert.Equal(t, "/admin", HomePath(authz.RoleAdmin))
	assert.Equal(t, "/", HomePath(authz.Role("unknown")))
}

func TestResolveStaysOnHome(t *testing.T) {
	_, needed := Resolve(authz.RoleAdmin, "/admin", nil)
	require.False(t, needed)

	_, needed = Resolve(authz.RoleAdmin, "/admin/users", nil)
	require.False(t, needed)

	_, needed = Resolve(authz.RoleColorist, "/stylist/schedule/today", nil)
	require.False(t, needed)
}

func TestResolveRedirectsOffForeignPaths(t *testing.T) {
	target, needed := Resolve(authz.RoleAdmin, "/client/bookings", nil)
	require.True(t, needed)
	require.Equal(t, "/admin", target)

	target, needed = Resolve(authz.RoleClient, "/admin", nil)
	require.True(t, needed)
	require.Equal(t, "/client", target)
}

func TestResolveHonorsWhitelist(t *testing.T) {
	whitelist := []string{"/", "/stylists", "/legal"}

	_, needed := Resolve(authz.RoleClient, "/stylists", whitelist)
	require.False(t, needed)

	_, needed = Resolve(authz.RoleClient, "/legal/privacy", whitelist)
	require.False(t, needed)

	// "/" whitelists everything under it only via exact match of the
	// entry, so unrelated paths still redirect.
	target, needed := Resolve(authz.RoleClient, "/stylist", whitelist)
	require.True(t, needed)
	require.Equal(t, "/client", target)
}

func TestResolveNeverLoops(t *testing.T) {
	// Resolving at the returned target must never ask for another
	// redirect, whatever the role.
	roles := []authz.Role{
		authz.RoleClient, authz.RoleStylist, authz.RoleColorist,
		authz.RoleBarber, authz.RoleAdmin,
	}

	for _, role := range roles {
		target, needed := Resolve(role, "/somewhere/else", nil)
		require.True(t, needed)

		_, again := Resolve(role, target, nil)
		require.False(t, again, "redirect loop for role %s", role)
	}
}
