package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleptr(r Role) *Role { return &r }

func TestAuthorizeUnauthenticatedAlwaysDenies(t *testing.T) {
	roles := []*Role{nil, roleptr(RoleClient), roleptr(RoleAdmin), roleptr(RoleColorist)}
	requirements := []RoleSet{nil, NewRoleSet(), NewRoleSet(RoleAdmin), StylistRoles()}

	for _, role := range roles {
		for _, required := range requirements {
			d := Authorize(role, required, false)
			require.False(t, d.Allowed)
			require.Equal(t, ReasonUnauthenticated, d.Reason)
		}
	}
}

func TestAuthorizeEmptyRequirementAllows(t *testing.T) {
	for _, role := range []*Role{nil, roleptr(RoleClient), roleptr(RoleAdmin)} {
		d := Authorize(role, NewRoleSet(), true)
		assert.True(t, d.Allowed)

		d = Authorize(role, nil, true)
		assert.True(t, d.Allowed)
	}
}

func TestAuthorizeUnresolvedRoleIsPending(t *testing.T) {
	d := Authorize(nil, NewRoleSet(RoleAdmin), true)

	require.False(t, d.Allowed)
	require.Equal(t, ReasonPending, d.Reason)
	// Pending must never be confused with a role mismatch: a guard
	// redirects on mismatch but only waits on pending.
	require.NotEqual(t, ReasonRoleMismatch, d.Reason)
}

func TestAuthorizeMatchingRoleAllows(t *testing.T) {
	cases := []struct {
		role     Role
		required RoleSet
	}{
		{RoleClient, NewRoleSet(RoleClient)},
		{RoleAdmin, NewRoleSet(RoleAdmin)},
		{RoleStylist, StylistRoles()},
		{RoleColorist, StylistRoles()},
		{RoleBarber, StylistRoles()},
		{RoleAdmin, NewRoleSet(RoleClient, RoleAdmin)},
	}

	for _, tc := range cases {
		d := Authorize(roleptr(tc.role), tc.required, true)
		assert.True(t, d.Allowed, "role %s", tc.role)
	}
}

func TestAuthorizeMismatchDenies(t *testing.T) {
	cases := []struct {
		role     Role
		required RoleSet
	}{
		{RoleClient, NewRoleSet(RoleAdmin)},
		{RoleStylist, NewRoleSet(RoleAdmin)},
		{RoleClient, StylistRoles()},
		{RoleAdmin, StylistRoles()},
	}

	for _, tc := range cases {
		d := Authorize(roleptr(tc.role), tc.required, true)
		require.False(t, d.Allowed, "role %s", tc.role)
		require.Equal(t, ReasonRoleMismatch, d.Reason)
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"client", "stylist", "colorist", "barber", "admin"} {
		r, ok := ParseRole(valid)
		require.True(t, ok)
		require.Equal(t, Role(valid), r)
	}

	for _, invalid := range []string{"", "superadmin", "Client", "owner"} {
		_, ok := ParseRole(invalid)
		require.False(t, ok, "%q should not parse", invalid)
	}
}

func TestStylistVariants(t *testing.T) {
	assert.True(t, RoleStylist.IsStylist())
	assert.True(t, RoleColorist.IsStylist())
	assert.True(t, RoleBarber.IsStylist())
	assert.False(t, RoleClient.IsStylist())
	assert.False(t, RoleAdmin.IsStylist())
}
