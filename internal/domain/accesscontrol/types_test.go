package accesscontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtLeastFollowsPrecedence(t *testing.T) {
	order := []RoleName{RoleGuest, RoleMember, RoleReviewer, RoleAdmin}
	for i, role := range order {
		for j, min := range order {
			assert.Equal(t, i >= j, role.AtLeast(min), "%s.AtLeast(%s)", role, min)
		}
	}
}

func TestUnknownRoleNeverPassesAGate(t *testing.T) {
	junk := RoleName("superuser")
	assert.False(t, junk.Valid())
	for _, min := range []RoleName{RoleGuest, RoleMember, RoleReviewer, RoleAdmin} {
		assert.False(t, junk.AtLeast(min))
	}
}
