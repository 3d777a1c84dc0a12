package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePermissionTable(t *testing.T) {
	assert.NoError(t, ValidatePermissionTable())
}

func TestValidRole(t *testing.T) {
	for _, role := range []Role{RoleMentee, RoleMentor, RoleAdmin, RoleVolunteer, RoleModerator} {
		assert.True(t, ValidRole(role), string(role))
	}
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("superuser"))
}

func TestPermissionsForRole(t *testing.T) {
	assert.Contains(t, PermissionsForRole(RoleMentee), PermBookSession)
	assert.NotContains(t, PermissionsForRole(RoleMentee), PermConfirmSession)

	assert.Contains(t, PermissionsForRole(RoleMentor), PermConfirmSession)
	assert.NotContains(t, PermissionsForRole(RoleMentor), PermBookSession)

	assert.Contains(t, PermissionsForRole(RoleAdmin), PermVerifyMentors)

	// Extension roles carry the viewer set only.
	assert.Equal(t, []Permission{PermViewMentors}, PermissionsForRole(RoleVolunteer))
	assert.Equal(t, []Permission{PermViewMentors}, PermissionsForRole(RoleModerator))

	assert.Empty(t, PermissionsForRole(""))
	assert.Empty(t, PermissionsForRole("superuser"))
}
