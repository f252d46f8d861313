package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Role_checks(t *testing.T) {
	tests := []struct {
		role     Role
		valid    bool
		isAdmin  bool
		isGlobal bool
	}{
		{RoleSuperAdmin, true, true, true},
		{RoleTenantAdmin, true, true, false},
		{RoleTeacher, true, false, false},
		{RoleStudent, true, false, false},
		{Role("PRESIDENT"), false, false, false},
		{Role(""), false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.role.Valid())
			assert.Equal(t, tt.isAdmin, tt.role.IsAdmin())
			assert.Equal(t, tt.isGlobal, tt.role.IsGlobal())
		})
	}
}

func Test_RolePriority_ordering(t *testing.T) {
	assert.Greater(t, RolePriority(RoleSuperAdmin), RolePriority(RoleTenantAdmin))
	assert.Greater(t, RolePriority(RoleTenantAdmin), RolePriority(RoleTeacher))
	assert.Greater(t, RolePriority(RoleTeacher), RolePriority(RoleStudent))
	assert.Zero(t, RolePriority(Role("PRESIDENT")))
}

func Test_Role_Permissions(t *testing.T) {
	assert.Contains(t, RoleSuperAdmin.Permissions(), "platform:manage")
	assert.NotContains(t, RoleTenantAdmin.Permissions(), "platform:manage")
	assert.Contains(t, RoleStudent.Permissions(), "progress:write")
	assert.NotContains(t, RoleStudent.Permissions(), "course:manage")

	// callers get a copy, not the table itself
	perms := RoleTeacher.Permissions()
	perms[0] = "tampered"
	assert.NotContains(t, RoleTeacher.Permissions(), "tampered")
}

func Test_User_password(t *testing.T) {
	var usr User
	require.NoError(t, usr.SetPassword("s3cret!"))
	assert.NotEmpty(t, usr.PasswordHash)
	assert.NotContains(t, string(usr.PasswordHash), "s3cret!")

	assert.NoError(t, usr.CheckPassword("s3cret!"))
	assert.Error(t, usr.CheckPassword("wrong"))
	assert.Error(t, (&User{}).CheckPassword("s3cret!"))
}
