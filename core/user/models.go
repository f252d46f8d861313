package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role is the closed set of roles a user can hold. Raw strings are never
// compared ad hoc; every authorization decision goes through this table.
type Role string

const (
	// RoleSuperAdmin is the only role that is not bound to a tenant.
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleTenantAdmin Role = "TENANT_ADMIN"
	RoleTeacher     Role = "TEACHER"
	RoleStudent     Role = "STUDENT"
)

var (
	AllRoles   = []Role{RoleSuperAdmin, RoleTenantAdmin, RoleTeacher, RoleStudent}
	AdminRoles = []Role{RoleSuperAdmin, RoleTenantAdmin}

	rolePriorities = map[Role]int{
		RoleSuperAdmin:  40,
		RoleTenantAdmin: 30,
		RoleTeacher:     20,
		RoleStudent:     10,
	}

	// rolePermissions is the single ordered capability table; a role's
	// permission set is embedded in its tokens at issue time.
	rolePermissions = map[Role][]string{
		RoleSuperAdmin:  {"platform:manage", "tenant:manage", "course:manage", "course:read", "progress:read"},
		RoleTenantAdmin: {"tenant:manage", "course:manage", "course:read", "progress:read"},
		RoleTeacher:     {"course:manage", "course:read", "progress:read"},
		RoleStudent:     {"course:read", "progress:write"},
	}
)

func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleTenantAdmin
}

// IsGlobal reports whether the role spans all tenants.
func (r Role) IsGlobal() bool {
	return r == RoleSuperAdmin
}

func RolePriority(role Role) int {
	return rolePriorities[role]
}

// Permissions returns a copy of the role's capability set.
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// User is the source-of-truth record consumed at login/refresh to construct
// an identity. Entity CRUD lives elsewhere; this package only reads.
type User struct {
	ID           int       `json:"id" db:"id"`
	TenantID     int       `json:"tenant_id" db:"tenant_id"` // 0 only for SUPER_ADMIN
	Name         string    `json:"name" db:"name"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	IsDeleted    bool      `json:"-" db:"is_deleted"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}
