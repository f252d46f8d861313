package auth

import (
	"github.com/darasa/platform/core/user"
)

// Identity is the authenticated principal's claims as embedded in a token.
// It is immutable for a token's lifetime; it is re-derived fresh from the
// user directory at each login and refresh, never from client payloads.
type Identity struct {
	ID          int       `json:"id"`
	TenantID    int       `json:"tenant_id,omitempty"` // 0 only for SUPER_ADMIN
	Role        user.Role `json:"role"`
	Permissions []string  `json:"permissions,omitempty"`
	Email       string    `json:"email,omitempty"`
}

// IsGlobal reports whether the identity bypasses tenant scoping.
func (i Identity) IsGlobal() bool {
	return i.Role.IsGlobal()
}

func (i Identity) HasPermission(perm string) bool {
	for _, p := range i.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// NewIdentity derives an Identity from a source-of-truth user record,
// enforcing that only the global super-role may lack a tenant.
func NewIdentity(usr user.User) (Identity, error) {
	if !usr.Role.Valid() {
		return Identity{}, ErrInvalidCredentials
	}
	if usr.TenantID == 0 && !usr.Role.IsGlobal() {
		return Identity{}, ErrTenantRequired
	}
	return Identity{
		ID:          usr.ID,
		TenantID:    usr.TenantID,
		Role:        usr.Role,
		Permissions: usr.Role.Permissions(),
		Email:       usr.Email,
	}, nil
}
