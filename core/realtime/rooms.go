package realtime

import (
	"fmt"

	"github.com/darasa/platform/core/auth"
	"github.com/darasa/platform/core/user"
)

// RoomID is a computed logical broadcast channel, not a stored entity.
type RoomID string

// AdminsRoom spans administrative roles across all tenants.
const AdminsRoom RoomID = "admins"

func TenantRoom(tenantID int) RoomID {
	return RoomID(fmt.Sprintf("tenant:%d", tenantID))
}

func UserRoom(userID int) RoomID {
	return RoomID(fmt.Sprintf("user:%d", userID))
}

func RoleRoom(role user.Role) RoomID {
	return RoomID(fmt.Sprintf("role:%s", role))
}

func TenantRoleRoom(tenantID int, role user.Role) RoomID {
	return RoomID(fmt.Sprintf("tenant:%d:role:%s", tenantID, role))
}

func TenantAdminsRoom(tenantID int) RoomID {
	return RoomID(fmt.Sprintf("tenant:%d:admins", tenantID))
}

func CourseRoom(courseID int) RoomID {
	return RoomID(fmt.Sprintf("course:%d", courseID))
}

// RoomsFor computes the deterministic room set for an identity. Membership
// is derived solely from authenticated claims; client payloads never add
// rooms. The global super-role has no tenant, so it joins no tenant-scoped
// rooms; it reaches tenants through explicit dispatch instead.
func RoomsFor(identity auth.Identity) []RoomID {
	rooms := []RoomID{
		UserRoom(identity.ID),
		RoleRoom(identity.Role),
	}
	if identity.TenantID != 0 {
		rooms = append(rooms,
			TenantRoom(identity.TenantID),
			TenantRoleRoom(identity.TenantID, identity.Role),
		)
	}
	if identity.Role.IsAdmin() {
		rooms = append(rooms, AdminsRoom)
		if identity.TenantID != 0 {
			rooms = append(rooms, TenantAdminsRoom(identity.TenantID))
		}
	}
	return rooms
}
