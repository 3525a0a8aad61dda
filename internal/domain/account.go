package domain

import "time"

// Role enumerates caller roles. Assigned once at account creation and
// read by every authorization decision; never mutated here.
type Role string

const (
	RolePlatformAdmin Role = "PLATFORM_ADMIN"
	RoleOrgAdmin      Role = "ORG_ADMIN"
	RoleOrgMember     Role = "ORG_MEMBER"
	RoleEndUser       Role = "END_USER"
)

// AllRoles lists every role.
var AllRoles = []Role{RolePlatformAdmin, RoleOrgAdmin, RoleOrgMember, RoleEndUser}

// IsPlatformStaff reports whether the role belongs to the service provider.
func (r Role) IsPlatformStaff() bool {
	return r == RolePlatformAdmin
}

// Account models any authenticated caller: platform staff, management
// organization staff, or a resident.
type Account struct {
	ID        string
	Name      string
	Email     string
	Phone     *string
	Role      Role
	OrgID     *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
