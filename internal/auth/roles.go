// Package auth provides authentication and authorization types.
package auth

// Role represents an actor role in the system.
type Role string

const (
	RoleVictim    Role = "victim"    // Submits help requests
	RoleVolunteer Role = "volunteer" // Works assigned tasks
	RoleOfficial  Role = "official"  // Coordinates assignments, views dashboards
	RoleDonor     Role = "donor"     // Contributes to relief funds
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleVictim, RoleVolunteer, RoleOfficial, RoleDonor:
		return true
	}
	return false
}

// Permission represents a specific action on a resource.
type Permission string

// Request permissions
const (
	PermRequestCreate Permission = "request.create"
	PermRequestRead   Permission = "request.read"
	PermRequestCancel Permission = "request.cancel"
	PermRequestAssign Permission = "request.assign"
)

// Task permissions
const (
	PermTaskRead     Permission = "task.read"
	PermTaskAccept   Permission = "task.accept"
	PermTaskProgress Permission = "task.progress"
)

// Coordination permissions
const (
	PermStatsRead    Permission = "stats.read"
	PermZoneRead     Permission = "zone.read"
	PermAuditRead    Permission = "audit.read"
	PermDonate       Permission = "donation.create"
	PermDonationRead Permission = "donation.read"
)

// RolePermissions maps roles to their default permissions.
var RolePermissions = map[Role][]Permission{
	RoleVictim: {
		PermRequestCreate, PermRequestRead, PermRequestCancel,
	},
	RoleVolunteer: {
		PermRequestRead,
		PermTaskRead, PermTaskAccept, PermTaskProgress,
		PermZoneRead,
	},
	RoleOfficial: {
		PermRequestRead, PermRequestCancel, PermRequestAssign,
		PermTaskRead,
		PermStatsRead, PermZoneRead, PermAuditRead, PermDonationRead,
	},
	RoleDonor: {
		PermDonate, PermDonationRead,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// Authorize checks a role against a permission and reports the decision.
// Unknown roles are always denied.
func Authorize(role Role, perm Permission) bool {
	return HasPermission(role, perm)
}
