package model

import "fmt"

// Role is a coarse-grained tag determining baseline capabilities.
type Role string

const (
	RoleMentee    Role = "mentee"
	RoleMentor    Role = "mentor"
	RoleAdmin     Role = "admin"
	RoleVolunteer Role = "volunteer"
	RoleModerator Role = "moderator"
)

// Permission is a fine-grained capability token derived statically from role.
type Permission string

const (
	PermViewMentors        Permission = "mentors:view"
	PermBookSession        Permission = "sessions:book"
	PermCancelSession      Permission = "sessions:cancel"
	PermSubmitFeedback     Permission = "sessions:feedback"
	PermConfirmSession     Permission = "sessions:confirm"
	PermManageAvailability Permission = "availability:manage"
	PermVerifyMentors      Permission = "mentors:verify"
	PermManageUsers        Permission = "users:manage"
)

// allPermissions is the closed set the role table may draw from.
var allPermissions = map[Permission]struct{}{
	PermViewMentors:        {},
	PermBookSession:        {},
	PermCancelSession:      {},
	PermSubmitFeedback:     {},
	PermConfirmSession:     {},
	PermManageAvailability: {},
	PermVerifyMentors:      {},
	PermManageUsers:        {},
}

// rolePermissions is the static role → permission table. Membership is
// role-derived, never stored per user. Extension roles carry the viewer
// set only.
var rolePermissions = map[Role][]Permission{
	RoleMentee: {
		PermViewMentors,
		PermBookSession,
		PermCancelSession,
		PermSubmitFeedback,
	},
	RoleMentor: {
		PermViewMentors,
		PermConfirmSession,
		PermCancelSession,
		PermManageAvailability,
	},
	RoleAdmin: {
		PermViewMentors,
		PermVerifyMentors,
		PermManageUsers,
	},
	RoleVolunteer: {
		PermViewMentors,
	},
	RoleModerator: {
		PermViewMentors,
	},
}

// ViewerPermissions is the minimal set available before email confirmation,
// regardless of the selected role.
var ViewerPermissions = []Permission{PermViewMentors}

// ValidRole reports whether role is declared in the static table.
func ValidRole(role Role) bool {
	_, ok := rolePermissions[role]
	return ok
}

// PermissionsForRole returns the declared permission set for role. An
// unknown or empty role has no permissions.
func PermissionsForRole(role Role) []Permission {
	return rolePermissions[role]
}

// ValidatePermissionTable checks the static table at startup: every
// declared permission must belong to the closed permission set.
func ValidatePermissionTable() error {
	for role, perms := range rolePermissions {
		for _, p := range perms {
			if _, ok := allPermissions[p]; !ok {
				return fmt.Errorf("role %q references undeclared permission %q", role, p)
			}
		}
	}
	return nil
}
