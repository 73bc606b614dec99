package models

// Role is the access tier granted to a collaborator or link holder.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
)

// IsValidRole reports whether the role belongs to the closed set of
// collaboration roles.
func IsValidRole(role Role) bool {
	return role == RoleViewer || role == RoleEditor
}

// Permissions is the effective capability set derived from a role.
type Permissions struct {
	CanView   bool `json:"canView"`
	CanEdit   bool `json:"canEdit"`
	CanShare  bool `json:"canShare"`
	CanDelete bool `json:"canDelete"`
}

// PermissionsFor derives effective permissions from a role. Delete rights
// are never granted through a collaboration role. Callers validate the
// role before calling; unknown values degrade to view-only.
func PermissionsFor(role Role) Permissions {
	return Permissions{
		CanView:   true,
		CanEdit:   role == RoleEditor,
		CanShare:  role == RoleEditor,
		CanDelete: false,
	}
}
