package models

import "testing"

func TestIsValidRole(t *testing.T) {
	cases := []struct {
		role Role
		want bool
	}{
		{RoleViewer, true},
		{RoleEditor, true},
		{Role("owner"), false},
		{Role("admin"), false},
		{Role(""), false},
		{Role("Editor"), false},
	}
	for _, tc := range cases {
		if got := IsValidRole(tc.role); got != tc.want {
			t.Errorf("IsValidRole(%q) = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestPermissionsFor(t *testing.T) {
	cases := []struct {
		name string
		role Role
		want Permissions
	}{
		{
			name: "viewer can only view",
			role: RoleViewer,
			want: Permissions{CanView: true},
		},
		{
			name: "editor can edit and share but never delete",
			role: RoleEditor,
			want: Permissions{CanView: true, CanEdit: true, CanShare: true},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PermissionsFor(tc.role); got != tc.want {
				t.Errorf("PermissionsFor(%q) = %+v, want %+v", tc.role, got, tc.want)
			}
		})
	}
}
