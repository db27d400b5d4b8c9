package auth

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name string
		role Role
		perm Permission
		want bool
	}{
		{"victim can create requests", RoleVictim, PermRequestCreate, true},
		{"victim cannot assign", RoleVictim, PermRequestAssign, false},
		{"volunteer can progress tasks", RoleVolunteer, PermTaskProgress, true},
		{"volunteer cannot read stats", RoleVolunteer, PermStatsRead, false},
		{"official can assign", RoleOfficial, PermRequestAssign, true},
		{"official can read audit", RoleOfficial, PermAuditRead, true},
		{"official cannot accept tasks", RoleOfficial, PermTaskAccept, false},
		{"donor can donate", RoleDonor, PermDonate, true},
		{"donor cannot create requests", RoleDonor, PermRequestCreate, false},
		{"unknown role denied", Role("ghost"), PermRequestRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.want {
				t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.role, tt.perm, got, tt.want)
			}
		})
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{"victim", "volunteer", "official", "donor"} {
		if !ValidRole(r) {
			t.Errorf("ValidRole(%q) = false, want true", r)
		}
	}
	for _, r := range []string{"", "admin", "Victim", "citizen"} {
		if ValidRole(r) {
			t.Errorf("ValidRole(%q) = true, want false", r)
		}
	}
}
