package user

import "testing"

func TestDefaultPermissions(t *testing.T) {
	adminPerms := DefaultPermissions(RoleAdmin)
	if _, ok := adminPerms["Category"]; !ok {
		t.Error("admin matrix is missing the Category module")
	}
	if _, ok := adminPerms["StudentCourses"]; ok {
		t.Error("admin matrix must not carry student modules")
	}

	studentPerms := DefaultPermissions(RoleParticipant)
	if _, ok := studentPerms["StudentCourses"]; !ok {
		t.Error("participant matrix is missing the StudentCourses module")
	}
}

func TestPermissionMatrix_Clone(t *testing.T) {
	orig := DefaultPermissions(RoleInstructor)
	cp := orig.Clone()

	cp["Category"][0].IsAccess = true
	if orig["Category"][0].IsAccess {
		t.Error("Clone() must not share backing arrays with the original")
	}

	if (PermissionMatrix)(nil).Clone() != nil {
		t.Error("Clone() of nil must be nil")
	}
}

func TestPermissionMatrix_Merge(t *testing.T) {
	pm := DefaultPermissions(RoleInstructor)
	target := pm["Course"][0]

	if changed := pm.Merge(nil); changed {
		t.Error("Merge() with no grants must report no change")
	}
	if changed := pm.Merge([]Grant{{ID: "unknown-id", IsAccess: true}}); changed {
		t.Error("Merge() with unknown ids must report no change")
	}
	if changed := pm.Merge([]Grant{{ID: target.ID, IsAccess: target.IsAccess}}); changed {
		t.Error("Merge() with the current value must report no change")
	}

	if changed := pm.Merge([]Grant{{ID: target.ID, IsAccess: !target.IsAccess}}); !changed {
		t.Error("Merge() flipping a flag must report a change")
	}
	if pm["Course"][0].IsAccess == target.IsAccess {
		t.Error("Merge() did not apply the grant")
	}
}
