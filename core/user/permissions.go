package user

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Permission is one grantable capability within a module.
type Permission struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Module   string `json:"module"`
	Slug     string `json:"slug"`
	Action   string `json:"action"`
	IsAccess bool   `json:"is_access"`
}

// PermissionMatrix maps a module name to its permission entries.
// It is stored as a JSONB column.
type PermissionMatrix map[string][]Permission

var _ driver.Valuer = (PermissionMatrix)(nil)

func (pm PermissionMatrix) Value() (driver.Value, error) {
	if pm == nil {
		return nil, nil
	}
	data, err := json.Marshal(pm)
	return data, errors.Wrap(err, "marshaling permission matrix")
}

func (pm *PermissionMatrix) Scan(src interface{}) error {
	if src == nil {
		*pm = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("unsupported permission matrix source %T", src)
	}
	return errors.Wrap(json.Unmarshal(data, pm), "unmarshaling permission matrix")
}

// Clone returns a deep copy; seeded defaults must never be shared between users.
func (pm PermissionMatrix) Clone() PermissionMatrix {
	if pm == nil {
		return nil
	}
	cp := make(PermissionMatrix, len(pm))
	for module, perms := range pm {
		entries := make([]Permission, len(perms))
		copy(entries, perms)
		cp[module] = entries
	}
	return cp
}

// Grant is one incoming permission toggle in an update-permissions request.
type Grant struct {
	ID       string `json:"id" validate:"required"`
	IsAccess bool   `json:"is_access"`
}

// Merge applies grants by permission id and reports whether anything changed.
func (pm PermissionMatrix) Merge(grants []Grant) bool {
	byID := make(map[string]bool, len(grants))
	for _, g := range grants {
		byID[g.ID] = g.IsAccess
	}

	var changed bool
	for _, perms := range pm {
		for i := range perms {
			if isAccess, ok := byID[perms[i].ID]; ok && perms[i].IsAccess != isAccess {
				perms[i].IsAccess = isAccess
				changed = true
			}
		}
	}
	return changed
}

// Permission defaults are static configuration seeded once at startup; ids are
// process-stable and deep-copied into each new user.
var (
	defaultPermissions = PermissionMatrix{
		"Category": {
			seedPermission("View Category", "category", "view"),
			seedPermission("Edit Category", "category", "edit"),
		},
		"Participants": {
			seedPermission("View Participants", "participants", "view"),
			seedPermission("Edit Participants", "participants", "edit"),
		},
		"Course": {
			seedPermission("View Course", "course", "view"),
			seedPermission("Edit Course", "course", "edit"),
		},
	}

	studentPermissions = PermissionMatrix{
		"StudentCourses": {
			{
				ID:       uuid.New().String(),
				Title:    "Courses",
				Module:   "studentCourses",
				Slug:     "view_studentCourses",
				Action:   "view",
				IsAccess: true,
			},
		},
	}
)

func seedPermission(title, module, action string) Permission {
	return Permission{
		ID:     uuid.New().String(),
		Title:  title,
		Module: module,
		Slug:   action + "_" + module,
		Action: action,
	}
}

// DefaultPermissions returns a fresh permission matrix for a new account of
// the given role.
func DefaultPermissions(role Role) PermissionMatrix {
	if role.IsParticipant() {
		return studentPermissions.Clone()
	}
	return defaultPermissions.Clone()
}
