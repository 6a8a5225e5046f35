package user

import "testing"

func TestRole(t *testing.T) {
	tests := []struct {
		role             Role
		valid            bool
		name             string
		managed          Role
		canOwnCategories bool
	}{
		{RoleAdmin, true, "Admin", RoleInstructor, true},
		{RoleInstructor, true, "Bossmaker", RoleParticipant, true},
		{RoleParticipant, true, "Participant", RoleParticipant, false},
		{Role(0), false, "Unknown", RoleParticipant, false},
		{Role(9), false, "Unknown", RoleParticipant, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v; want %v", got, tt.valid)
			}
			if got := tt.role.String(); got != tt.name {
				t.Errorf("String() = %q; want %q", got, tt.name)
			}
			if got := tt.role.ManagedRole(); got != tt.managed {
				t.Errorf("ManagedRole() = %v; want %v", got, tt.managed)
			}
			if got := tt.role.CanOwnCategories(); got != tt.canOwnCategories {
				t.Errorf("CanOwnCategories() = %v; want %v", got, tt.canOwnCategories)
			}
		})
	}
}

func TestUser_password(t *testing.T) {
	var usr User
	if err := usr.SetPassword("s3cr3t!"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if usr.Password == "s3cr3t!" {
		t.Error("SetPassword() stored the plaintext")
	}

	plain, err := usr.PlainPassword()
	if err != nil {
		t.Fatalf("PlainPassword() error = %v", err)
	}
	if plain != "s3cr3t!" {
		t.Errorf("PlainPassword() = %q; want %q", plain, "s3cr3t!")
	}

	if err = usr.CheckPassword("s3cr3t!"); err != nil {
		t.Errorf("CheckPassword() error = %v; want nil", err)
	}
	if err = usr.CheckPassword("nope"); err == nil {
		t.Error("CheckPassword() with wrong password must fail")
	}
}
