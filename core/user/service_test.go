package user_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/user"
	appfs "github.com/trezcool/bossmaker/fs"
	emailsvc "github.com/trezcool/bossmaker/services/email"
	inmemdb "github.com/trezcool/bossmaker/storage/database/inmem"
	"github.com/trezcool/bossmaker/storage/files"
)

type (
	courseCascaderMock struct {
		deleted  []string
		disabled []string
	}
	categoryCascaderMock struct {
		deleted  []string
		disabled []string
	}
)

func (m *courseCascaderMock) DeleteOwnedBy(_ context.Context, userID string) error {
	m.deleted = append(m.deleted, userID)
	return nil
}
func (m *courseCascaderMock) DisableOwnedBy(_ context.Context, userID string) error {
	m.disabled = append(m.disabled, userID)
	return nil
}
func (m *categoryCascaderMock) DeleteForUser(_ context.Context, userID string) error {
	m.deleted = append(m.deleted, userID)
	return nil
}
func (m *categoryCascaderMock) DisableForUser(_ context.Context, userID string) error {
	m.disabled = append(m.disabled, userID)
	return nil
}

func setup(t *testing.T) (*user.Service, user.Repository, *courseCascaderMock, *categoryCascaderMock, string) {
	t.Helper()
	core.SetTemplatesFS(appfs.FS)

	root := t.TempDir()
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	svc := user.NewService(repo, emailsvc.NewConsoleServiceMock(), files.NewLocal(root))

	courses := new(courseCascaderMock)
	categories := new(categoryCascaderMock)
	svc.BindCascades(courses, categories)
	return svc, repo, courses, categories, root
}

func active() *bool { b := true; return &b }

func createUser(t *testing.T, svc *user.Service, role user.Role, email string, createdBy user.User) user.User {
	t.Helper()
	usr, err := svc.Create(context.Background(), user.NewUser{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     email,
		Password:  "s3cr3t!",
		Role:      role,
		IsActive:  active(),
	}, createdBy, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return usr
}

func TestService_Create(t *testing.T) {
	svc, _, _, _, _ := setup(t)
	ctx := context.Background()

	admin := createUser(t, svc, user.RoleAdmin, "admin@test.cm", user.User{})
	usr := createUser(t, svc, user.RoleInstructor, "boss@test.cm", admin)

	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, admin.ID, usr.CreatedBy)
	assert.True(t, usr.IsActive)
	assert.NotEmpty(t, usr.Permissions["Category"])
	assert.NoError(t, usr.CheckPassword("s3cr3t!"))

	err := svc.CheckEmailUniqueness(ctx, "boss@test.cm")
	var cErr *core.ConflictError
	assert.True(t, errors.As(err, &cErr), "duplicate email must be a conflict")
}

func TestService_ChangePassword(t *testing.T) {
	svc, _, _, _, _ := setup(t)
	ctx := context.Background()

	usr := createUser(t, svc, user.RoleInstructor, "boss@test.cm", user.User{})

	err := svc.ChangePassword(ctx, usr, user.ChangePassword{OldPassword: "wrong", NewPassword: "new"})
	assert.Equal(t, user.ErrInvalidCredentials, errors.Cause(err))

	err = svc.ChangePassword(ctx, usr, user.ChangePassword{OldPassword: "s3cr3t!", NewPassword: "new"})
	assert.NoError(t, err)

	usr, err = svc.GetByID(ctx, usr.ID)
	assert.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("new"))
}

func TestService_SetStatus_instructorCascade(t *testing.T) {
	svc, _, courses, categories, _ := setup(t)
	ctx := context.Background()

	admin := createUser(t, svc, user.RoleAdmin, "admin@test.cm", user.User{})
	boss := createUser(t, svc, user.RoleInstructor, "boss@test.cm", admin)
	participant := createUser(t, svc, user.RoleParticipant, "student@test.cm", boss)

	// self toggles do not cascade
	assert.NoError(t, svc.SetStatus(ctx, boss, boss.ID, false))
	assert.Empty(t, courses.disabled)

	assert.NoError(t, svc.SetStatus(ctx, admin, boss.ID, false))
	assert.Equal(t, []string{boss.ID}, categories.disabled)
	assert.Equal(t, []string{boss.ID}, courses.disabled)

	participant, err := svc.GetByID(ctx, participant.ID)
	assert.NoError(t, err)
	assert.False(t, participant.IsActive, "participants of a disabled instructor must be disabled")
}

func TestService_Delete_instructorCascade(t *testing.T) {
	svc, _, courses, categories, root := setup(t)
	ctx := context.Background()

	admin := createUser(t, svc, user.RoleAdmin, "admin@test.cm", user.User{})
	boss := createUser(t, svc, user.RoleInstructor, "boss@test.cm", admin)
	participant := createUser(t, svc, user.RoleParticipant, "student@test.cm", boss)

	// give the participant a stored profile image
	img := filepath.Join(root, "users", "avatar.png")
	assert.NoError(t, os.MkdirAll(filepath.Dir(img), 0o755))
	assert.NoError(t, os.WriteFile(img, []byte("png"), 0o644))
	_, err := svc.UpdateProfile(ctx, participant, user.UpdateProfile{
		FirstName: participant.FirstName,
		LastName:  participant.LastName,
	}, "avatar.png")
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, boss.ID))

	assert.Equal(t, []string{boss.ID}, courses.deleted)
	assert.Equal(t, []string{boss.ID}, categories.deleted)

	_, err = svc.GetByID(ctx, boss.ID)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	_, err = svc.GetByID(ctx, participant.ID)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err), "participants of a deleted instructor must be deleted")

	_, err = os.Stat(img)
	assert.True(t, os.IsNotExist(err), "participant profile image must be removed")
}

func TestService_UpdatePermissions(t *testing.T) {
	svc, _, _, _, _ := setup(t)
	ctx := context.Background()

	usr := createUser(t, svc, user.RoleInstructor, "boss@test.cm", user.User{})
	target := usr.Permissions["Course"][0]

	err := svc.UpdatePermissions(ctx, usr.ID, []user.Grant{{ID: target.ID, IsAccess: !target.IsAccess}})
	assert.NoError(t, err)

	usr, err = svc.GetByID(ctx, usr.ID)
	assert.NoError(t, err)
	assert.Equal(t, !target.IsAccess, usr.Permissions["Course"][0].IsAccess)
}
