package category_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/category"
	"github.com/trezcool/bossmaker/core/user"
	appfs "github.com/trezcool/bossmaker/fs"
	emailsvc "github.com/trezcool/bossmaker/services/email"
	inmemdb "github.com/trezcool/bossmaker/storage/database/inmem"
)

// courseCascaderMock stands in for the course service.
type courseCascaderMock struct {
	inUse        bool
	disabledCats []string
	deletedCats  []string
}

func (m *courseCascaderMock) CategoryInUse(_ context.Context, _ string) (bool, error) {
	return m.inUse, nil
}
func (m *courseCascaderMock) DisableByCategory(_ context.Context, categoryID string) error {
	m.disabledCats = append(m.disabledCats, categoryID)
	return nil
}
func (m *courseCascaderMock) SoftDeleteByCategory(_ context.Context, categoryID string) error {
	m.deletedCats = append(m.deletedCats, categoryID)
	return nil
}

func setup(t *testing.T) (*category.Service, *user.Service, *courseCascaderMock) {
	t.Helper()
	core.SetTemplatesFS(appfs.FS)

	db := inmemdb.Open()
	usrSvc := user.NewService(inmemdb.NewUserRepository(db), emailsvc.NewConsoleServiceMock(), nil)
	svc := category.NewService(inmemdb.NewCategoryRepository(db), usrSvc)

	courses := new(courseCascaderMock)
	svc.BindCascades(courses)
	return svc, usrSvc, courses
}

func active() *bool { b := true; return &b }

func createUser(t *testing.T, svc *user.Service, role user.Role, email string) user.User {
	t.Helper()
	usr, err := svc.Create(context.Background(), user.NewUser{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     email,
		Password:  "s3cr3t!",
		Role:      role,
		IsActive:  active(),
	}, user.User{}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return usr
}

func TestService_Create(t *testing.T) {
	svc, usrSvc, _ := setup(t)
	ctx := context.Background()

	admin := createUser(t, usrSvc, user.RoleAdmin, "admin@test.cm")
	boss := createUser(t, usrSvc, user.RoleInstructor, "boss@test.cm")
	student := createUser(t, usrSvc, user.RoleParticipant, "student@test.cm")

	cat, err := svc.Create(ctx, category.NewCategory{Name: "Math", Assignee: boss.ID, IsActive: active()}, admin)
	assert.NoError(t, err)
	assert.NotEmpty(t, cat.ID)
	assert.Equal(t, admin.ID, cat.CreatedBy)
	assert.Equal(t, boss.ID, cat.AssigneeID)
	if assert.NotNil(t, cat.Assignee) {
		assert.Equal(t, boss.ID, cat.Assignee.ID)
	}

	// unknown assignee
	_, err = svc.Create(ctx, category.NewCategory{Name: "Bio", Assignee: "nope"}, admin)
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))

	// participants cannot be assigned categories
	_, err = svc.Create(ctx, category.NewCategory{Name: "Bio", Assignee: student.ID}, admin)
	assert.True(t, errors.As(err, &vErr))

	// duplicate (name, assignee)
	_, err = svc.Create(ctx, category.NewCategory{Name: "math", Assignee: boss.ID}, admin)
	var cErr *core.ConflictError
	assert.True(t, errors.As(err, &cErr), "same name for the same instructor must conflict")

	// same name for another instructor is fine
	boss2 := createUser(t, usrSvc, user.RoleInstructor, "boss2@test.cm")
	_, err = svc.Create(ctx, category.NewCategory{Name: "Math", Assignee: boss2.ID}, admin)
	assert.NoError(t, err)
}

func TestService_Update_assigneeLockedWhenInUse(t *testing.T) {
	svc, usrSvc, courses := setup(t)
	ctx := context.Background()

	admin := createUser(t, usrSvc, user.RoleAdmin, "admin@test.cm")
	boss := createUser(t, usrSvc, user.RoleInstructor, "boss@test.cm")
	boss2 := createUser(t, usrSvc, user.RoleInstructor, "boss2@test.cm")

	cat, err := svc.Create(ctx, category.NewCategory{Name: "Math", Assignee: boss.ID}, admin)
	assert.NoError(t, err)

	// renaming is always allowed
	cat, err = svc.Update(ctx, cat.ID, category.UpdateCategory{Name: "Mathematics", Assignee: boss.ID})
	assert.NoError(t, err)
	assert.Equal(t, "Mathematics", cat.Name)

	// reassigning is blocked once a course uses the category
	courses.inUse = true
	_, err = svc.Update(ctx, cat.ID, category.UpdateCategory{Name: "Mathematics", Assignee: boss2.ID})
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))

	courses.inUse = false
	updated, err := svc.Update(ctx, cat.ID, category.UpdateCategory{Name: "Mathematics", Assignee: boss2.ID})
	assert.NoError(t, err)
	assert.Equal(t, boss2.ID, updated.AssigneeID)
}

func TestService_SetStatus(t *testing.T) {
	svc, usrSvc, courses := setup(t)
	ctx := context.Background()

	admin := createUser(t, usrSvc, user.RoleAdmin, "admin@test.cm")
	boss := createUser(t, usrSvc, user.RoleInstructor, "boss@test.cm")

	cat, err := svc.Create(ctx, category.NewCategory{Name: "Math", Assignee: boss.ID, IsActive: active()}, admin)
	assert.NoError(t, err)

	// disabling cascades to courses
	assert.NoError(t, svc.SetStatus(ctx, cat.ID, false))
	assert.Equal(t, []string{cat.ID}, courses.disabledCats)

	// cannot re-activate while the assignee is disabled
	assert.NoError(t, usrSvc.SetStatus(ctx, admin, boss.ID, false))
	err = svc.SetStatus(ctx, cat.ID, true)
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))

	assert.NoError(t, usrSvc.SetStatus(ctx, admin, boss.ID, true))
	assert.NoError(t, svc.SetStatus(ctx, cat.ID, true))
}

func TestService_Delete(t *testing.T) {
	svc, usrSvc, courses := setup(t)
	ctx := context.Background()

	admin := createUser(t, usrSvc, user.RoleAdmin, "admin@test.cm")
	boss := createUser(t, usrSvc, user.RoleInstructor, "boss@test.cm")

	cat, err := svc.Create(ctx, category.NewCategory{Name: "Math", Assignee: boss.ID}, admin)
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, cat.ID))
	assert.Equal(t, []string{cat.ID}, courses.deletedCats)

	_, err = svc.GetByID(ctx, cat.ID)
	assert.Equal(t, category.ErrNotFound, errors.Cause(err))

	// the (name, assignee) pair frees up after deletion
	_, err = svc.Create(ctx, category.NewCategory{Name: "Math", Assignee: boss.ID}, admin)
	assert.NoError(t, err)
}

func TestService_DeleteForUser(t *testing.T) {
	svc, usrSvc, courses := setup(t)
	ctx := context.Background()

	admin := createUser(t, usrSvc, user.RoleAdmin, "admin@test.cm")
	boss := createUser(t, usrSvc, user.RoleInstructor, "boss@test.cm")
	boss2 := createUser(t, usrSvc, user.RoleInstructor, "boss2@test.cm")

	cat1, err := svc.Create(ctx, category.NewCategory{Name: "Math", Assignee: boss.ID}, admin)
	assert.NoError(t, err)
	_, err = svc.Create(ctx, category.NewCategory{Name: "Bio", Assignee: boss2.ID}, admin)
	assert.NoError(t, err)

	assert.NoError(t, svc.DeleteForUser(ctx, boss.ID))
	assert.Equal(t, []string{cat1.ID}, courses.deletedCats)

	cats, err := svc.QueryForUser(ctx, boss2.ID)
	assert.NoError(t, err)
	assert.Len(t, cats, 1, "other instructors' categories must survive")
}
