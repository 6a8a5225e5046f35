package category

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/user"
)

var (
	// errors
	ErrNotFound   = errors.New("category not found")
	ErrNameExists = errors.New("a category with this name already exists for this instructor")
)

type (
	Repository interface {
		// CheckNameUniqueness fails with ErrNameExists when another live category
		// with the same (name, assignee) pair exists outside excluded.
		CheckNameUniqueness(ctx context.Context, name, assigneeID string, excluded ...Category) error
		CreateCategory(ctx context.Context, cat Category) (Category, error)
		GetCategory(ctx context.Context, id string) (Category, error)
		FilterCategories(ctx context.Context, filter QueryFilter) ([]Category, int, error)
		// QueryCategoriesByUser returns live categories the user created or is assigned.
		QueryCategoriesByUser(ctx context.Context, userID string) ([]Category, error)
		UpdateCategory(ctx context.Context, cat Category) (Category, error)
		SetCategoryStatus(ctx context.Context, id string, active bool) error
		SoftDeleteCategory(ctx context.Context, id string) error
	}

	// CourseCascader is the slice of the course service category cascades need.
	CourseCascader interface {
		CategoryInUse(ctx context.Context, categoryID string) (bool, error)
		DisableByCategory(ctx context.Context, categoryID string) error
		SoftDeleteByCategory(ctx context.Context, categoryID string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nc NewCategory, createdBy user.User) (Category, error)
		GetByID(ctx context.Context, id string) (Category, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Category, int, error)
		QueryForUser(ctx context.Context, userID string) ([]Category, error)
		Update(ctx context.Context, id string, uc UpdateCategory) (Category, error)
		SetStatus(ctx context.Context, id string, active bool) error
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		usrSvc  user.ServiceInterface
		courses CourseCascader
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, usrSvc user.ServiceInterface) *Service {
	return &Service{repo: repo, usrSvc: usrSvc}
}

// BindCascades attaches the course service; wired after construction to break
// the dependency knot.
func (svc *Service) BindCascades(courses CourseCascader) { svc.courses = courses }

func (svc *Service) Create(ctx context.Context, nc NewCategory, createdBy user.User) (Category, error) {
	assignee, err := svc.resolveAssignee(ctx, nc.Assignee)
	if err != nil {
		return Category{}, err
	}
	if err = svc.checkNameUniqueness(ctx, nc.Name, assignee.ID); err != nil {
		return Category{}, err
	}

	now := time.Now().UTC()
	cat := Category{
		Name:       nc.Name,
		CreatedBy:  createdBy.ID,
		AssigneeID: assignee.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if nc.IsActive != nil {
		cat.IsActive = *nc.IsActive
	}
	cat, err = svc.repo.CreateCategory(ctx, cat)
	if err != nil {
		return Category{}, err
	}
	cat.Assignee = refOf(assignee)
	return cat, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Category, error) {
	return svc.repo.GetCategory(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Category, int, error) {
	return svc.repo.FilterCategories(ctx, filter)
}

func (svc *Service) QueryForUser(ctx context.Context, userID string) ([]Category, error) {
	return svc.repo.QueryCategoriesByUser(ctx, userID)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCategory) (Category, error) {
	cat, err := svc.repo.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}
	assignee, err := svc.resolveAssignee(ctx, uc.Assignee)
	if err != nil {
		return Category{}, err
	}
	// the instructor cannot change anymore once a course uses the category
	if assignee.ID != cat.AssigneeID && svc.courses != nil {
		inUse, err := svc.courses.CategoryInUse(ctx, cat.ID)
		if err != nil {
			return Category{}, errors.Wrap(err, "checking category usage")
		}
		if inUse {
			return Category{}, core.NewValidationError(errors.New("cannot change instructor. Category is already used in a course"))
		}
	}
	if uc.Name != cat.Name || assignee.ID != cat.AssigneeID {
		if err = svc.checkNameUniqueness(ctx, uc.Name, assignee.ID, cat); err != nil {
			return Category{}, err
		}
	}

	cat.Name = uc.Name
	cat.AssigneeID = assignee.ID
	cat.UpdatedAt = time.Now().UTC()
	if uc.IsActive != nil {
		cat.IsActive = *uc.IsActive
	}
	cat, err = svc.repo.UpdateCategory(ctx, cat)
	if err != nil {
		return Category{}, err
	}
	cat.Assignee = refOf(assignee)
	return cat, nil
}

// SetStatus toggles a category. Activation is refused while the assigned
// instructor is disabled; deactivation cascades to the category's courses.
func (svc *Service) SetStatus(ctx context.Context, id string, active bool) error {
	cat, err := svc.repo.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if active {
		assignee, err := svc.usrSvc.GetByID(ctx, cat.AssigneeID)
		if err != nil {
			return errors.Wrap(err, "fetching assignee")
		}
		if !assignee.IsActive {
			return core.NewValidationError(errors.New("the assigned instructor is disabled"))
		}
	}
	if err = svc.repo.SetCategoryStatus(ctx, cat.ID, active); err != nil {
		return err
	}
	if !active && svc.courses != nil {
		if err = svc.courses.DisableByCategory(ctx, cat.ID); err != nil {
			return errors.Wrap(err, "disabling courses")
		}
	}
	return nil
}

// Delete soft-deletes a category and cascades to its courses, which are
// disabled and soft-deleted in turn. Best-effort, not transactional.
func (svc *Service) Delete(ctx context.Context, id string) error {
	cat, err := svc.repo.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.SoftDeleteCategory(ctx, cat.ID); err != nil {
		return err
	}
	if svc.courses != nil {
		if err = svc.courses.SoftDeleteByCategory(ctx, cat.ID); err != nil {
			return errors.Wrap(err, "deleting courses")
		}
	}
	return nil
}

// DeleteForUser soft-deletes every category the user created or is assigned,
// cascading each one to its courses. Used by instructor account deletion.
func (svc *Service) DeleteForUser(ctx context.Context, userID string) error {
	cats, err := svc.repo.QueryCategoriesByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, cat := range cats {
		if err = svc.Delete(ctx, cat.ID); err != nil {
			return err
		}
	}
	return nil
}

// DisableForUser deactivates every category the user created or is assigned.
// Used when an instructor account is disabled.
func (svc *Service) DisableForUser(ctx context.Context, userID string) error {
	cats, err := svc.repo.QueryCategoriesByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, cat := range cats {
		if err = svc.repo.SetCategoryStatus(ctx, cat.ID, false); err != nil {
			return err
		}
		if svc.courses != nil {
			if err = svc.courses.DisableByCategory(ctx, cat.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (svc *Service) resolveAssignee(ctx context.Context, id string) (user.User, error) {
	assignee, err := svc.usrSvc.GetByID(ctx, id)
	if err != nil {
		return user.User{}, core.NewValidationError(errors.New("unknown instructor"), core.FieldError{Field: "assignee", Error: "unknown instructor"})
	}
	if !assignee.Role.CanOwnCategories() {
		return user.User{}, core.NewValidationError(errors.New("user cannot be assigned categories"), core.FieldError{Field: "assignee", Error: "user cannot be assigned categories"})
	}
	return assignee, nil
}

func (svc *Service) checkNameUniqueness(ctx context.Context, name, assigneeID string, excluded ...Category) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, assigneeID, excluded...); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewConflictError(err)
		}
		return err
	}
	return nil
}

func refOf(usr user.User) *user.Ref {
	return &user.Ref{ID: usr.ID, FirstName: usr.FirstName, LastName: usr.LastName}
}
