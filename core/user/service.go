package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	Repository interface {
		// CheckEmailUniqueness fails with ErrEmailExists when another user
		// (outside excludedUsers) already has the email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// GetUsersByID fetches the users matching ids; unknown ids are skipped.
		GetUsersByID(ctx context.Context, ids ...string) ([]User, error)
		// FilterUsers applies QueryFilter and returns one page plus the total count.
		// QueryFilter.Search does a case-insensitive match on first name, last name or email.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, int, error)
		QueryUsersByCreator(ctx context.Context, createdBy string, role Role) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		SetUserStatus(ctx context.Context, id string, active bool) error
		SetStatusByCreator(ctx context.Context, createdBy string, role Role, active bool) error
		DeleteUsersByID(ctx context.Context, ids ...string) (int, error)
	}

	// CourseCascader is the slice of the course service user cascades need.
	CourseCascader interface {
		DeleteOwnedBy(ctx context.Context, userID string) error
		DisableOwnedBy(ctx context.Context, userID string) error
	}

	// CategoryCascader is the slice of the category service user cascades need.
	CategoryCascader interface {
		DeleteForUser(ctx context.Context, userID string) error
		DisableForUser(ctx context.Context, userID string) error
	}

	// FileRemover deletes stored files; removal of an absent file is not an error.
	FileRemover interface {
		Remove(relPath string) error
	}

	// ServiceInterface is what transport layers program against.
	ServiceInterface interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		Create(ctx context.Context, nu NewUser, createdBy User, profileImage string) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetRefs(ctx context.Context, ids ...string) ([]Ref, error)
		Filter(ctx context.Context, filter QueryFilter) ([]User, int, error)
		QueryManaged(ctx context.Context, createdBy string, role Role) ([]User, error)
		Update(ctx context.Context, origUsr User, uu UpdateUser, profileImage string) (User, error)
		UpdateProfile(ctx context.Context, usr User, up UpdateProfile, profileImage string) (User, error)
		ChangePassword(ctx context.Context, usr User, cp ChangePassword) error
		SetStatus(ctx context.Context, actor User, id string, active bool) error
		UpdatePermissions(ctx context.Context, id string, grants []Grant) error
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo       Repository
		mailSvc    core.EmailService
		files      FileRemover
		courses    CourseCascader
		categories CategoryCascader
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, files FileRemover) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, files: files}
}

// BindCascades attaches the course and category services for hard-delete and
// status cascades; wired after construction to break the dependency knot.
func (svc *Service) BindCascades(courses CourseCascader, categories CategoryCascader) {
	svc.courses = courses
	svc.categories = categories
}

func (svc *Service) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewConflictError(err)
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser, createdBy User, profileImage string) (User, error) {
	now := time.Now().UTC()
	usr := User{
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Email:        nu.Email,
		Role:         nu.Role,
		MobileNo:     nu.MobileNo,
		DOB:          nu.DOB,
		ProfileImage: profileImage,
		CreatedBy:    createdBy.ID,
		Permissions:  DefaultPermissions(nu.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if nu.IsActive != nil {
		usr.IsActive = *nu.IsActive
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "encrypting password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeEmail(usr, nu.Password)
	return usr, nil
}

func (svc *Service) sendWelcomeEmail(usr User, plainPwd string) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FirstName + " " + usr.LastName, Address: usr.Email}},
		Subject:      "Your account is ready",
		TemplateName: "welcome",
		TemplateData: struct {
			FirstName string
			Email     string
			Password  string
		}{usr.FirstName, usr.Email, plainPwd},
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// GetRefs resolves ids to short name refs for embedding in other payloads.
func (svc *Service) GetRefs(ctx context.Context, ids ...string) ([]Ref, error) {
	users, err := svc.repo.GetUsersByID(ctx, ids...)
	if err != nil {
		return nil, err
	}
	refs := make([]Ref, 0, len(users))
	for _, usr := range users {
		refs = append(refs, Ref{ID: usr.ID, FirstName: usr.FirstName, LastName: usr.LastName})
	}
	return refs, nil
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, int, error) {
	return svc.repo.FilterUsers(ctx, filter)
}

func (svc *Service) QueryManaged(ctx context.Context, createdBy string, role Role) ([]User, error) {
	return svc.repo.QueryUsersByCreator(ctx, createdBy, role)
}

func (svc *Service) Update(ctx context.Context, origUsr User, uu UpdateUser, profileImage string) (User, error) {
	usr := origUsr
	usr.FirstName = uu.FirstName
	usr.LastName = uu.LastName
	usr.Email = uu.Email
	usr.MobileNo = uu.MobileNo
	usr.UpdatedAt = time.Now().UTC()
	if uu.Role != 0 {
		usr.Role = uu.Role
	}
	if uu.DOB != nil {
		usr.DOB = uu.DOB
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if err := usr.SetPassword(uu.Password); err != nil {
		return User{}, errors.Wrap(err, "encrypting password")
	}
	if profileImage != "" {
		svc.removeProfileImage(origUsr)
		usr.ProfileImage = profileImage
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) UpdateProfile(ctx context.Context, origUsr User, up UpdateProfile, profileImage string) (User, error) {
	usr := origUsr
	usr.FirstName = up.FirstName
	usr.LastName = up.LastName
	usr.MobileNo = up.MobileNo
	usr.DOB = up.DOB
	usr.UpdatedAt = time.Now().UTC()
	if profileImage != "" {
		svc.removeProfileImage(origUsr)
		usr.ProfileImage = profileImage
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) ChangePassword(ctx context.Context, usr User, cp ChangePassword) error {
	if err := usr.CheckPassword(cp.OldPassword); err != nil {
		return ErrInvalidCredentials
	}
	if err := usr.SetPassword(cp.NewPassword); err != nil {
		return errors.Wrap(err, "encrypting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err := svc.repo.UpdateUser(ctx, usr)
	return err
}

// SetStatus toggles an account. Disabling an instructor cascades: their
// participants, categories and courses are disabled too. Best-effort, not
// transactional; a mid-cascade failure leaves earlier steps applied.
func (svc *Service) SetStatus(ctx context.Context, actor User, id string, active bool) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	if err = svc.repo.SetUserStatus(ctx, usr.ID, active); err != nil {
		return err
	}

	if actor.Role.IsAdmin() && usr.Role.IsInstructor() && !active {
		if err = svc.repo.SetStatusByCreator(ctx, usr.ID, RoleParticipant, false); err != nil {
			return errors.Wrap(err, "disabling participants")
		}
		if svc.categories != nil {
			if err = svc.categories.DisableForUser(ctx, usr.ID); err != nil {
				return errors.Wrap(err, "disabling categories")
			}
		}
		if svc.courses != nil {
			if err = svc.courses.DisableOwnedBy(ctx, usr.ID); err != nil {
				return errors.Wrap(err, "disabling courses")
			}
		}
	}
	return nil
}

func (svc *Service) UpdatePermissions(ctx context.Context, id string, grants []Grant) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	if !usr.Permissions.Merge(grants) {
		return nil // nothing changed
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// Delete hard-deletes an account. Instructor accounts cascade: their courses
// (with sections, uploads and backing files), the participants they created
// (with profile images) and the categories they created or were assigned.
func (svc *Service) Delete(ctx context.Context, id string) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	if _, err = svc.repo.DeleteUsersByID(ctx, usr.ID); err != nil {
		return err
	}

	if usr.Role.IsInstructor() {
		if svc.courses != nil {
			if err = svc.courses.DeleteOwnedBy(ctx, usr.ID); err != nil {
				return errors.Wrap(err, "deleting courses")
			}
		}

		participants, err := svc.repo.QueryUsersByCreator(ctx, usr.ID, RoleParticipant)
		if err != nil {
			return errors.Wrap(err, "querying participants")
		}
		for _, p := range participants {
			svc.removeProfileImage(p)
			if _, err = svc.repo.DeleteUsersByID(ctx, p.ID); err != nil {
				return errors.Wrap(err, "deleting participant")
			}
		}

		if svc.categories != nil {
			if err = svc.categories.DeleteForUser(ctx, usr.ID); err != nil {
				return errors.Wrap(err, "deleting categories")
			}
		}
	}

	svc.removeProfileImage(usr)
	return nil
}

func (svc *Service) removeProfileImage(usr User) {
	if usr.ProfileImage == "" || svc.files == nil {
		return
	}
	_ = svc.files.Remove("users/" + usr.ProfileImage)
}
