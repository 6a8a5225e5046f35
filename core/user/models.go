package user

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bossmaker/core"
)

// Role is the closed set of account types. The numeric values are the wire
// encoding (user_type) and must not change.
type Role int

const (
	RoleAdmin       Role = 1
	RoleInstructor  Role = 2 // aka "bossmaker"
	RoleParticipant Role = 3 // aka student
)

var roleNames = map[Role]string{
	RoleAdmin:       "Admin",
	RoleInstructor:  "Bossmaker",
	RoleParticipant: "Participant",
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Unknown"
}

func (r Role) IsAdmin() bool       { return r == RoleAdmin }
func (r Role) IsInstructor() bool  { return r == RoleInstructor }
func (r Role) IsParticipant() bool { return r == RoleParticipant }

// ManagedRole returns the role of the accounts this role provisions:
// admins manage instructors, instructors manage participants.
func (r Role) ManagedRole() Role {
	if r == RoleAdmin {
		return RoleInstructor
	}
	return RoleParticipant
}

// CanOwnCategories reports whether accounts of this role may create or be
// assigned categories.
func (r Role) CanOwnCategories() bool {
	return r == RoleAdmin || r == RoleInstructor
}

type User struct {
	ID           string           `json:"id" db:"id"`
	FirstName    string           `json:"first_name" db:"first_name"`
	LastName     string           `json:"last_name" db:"last_name"`
	Email        string           `json:"email" db:"email"`
	Password     string           `json:"-" db:"password"` // encrypted at rest; see core.EncryptSecret
	Role         Role             `json:"user_type" db:"role"`
	MobileNo     string           `json:"mobile_no" db:"mobile_no"`
	DOB          *time.Time       `json:"dob" db:"dob"`
	ProfileImage string           `json:"profile_image" db:"profile_image"` // stored filename
	IsActive     bool             `json:"status" db:"is_active"`
	CreatedBy    string           `json:"created_by,omitempty" db:"created_by"`
	Permissions  PermissionMatrix `json:"permission" db:"permissions"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"` // UTC
}

// SetPassword encrypts pwd and stores the result.
func (u *User) SetPassword(pwd string) error {
	enc, err := core.EncryptSecret(pwd)
	if err != nil {
		return err
	}
	u.Password = enc
	return nil
}

// PlainPassword decrypts the stored password.
func (u *User) PlainPassword() (string, error) {
	return core.DecryptSecret(u.Password)
}

// CheckPassword compares pwd against the decrypted stored password.
func (u *User) CheckPassword(pwd string) error {
	plain, err := u.PlainPassword()
	if err != nil {
		return err
	}
	if plain != pwd {
		return ErrInvalidCredentials
	}
	return nil
}

// Ref is the short identity shape embedded in other payloads.
type Ref struct {
	ID        string `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
}

// NewUser contains the information needed to create a User.
type NewUser struct {
	FirstName string     `json:"first_name" form:"first_name" validate:"required"`
	LastName  string     `json:"last_name" form:"last_name" validate:"required"`
	Email     string     `json:"email" form:"email" validate:"required,email"`
	Password  string     `json:"password" form:"password" validate:"required"`
	Role      Role       `json:"user_type" form:"user_type"`
	MobileNo  string     `json:"mobile_no" form:"mobile_no" validate:"required"`
	DOB       *time.Time `json:"dob" form:"dob"`
	IsActive  *bool      `json:"status" form:"status"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if nu.Role == 0 {
		nu.Role = RoleParticipant
	}
	if !nu.Role.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "user_type", Error: "invalid user type"})
	}
	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(context.Background(), nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	FirstName string     `json:"first_name" form:"first_name" validate:"required"`
	LastName  string     `json:"last_name" form:"last_name" validate:"required"`
	Email     string     `json:"email" form:"email" validate:"required,email"`
	Password  string     `json:"password" form:"password" validate:"required"`
	Role      Role       `json:"user_type" form:"user_type"`
	MobileNo  string     `json:"mobile_no" form:"mobile_no"`
	DOB       *time.Time `json:"dob" form:"dob"`
	IsActive  *bool      `json:"status" form:"status"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc ServiceInterface) error {
	uu.FirstName = core.CleanString(uu.FirstName)
	uu.LastName = core.CleanString(uu.LastName)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	if uu.Role != 0 && !uu.Role.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "user_type", Error: "invalid user type"})
	}
	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(context.Background(), uu.Email, origUsr)
}

// UpdateProfile is the self-service subset of UpdateUser.
type UpdateProfile struct {
	FirstName string     `json:"first_name" form:"first_name" validate:"required"`
	LastName  string     `json:"last_name" form:"last_name" validate:"required"`
	MobileNo  string     `json:"mobile_no" form:"mobile_no"`
	DOB       *time.Time `json:"dob" form:"dob"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.FirstName = core.CleanString(up.FirstName)
	up.LastName = core.CleanString(up.LastName)
	return validate.Struct(up)
}

// ChangePassword carries an authenticated password change request.
type ChangePassword struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

func (cp *ChangePassword) Validate(validate *validator.Validate) error {
	if err := validate.Struct(cp); err != nil {
		return err
	}
	if cp.OldPassword == cp.NewPassword {
		return core.NewValidationError(nil, core.FieldError{
			Field: "new_password", Error: "new password must differ from the old password"})
	}
	if cp.NewPassword != cp.ConfirmPassword {
		return core.NewValidationError(nil, core.FieldError{
			Field: "confirm_password", Error: "new password and confirm password do not match"})
	}
	return nil
}

// QueryFilter narrows user list queries.
type QueryFilter struct {
	Search    string `query:"search"`
	Role      Role   `query:"-"`
	CreatedBy string `query:"-"`
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	if qf.Page <= 0 {
		qf.Page = 1
	}
	if qf.Limit <= 0 {
		qf.Limit = 10
	}
}

// GetFilter selects a single user; ID wins when set.
type GetFilter struct {
	ID    string
	Email string
}

// RegisterValidators wires user-specific validations into the application
// validator; must be called once on the instance handlers use.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(passwordStructValidation, NewUser{}, UpdateUser{}, ChangePassword{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}
