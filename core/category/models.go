package category

import (
	"time"

	validatorlib "github.com/go-playground/validator/v10"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/user"
)

type (
	Category struct {
		ID         string    `json:"_id" db:"id"`
		Name       string    `json:"name" db:"name"`
		IsActive   bool      `json:"status" db:"is_active"`
		IsDeleted  bool      `json:"-" db:"is_deleted"`
		CreatedBy  string    `json:"created_by" db:"created_by"`
		AssigneeID string    `json:"-" db:"assignee_id"`
		Assignee   *user.Ref `json:"assignee,omitempty" db:"-"`
		CreatedAt  time.Time `json:"created_at" db:"created_at"`
		UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
	}

	NewCategory struct {
		Name     string `json:"name" validate:"required"`
		Assignee string `json:"assignee" validate:"required"`
		IsActive *bool  `json:"status"`
	}

	UpdateCategory struct {
		Name     string `json:"name" validate:"required"`
		Assignee string `json:"assignee" validate:"required"`
		IsActive *bool  `json:"status"`
	}

	// QueryFilter narrows and pages category listings.
	QueryFilter struct {
		Search    string `query:"search"`
		CreatedBy string
		Assignee  string
		Page      int `query:"page"`
		Limit     int `query:"limit"`
	}
)

func (nc *NewCategory) Validate(validate *validatorlib.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return nil
}

func (uc *UpdateCategory) Validate(validate *validatorlib.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	if err := validate.Struct(uc); err != nil {
		return err
	}
	return nil
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search, true)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
}
