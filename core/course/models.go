package course

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	validatorlib "github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/upload"
	"github.com/trezcool/bossmaker/core/user"
)

type (
	// MediaRef points a section at an upload record.
	MediaRef struct {
		ID           string `json:"_id"`
		StoredName   string `json:"stored_name,omitempty"`
		OriginalName string `json:"original_name,omitempty"`
	}

	// MediaRefs is stored as a JSONB column.
	MediaRefs []MediaRef

	Section struct {
		ID        string    `json:"_id" db:"id"`
		CourseID  string    `json:"course_id" db:"course_id"`
		Title     string    `json:"title" db:"title"`
		Lesson    string    `json:"lesson" db:"lesson"`
		Images    MediaRefs `json:"image" db:"images"`
		Videos    MediaRefs `json:"video" db:"videos"`
		Documents MediaRefs `json:"document" db:"documents"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
		UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	}

	Course struct {
		ID             string    `json:"_id" db:"id"`
		Title          string    `json:"title" db:"title"`
		Description    string    `json:"description" db:"description"`
		CategoryID     string    `json:"category_id" db:"category_id"`
		CategoryName   string    `json:"category_name,omitempty" db:"-"`
		CourseImage    string    `json:"course_image,omitempty" db:"course_image"` // upload record ID
		IsActive       bool      `json:"status" db:"is_active"`
		IsDeleted      bool      `json:"-" db:"is_deleted"`
		OwnerRole      user.Role `json:"user_type" db:"owner_role"`
		CreatedBy      string    `json:"created_by" db:"created_by"`
		AssignedTo     string    `json:"assigned_to,omitempty" db:"assigned_to"`
		InstructorID   string    `json:"instructor_ids,omitempty" db:"instructor_id"`
		ParticipantIDs []string  `json:"participant_ids" db:"-"`
		// joined refs, present on listings only
		Assignee     *user.Ref  `json:"assignee,omitempty" db:"-"`
		Participants []user.Ref `json:"participants,omitempty" db:"-"`
		CreatedAt    time.Time  `json:"created_at" db:"created_at"`
		UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	}

	// SectionDetail carries a section with its media references resolved to
	// full upload records.
	SectionDetail struct {
		Section
		Images    []upload.Record `json:"image"`
		Videos    []upload.Record `json:"video"`
		Documents []upload.Record `json:"document"`
	}

	CourseDetail struct {
		Course
		CourseImage *upload.Record  `json:"course_image"`
		Sections    []SectionDetail `json:"sections"`
	}

	NewSection struct {
		ID        string    `json:"_id"`
		Title     string    `json:"title"`
		Lesson    string    `json:"lesson"`
		Images    MediaRefs `json:"image"`
		Videos    MediaRefs `json:"video"`
		Documents MediaRefs `json:"document"`
	}

	NewCourse struct {
		Title          string       `json:"title" validate:"required"`
		Description    string       `json:"description"`
		CategoryID     string       `json:"category_id" validate:"required"`
		CourseImage    string       `json:"course_image"`
		IsActive       *bool        `json:"status"`
		InstructorIDs  []string     `json:"instructor_ids"`
		ParticipantIDs []string     `json:"participant_ids"`
		Sections       []NewSection `json:"sections"`
	}

	UpdateCourse struct {
		Title          string       `json:"title" validate:"required"`
		Description    string       `json:"description"`
		CategoryID     string       `json:"category_id" validate:"required"`
		CourseImage    string       `json:"course_image"`
		IsActive       *bool        `json:"status"`
		InstructorIDs  []string     `json:"instructor_ids"`
		ParticipantIDs []string     `json:"participant_ids"`
		Sections       []NewSection `json:"sections"`
	}

	// QueryFilter narrows and pages course listings. Search does a
	// case-insensitive match on title or description.
	QueryFilter struct {
		Search      string `query:"search"`
		CreatedBy   string
		AssignedTo  string
		Participant string
		Page        int `query:"page"`
		Limit       int `query:"limit"`
	}
)

var (
	_ driver.Valuer = (MediaRefs)(nil)
	_ sql.Scanner   = (*MediaRefs)(nil)
)

func (m MediaRefs) Value() (driver.Value, error) {
	if m == nil {
		m = MediaRefs{}
	}
	return json.Marshal(m)
}

func (m *MediaRefs) Scan(src interface{}) error {
	if src == nil {
		*m = MediaRefs{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("unsupported media refs type %T", src)
	}
	return json.Unmarshal(data, m)
}

// IDs returns the upload record IDs, skipping empty entries.
func (m MediaRefs) IDs() []string {
	ids := make([]string, 0, len(m))
	for _, ref := range m {
		if ref.ID != "" {
			ids = append(ids, ref.ID)
		}
	}
	return ids
}

// MediaIDs gathers every upload ID referenced by the section.
func (s Section) MediaIDs() []string {
	var ids []string
	ids = append(ids, s.Images.IDs()...)
	ids = append(ids, s.Videos.IDs()...)
	ids = append(ids, s.Documents.IDs()...)
	return ids
}

func (nc *NewCourse) Validate(validate *validatorlib.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	return validate.Struct(nc)
}

func (uc *UpdateCourse) Validate(validate *validatorlib.Validate) error {
	uc.Title = core.CleanString(uc.Title)
	return validate.Struct(uc)
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
