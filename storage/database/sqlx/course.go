package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core/course"
	"github.com/trezcool/bossmaker/core/user"
)

type courseRepository struct {
	db sqlx.ExtContext
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db sqlx.ExtContext) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return course.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// courseRow maps the participant_ids array column the driver way.
type courseRow struct {
	course.Course
	RawParticipantIDs pq.StringArray `db:"participant_ids"`
}

func (row courseRow) toCourse() course.Course {
	crs := row.Course
	crs.ParticipantIDs = row.RawParticipantIDs
	return crs
}

func (repo courseRepository) toCourses(rows []courseRow) []course.Course {
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses
}

const (
	sectionInsertQuery = `
INSERT INTO sections (id, course_id, title, lesson, images, videos, documents, created_at, updated_at)
VALUES (:id, :course_id, :title, :lesson, :images, :videos, :documents, :created_at, :updated_at)`

	sectionUpdateQuery = `
UPDATE sections
SET title = :title, lesson = :lesson, images = :images, videos = :videos, documents = :documents, updated_at = :updated_at
WHERE id = :id`
)

const courseSelect = `
SELECT id, title, description, category_id, course_image, is_active, is_deleted, owner_role,
       created_by, assigned_to, instructor_id, participant_ids, created_at, updated_at
FROM courses`

func (repo courseRepository) CheckTitleUniqueness(ctx context.Context, title, createdBy string) error {
	query := `SELECT EXISTS (SELECT 1 FROM courses WHERE lower(title) = lower($1) AND created_by = $2 AND NOT is_deleted)`
	var exists bool
	if err := sqlx.GetContext(ctx, repo.db, &exists, query, title, createdBy); err != nil {
		return errors.Wrap(err, "checking course uniqueness")
	}
	if exists {
		return course.ErrTitleExists
	}
	return nil
}

func (repo courseRepository) TitleAssignedConflict(ctx context.Context, excludeID, title string, assignees []string) (bool, error) {
	query := `
SELECT EXISTS (
  SELECT 1 FROM courses
  WHERE id <> $1 AND lower(title) = lower($2) AND NOT is_deleted AND assigned_to = ANY($3)
)`
	var exists bool
	if err := sqlx.GetContext(ctx, repo.db, &exists, query, excludeID, title, pq.Array(assignees)); err != nil {
		return false, errors.Wrap(err, "checking assignment conflict")
	}
	return exists, nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	query := `
INSERT INTO courses (id, title, description, category_id, course_image, is_active, is_deleted, owner_role,
                     created_by, assigned_to, instructor_id, participant_ids, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := repo.db.ExecContext(ctx, query,
		crs.ID, crs.Title, crs.Description, crs.CategoryID, crs.CourseImage, crs.IsActive, crs.IsDeleted,
		crs.OwnerRole, crs.CreatedBy, crs.AssignedTo, crs.InstructorID, pq.Array(crs.ParticipantIDs),
		crs.CreatedAt, crs.UpdatedAt)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	query := courseSelect + ` WHERE id = $1 AND NOT is_deleted`
	if err := sqlx.GetContext(ctx, repo.db, &row, query, id); err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "getting course")
	}
	return row.toCourse(), nil
}

func (repo courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, int, error) {
	where := `
WHERE NOT is_deleted
  AND (title ILIKE $1 OR description ILIKE $1)
  AND ($2 = '' OR created_by = $2)
  AND ($3 = '' OR assigned_to = $3)
  AND ($4 = '' OR $4 = ANY(participant_ids))`
	search := "%" + filter.Search + "%"

	var total int
	if err := sqlx.GetContext(ctx, repo.db, &total, `SELECT count(*) FROM courses `+where,
		search, filter.CreatedBy, filter.AssignedTo, filter.Participant); err != nil {
		return nil, 0, errors.Wrap(err, "counting courses")
	}

	rows := []courseRow{}
	query := courseSelect + where + ` ORDER BY created_at DESC LIMIT $5 OFFSET $6`
	offset := (filter.Page - 1) * filter.Limit
	if err := sqlx.SelectContext(ctx, repo.db, &rows, query,
		search, filter.CreatedBy, filter.AssignedTo, filter.Participant, filter.Limit, offset); err != nil {
		return nil, 0, errors.Wrap(err, "filtering courses")
	}
	return repo.toCourses(rows), total, nil
}

func (repo courseRepository) QueryCoursesByUser(ctx context.Context, userID string) ([]course.Course, error) {
	rows := []courseRow{}
	query := courseSelect + ` WHERE NOT is_deleted AND (created_by = $1 OR assigned_to = $1)`
	if err := sqlx.SelectContext(ctx, repo.db, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying courses by user")
	}
	return repo.toCourses(rows), nil
}

func (repo courseRepository) QueryCoursesByCategory(ctx context.Context, categoryID string) ([]course.Course, error) {
	rows := []courseRow{}
	query := courseSelect + ` WHERE NOT is_deleted AND category_id = $1`
	if err := sqlx.SelectContext(ctx, repo.db, &rows, query, categoryID); err != nil {
		return nil, errors.Wrap(err, "querying courses by category")
	}
	return repo.toCourses(rows), nil
}

func (repo courseRepository) QuerySiblingCourses(ctx context.Context, excludeID, title, categoryID string) ([]course.Course, error) {
	rows := []courseRow{}
	query := courseSelect + `
 WHERE id <> $1 AND lower(title) = lower($2) AND category_id = $3 AND NOT is_deleted
   AND owner_role IN ($4, $5)`
	if err := sqlx.SelectContext(ctx, repo.db, &rows, query, excludeID, title, categoryID, user.RoleInstructor, user.RoleParticipant); err != nil {
		return nil, errors.Wrap(err, "querying sibling courses")
	}
	return repo.toCourses(rows), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	query := `
UPDATE courses
SET title = $1, description = $2, category_id = $3, course_image = $4, is_active = $5, owner_role = $6,
    assigned_to = $7, instructor_id = $8, participant_ids = $9, updated_at = $10
WHERE id = $11 AND NOT is_deleted`
	res, err := repo.db.ExecContext(ctx, query,
		crs.Title, crs.Description, crs.CategoryID, crs.CourseImage, crs.IsActive, crs.OwnerRole,
		crs.AssignedTo, crs.InstructorID, pq.Array(crs.ParticipantIDs), crs.UpdatedAt, crs.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo courseRepository) SetCourseStatus(ctx context.Context, id string, active bool) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE courses SET is_active = $1, updated_at = $2 WHERE id = $3 AND NOT is_deleted`, active, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "updating course status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo courseRepository) SoftDeleteCourse(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `UPDATE courses SET is_deleted = true, updated_at = $1 WHERE id = $2`, time.Now().UTC(), id); err != nil {
		return errors.Wrap(err, "soft-deleting course")
	}
	return nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo courseRepository) CreateSection(ctx context.Context, sec course.Section) (course.Section, error) {
	sec.ID = uuid.New().String()
	if _, err := sqlx.NamedExecContext(ctx, repo.db, sectionInsertQuery, sec); err != nil {
		return course.Section{}, errors.Wrap(err, "inserting section")
	}
	return sec, nil
}

func (repo courseRepository) GetSections(ctx context.Context, courseID string) ([]course.Section, error) {
	sections := []course.Section{}
	query := `SELECT * FROM sections WHERE course_id = $1 ORDER BY created_at`
	if err := sqlx.SelectContext(ctx, repo.db, &sections, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	return sections, nil
}

func (repo courseRepository) UpdateSection(ctx context.Context, sec course.Section) (course.Section, error) {
	res, err := sqlx.NamedExecContext(ctx, repo.db, sectionUpdateQuery, sec)
	if err != nil {
		return course.Section{}, errors.Wrap(err, "updating section")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Section{}, course.ErrNotFound
	}
	return sec, nil
}

func (repo courseRepository) DeleteSection(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting section")
	}
	return nil
}
