package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/bossmaker/core/course"
	"github.com/trezcool/bossmaker/core/user"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.table))
	for _, crs := range repo.db.table {
		if !crs.IsDeleted {
			courses = append(courses, *crs)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses
}

func (repo *courseRepository) CheckTitleUniqueness(ctx context.Context, title, createdBy string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, crs := range repo.query() {
		if strings.EqualFold(crs.Title, title) && crs.CreatedBy == createdBy {
			return course.ErrTitleExists
		}
	}
	return nil
}

func (repo *courseRepository) TitleAssignedConflict(ctx context.Context, excludeID, title string, assignees []string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	assigned := make(map[string]bool, len(assignees))
	for _, id := range assignees {
		assigned[id] = true
	}
	for _, crs := range repo.query() {
		if crs.ID != excludeID && strings.EqualFold(crs.Title, title) && assigned[crs.AssignedTo] {
			return true, nil
		}
	}
	return false, nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs.ID = uuid.New().String()
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if crs, ok := repo.db.table[id]; ok && !crs.IsDeleted {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]course.Course, 0)
	for _, crs := range repo.query() {
		if filter.CreatedBy != "" && crs.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.AssignedTo != "" && crs.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.Participant != "" && !containsID(crs.ParticipantIDs, filter.Participant) {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, crs.Title, crs.Description) {
			continue
		}
		matches = append(matches, crs)
	}

	total := len(matches)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []course.Course{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func (repo *courseRepository) QueryCoursesByUser(ctx context.Context, userID string) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.query() {
		if crs.CreatedBy == userID || crs.AssignedTo == userID {
			courses = append(courses, crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) QueryCoursesByCategory(ctx context.Context, categoryID string) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.query() {
		if crs.CategoryID == categoryID {
			courses = append(courses, crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) QuerySiblingCourses(ctx context.Context, excludeID, title, categoryID string) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.query() {
		if crs.ID == excludeID || !strings.EqualFold(crs.Title, title) || crs.CategoryID != categoryID {
			continue
		}
		if crs.OwnerRole == user.RoleInstructor || crs.OwnerRole == user.RoleParticipant {
			courses = append(courses, crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if existing, ok := repo.db.table[crs.ID]; !ok || existing.IsDeleted {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) SetCourseStatus(ctx context.Context, id string, active bool) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs, ok := repo.db.table[id]
	if !ok || crs.IsDeleted {
		return course.ErrNotFound
	}
	crs.IsActive = active
	return nil
}

func (repo *courseRepository) SoftDeleteCourse(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if crs, ok := repo.db.table[id]; ok {
		crs.IsDeleted = true
	}
	return nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *courseRepository) CreateSection(ctx context.Context, sec course.Section) (course.Section, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sec.ID = uuid.New().String()
	repo.db.sections[sec.ID] = &sec
	return sec, nil
}

func (repo *courseRepository) GetSections(ctx context.Context, courseID string) ([]course.Section, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sections := make([]course.Section, 0)
	for _, sec := range repo.db.sections {
		if sec.CourseID == courseID {
			sections = append(sections, *sec)
		}
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].CreatedAt.Before(sections[j].CreatedAt) })
	return sections, nil
}

func (repo *courseRepository) UpdateSection(ctx context.Context, sec course.Section) (course.Section, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.sections[sec.ID]; !ok {
		return course.Section{}, course.ErrNotFound
	}
	repo.db.sections[sec.ID] = &sec
	return sec, nil
}

func (repo *courseRepository) DeleteSection(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.sections, id)
	return nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
