package course

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/category"
	"github.com/trezcool/bossmaker/core/upload"
	"github.com/trezcool/bossmaker/core/user"
)

var (
	// errors
	ErrNotFound    = errors.New("course not found")
	ErrTitleExists = errors.New("this course already exists")
)

type (
	Repository interface {
		// CheckTitleUniqueness fails with ErrTitleExists when the creator already
		// has a live course with the title.
		CheckTitleUniqueness(ctx context.Context, title, createdBy string) error
		// TitleAssignedConflict reports whether any course other than excludeID
		// with the same title is already assigned to one of the given users.
		TitleAssignedConflict(ctx context.Context, excludeID, title string, assignees []string) (bool, error)
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		FilterCourses(ctx context.Context, filter QueryFilter) ([]Course, int, error)
		// QueryCoursesByUser returns live courses the user created or is assigned.
		QueryCoursesByUser(ctx context.Context, userID string) ([]Course, error)
		QueryCoursesByCategory(ctx context.Context, categoryID string) ([]Course, error)
		// QuerySiblingCourses returns the per-instructor duplicates of a course:
		// same title and category, owned by an instructor or participant role,
		// excluding excludeID.
		QuerySiblingCourses(ctx context.Context, excludeID, title, categoryID string) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		SetCourseStatus(ctx context.Context, id string, active bool) error
		SoftDeleteCourse(ctx context.Context, id string) error
		DeleteCourse(ctx context.Context, id string) error

		CreateSection(ctx context.Context, sec Section) (Section, error)
		GetSections(ctx context.Context, courseID string) ([]Section, error)
		UpdateSection(ctx context.Context, sec Section) (Section, error)
		DeleteSection(ctx context.Context, id string) error
	}

	// UserResolver is the slice of the user service listings need to embed
	// assignee and participant names.
	UserResolver interface {
		GetRefs(ctx context.Context, ids ...string) ([]user.Ref, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, actor user.User, nc NewCourse) ([]Course, error)
		Filter(ctx context.Context, actor user.User, filter QueryFilter) ([]Course, int, error)
		GetDetail(ctx context.Context, actor user.User, id string) (CourseDetail, error)
		Update(ctx context.Context, actor user.User, id string, uc UpdateCourse) (Course, bool, error)
		SetStatus(ctx context.Context, actor user.User, id string, active bool) error
		Delete(ctx context.Context, actor user.User, id string) error
	}

	Service struct {
		repo    Repository
		catSvc  category.ServiceInterface
		uploads upload.ServiceInterface
		users   UserResolver
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, catSvc category.ServiceInterface, uploads upload.ServiceInterface, users UserResolver) *Service {
	return &Service{repo: repo, catSvc: catSvc, uploads: uploads, users: users}
}

// Create makes one course per selected instructor when an admin creates, or a
// single course assigned to the actor when an instructor creates. The course
// rows are independent copies; editing one later never touches the others.
func (svc *Service) Create(ctx context.Context, actor user.User, nc NewCourse) ([]Course, error) {
	if actor.Role.IsAdmin() && len(nc.InstructorIDs) == 0 {
		return nil, core.NewValidationError(errors.New("at least one instructor must be selected"))
	}
	if err := svc.repo.CheckTitleUniqueness(ctx, nc.Title, actor.ID); err != nil {
		if errors.Cause(err) == ErrTitleExists {
			return nil, core.NewConflictError(err)
		}
		return nil, err
	}

	now := time.Now().UTC()
	base := Course{
		Title:       nc.Title,
		Description: nc.Description,
		CategoryID:  nc.CategoryID,
		CourseImage: nc.CourseImage,
		IsActive:    true,
		OwnerRole:   user.RoleInstructor,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nc.IsActive != nil {
		base.IsActive = *nc.IsActive
	}

	var created []Course
	if actor.Role.IsAdmin() {
		for _, instructorID := range nc.InstructorIDs {
			if err := svc.checkCategoryOwnership(ctx, nc.CategoryID, instructorID); err != nil {
				return nil, err
			}
			crs := base
			crs.InstructorID = instructorID
			crs.AssignedTo = instructorID
			crs, err := svc.repo.CreateCourse(ctx, crs)
			if err != nil {
				return nil, err
			}
			if err = svc.storeSections(ctx, crs.ID, nc.Sections); err != nil {
				return nil, err
			}
			created = append(created, crs)
		}
		return created, nil
	}

	if err := svc.checkCategoryOwnership(ctx, nc.CategoryID, actor.ID); err != nil {
		return nil, err
	}
	crs := base
	crs.AssignedTo = actor.ID
	crs.ParticipantIDs = nc.ParticipantIDs
	crs, err := svc.repo.CreateCourse(ctx, crs)
	if err != nil {
		return nil, err
	}
	if err = svc.storeSections(ctx, crs.ID, nc.Sections); err != nil {
		return nil, err
	}
	return []Course{crs}, nil
}

// Filter scopes listings by role: admins see courses they created,
// instructors the ones assigned to them, participants the ones they are
// enrolled in.
func (svc *Service) Filter(ctx context.Context, actor user.User, filter QueryFilter) ([]Course, int, error) {
	switch {
	case actor.Role.IsAdmin():
		filter.CreatedBy = actor.ID
	case actor.Role.IsInstructor():
		filter.AssignedTo = actor.ID
	default:
		filter.Participant = actor.ID
	}
	courses, total, err := svc.repo.FilterCourses(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	svc.enrichListing(ctx, actor, courses)
	return courses, total, nil
}

// enrichListing fills in the display fields a course list carries: the
// category name, the assignee ref (admin listings) or participant refs
// (instructor listings), and the course image resolved to a serving URL.
func (svc *Service) enrichListing(ctx context.Context, actor user.User, courses []Course) {
	catNames := make(map[string]string)
	for i, crs := range courses {
		name, ok := catNames[crs.CategoryID]
		if !ok {
			if cat, err := svc.catSvc.GetByID(ctx, crs.CategoryID); err == nil {
				name = cat.Name
			}
			catNames[crs.CategoryID] = name
		}
		courses[i].CategoryName = name
	}

	var ids []string
	switch {
	case actor.Role.IsAdmin():
		for _, crs := range courses {
			if crs.AssignedTo != "" {
				ids = append(ids, crs.AssignedTo)
			}
		}
	case actor.Role.IsInstructor():
		for _, crs := range courses {
			ids = append(ids, crs.ParticipantIDs...)
		}
	}
	refMap := svc.refsByID(ctx, ids)
	for i, crs := range courses {
		switch {
		case actor.Role.IsAdmin():
			if ref, ok := refMap[crs.AssignedTo]; ok {
				courses[i].Assignee = &ref
			}
		case actor.Role.IsInstructor():
			courses[i].Participants = pickRefs(refMap, crs.ParticipantIDs)
		}
	}

	var imgIDs []string
	for _, crs := range courses {
		if crs.CourseImage != "" {
			imgIDs = append(imgIDs, crs.CourseImage)
		}
	}
	if len(imgIDs) == 0 {
		return
	}
	urls := make(map[string]string, len(imgIDs))
	if recs, err := svc.uploads.GetMany(ctx, dedupe(imgIDs)...); err == nil {
		for _, rec := range recs {
			urls[rec.ID] = core.Conf.FileURL("sections", rec.FileTitle)
		}
	}
	for i, crs := range courses {
		courses[i].CourseImage = urls[crs.CourseImage]
	}
}

func (svc *Service) refsByID(ctx context.Context, ids []string) map[string]user.Ref {
	refMap := make(map[string]user.Ref)
	if len(ids) == 0 || svc.users == nil {
		return refMap
	}
	refs, err := svc.users.GetRefs(ctx, dedupe(ids)...)
	if err != nil {
		return refMap
	}
	for _, ref := range refs {
		refMap[ref.ID] = ref
	}
	return refMap
}

func pickRefs(refMap map[string]user.Ref, ids []string) []user.Ref {
	refs := make([]user.Ref, 0, len(ids))
	for _, id := range ids {
		if ref, ok := refMap[id]; ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func (svc *Service) GetDetail(ctx context.Context, actor user.User, id string) (CourseDetail, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return CourseDetail{}, err
	}
	if cat, err := svc.catSvc.GetByID(ctx, crs.CategoryID); err == nil {
		crs.CategoryName = cat.Name
	}

	// the assignment detail depends on who is asking: admins get the assigned
	// instructor back as the instructor selection, instructors get their
	// participants resolved to name refs
	switch {
	case actor.Role.IsAdmin():
		crs.InstructorID = crs.AssignedTo
	case actor.Role.IsInstructor():
		crs.Participants = pickRefs(svc.refsByID(ctx, crs.ParticipantIDs), crs.ParticipantIDs)
	}

	detail := CourseDetail{Course: crs}
	if crs.CourseImage != "" {
		if recs, err := svc.uploads.GetMany(ctx, crs.CourseImage); err == nil && len(recs) > 0 {
			detail.CourseImage = &recs[0]
		}
	}

	sections, err := svc.repo.GetSections(ctx, crs.ID)
	if err != nil {
		return CourseDetail{}, err
	}

	// batch-fetch every referenced upload, then resolve per section dropping
	// dangling references
	var allIDs []string
	for _, sec := range sections {
		allIDs = append(allIDs, sec.MediaIDs()...)
	}
	recMap := make(map[string]upload.Record)
	if len(allIDs) > 0 {
		recs, err := svc.uploads.GetMany(ctx, dedupe(allIDs)...)
		if err != nil {
			return CourseDetail{}, err
		}
		for _, rec := range recs {
			recMap[rec.ID] = rec
		}
	}
	resolve := func(refs MediaRefs) []upload.Record {
		out := make([]upload.Record, 0, len(refs))
		for _, id := range refs.IDs() {
			if rec, ok := recMap[id]; ok {
				out = append(out, rec)
			}
		}
		return out
	}
	for _, sec := range sections {
		detail.Sections = append(detail.Sections, SectionDetail{
			Section:   sec,
			Images:    resolve(sec.Images),
			Videos:    resolve(sec.Videos),
			Documents: resolve(sec.Documents),
		})
	}
	return detail, nil
}

// Update edits a course in place and reconciles its sections. When an admin
// changes the instructor selection, the course is instead duplicated for each
// newly selected instructor (sections and upload records cloned) and the
// original is left untouched; the second return reports that case.
func (svc *Service) Update(ctx context.Context, actor user.User, id string, uc UpdateCourse) (Course, bool, error) {
	if actor.Role.IsAdmin() && len(uc.InstructorIDs) == 0 {
		return Course{}, false, core.NewValidationError(errors.New("at least one instructor must be selected"))
	}

	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, false, err
	}
	sourceSections, err := svc.repo.GetSections(ctx, crs.ID)
	if err != nil {
		return Course{}, false, err
	}

	if actor.Role.IsAdmin() && !sameIDSet(uc.InstructorIDs, assignedIDs(crs)) {
		if err = svc.duplicateForInstructors(ctx, actor, crs, uc, sourceSections); err != nil {
			return Course{}, false, err
		}
		return crs, true, nil
	}

	crs.Title = uc.Title
	crs.Description = uc.Description
	crs.CategoryID = uc.CategoryID
	crs.CourseImage = uc.CourseImage
	crs.OwnerRole = actor.Role
	crs.UpdatedAt = time.Now().UTC()
	if uc.IsActive != nil {
		crs.IsActive = *uc.IsActive
	}
	if actor.Role.IsInstructor() {
		crs.ParticipantIDs = uc.ParticipantIDs
	}
	crs, err = svc.repo.UpdateCourse(ctx, crs)
	if err != nil {
		return Course{}, false, err
	}

	if err = svc.reconcileSections(ctx, crs.ID, sourceSections, uc.Sections); err != nil {
		return Course{}, false, err
	}
	return crs, false, nil
}

func (svc *Service) duplicateForInstructors(ctx context.Context, actor user.User, src Course, uc UpdateCourse, sourceSections []Section) error {
	conflict, err := svc.repo.TitleAssignedConflict(ctx, src.ID, uc.Title, uc.InstructorIDs)
	if err != nil {
		return err
	}
	if conflict {
		return core.NewConflictError(errors.New("one or more selected instructors already have this course assigned"))
	}

	now := time.Now().UTC()
	for _, instructorID := range uc.InstructorIDs {
		dup := Course{
			Title:        uc.Title,
			Description:  uc.Description,
			CategoryID:   uc.CategoryID,
			CourseImage:  uc.CourseImage,
			IsActive:     src.IsActive,
			OwnerRole:    user.RoleInstructor,
			CreatedBy:    actor.ID,
			AssignedTo:   instructorID,
			InstructorID: instructorID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if uc.IsActive != nil {
			dup.IsActive = *uc.IsActive
		}
		dup, err = svc.repo.CreateCourse(ctx, dup)
		if err != nil {
			return err
		}
		for _, sec := range sourceSections {
			clone := Section{
				CourseID:  dup.ID,
				Title:     sec.Title,
				Lesson:    sec.Lesson,
				Images:    sec.Images,
				Videos:    sec.Videos,
				Documents: sec.Documents,
				CreatedAt: now,
				UpdatedAt: now,
			}
			clone, err = svc.repo.CreateSection(ctx, clone)
			if err != nil {
				return err
			}
			if err = svc.uploads.CloneForSection(ctx, sec.ID, clone.ID); err != nil {
				return errors.Wrap(err, "cloning uploads")
			}
		}
	}
	return nil
}

// reconcileSections deletes existing sections absent from incoming (with
// their uploads and backing files), updates the ones still present, and
// creates the new ones.
func (svc *Service) reconcileSections(ctx context.Context, courseID string, existing []Section, incoming []NewSection) error {
	incomingIDs := make(map[string]bool, len(incoming))
	for _, sec := range incoming {
		if sec.ID != "" {
			incomingIDs[sec.ID] = true
		}
	}
	for _, sec := range existing {
		if incomingIDs[sec.ID] {
			continue
		}
		if err := svc.removeSection(ctx, sec); err != nil {
			return err
		}
	}

	existingByID := make(map[string]Section, len(existing))
	for _, sec := range existing {
		existingByID[sec.ID] = sec
	}
	now := time.Now().UTC()
	for i, in := range incoming {
		if sec, ok := existingByID[in.ID]; ok {
			sec.Title = sectionTitle(in.Title, i)
			sec.Lesson = in.Lesson
			sec.Images = in.Images
			sec.Videos = in.Videos
			sec.Documents = in.Documents
			sec.UpdatedAt = now
			if _, err := svc.repo.UpdateSection(ctx, sec); err != nil {
				return err
			}
			continue
		}
		sec := Section{
			CourseID:  courseID,
			Title:     sectionTitle(in.Title, i),
			Lesson:    in.Lesson,
			Images:    in.Images,
			Videos:    in.Videos,
			Documents: in.Documents,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := svc.repo.CreateSection(ctx, sec); err != nil {
			return err
		}
	}
	return nil
}

// SetStatus toggles a course. Activation is refused while the course's
// category is inactive or deleted; the new status is propagated to the
// course's per-instructor duplicates.
func (svc *Service) SetStatus(ctx context.Context, actor user.User, id string, active bool) error {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return err
	}
	if active {
		cat, err := svc.catSvc.GetByID(ctx, crs.CategoryID)
		if err != nil || !cat.IsActive {
			return core.NewValidationError(errors.New("cannot activate course. Its category is inactive or deleted"))
		}
	}
	if err = svc.repo.SetCourseStatus(ctx, crs.ID, active); err != nil {
		return err
	}

	siblings, err := svc.repo.QuerySiblingCourses(ctx, crs.ID, crs.Title, crs.CategoryID)
	if err != nil {
		return errors.Wrap(err, "querying duplicates")
	}
	for _, sib := range siblings {
		if err = svc.repo.SetCourseStatus(ctx, sib.ID, active); err != nil {
			return errors.Wrap(err, "updating duplicate status")
		}
	}
	return nil
}

// Delete hard-deletes a course together with its sections, their upload
// records and backing files, and its image. When an admin deletes, the
// per-instructor duplicates go with it.
func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.deleteCourse(ctx, crs); err != nil {
		return err
	}

	if actor.Role.IsAdmin() {
		siblings, err := svc.repo.QuerySiblingCourses(ctx, crs.ID, crs.Title, crs.CategoryID)
		if err != nil {
			return errors.Wrap(err, "querying duplicates")
		}
		for _, sib := range siblings {
			if err = svc.deleteCourse(ctx, sib); err != nil {
				return errors.Wrap(err, "deleting duplicate")
			}
		}
	}
	return nil
}

func (svc *Service) deleteCourse(ctx context.Context, crs Course) error {
	sections, err := svc.repo.GetSections(ctx, crs.ID)
	if err != nil {
		return err
	}
	for _, sec := range sections {
		if err = svc.removeSection(ctx, sec); err != nil {
			return err
		}
	}
	if crs.CourseImage != "" {
		if err = svc.uploads.RemoveRecord(ctx, crs.CourseImage); err != nil {
			return errors.Wrap(err, "removing course image")
		}
	}
	return svc.repo.DeleteCourse(ctx, crs.ID)
}

func (svc *Service) removeSection(ctx context.Context, sec Section) error {
	if ids := sec.MediaIDs(); len(ids) > 0 {
		if _, err := svc.uploads.Delete(ctx, ids...); err != nil && errors.Cause(err) != upload.ErrNotFound {
			return errors.Wrap(err, "removing section uploads")
		}
	}
	return svc.repo.DeleteSection(ctx, sec.ID)
}

// DeleteOwnedBy hard-deletes every course the user created or is assigned,
// with sections and files. Used by instructor account deletion.
func (svc *Service) DeleteOwnedBy(ctx context.Context, userID string) error {
	courses, err := svc.repo.QueryCoursesByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, crs := range courses {
		if err = svc.deleteCourse(ctx, crs); err != nil {
			return err
		}
	}
	return nil
}

// DisableOwnedBy deactivates every course the user created or is assigned.
func (svc *Service) DisableOwnedBy(ctx context.Context, userID string) error {
	courses, err := svc.repo.QueryCoursesByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, crs := range courses {
		if err = svc.repo.SetCourseStatus(ctx, crs.ID, false); err != nil {
			return err
		}
	}
	return nil
}

// CategoryInUse reports whether any live course belongs to the category.
func (svc *Service) CategoryInUse(ctx context.Context, categoryID string) (bool, error) {
	courses, err := svc.repo.QueryCoursesByCategory(ctx, categoryID)
	if err != nil {
		return false, err
	}
	return len(courses) > 0, nil
}

// DisableByCategory deactivates every live course in the category.
func (svc *Service) DisableByCategory(ctx context.Context, categoryID string) error {
	courses, err := svc.repo.QueryCoursesByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	for _, crs := range courses {
		if err = svc.repo.SetCourseStatus(ctx, crs.ID, false); err != nil {
			return err
		}
	}
	return nil
}

// SoftDeleteByCategory disables and soft-deletes every course in the
// category. Used by category deletion; files stay on disk so the courses
// remain restorable.
func (svc *Service) SoftDeleteByCategory(ctx context.Context, categoryID string) error {
	courses, err := svc.repo.QueryCoursesByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	for _, crs := range courses {
		if err = svc.repo.SetCourseStatus(ctx, crs.ID, false); err != nil {
			return err
		}
		if err = svc.repo.SoftDeleteCourse(ctx, crs.ID); err != nil {
			return err
		}
	}
	return nil
}

// sectionTitle falls back to a positional placeholder when no title was given.
func sectionTitle(title string, i int) string {
	if title == "" {
		return fmt.Sprintf("Untitled Section %d", i)
	}
	return title
}

func (svc *Service) storeSections(ctx context.Context, courseID string, sections []NewSection) error {
	now := time.Now().UTC()
	for i, in := range sections {
		sec := Section{
			CourseID:  courseID,
			Title:     sectionTitle(in.Title, i),
			Lesson:    in.Lesson,
			Images:    in.Images,
			Videos:    in.Videos,
			Documents: in.Documents,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := svc.repo.CreateSection(ctx, sec); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) checkCategoryOwnership(ctx context.Context, categoryID, userID string) error {
	cat, err := svc.catSvc.GetByID(ctx, categoryID)
	if err != nil {
		return core.NewValidationError(errors.New("category not found for this instructor"))
	}
	if cat.CreatedBy != userID && cat.AssigneeID != userID {
		return core.NewValidationError(errors.New("category not found for this instructor"))
	}
	return nil
}

func assignedIDs(crs Course) []string {
	if crs.AssignedTo == "" {
		return nil
	}
	return []string{crs.AssignedTo}
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := append([]string(nil), a...), append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
