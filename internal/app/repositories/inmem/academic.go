package inmemdb

import (
	"context"
	"sort"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

// CourseRepository implements repositories.ICourseRepository
type CourseRepository struct {
	db *DB
}

// NewCourseRepository creates a CourseRepository on db
func NewCourseRepository(db *DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) codeTaken(code string, except int64) bool {
	for id, c := range r.db.courses {
		if id != except && c.Code == code {
			return true
		}
	}
	return false
}

func (r *CourseRepository) Create(_ context.Context, course *models.Course) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.codeTaken(course.Code, 0) {
		return apperrors.ErrCourseCodeExists
	}
	course.ID = r.db.nextID()
	course.CreatedAt = r.db.Now()
	stored := *course
	r.db.courses[course.ID] = &stored
	return nil
}

func (r *CourseRepository) GetByID(_ context.Context, id int64) (*models.Course, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if c, ok := r.db.courses[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, apperrors.ErrCourseNotFound
}

func (r *CourseRepository) List(_ context.Context, search string, offset, limit int) ([]*models.Course, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matched []*models.Course
	for _, id := range sortedKeys(r.db.courses) {
		c := r.db.courses[id]
		if search != "" && !containsFold(c.Code, search) && !containsFold(c.Title, search) {
			continue
		}
		out := *c
		matched = append(matched, &out)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })
	return page(matched, offset, limit), int64(len(matched)), nil
}

func (r *CourseRepository) Update(_ context.Context, course *models.Course) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.courses[course.ID]
	if !ok {
		return apperrors.ErrCourseNotFound
	}
	if r.codeTaken(course.Code, course.ID) {
		return apperrors.ErrCourseCodeExists
	}
	stored.Code = course.Code
	stored.Title = course.Title
	stored.Units = course.Units
	return nil
}

func (r *CourseRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.courses[id]; !ok {
		return apperrors.ErrCourseNotFound
	}
	delete(r.db.courses, id)
	for sid, sc := range r.db.sections {
		if sc.CourseID == id {
			r.db.deleteSectionLocked(sid)
		}
	}
	for sid, s := range r.db.syllabi {
		if s.CourseID == id {
			r.db.deleteSyllabusLocked(sid)
		}
	}
	return nil
}

// SectionCourseRepository implements repositories.ISectionCourseRepository
type SectionCourseRepository struct {
	db *DB
}

// NewSectionCourseRepository creates a SectionCourseRepository on db
func NewSectionCourseRepository(db *DB) *SectionCourseRepository {
	return &SectionCourseRepository{db: db}
}

func (r *SectionCourseRepository) offeringTaken(sc *models.SectionCourse) bool {
	for id, other := range r.db.sections {
		if id != sc.ID && other.CourseID == sc.CourseID && other.SectionCode == sc.SectionCode &&
			other.Term == sc.Term && other.SchoolYear == sc.SchoolYear {
			return true
		}
	}
	return false
}

func (r *SectionCourseRepository) Create(_ context.Context, sc *models.SectionCourse) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.courses[sc.CourseID]; !ok {
		return apperrors.ErrCourseNotFound
	}
	if _, ok := r.db.users[sc.InstructorID]; !ok {
		return apperrors.ErrUserNotFound
	}
	if r.offeringTaken(sc) {
		return apperrors.ErrSectionOfferingExists
	}
	sc.ID = r.db.nextID()
	sc.CreatedAt = r.db.Now()
	stored := *sc
	r.db.sections[sc.ID] = &stored
	return nil
}

func (r *SectionCourseRepository) GetByID(_ context.Context, id int64) (*models.SectionCourse, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if sc, ok := r.db.sections[id]; ok {
		return r.db.sectionView(sc), nil
	}
	return nil, apperrors.ErrSectionCourseNotFound
}

func (r *SectionCourseRepository) List(_ context.Context, filter repositories.SectionCourseFilter) ([]*models.SectionCourse, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*models.SectionCourse{}
	for _, id := range sortedKeys(r.db.sections) {
		sc := r.db.sections[id]
		if filter.CourseID > 0 && sc.CourseID != filter.CourseID {
			continue
		}
		if filter.InstructorID > 0 && sc.InstructorID != filter.InstructorID {
			continue
		}
		if filter.SchoolYear != "" && sc.SchoolYear != filter.SchoolYear {
			continue
		}
		if filter.Term != "" && sc.Term != filter.Term {
			continue
		}
		out = append(out, r.db.sectionView(sc))
	}
	return out, nil
}

func (r *SectionCourseRepository) Update(_ context.Context, sc *models.SectionCourse) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.sections[sc.ID]
	if !ok {
		return apperrors.ErrSectionCourseNotFound
	}
	if r.offeringTaken(sc) {
		return apperrors.ErrSectionOfferingExists
	}
	stored.InstructorID = sc.InstructorID
	stored.SectionCode = sc.SectionCode
	stored.Term = sc.Term
	stored.SchoolYear = sc.SchoolYear
	return nil
}

func (r *SectionCourseRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.sections[id]; !ok {
		return apperrors.ErrSectionCourseNotFound
	}
	r.db.deleteSectionLocked(id)
	return nil
}

func (r *SectionCourseRepository) ListIDs(_ context.Context) ([]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return sortedKeys(r.db.sections), nil
}

// StudentRepository implements repositories.IStudentRepository
type StudentRepository struct {
	db *DB
}

// NewStudentRepository creates a StudentRepository on db
func NewStudentRepository(db *DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) numberTaken(number string, except int64) bool {
	for id, s := range r.db.students {
		if id != except && s.StudentNumber == number {
			return true
		}
	}
	return false
}

func (r *StudentRepository) Create(_ context.Context, s *models.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.numberTaken(s.StudentNumber, 0) {
		return apperrors.ErrStudentNumberExists
	}
	s.ID = r.db.nextID()
	s.CreatedAt = r.db.Now()
	stored := *s
	r.db.students[s.ID] = &stored
	return nil
}

func (r *StudentRepository) GetByID(_ context.Context, id int64) (*models.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if s, ok := r.db.students[id]; ok {
		out := *s
		return &out, nil
	}
	return nil, apperrors.ErrStudentNotFound
}

func (r *StudentRepository) List(_ context.Context, search string, offset, limit int) ([]*models.Student, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matched []*models.Student
	for _, id := range sortedKeys(r.db.students) {
		s := r.db.students[id]
		if search != "" && !containsFold(s.StudentNumber, search) && !containsFold(s.FirstName, search) &&
			!containsFold(s.LastName, search) {
			continue
		}
		out := *s
		matched = append(matched, &out)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].LastName != matched[j].LastName {
			return matched[i].LastName < matched[j].LastName
		}
		return matched[i].FirstName < matched[j].FirstName
	})
	return page(matched, offset, limit), int64(len(matched)), nil
}

func (r *StudentRepository) Update(_ context.Context, s *models.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.students[s.ID]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	if r.numberTaken(s.StudentNumber, s.ID) {
		return apperrors.ErrStudentNumberExists
	}
	stored.StudentNumber = s.StudentNumber
	stored.FirstName = s.FirstName
	stored.LastName = s.LastName
	stored.Email = s.Email
	return nil
}

func (r *StudentRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.students[id]; !ok {
		return apperrors.ErrStudentNotFound
	}
	delete(r.db.students, id)
	for eid, e := range r.db.enrollments {
		if e.StudentID == id {
			r.db.deleteEnrollmentLocked(eid)
		}
	}
	return nil
}

// EnrollmentRepository implements repositories.IEnrollmentRepository
type EnrollmentRepository struct {
	db *DB
}

// NewEnrollmentRepository creates an EnrollmentRepository on db
func NewEnrollmentRepository(db *DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Create(_ context.Context, e *models.Enrollment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if e.Status == "" {
		e.Status = models.EnrollmentEnrolled
	}
	if _, ok := r.db.students[e.StudentID]; !ok {
		return apperrors.ErrStudentNotFound
	}
	if _, ok := r.db.sections[e.SectionCourseID]; !ok {
		return apperrors.ErrSectionCourseNotFound
	}
	for _, other := range r.db.enrollments {
		if other.StudentID == e.StudentID && other.SectionCourseID == e.SectionCourseID {
			return apperrors.ErrAlreadyEnrolled
		}
	}
	e.ID = r.db.nextID()
	e.EnrolledAt = r.db.Now()
	stored := *e
	stored.StudentNumber, stored.StudentName = "", ""
	r.db.enrollments[e.ID] = &stored
	return nil
}

func (r *EnrollmentRepository) GetByID(_ context.Context, id int64) (*models.Enrollment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if e, ok := r.db.enrollments[id]; ok {
		return r.db.enrollmentView(e), nil
	}
	return nil, apperrors.ErrEnrollmentNotFound
}

func (r *EnrollmentRepository) ListBySection(_ context.Context, sectionCourseID int64) ([]*models.Enrollment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*models.Enrollment{}
	for _, id := range sortedKeys(r.db.enrollments) {
		if e := r.db.enrollments[id]; e.SectionCourseID == sectionCourseID {
			out = append(out, r.db.enrollmentView(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StudentName < out[j].StudentName })
	return out, nil
}

func (r *EnrollmentRepository) UpdateStatus(_ context.Context, id int64, status models.EnrollmentStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, ok := r.db.enrollments[id]
	if !ok {
		return apperrors.ErrEnrollmentNotFound
	}
	e.Status = status
	return nil
}

func (r *EnrollmentRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.enrollments[id]; !ok {
		return apperrors.ErrEnrollmentNotFound
	}
	r.db.deleteEnrollmentLocked(id)
	return nil
}

var (
	_ repositories.ICourseRepository        = (*CourseRepository)(nil)
	_ repositories.ISectionCourseRepository = (*SectionCourseRepository)(nil)
	_ repositories.IStudentRepository       = (*StudentRepository)(nil)
	_ repositories.IEnrollmentRepository    = (*EnrollmentRepository)(nil)
)
