package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	authz "github.com/yigit/crms/internal/app/auth"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/cache"
	"github.com/yigit/crms/internal/pkg/helpers"
	"github.com/yigit/crms/internal/pkg/validation"
)

// CourseService manages the course catalogue and section offerings
type CourseService struct {
	courseRepo  repositories.ICourseRepository
	sectionRepo repositories.ISectionCourseRepository
	userRepo    repositories.IUserRepository
	authz       *authz.AuthorizationService
	cache       *cache.DashboardCache
	logger      zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(
	courseRepo repositories.ICourseRepository,
	sectionRepo repositories.ISectionCourseRepository,
	userRepo repositories.IUserRepository,
	authzService *authz.AuthorizationService,
	dashboardCache *cache.DashboardCache,
	logger zerolog.Logger,
) *CourseService {
	return &CourseService{
		courseRepo:  courseRepo,
		sectionRepo: sectionRepo,
		userRepo:    userRepo,
		authz:       authzService,
		cache:       dashboardCache,
		logger:      logger,
	}
}

func courseFromRequest(req *dto.CreateCourseRequest) (*models.Course, error) {
	code := validation.NormalizeCourseCode(req.Code)
	if !validation.IsCourseCode(code) {
		return nil, apperrors.NewValidationError("course code must look like IT101")
	}
	title, err := requireText("title", req.Title)
	if err != nil {
		return nil, err
	}
	if req.Units < 1 {
		return nil, apperrors.NewValidationError("units must be at least 1")
	}
	return &models.Course{Code: code, Title: title, Units: req.Units}, nil
}

// CreateCourse adds a course to the catalogue
func (s *CourseService) CreateCourse(ctx context.Context, req *dto.CreateCourseRequest) (*models.Course, error) {
	course, err := courseFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("courseID", course.ID).Str("code", course.Code).Msg("Course created")
	return course, nil
}

// GetCourse returns one course
func (s *CourseService) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	if err := requireID("course ID", id); err != nil {
		return nil, err
	}
	return s.courseRepo.GetByID(ctx, id)
}

// ListCourses returns one page of courses matching search
func (s *CourseService) ListCourses(ctx context.Context, search string, page, size int) (*dto.CourseListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	courses, total, err := s.courseRepo.List(ctx, strings.TrimSpace(search), offset, limit)
	if err != nil {
		return nil, err
	}
	return &dto.CourseListResponse{
		Courses:        courses,
		PaginationInfo: helpers.NewPaginationInfo(total, page, limit),
	}, nil
}

// UpdateCourse replaces a course's editable fields
func (s *CourseService) UpdateCourse(ctx context.Context, id int64, req *dto.UpdateCourseRequest) (*models.Course, error) {
	if err := requireID("course ID", id); err != nil {
		return nil, err
	}
	course, err := courseFromRequest(req)
	if err != nil {
		return nil, err
	}
	course.ID = id
	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return s.courseRepo.GetByID(ctx, id)
}

// DeleteCourse removes a course and, by cascade, its sections
func (s *CourseService) DeleteCourse(ctx context.Context, id int64) error {
	if err := requireID("course ID", id); err != nil {
		return err
	}
	sections, err := s.sectionRepo.List(ctx, repositories.SectionCourseFilter{CourseID: id})
	if err != nil {
		return err
	}
	if err := s.courseRepo.Delete(ctx, id); err != nil {
		return err
	}
	for _, sc := range sections {
		s.invalidate(ctx, []int64{sc.InstructorID}, sc.ID)
	}
	s.logger.Info().Int64("courseID", id).Msg("Course deleted")
	return nil
}

// CreateSection opens a section of a course. Faculty always teach the
// sections they open; overseeing roles may assign any instructor.
func (s *CourseService) CreateSection(ctx context.Context, actor authz.Actor, req *dto.CreateSectionCourseRequest) (*models.SectionCourse, error) {
	instructorID := actor.UserID
	if req.InstructorID != 0 && req.InstructorID != actor.UserID {
		if !actor.CanOverseeSections() {
			return nil, apperrors.NewForbiddenError("faculty can only open sections they teach")
		}
		instructorID = req.InstructorID
	}

	if _, err := s.courseRepo.GetByID(ctx, req.CourseID); err != nil {
		return nil, err
	}
	if err := s.checkInstructor(ctx, instructorID); err != nil {
		return nil, err
	}

	sc := &models.SectionCourse{
		CourseID:     req.CourseID,
		InstructorID: instructorID,
		SectionCode:  strings.ToUpper(strings.TrimSpace(req.SectionCode)),
		Term:         strings.TrimSpace(req.Term),
		SchoolYear:   strings.TrimSpace(req.SchoolYear),
	}
	if sc.SectionCode == "" || sc.Term == "" || sc.SchoolYear == "" {
		return nil, apperrors.NewValidationError("section code, term and school year are required")
	}
	if err := s.sectionRepo.Create(ctx, sc); err != nil {
		return nil, err
	}
	s.invalidate(ctx, []int64{instructorID}, 0)

	s.logger.Info().Int64("sectionCourseID", sc.ID).Int64("instructorID", instructorID).Msg("Section course created")
	return s.sectionRepo.GetByID(ctx, sc.ID)
}

func (s *CourseService) checkInstructor(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsApproved {
		return apperrors.NewValidationError("instructor account is not approved")
	}
	return nil
}

// GetSection returns a section the actor may read
func (s *CourseService) GetSection(ctx context.Context, actor authz.Actor, id int64) (*models.SectionCourse, error) {
	if err := requireID("section course ID", id); err != nil {
		return nil, err
	}
	return s.authz.ViewSection(ctx, actor, id)
}

// ListSections lists sections. Faculty only ever see the sections they teach.
func (s *CourseService) ListSections(ctx context.Context, actor authz.Actor, filter *dto.SectionCourseFilter) ([]*models.SectionCourse, error) {
	f := repositories.SectionCourseFilter{
		CourseID:     filter.CourseID,
		InstructorID: filter.InstructorID,
		SchoolYear:   strings.TrimSpace(filter.SchoolYear),
		Term:         strings.TrimSpace(filter.Term),
	}
	if !actor.CanOverseeSections() {
		f.InstructorID = actor.UserID
	}
	return s.sectionRepo.List(ctx, f)
}

// UpdateSection edits a section. Only administrators may hand it to another instructor.
func (s *CourseService) UpdateSection(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateSectionCourseRequest) (*models.SectionCourse, error) {
	sc, err := s.authz.ModifySection(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	previousInstructor := sc.InstructorID

	if req.InstructorID != 0 && req.InstructorID != sc.InstructorID {
		if !actor.IsAdmin() {
			return nil, apperrors.NewForbiddenError("only an administrator may reassign a section")
		}
		if err := s.checkInstructor(ctx, req.InstructorID); err != nil {
			return nil, err
		}
		sc.InstructorID = req.InstructorID
	}
	sc.SectionCode = strings.ToUpper(strings.TrimSpace(req.SectionCode))
	sc.Term = strings.TrimSpace(req.Term)
	sc.SchoolYear = strings.TrimSpace(req.SchoolYear)

	if err := s.sectionRepo.Update(ctx, sc); err != nil {
		return nil, err
	}
	instructors := []int64{sc.InstructorID}
	if previousInstructor != sc.InstructorID {
		instructors = append(instructors, previousInstructor)
	}
	s.invalidate(ctx, instructors, id)
	return s.sectionRepo.GetByID(ctx, id)
}

// DeleteSection removes a section with its enrollments, sessions and attendance
func (s *CourseService) DeleteSection(ctx context.Context, actor authz.Actor, id int64) error {
	sc, err := s.authz.ModifySection(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.sectionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, []int64{sc.InstructorID}, id)
	s.logger.Info().Int64("sectionCourseID", id).Int64("by", actor.UserID).Msg("Section course deleted")
	return nil
}

// invalidate drops the faculty dashboards of instructors and, when
// sectionCourseID is set, that section's analytics payload
func (s *CourseService) invalidate(ctx context.Context, instructors []int64, sectionCourseID int64) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(instructors)+1)
	for _, id := range instructors {
		keys = append(keys, cache.FacultyAttendanceKey(id))
	}
	if sectionCourseID > 0 {
		keys = append(keys, cache.SectionAnalyticsKey(sectionCourseID))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("Dashboard cache invalidation failed")
	}
}
