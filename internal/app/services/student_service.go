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
	"github.com/yigit/crms/internal/pkg/helpers"
	"github.com/yigit/crms/internal/pkg/validation"
)

// StudentService manages student records and their enrollments
type StudentService struct {
	studentRepo    repositories.IStudentRepository
	enrollmentRepo repositories.IEnrollmentRepository
	authz          *authz.AuthorizationService
	logger         zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(
	studentRepo repositories.IStudentRepository,
	enrollmentRepo repositories.IEnrollmentRepository,
	authzService *authz.AuthorizationService,
	logger zerolog.Logger,
) *StudentService {
	return &StudentService{
		studentRepo:    studentRepo,
		enrollmentRepo: enrollmentRepo,
		authz:          authzService,
		logger:         logger,
	}
}

func studentFromRequest(req *dto.CreateStudentRequest) (*models.Student, error) {
	number := strings.TrimSpace(req.StudentNumber)
	if !validation.IsStudentNumber(number) {
		return nil, apperrors.NewValidationError("student number may only contain letters, digits and dashes")
	}
	first, err := requireText("first name", req.FirstName)
	if err != nil {
		return nil, err
	}
	last, err := requireText("last name", req.LastName)
	if err != nil {
		return nil, err
	}

	email := helpers.NullableString(req.Email)
	if email != nil {
		lowered := strings.ToLower(*email)
		if !validation.IsEmail(lowered) {
			return nil, apperrors.NewValidationError("invalid email format")
		}
		email = &lowered
	}
	return &models.Student{StudentNumber: number, FirstName: first, LastName: last, Email: email}, nil
}

// CreateStudent registers a student
func (s *StudentService) CreateStudent(ctx context.Context, req *dto.CreateStudentRequest) (*models.Student, error) {
	student, err := studentFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// GetStudent returns one student
func (s *StudentService) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	if err := requireID("student ID", id); err != nil {
		return nil, err
	}
	return s.studentRepo.GetByID(ctx, id)
}

// ListStudents returns one page of students matching search
func (s *StudentService) ListStudents(ctx context.Context, search string, page, size int) (*dto.StudentListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	students, total, err := s.studentRepo.List(ctx, strings.TrimSpace(search), offset, limit)
	if err != nil {
		return nil, err
	}
	return &dto.StudentListResponse{
		Students:       students,
		PaginationInfo: helpers.NewPaginationInfo(total, page, limit),
	}, nil
}

// UpdateStudent replaces a student's editable fields
func (s *StudentService) UpdateStudent(ctx context.Context, id int64, req *dto.UpdateStudentRequest) (*models.Student, error) {
	if err := requireID("student ID", id); err != nil {
		return nil, err
	}
	student, err := studentFromRequest(req)
	if err != nil {
		return nil, err
	}
	student.ID = id
	if err := s.studentRepo.Update(ctx, student); err != nil {
		return nil, err
	}
	return s.studentRepo.GetByID(ctx, id)
}

// DeleteStudent removes a student and every enrollment of theirs
func (s *StudentService) DeleteStudent(ctx context.Context, id int64) error {
	if err := requireID("student ID", id); err != nil {
		return err
	}
	return s.studentRepo.Delete(ctx, id)
}

// Enroll adds a student to a section the actor may modify
func (s *StudentService) Enroll(ctx context.Context, actor authz.Actor, req *dto.EnrollRequest) (*models.Enrollment, error) {
	if _, err := s.authz.ModifySection(ctx, actor, req.SectionCourseID); err != nil {
		return nil, err
	}
	if _, err := s.studentRepo.GetByID(ctx, req.StudentID); err != nil {
		return nil, err
	}

	e := &models.Enrollment{
		StudentID:       req.StudentID,
		SectionCourseID: req.SectionCourseID,
		Status:          models.EnrollmentEnrolled,
	}
	if err := s.enrollmentRepo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("enrollmentID", e.ID).Int64("sectionCourseID", e.SectionCourseID).Msg("Student enrolled")
	return s.enrollmentRepo.GetByID(ctx, e.ID)
}

// ListEnrollments returns the roster of a section
func (s *StudentService) ListEnrollments(ctx context.Context, actor authz.Actor, sectionCourseID int64) ([]*models.Enrollment, error) {
	if _, err := s.authz.ViewSection(ctx, actor, sectionCourseID); err != nil {
		return nil, err
	}
	return s.enrollmentRepo.ListBySection(ctx, sectionCourseID)
}

// GetEnrollment returns one enrollment
func (s *StudentService) GetEnrollment(ctx context.Context, actor authz.Actor, id int64) (*models.Enrollment, error) {
	return s.authz.ViewEnrollment(ctx, actor, id)
}

// UpdateEnrollmentStatus drops or re-enrolls a student
func (s *StudentService) UpdateEnrollmentStatus(ctx context.Context, actor authz.Actor, id int64, status models.EnrollmentStatus) (*models.Enrollment, error) {
	if status != models.EnrollmentEnrolled && status != models.EnrollmentDropped {
		return nil, apperrors.NewValidationError("status must be enrolled or dropped")
	}
	e, err := s.authz.ModifyEnrollment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if e.Status == status {
		return e, nil
	}
	if err := s.enrollmentRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	e.Status = status
	return e, nil
}

// Unenroll deletes an enrollment together with its grades and attendance
func (s *StudentService) Unenroll(ctx context.Context, actor authz.Actor, id int64) error {
	if _, err := s.authz.ModifyEnrollment(ctx, actor, id); err != nil {
		return err
	}
	if err := s.enrollmentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("enrollmentID", id).Int64("by", actor.UserID).Msg("Enrollment deleted")
	return nil
}
