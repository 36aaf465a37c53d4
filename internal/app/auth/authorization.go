package auth

import (
	"context"
	"fmt"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/logger"
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID int64
	Role   models.RoleType
}

// IsAdmin reports whether the actor is an administrator
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanOverseeSections reports whether the actor may read every section
func (a Actor) CanOverseeSections() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleDean || a.Role == models.RoleProgramChair
}

// AuthorizationService answers section-ownership questions. Section-scoped
// data is readable by its instructor and by overseeing roles; it is writable
// by its instructor and by administrators.
type AuthorizationService struct {
	sectionRepo    repositories.ISectionCourseRepository
	enrollmentRepo repositories.IEnrollmentRepository
	assessmentRepo repositories.IAssessmentRepository
	sessionRepo    repositories.ISessionRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(
	sectionRepo repositories.ISectionCourseRepository,
	enrollmentRepo repositories.IEnrollmentRepository,
	assessmentRepo repositories.IAssessmentRepository,
	sessionRepo repositories.ISessionRepository,
) *AuthorizationService {
	return &AuthorizationService{
		sectionRepo:    sectionRepo,
		enrollmentRepo: enrollmentRepo,
		assessmentRepo: assessmentRepo,
		sessionRepo:    sessionRepo,
	}
}

// ViewSection returns the section when actor may read it
func (s *AuthorizationService) ViewSection(ctx context.Context, actor Actor, sectionCourseID int64) (*models.SectionCourse, error) {
	section, err := s.sectionRepo.GetByID(ctx, sectionCourseID)
	if err != nil {
		return nil, err
	}
	if actor.CanOverseeSections() || section.InstructorID == actor.UserID {
		return section, nil
	}
	logger.Warn().Int64("userID", actor.UserID).Int64("sectionCourseID", sectionCourseID).Msg("Section read denied")
	return nil, apperrors.NewForbiddenError("you are not the instructor of this section")
}

// ModifySection returns the section when actor may change its data
func (s *AuthorizationService) ModifySection(ctx context.Context, actor Actor, sectionCourseID int64) (*models.SectionCourse, error) {
	section, err := s.sectionRepo.GetByID(ctx, sectionCourseID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || section.InstructorID == actor.UserID {
		return section, nil
	}
	logger.Warn().Int64("userID", actor.UserID).Int64("sectionCourseID", sectionCourseID).Msg("Section write denied")
	return nil, apperrors.NewForbiddenError("only the section's instructor or an administrator may change it")
}

// CanViewSection adapts ViewSection to the live-feed handler
func (s *AuthorizationService) CanViewSection(ctx context.Context, userID int64, role models.RoleType, sectionCourseID int64) error {
	_, err := s.ViewSection(ctx, Actor{UserID: userID, Role: role}, sectionCourseID)
	return err
}

// ViewEnrollment loads an enrollment readable by actor
func (s *AuthorizationService) ViewEnrollment(ctx context.Context, actor Actor, enrollmentID int64) (*models.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ViewSection(ctx, actor, enrollment.SectionCourseID); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// ModifyEnrollment loads an enrollment writable by actor
func (s *AuthorizationService) ModifyEnrollment(ctx context.Context, actor Actor, enrollmentID int64) (*models.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ModifySection(ctx, actor, enrollment.SectionCourseID); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// ModifyAssessment loads an assessment writable by actor
func (s *AuthorizationService) ModifyAssessment(ctx context.Context, actor Actor, assessmentID int64) (*models.Assessment, error) {
	a, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ModifySection(ctx, actor, a.SectionCourseID); err != nil {
		return nil, err
	}
	return a, nil
}

// ViewAssessment loads an assessment readable by actor
func (s *AuthorizationService) ViewAssessment(ctx context.Context, actor Actor, assessmentID int64) (*models.Assessment, error) {
	a, err := s.assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ViewSection(ctx, actor, a.SectionCourseID); err != nil {
		return nil, err
	}
	return a, nil
}

// ModifySubAssessment loads a sub-assessment and its parent, writable by actor
func (s *AuthorizationService) ModifySubAssessment(ctx context.Context, actor Actor, subAssessmentID int64) (*models.SubAssessment, *models.Assessment, error) {
	sub, err := s.assessmentRepo.GetSub(ctx, subAssessmentID)
	if err != nil {
		return nil, nil, err
	}
	parent, err := s.ModifyAssessment(ctx, actor, sub.AssessmentID)
	if err != nil {
		return nil, nil, err
	}
	return sub, parent, nil
}

// ViewSession loads a session readable by actor
func (s *AuthorizationService) ViewSession(ctx context.Context, actor Actor, sessionID int64) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ViewSection(ctx, actor, session.SectionCourseID); err != nil {
		return nil, err
	}
	return session, nil
}

// ModifySession loads a session writable by actor
func (s *AuthorizationService) ModifySession(ctx context.Context, actor Actor, sessionID int64) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ModifySection(ctx, actor, session.SectionCourseID); err != nil {
		return nil, err
	}
	return session, nil
}

// ViewFaculty allows faculty to read their own dashboards and overseeing roles to read anyone's
func (s *AuthorizationService) ViewFaculty(actor Actor, facultyID int64) error {
	if actor.CanOverseeSections() || actor.UserID == facultyID {
		return nil
	}
	return apperrors.NewForbiddenError(fmt.Sprintf("you may not view analytics of user %d", facultyID))
}
