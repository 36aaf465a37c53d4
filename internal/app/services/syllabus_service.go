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
)

// SyllabusService handles syllabi, their review workflow and ILOs
type SyllabusService struct {
	syllabusRepo repositories.ISyllabusRepository
	courseRepo   repositories.ICourseRepository
	authz        *authz.AuthorizationService
	logger       zerolog.Logger
}

// NewSyllabusService creates a new SyllabusService
func NewSyllabusService(
	syllabusRepo repositories.ISyllabusRepository,
	courseRepo repositories.ICourseRepository,
	authzService *authz.AuthorizationService,
	logger zerolog.Logger,
) *SyllabusService {
	return &SyllabusService{
		syllabusRepo: syllabusRepo,
		courseRepo:   courseRepo,
		authz:        authzService,
		logger:       logger,
	}
}

// CreateSyllabus drafts a syllabus for a course, optionally bound to one of
// its sections
func (s *SyllabusService) CreateSyllabus(ctx context.Context, actor authz.Actor, req *dto.CreateSyllabusRequest) (*models.Syllabus, error) {
	title, err := requireText("title", req.Title)
	if err != nil {
		return nil, err
	}
	if _, err := s.courseRepo.GetByID(ctx, req.CourseID); err != nil {
		return nil, err
	}

	if req.SectionCourseID != nil {
		section, err := s.authz.ModifySection(ctx, actor, *req.SectionCourseID)
		if err != nil {
			return nil, err
		}
		if section.CourseID != req.CourseID {
			return nil, apperrors.NewValidationError("section does not belong to the course")
		}
	}

	syllabus := &models.Syllabus{
		CourseID:        req.CourseID,
		SectionCourseID: req.SectionCourseID,
		Title:           title,
		Status:          models.SyllabusDraft,
		CreatedBy:       actor.UserID,
	}
	if err := s.syllabusRepo.Create(ctx, syllabus); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("syllabusID", syllabus.ID).Int64("courseID", syllabus.CourseID).Msg("Syllabus drafted")
	return syllabus, nil
}

// GetSyllabus returns a syllabus with its ILOs
func (s *SyllabusService) GetSyllabus(ctx context.Context, id int64) (*models.Syllabus, error) {
	if err := requireID("syllabus ID", id); err != nil {
		return nil, err
	}
	return s.syllabusRepo.GetByID(ctx, id)
}

// ListSyllabi lists syllabi by course, section or status
func (s *SyllabusService) ListSyllabi(ctx context.Context, courseID, sectionCourseID int64, status string) ([]*models.Syllabus, error) {
	st := models.SyllabusStatus(strings.ToLower(strings.TrimSpace(status)))
	switch st {
	case "", models.SyllabusDraft, models.SyllabusPending, models.SyllabusApproved, models.SyllabusRejected:
	default:
		return nil, apperrors.NewValidationError("status must be draft, pending, approved or rejected")
	}
	return s.syllabusRepo.List(ctx, repositories.SyllabusFilter{
		CourseID:        courseID,
		SectionCourseID: sectionCourseID,
		Status:          st,
	})
}

// editable loads a syllabus its author or an administrator may change
func (s *SyllabusService) editable(ctx context.Context, actor authz.Actor, id int64) (*models.Syllabus, error) {
	if err := requireID("syllabus ID", id); err != nil {
		return nil, err
	}
	syllabus, err := s.syllabusRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if syllabus.CreatedBy != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only the syllabus author or an administrator may change it")
	}
	return syllabus, nil
}

// UpdateSyllabus edits the title and moves the syllabus to draft or pending.
// Any earlier review decision is cleared.
func (s *SyllabusService) UpdateSyllabus(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateSyllabusRequest) (*models.Syllabus, error) {
	syllabus, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	title, err := requireText("title", req.Title)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.SyllabusDraft
	}
	if status != models.SyllabusDraft && status != models.SyllabusPending {
		return nil, apperrors.NewValidationError("status must be draft or pending")
	}

	syllabus.Title = title
	syllabus.Status = status
	if err := s.syllabusRepo.Update(ctx, syllabus); err != nil {
		return nil, err
	}
	return s.syllabusRepo.GetByID(ctx, id)
}

// ReviewSyllabus approves or rejects a pending syllabus
func (s *SyllabusService) ReviewSyllabus(ctx context.Context, actor authz.Actor, id int64, req *dto.ReviewSyllabusRequest) (*models.Syllabus, error) {
	if !actor.Role.CanReviewSyllabi() {
		return nil, apperrors.NewForbiddenError("only deans and program chairs may review syllabi")
	}
	if req.Decision != models.SyllabusApproved && req.Decision != models.SyllabusRejected {
		return nil, apperrors.NewValidationError("decision must be approved or rejected")
	}
	if err := requireID("syllabus ID", id); err != nil {
		return nil, err
	}

	syllabus, err := s.syllabusRepo.Review(ctx, id, actor.UserID, req.Decision, req.Remarks)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("syllabusID", id).Int64("reviewerID", actor.UserID).
		Str("decision", string(req.Decision)).Msg("Syllabus reviewed")
	return syllabus, nil
}

// DeleteSyllabus removes a syllabus and its ILOs
func (s *SyllabusService) DeleteSyllabus(ctx context.Context, actor authz.Actor, id int64) error {
	if _, err := s.editable(ctx, actor, id); err != nil {
		return err
	}
	return s.syllabusRepo.Delete(ctx, id)
}

func iloFromRequest(req *dto.ILORequest) (*models.ILO, error) {
	code, err := requireText("code", req.Code)
	if err != nil {
		return nil, err
	}
	desc, err := requireText("description", req.Description)
	if err != nil {
		return nil, err
	}
	return &models.ILO{Code: strings.ToUpper(code), Description: desc}, nil
}

// CreateILO adds an intended learning outcome to a syllabus
func (s *SyllabusService) CreateILO(ctx context.Context, actor authz.Actor, syllabusID int64, req *dto.ILORequest) (*models.ILO, error) {
	if _, err := s.editable(ctx, actor, syllabusID); err != nil {
		return nil, err
	}
	ilo, err := iloFromRequest(req)
	if err != nil {
		return nil, err
	}
	ilo.SyllabusID = syllabusID
	if err := s.syllabusRepo.CreateILO(ctx, ilo); err != nil {
		return nil, err
	}
	return ilo, nil
}

// ListILOs lists the ILOs of a syllabus
func (s *SyllabusService) ListILOs(ctx context.Context, syllabusID int64) ([]*models.ILO, error) {
	if _, err := s.GetSyllabus(ctx, syllabusID); err != nil {
		return nil, err
	}
	return s.syllabusRepo.ListILOs(ctx, syllabusID)
}

// UpdateILO edits an ILO
func (s *SyllabusService) UpdateILO(ctx context.Context, actor authz.Actor, iloID int64, req *dto.ILORequest) (*models.ILO, error) {
	if err := requireID("ILO ID", iloID); err != nil {
		return nil, err
	}
	existing, err := s.syllabusRepo.GetILO(ctx, iloID)
	if err != nil {
		return nil, err
	}
	if _, err := s.editable(ctx, actor, existing.SyllabusID); err != nil {
		return nil, err
	}

	ilo, err := iloFromRequest(req)
	if err != nil {
		return nil, err
	}
	ilo.ID = iloID
	ilo.SyllabusID = existing.SyllabusID
	if err := s.syllabusRepo.UpdateILO(ctx, ilo); err != nil {
		return nil, err
	}
	return ilo, nil
}

// DeleteILO removes an ILO and its assessment tags
func (s *SyllabusService) DeleteILO(ctx context.Context, actor authz.Actor, iloID int64) error {
	if err := requireID("ILO ID", iloID); err != nil {
		return err
	}
	existing, err := s.syllabusRepo.GetILO(ctx, iloID)
	if err != nil {
		return err
	}
	if _, err := s.editable(ctx, actor, existing.SyllabusID); err != nil {
		return err
	}
	return s.syllabusRepo.DeleteILO(ctx, iloID)
}
