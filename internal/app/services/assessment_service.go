package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	authz "github.com/yigit/crms/internal/app/auth"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

// AssessmentService manages assessments, their ILO tags and sub-assessments
type AssessmentService struct {
	assessmentRepo repositories.IAssessmentRepository
	submissionRepo repositories.ISubmissionRepository
	syllabusRepo   repositories.ISyllabusRepository
	authz          *authz.AuthorizationService
	logger         zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService
func NewAssessmentService(
	assessmentRepo repositories.IAssessmentRepository,
	submissionRepo repositories.ISubmissionRepository,
	syllabusRepo repositories.ISyllabusRepository,
	authzService *authz.AuthorizationService,
	logger zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		assessmentRepo: assessmentRepo,
		submissionRepo: submissionRepo,
		syllabusRepo:   syllabusRepo,
		authz:          authzService,
		logger:         logger,
	}
}

// checkRecordedScores keeps total points at or above every score already
// recorded for the item
func checkRecordedScores(totalPoints float64, highest *float64) error {
	if highest != nil && totalPoints < *highest {
		return fmt.Errorf("%w: a recorded score of %g exceeds %g total points",
			apperrors.ErrScoreOutOfRange, *highest, totalPoints)
	}
	return nil
}

// checkSyllabusLink verifies that the syllabus covers the section and that
// every tagged ILO is one of its outcomes
func (s *AssessmentService) checkSyllabusLink(ctx context.Context, section *models.SectionCourse, syllabusID *int64, iloIDs []int64) error {
	if syllabusID == nil {
		if len(iloIDs) > 0 {
			return apperrors.NewValidationError("ILOs can only be tagged on an assessment linked to a syllabus")
		}
		return nil
	}

	syllabus, err := s.syllabusRepo.GetByID(ctx, *syllabusID)
	if err != nil {
		return err
	}
	if syllabus.CourseID != section.CourseID {
		return apperrors.NewValidationError("syllabus belongs to another course")
	}
	if syllabus.SectionCourseID != nil && *syllabus.SectionCourseID != section.ID {
		return apperrors.NewValidationError("syllabus belongs to another section")
	}

	known := make(map[int64]bool, len(syllabus.ILOs))
	for _, ilo := range syllabus.ILOs {
		known[ilo.ID] = true
	}
	for _, id := range iloIDs {
		if !known[id] {
			return apperrors.NewValidationError(fmt.Sprintf("ILO %d is not part of syllabus %d", id, syllabus.ID))
		}
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// CreateAssessment adds an assessment to a section the actor may modify
func (s *AssessmentService) CreateAssessment(ctx context.Context, actor authz.Actor, req *dto.AssessmentRequest) (*models.Assessment, error) {
	section, err := s.authz.ModifySection(ctx, actor, req.SectionCourseID)
	if err != nil {
		return nil, err
	}
	title, err := requireText("title", req.Title)
	if err != nil {
		return nil, err
	}
	if req.TotalPoints <= 0 {
		return nil, apperrors.NewValidationError("total points must be greater than zero")
	}
	if req.WeightPercentage < 0 || req.WeightPercentage > 100 {
		return nil, apperrors.NewValidationError("weight percentage must be between 0 and 100")
	}

	iloIDs := uniqueIDs(req.ILOIDs)
	if err := s.checkSyllabusLink(ctx, section, req.SyllabusID, iloIDs); err != nil {
		return nil, err
	}

	a := &models.Assessment{
		SyllabusID:       req.SyllabusID,
		SectionCourseID:  section.ID,
		Title:            title,
		Type:             req.Type,
		TotalPoints:      req.TotalPoints,
		WeightPercentage: req.WeightPercentage,
		DueDate:          req.DueDate,
		IsPublished:      req.IsPublished,
		CreatedBy:        actor.UserID,
		ILOIDs:           iloIDs,
	}
	if err := s.assessmentRepo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("assessmentID", a.ID).Int64("sectionCourseID", a.SectionCourseID).Msg("Assessment created")
	return a, nil
}

// GetAssessment returns an assessment with its sub-assessments
func (s *AssessmentService) GetAssessment(ctx context.Context, actor authz.Actor, id int64) (*models.Assessment, error) {
	if err := requireID("assessment ID", id); err != nil {
		return nil, err
	}
	return s.authz.ViewAssessment(ctx, actor, id)
}

// ListAssessments lists a section's assessments
func (s *AssessmentService) ListAssessments(ctx context.Context, actor authz.Actor, sectionCourseID int64) ([]*models.Assessment, error) {
	if _, err := s.authz.ViewSection(ctx, actor, sectionCourseID); err != nil {
		return nil, err
	}
	return s.assessmentRepo.ListBySection(ctx, sectionCourseID)
}

// UpdateAssessment replaces an assessment's fields. It cannot move to another section.
func (s *AssessmentService) UpdateAssessment(ctx context.Context, actor authz.Actor, id int64, req *dto.AssessmentRequest) (*models.Assessment, error) {
	a, err := s.authz.ModifyAssessment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.SectionCourseID != a.SectionCourseID {
		return nil, apperrors.NewValidationError("an assessment cannot be moved to another section")
	}
	title, err := requireText("title", req.Title)
	if err != nil {
		return nil, err
	}
	if req.TotalPoints <= 0 {
		return nil, apperrors.NewValidationError("total points must be greater than zero")
	}
	if req.WeightPercentage < 0 || req.WeightPercentage > 100 {
		return nil, apperrors.NewValidationError("weight percentage must be between 0 and 100")
	}

	section, err := s.authz.ModifySection(ctx, actor, a.SectionCourseID)
	if err != nil {
		return nil, err
	}
	iloIDs := uniqueIDs(req.ILOIDs)
	if err := s.checkSyllabusLink(ctx, section, req.SyllabusID, iloIDs); err != nil {
		return nil, err
	}
	if req.TotalPoints < a.TotalPoints {
		highest, err := s.submissionRepo.MaxScore(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := checkRecordedScores(req.TotalPoints, highest); err != nil {
			return nil, err
		}
	}

	a.SyllabusID = req.SyllabusID
	a.Title = title
	a.Type = req.Type
	a.TotalPoints = req.TotalPoints
	a.WeightPercentage = req.WeightPercentage
	a.DueDate = req.DueDate
	a.IsPublished = req.IsPublished
	a.ILOIDs = iloIDs
	if err := s.assessmentRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.assessmentRepo.GetByID(ctx, id)
}

// DeleteAssessment removes an assessment with its sub-assessments and scores
func (s *AssessmentService) DeleteAssessment(ctx context.Context, actor authz.Actor, id int64) error {
	if _, err := s.authz.ModifyAssessment(ctx, actor, id); err != nil {
		return err
	}
	if err := s.assessmentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("assessmentID", id).Int64("by", actor.UserID).Msg("Assessment deleted")
	return nil
}

func validateSubRequest(req *dto.SubAssessmentRequest) (string, error) {
	title, err := requireText("title", req.Title)
	if err != nil {
		return "", err
	}
	if req.TotalPoints <= 0 {
		return "", apperrors.NewValidationError("total points must be greater than zero")
	}
	if req.WeightPercentage < 0 || req.WeightPercentage > 100 {
		return "", apperrors.NewValidationError("weight percentage must be between 0 and 100")
	}
	switch req.Status {
	case "", models.SubAssessmentDraft, models.SubAssessmentPublished, models.SubAssessmentClosed:
	default:
		return "", apperrors.NewValidationError("status must be draft, published or closed")
	}
	return title, nil
}

// CreateSubAssessment adds a gradable component to an assessment
func (s *AssessmentService) CreateSubAssessment(ctx context.Context, actor authz.Actor, req *dto.SubAssessmentRequest) (*models.SubAssessment, error) {
	if _, err := s.authz.ModifyAssessment(ctx, actor, req.AssessmentID); err != nil {
		return nil, err
	}
	title, err := validateSubRequest(req)
	if err != nil {
		return nil, err
	}

	sa := &models.SubAssessment{
		AssessmentID:     req.AssessmentID,
		Title:            title,
		TotalPoints:      req.TotalPoints,
		WeightPercentage: req.WeightPercentage,
		Status:           req.Status,
	}
	if err := s.assessmentRepo.CreateSub(ctx, sa); err != nil {
		return nil, err
	}
	return sa, nil
}

// GetSubAssessment returns one sub-assessment
func (s *AssessmentService) GetSubAssessment(ctx context.Context, actor authz.Actor, id int64) (*models.SubAssessment, error) {
	if err := requireID("sub-assessment ID", id); err != nil {
		return nil, err
	}
	sa, err := s.assessmentRepo.GetSub(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.ViewAssessment(ctx, actor, sa.AssessmentID); err != nil {
		return nil, err
	}
	return sa, nil
}

// ListSubAssessments lists the components of an assessment
func (s *AssessmentService) ListSubAssessments(ctx context.Context, actor authz.Actor, assessmentID int64) ([]*models.SubAssessment, error) {
	if _, err := s.authz.ViewAssessment(ctx, actor, assessmentID); err != nil {
		return nil, err
	}
	return s.assessmentRepo.ListSubs(ctx, assessmentID)
}

// UpdateSubAssessment edits a sub-assessment. It stays under its assessment.
func (s *AssessmentService) UpdateSubAssessment(ctx context.Context, actor authz.Actor, id int64, req *dto.SubAssessmentRequest) (*models.SubAssessment, error) {
	sa, _, err := s.authz.ModifySubAssessment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.AssessmentID != sa.AssessmentID {
		return nil, apperrors.NewValidationError("a sub-assessment cannot be moved to another assessment")
	}
	title, err := validateSubRequest(req)
	if err != nil {
		return nil, err
	}
	if req.TotalPoints < sa.TotalPoints {
		highest, err := s.submissionRepo.MaxSubScore(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := checkRecordedScores(req.TotalPoints, highest); err != nil {
			return nil, err
		}
	}

	sa.Title = title
	sa.TotalPoints = req.TotalPoints
	sa.WeightPercentage = req.WeightPercentage
	if req.Status != "" {
		sa.Status = req.Status
	}
	if err := s.assessmentRepo.UpdateSub(ctx, sa); err != nil {
		return nil, err
	}
	return sa, nil
}

// DeleteSubAssessment removes a sub-assessment and its scores
func (s *AssessmentService) DeleteSubAssessment(ctx context.Context, actor authz.Actor, id int64) error {
	if _, _, err := s.authz.ModifySubAssessment(ctx, actor, id); err != nil {
		return err
	}
	return s.assessmentRepo.DeleteSub(ctx, id)
}
