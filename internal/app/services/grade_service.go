package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/crms/internal/app/auth"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/export"
	"github.com/yigit/crms/internal/pkg/filestorage"
	"github.com/yigit/crms/internal/pkg/grading"
)

// classRecordFolder is the report store folder of archived class records
const classRecordFolder = "class-records"

// GradeService records scores and aggregates them into grades
type GradeService struct {
	assessmentRepo repositories.IAssessmentRepository
	submissionRepo repositories.ISubmissionRepository
	enrollmentRepo repositories.IEnrollmentRepository
	authz          *authz.AuthorizationService
	reports        filestorage.FileStorage
	logger         zerolog.Logger
	now            func() time.Time
}

// NewGradeService creates a new GradeService. reports may be nil, in which
// case archiving is unavailable.
func NewGradeService(
	assessmentRepo repositories.IAssessmentRepository,
	submissionRepo repositories.ISubmissionRepository,
	enrollmentRepo repositories.IEnrollmentRepository,
	authzService *authz.AuthorizationService,
	reports filestorage.FileStorage,
	logger zerolog.Logger,
) *GradeService {
	return &GradeService{
		assessmentRepo: assessmentRepo,
		submissionRepo: submissionRepo,
		enrollmentRepo: enrollmentRepo,
		authz:          authzService,
		reports:        reports,
		logger:         logger,
		now:            time.Now,
	}
}

func checkScore(score *float64, totalPoints float64) error {
	if score == nil {
		return nil
	}
	if err := grading.ValidateScore(*score, totalPoints); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrScoreOutOfRange, err)
	}
	return nil
}

func submissionStatus(requested models.SubmissionStatus, score *float64) models.SubmissionStatus {
	if requested != "" {
		return requested
	}
	if score != nil {
		return models.SubmissionGraded
	}
	return models.SubmissionPending
}

func fillPercentage(sub *models.Submission) {
	if sub.TotalScore == nil {
		return
	}
	if p, err := grading.Percentage(*sub.TotalScore, sub.TotalPoints); err == nil {
		sub.PercentageScore = &p
	}
}

// GradeSubmission upserts the score of an enrollment on an assessment.
// A score must lie within [0, total points].
func (s *GradeService) GradeSubmission(ctx context.Context, actor authz.Actor, req *dto.GradeSubmissionRequest) (*models.Submission, error) {
	enrollment, err := s.authz.ModifyEnrollment(ctx, actor, req.EnrollmentID)
	if err != nil {
		return nil, err
	}
	a, err := s.assessmentRepo.GetByID(ctx, req.AssessmentID)
	if err != nil {
		return nil, err
	}
	if a.SectionCourseID != enrollment.SectionCourseID {
		return nil, apperrors.NewValidationError("the enrollment and the assessment belong to different sections")
	}
	if err := checkScore(req.TotalScore, a.TotalPoints); err != nil {
		return nil, err
	}

	gradedBy := actor.UserID
	sub := &models.Submission{
		EnrollmentID: enrollment.ID,
		AssessmentID: &a.ID,
		TotalScore:   req.TotalScore,
		Status:       submissionStatus(req.Status, req.TotalScore),
		GradedBy:     &gradedBy,
		TotalPoints:  a.TotalPoints,
		StudentName:  enrollment.StudentName,
	}
	if err := s.submissionRepo.UpsertAssessmentScore(ctx, sub); err != nil {
		return nil, err
	}
	fillPercentage(sub)

	s.logger.Debug().Int64("enrollmentID", sub.EnrollmentID).Int64("assessmentID", a.ID).Msg("Submission graded")
	return sub, nil
}

// GradeSubSubmission upserts the score of an enrollment on a sub-assessment
func (s *GradeService) GradeSubSubmission(ctx context.Context, actor authz.Actor, req *dto.GradeSubSubmissionRequest) (*models.Submission, error) {
	enrollment, err := s.authz.ModifyEnrollment(ctx, actor, req.EnrollmentID)
	if err != nil {
		return nil, err
	}
	sa, parent, err := s.authz.ModifySubAssessment(ctx, actor, req.SubAssessmentID)
	if err != nil {
		return nil, err
	}
	if parent.SectionCourseID != enrollment.SectionCourseID {
		return nil, apperrors.NewValidationError("the enrollment and the sub-assessment belong to different sections")
	}
	if err := checkScore(req.TotalScore, sa.TotalPoints); err != nil {
		return nil, err
	}

	gradedBy := actor.UserID
	sub := &models.Submission{
		EnrollmentID:    enrollment.ID,
		SubAssessmentID: &sa.ID,
		TotalScore:      req.TotalScore,
		Status:          submissionStatus(req.Status, req.TotalScore),
		GradedBy:        &gradedBy,
		TotalPoints:     sa.TotalPoints,
		StudentName:     enrollment.StudentName,
	}
	if err := s.submissionRepo.UpsertSubAssessmentScore(ctx, sub); err != nil {
		return nil, err
	}
	fillPercentage(sub)
	return sub, nil
}

// ListSubmissions lists an assessment's submissions with their percentages
func (s *GradeService) ListSubmissions(ctx context.Context, actor authz.Actor, assessmentID int64) ([]*models.Submission, error) {
	if _, err := s.authz.ViewAssessment(ctx, actor, assessmentID); err != nil {
		return nil, err
	}
	list, err := s.submissionRepo.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	for _, sub := range list {
		fillPercentage(sub)
	}
	return list, nil
}

// EnrollmentGrades returns the per-item breakdown and overall grade of one enrollment
func (s *GradeService) EnrollmentGrades(ctx context.Context, actor authz.Actor, enrollmentID int64) (*dto.EnrollmentGradeResponse, error) {
	enrollment, err := s.authz.ViewEnrollment(ctx, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	book, err := loadGradebook(ctx, s.assessmentRepo, s.submissionRepo, enrollment.SectionCourseID)
	if err != nil {
		return nil, err
	}
	return &dto.EnrollmentGradeResponse{
		EnrollmentID:    enrollment.ID,
		SectionCourseID: enrollment.SectionCourseID,
		StudentNumber:   enrollment.StudentNumber,
		StudentName:     enrollment.StudentName,
		Result:          book.result(enrollment.ID),
	}, nil
}

// SectionGrades returns the class record of a section: one row per enrollment
func (s *GradeService) SectionGrades(ctx context.Context, actor authz.Actor, sectionCourseID int64) (*dto.SectionGradesResponse, error) {
	section, err := s.authz.ViewSection(ctx, actor, sectionCourseID)
	if err != nil {
		return nil, err
	}
	return s.sectionGrades(ctx, section)
}

func (s *GradeService) sectionGrades(ctx context.Context, section *models.SectionCourse) (*dto.SectionGradesResponse, error) {
	enrollments, err := s.enrollmentRepo.ListBySection(ctx, section.ID)
	if err != nil {
		return nil, err
	}
	book, err := loadGradebook(ctx, s.assessmentRepo, s.submissionRepo, section.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SectionGradesResponse{
		SectionCourseID: section.ID,
		CourseCode:      section.CourseCode,
		CourseTitle:     section.CourseTitle,
		SectionCode:     section.SectionCode,
		Columns:         book.columns,
		Rows:            make([]*dto.EnrollmentGradeResponse, 0, len(enrollments)),
	}
	for _, e := range enrollments {
		resp.Rows = append(resp.Rows, &dto.EnrollmentGradeResponse{
			EnrollmentID:    e.ID,
			SectionCourseID: e.SectionCourseID,
			StudentNumber:   e.StudentNumber,
			StudentName:     e.StudentName,
			Result:          book.result(e.ID),
		})
	}
	return resp, nil
}

// ExportSection renders the class record as an .xlsx workbook and returns it
// with a download file name
func (s *GradeService) ExportSection(ctx context.Context, actor authz.Actor, sectionCourseID int64) ([]byte, string, error) {
	section, err := s.authz.ViewSection(ctx, actor, sectionCourseID)
	if err != nil {
		return nil, "", err
	}
	grades, err := s.sectionGrades(ctx, section)
	if err != nil {
		return nil, "", err
	}

	rec := export.ClassRecord{
		CourseCode:  grades.CourseCode,
		CourseTitle: grades.CourseTitle,
		SectionCode: grades.SectionCode,
		Columns:     grades.Columns,
		Rows:        make([]export.Row, 0, len(grades.Rows)),
	}
	for _, r := range grades.Rows {
		rec.Rows = append(rec.Rows, export.Row{StudentNumber: r.StudentNumber, StudentName: r.StudentName, Result: r.Result})
	}

	data, err := export.ClassRecordWorkbook(rec)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render class record: %w", err)
	}

	name := fmt.Sprintf("class-record_%s_%s_%s.xlsx",
		fileSafe(section.CourseCode), fileSafe(section.SectionCode), s.now().UTC().Format("20060102"))
	return data, name, nil
}

// ArchiveSection exports the class record and stores it in the report store
func (s *GradeService) ArchiveSection(ctx context.Context, actor authz.Actor, sectionCourseID int64) (*dto.ArchivedReportResponse, error) {
	if s.reports == nil {
		return nil, apperrors.ErrReportStoreUnavailable
	}
	data, _, err := s.ExportSection(ctx, actor, sectionCourseID)
	if err != nil {
		return nil, err
	}

	key := filestorage.ReportKey(classRecordFolder, sectionCourseID, "xlsx", s.now().UTC())
	info, err := s.reports.Save(ctx, key, export.ContentType, data)
	if err != nil {
		s.logger.Error().Err(err).Int64("sectionCourseID", sectionCourseID).Msg("Failed to archive class record")
		return nil, fmt.Errorf("failed to archive class record: %w", err)
	}

	s.logger.Info().Int64("sectionCourseID", sectionCourseID).Str("location", info.Location).Msg("Class record archived")
	return &dto.ArchivedReportResponse{Key: info.Key, Location: info.Location, Size: info.Size}, nil
}

// OpenArchive streams back an archived class record
func (s *GradeService) OpenArchive(ctx context.Context, actor authz.Actor, sectionCourseID int64, key string) ([]byte, error) {
	if s.reports == nil {
		return nil, apperrors.ErrReportStoreUnavailable
	}
	if _, err := s.authz.ViewSection(ctx, actor, sectionCourseID); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(key, fmt.Sprintf("%s/%d/", classRecordFolder, sectionCourseID)) {
		return nil, apperrors.NewResourceNotFoundError("report not found")
	}

	rc, err := s.reports.Open(ctx, key)
	if err != nil {
		if errors.Is(err, filestorage.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError("report not found")
		}
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return buf.Bytes(), nil
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, s)
}

type gradebookKey struct {
	kind grading.ItemKind
	id   int64
}

// gradebook holds a section's gradable columns and every recorded score
type gradebook struct {
	columns []grading.Item
	scores  map[int64]map[gradebookKey]float64
}

// loadGradebook lists each assessment of the section followed by its
// sub-assessments, and indexes the section's scores by enrollment
func loadGradebook(ctx context.Context, assessments repositories.IAssessmentRepository, submissions repositories.ISubmissionRepository, sectionCourseID int64) (*gradebook, error) {
	list, err := assessments.ListBySection(ctx, sectionCourseID)
	if err != nil {
		return nil, err
	}
	subs, err := assessments.ListSubsBySection(ctx, sectionCourseID)
	if err != nil {
		return nil, err
	}
	rows, err := submissions.ScoresBySection(ctx, sectionCourseID)
	if err != nil {
		return nil, err
	}

	byParent := make(map[int64][]*models.SubAssessment)
	for _, sa := range subs {
		byParent[sa.AssessmentID] = append(byParent[sa.AssessmentID], sa)
	}

	book := &gradebook{
		columns: make([]grading.Item, 0, len(list)+len(subs)),
		scores:  make(map[int64]map[gradebookKey]float64),
	}
	for _, a := range list {
		book.columns = append(book.columns, grading.Item{
			Kind:             grading.KindAssessment,
			ID:               a.ID,
			Title:            a.Title,
			TotalPoints:      a.TotalPoints,
			WeightPercentage: a.WeightPercentage,
		})
		for _, sa := range byParent[a.ID] {
			parent := a.ID
			book.columns = append(book.columns, grading.Item{
				Kind:             grading.KindSubAssessment,
				ID:               sa.ID,
				ParentID:         &parent,
				Title:            sa.Title,
				TotalPoints:      sa.TotalPoints,
				WeightPercentage: sa.WeightPercentage,
			})
		}
	}

	for _, r := range rows {
		if r.Score == nil {
			continue
		}
		var key gradebookKey
		switch {
		case r.AssessmentID != nil:
			key = gradebookKey{grading.KindAssessment, *r.AssessmentID}
		case r.SubAssessmentID != nil:
			key = gradebookKey{grading.KindSubAssessment, *r.SubAssessmentID}
		default:
			continue
		}
		if book.scores[r.EnrollmentID] == nil {
			book.scores[r.EnrollmentID] = make(map[gradebookKey]float64)
		}
		book.scores[r.EnrollmentID][key] = *r.Score
	}
	return book, nil
}

// result aggregates one enrollment's scores over the gradebook columns
func (b *gradebook) result(enrollmentID int64) grading.Result {
	items := make([]grading.Item, len(b.columns))
	mine := b.scores[enrollmentID]
	for i, col := range b.columns {
		item := col
		if score, ok := mine[gradebookKey{col.Kind, col.ID}]; ok {
			score := score
			item.Score = &score
		}
		items[i] = item
	}
	return grading.Aggregate(items)
}
