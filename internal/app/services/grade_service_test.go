package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authz "github.com/yigit/crms/internal/app/auth"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/filestorage"
)

type gradeSetup struct {
	instructor authz.Actor
	section    *models.SectionCourse
	midterm    *models.Assessment
	lab        *models.Assessment
	rubric     *models.SubAssessment
	santos     *models.Enrollment
	reyes      *models.Enrollment
}

func newGradeSetup(t *testing.T, f *fixture) *gradeSetup {
	t.Helper()
	g := &gradeSetup{instructor: f.user(t, models.RoleFaculty, "mine@school.edu")}
	g.section = f.section(t, g.instructor, f.course(t, "IT101").ID, "BSIT-1A")

	var err error
	g.midterm, err = f.assessmentSvc.CreateAssessment(f.ctx, g.instructor, &dto.AssessmentRequest{
		SectionCourseID: g.section.ID, Title: "Midterm", Type: models.AssessmentExam, TotalPoints: 50, WeightPercentage: 30,
	})
	require.NoError(t, err)
	g.lab, err = f.assessmentSvc.CreateAssessment(f.ctx, g.instructor, &dto.AssessmentRequest{
		SectionCourseID: g.section.ID, Title: "Lab", Type: models.AssessmentLab, TotalPoints: 100,
	})
	require.NoError(t, err)
	g.rubric, err = f.assessmentSvc.CreateSubAssessment(f.ctx, g.instructor, &dto.SubAssessmentRequest{
		AssessmentID: g.lab.ID, Title: "Rubric", TotalPoints: 20, WeightPercentage: 10,
	})
	require.NoError(t, err)

	g.santos = f.enroll(t, g.instructor, g.section.ID, "2025-0001", "Maria", "Santos")
	g.reyes = f.enroll(t, g.instructor, g.section.ID, "2025-0002", "Jose", "Reyes")
	return g
}

func TestGradeSubmissionBounds(t *testing.T) {
	f := newFixture(t)
	g := newGradeSetup(t, f)
	other := f.user(t, models.RoleFaculty, "other@school.edu")

	_, err := f.gradeSvc.GradeSubmission(f.ctx, g.instructor, &dto.GradeSubmissionRequest{
		EnrollmentID: g.santos.ID, AssessmentID: g.midterm.ID, TotalScore: float(60),
	})
	assert.ErrorIs(t, err, apperrors.ErrScoreOutOfRange)

	_, err = f.gradeSvc.GradeSubmission(f.ctx, g.instructor, &dto.GradeSubmissionRequest{
		EnrollmentID: g.santos.ID, AssessmentID: g.midterm.ID, TotalScore: float(-1),
	})
	assert.ErrorIs(t, err, apperrors.ErrScoreOutOfRange)

	_, err = f.gradeSvc.GradeSubmission(f.ctx, other, &dto.GradeSubmissionRequest{
		EnrollmentID: g.santos.ID, AssessmentID: g.midterm.ID, TotalScore: float(40),
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	sub, err := f.gradeSvc.GradeSubmission(f.ctx, g.instructor, &dto.GradeSubmissionRequest{
		EnrollmentID: g.santos.ID, AssessmentID: g.midterm.ID, TotalScore: float(40),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, sub.Status)
	require.NotNil(t, sub.PercentageScore)
	assert.Equal(t, 80.0, *sub.PercentageScore)
	require.NotNil(t, sub.GradedBy)
	assert.Equal(t, g.instructor.UserID, *sub.GradedBy)

	// a second grade replaces the first
	again, err := f.gradeSvc.GradeSubmission(f.ctx, g.instructor, &dto.GradeSubmissionRequest{
		EnrollmentID: g.santos.ID, AssessmentID: g.midterm.ID, TotalScore: float(45),
	})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)

	pending, err := f.gradeSvc.GradeSubmission(f.ctx, g.instructor, &dto.GradeSubmissionRequest{
		EnrollmentID: g.reyes.ID, AssessmentID: g.midterm.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, pending.Status)
	assert.Nil(t, pending.PercentageScore)

	list, err := f.gradeSvc.ListSubmissions(f.ctx, g.instructor, g.midterm.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 90.0, *list[0].PercentageScore)
}

func TestGradeAcrossSectionsRejected(t *testing.T) {
	f := newFixture(t)
	g := newGradeSetup(t, f)
	otherSection := f.section(t, g.instructor, g.section.CourseID, "BSIT-1B")
	outsider := f.enroll(t, g.instructor, otherSection.ID, "2025-0099", "Ana", "Cruz")

	_, err := f.gradeSvc.GradeSubmission(f.ctx, g.instructor, &dto.GradeSubmissionRequest{
		EnrollmentID: outsider.ID, AssessmentID: g.midterm.ID, TotalScore: float(10),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.gradeSvc.GradeSubSubmission(f.ctx, g.instructor, &dto.GradeSubSubmissionRequest{
		EnrollmentID: outsider.ID, SubAssessmentID: g.rubric.ID, TotalScore: float(10),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestEnrollmentAndSectionGrades(t *testing.T) {
	f := newFixture(t)
	g := newGradeSetup(t, f)

	_, err := f.gradeSvc.GradeSubmission(f.ctx, g.instructor, &dto.GradeSubmissionRequest{
		EnrollmentID: g.santos.ID, AssessmentID: g.midterm.ID, TotalScore: float(40),
	})
	require.NoError(t, err)
	_, err = f.gradeSvc.GradeSubSubmission(f.ctx, g.instructor, &dto.GradeSubSubmissionRequest{
		EnrollmentID: g.santos.ID, SubAssessmentID: g.rubric.ID, TotalScore: float(10),
	})
	require.NoError(t, err)
	// a zero score is recorded but does not count toward the overall grade
	_, err = f.gradeSvc.GradeSubmission(f.ctx, g.instructor, &dto.GradeSubmissionRequest{
		EnrollmentID: g.santos.ID, AssessmentID: g.lab.ID, TotalScore: float(0),
	})
	require.NoError(t, err)

	grades, err := f.gradeSvc.EnrollmentGrades(f.ctx, g.instructor, g.santos.ID)
	require.NoError(t, err)
	require.Len(t, grades.Items, 3)
	assert.Equal(t, "Midterm", grades.Items[0].Title)
	assert.Equal(t, "Lab", grades.Items[1].Title)
	assert.Equal(t, "Rubric", grades.Items[2].Title)
	assert.Equal(t, 2, grades.GradedCount)
	require.NotNil(t, grades.OverallGrade)
	assert.Equal(t, 65.0, *grades.OverallGrade)
	require.NotNil(t, grades.WeightedGrade)
	assert.Equal(t, 72.5, *grades.WeightedGrade)

	section, err := f.gradeSvc.SectionGrades(f.ctx, g.instructor, g.section.ID)
	require.NoError(t, err)
	assert.Equal(t, "IT101", section.CourseCode)
	assert.Len(t, section.Columns, 3)
	require.Len(t, section.Rows, 2)
	assert.Equal(t, "Reyes, Jose", section.Rows[0].StudentName)
	assert.Nil(t, section.Rows[0].OverallGrade)
	assert.Equal(t, "Santos, Maria", section.Rows[1].StudentName)
}

func TestExportAndArchive(t *testing.T) {
	f := newFixture(t)
	g := newGradeSetup(t, f)
	other := f.user(t, models.RoleFaculty, "other@school.edu")

	data, name, err := f.gradeSvc.ExportSection(f.ctx, g.instructor, g.section.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "class-record_IT101_BSIT-1A_20250901.xlsx", name)

	_, _, err = f.gradeSvc.ExportSection(f.ctx, other, g.section.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.gradeSvc.ArchiveSection(f.ctx, g.instructor, g.section.ID)
	assert.ErrorIs(t, err, apperrors.ErrReportStoreUnavailable)

	store, err := filestorage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	f.gradeSvc.reports = store

	archived, err := f.gradeSvc.ArchiveSection(f.ctx, g.instructor, g.section.ID)
	require.NoError(t, err)
	assert.Contains(t, archived.Key, "class-records/")
	assert.Positive(t, archived.Size)

	back, err := f.gradeSvc.OpenArchive(f.ctx, g.instructor, g.section.ID, archived.Key)
	require.NoError(t, err)
	assert.Len(t, back, int(archived.Size))

	_, err = f.gradeSvc.OpenArchive(f.ctx, g.instructor, g.section.ID+1, archived.Key)
	assert.Error(t, err)
	_, err = f.gradeSvc.OpenArchive(f.ctx, g.instructor, g.section.ID, "class-records/other/file.xlsx")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}
