package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

func TestAnalyticsRefresh(t *testing.T) {
	f := newFixture(t)
	g := newGradeSetup(t, f)
	dropped := f.enroll(t, g.instructor, g.section.ID, "2025-0003", "Ana", "Cruz")
	_, err := f.studentSvc.UpdateEnrollmentStatus(f.ctx, g.instructor, dropped.ID, models.EnrollmentDropped)
	require.NoError(t, err)

	grade := func(enrollmentID int64, score float64) {
		_, err := f.gradeSvc.GradeSubmission(f.ctx, g.instructor, &dto.GradeSubmissionRequest{
			EnrollmentID: enrollmentID, AssessmentID: g.midterm.ID, TotalScore: float(score),
		})
		require.NoError(t, err)
	}
	grade(g.santos.ID, 48) // 96%
	grade(g.reyes.ID, 30)  // 60%

	s := f.session(t, g.instructor, g.section.ID, "2025-08-18")
	_, err = f.attendanceSvc.MarkSession(f.ctx, g.instructor, s.ID, &dto.MarkAttendanceRequest{Records: []dto.AttendanceMark{
		{EnrollmentID: g.santos.ID, Status: "present"},
		{EnrollmentID: g.reyes.ID, Status: "present"},
	}})
	require.NoError(t, err)

	sum, err := f.analyticsSvc.RefreshSection(f.ctx, g.section.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Enrollments)
	assert.Equal(t, 1, sum.AtRisk)

	out, err := f.analyticsSvc.GetSection(f.ctx, g.instructor, g.section.ID)
	require.NoError(t, err)
	require.Len(t, out.Metrics, 2)
	assert.Equal(t, 1, out.ClusterCounts[string(models.ClusterExcelling)])
	assert.Equal(t, 1, out.ClusterCounts[string(models.ClusterAtRisk)])

	kinds := map[string]string{}
	for _, in := range out.Insights {
		kinds[in.Kind] = in.Message
	}
	assert.Equal(t, "1 of 2 students are at risk (grade or attendance below 75%)", kinds[InsightAtRisk])
	assert.Equal(t, "Average attendance rate is 100.0%", kinds[InsightAttendance])
	assert.Equal(t, "1 of 2 students are excelling", kinds[InsightExcelling])
	assert.Equal(t, "Average overall grade is 78.0 across 2 graded students", kinds[InsightGrades])

	// a second refresh replaces rather than appends
	_, err = f.analyticsSvc.RefreshSection(f.ctx, g.section.ID)
	require.NoError(t, err)
	again, err := f.analyticsSvc.GetSection(f.ctx, g.instructor, g.section.ID)
	require.NoError(t, err)
	assert.Len(t, again.Metrics, 2)
	assert.Len(t, again.Insights, 4)
}

func TestAnalyticsRefreshPermissions(t *testing.T) {
	f := newFixture(t)
	g := newGradeSetup(t, f)
	other := f.user(t, models.RoleFaculty, "other@school.edu")
	dean := f.user(t, models.RoleDean, "dean@school.edu")
	f.section(t, other, g.section.CourseID, "BSIT-1B")

	_, err := f.analyticsSvc.Refresh(f.ctx, g.instructor, nil)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.analyticsSvc.Refresh(f.ctx, other, &g.section.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	one, err := f.analyticsSvc.Refresh(f.ctx, g.instructor, &g.section.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, one.Sections)

	all, err := f.analyticsSvc.Refresh(f.ctx, dean, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Sections)
	// ungraded students with no attendance are at risk on attendance alone
	assert.Equal(t, 2, all.AtRisk)

	_, err = f.analyticsSvc.GetSection(f.ctx, other, g.section.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
