package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

func TestSyllabusReviewWorkflow(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, models.RoleFaculty, "author@school.edu")
	other := f.user(t, models.RoleFaculty, "other@school.edu")
	chair := f.user(t, models.RoleProgramChair, "chair@school.edu")
	c := f.course(t, "IT101")

	s, err := f.syllabusSvc.CreateSyllabus(f.ctx, author, &dto.CreateSyllabusRequest{CourseID: c.ID, Title: " Computing Syllabus "})
	require.NoError(t, err)
	assert.Equal(t, models.SyllabusDraft, s.Status)
	assert.Equal(t, "Computing Syllabus", s.Title)

	// only pending syllabi can be reviewed
	_, err = f.syllabusSvc.ReviewSyllabus(f.ctx, chair, s.ID, &dto.ReviewSyllabusRequest{Decision: models.SyllabusApproved})
	assert.ErrorIs(t, err, apperrors.ErrSyllabusNotReviewable)

	_, err = f.syllabusSvc.UpdateSyllabus(f.ctx, other, s.ID, &dto.UpdateSyllabusRequest{Title: "Hijack", Status: models.SyllabusPending})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.syllabusSvc.UpdateSyllabus(f.ctx, author, s.ID, &dto.UpdateSyllabusRequest{Title: "Computing Syllabus", Status: models.SyllabusApproved})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	pending, err := f.syllabusSvc.UpdateSyllabus(f.ctx, author, s.ID, &dto.UpdateSyllabusRequest{Title: "Computing Syllabus v2", Status: models.SyllabusPending})
	require.NoError(t, err)
	assert.Equal(t, models.SyllabusPending, pending.Status)

	_, err = f.syllabusSvc.ReviewSyllabus(f.ctx, other, s.ID, &dto.ReviewSyllabusRequest{Decision: models.SyllabusApproved})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.syllabusSvc.ReviewSyllabus(f.ctx, chair, s.ID, &dto.ReviewSyllabusRequest{Decision: models.SyllabusPending})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	remarks := "Add references"
	rejected, err := f.syllabusSvc.ReviewSyllabus(f.ctx, chair, s.ID, &dto.ReviewSyllabusRequest{Decision: models.SyllabusRejected, Remarks: &remarks})
	require.NoError(t, err)
	assert.Equal(t, models.SyllabusRejected, rejected.Status)
	require.NotNil(t, rejected.ReviewedBy)
	assert.Equal(t, chair.UserID, *rejected.ReviewedBy)
	assert.Equal(t, &remarks, rejected.ReviewRemarks)

	// resubmitting clears the previous decision
	again, err := f.syllabusSvc.UpdateSyllabus(f.ctx, author, s.ID, &dto.UpdateSyllabusRequest{Title: "Computing Syllabus v3", Status: models.SyllabusPending})
	require.NoError(t, err)
	assert.Nil(t, again.ReviewedBy)
	assert.Nil(t, again.ReviewRemarks)

	approved, err := f.syllabusSvc.ReviewSyllabus(f.ctx, chair, s.ID, &dto.ReviewSyllabusRequest{Decision: models.SyllabusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.SyllabusApproved, approved.Status)

	list, err := f.syllabusSvc.ListSyllabi(f.ctx, c.ID, 0, "APPROVED")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = f.syllabusSvc.ListSyllabi(f.ctx, 0, 0, "archived")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestSyllabusSectionBinding(t *testing.T) {
	f := newFixture(t)
	mine := f.user(t, models.RoleFaculty, "mine@school.edu")
	other := f.user(t, models.RoleFaculty, "other@school.edu")
	it := f.course(t, "IT101")
	cs := f.course(t, "CS21")
	sc := f.section(t, mine, it.ID, "A")

	_, err := f.syllabusSvc.CreateSyllabus(f.ctx, other, &dto.CreateSyllabusRequest{CourseID: it.ID, SectionCourseID: &sc.ID, Title: "S"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.syllabusSvc.CreateSyllabus(f.ctx, mine, &dto.CreateSyllabusRequest{CourseID: cs.ID, SectionCourseID: &sc.ID, Title: "S"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.syllabusSvc.CreateSyllabus(f.ctx, mine, &dto.CreateSyllabusRequest{CourseID: 999, Title: "S"})
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	bound, err := f.syllabusSvc.CreateSyllabus(f.ctx, mine, &dto.CreateSyllabusRequest{CourseID: it.ID, SectionCourseID: &sc.ID, Title: "S"})
	require.NoError(t, err)

	list, err := f.syllabusSvc.ListSyllabi(f.ctx, 0, sc.ID, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bound.ID, list[0].ID)
}

func TestILOs(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, models.RoleFaculty, "author@school.edu")
	other := f.user(t, models.RoleFaculty, "other@school.edu")
	s, err := f.syllabusSvc.CreateSyllabus(f.ctx, author, &dto.CreateSyllabusRequest{CourseID: f.course(t, "IT101").ID, Title: "S"})
	require.NoError(t, err)

	ilo1, err := f.syllabusSvc.CreateILO(f.ctx, author, s.ID, &dto.ILORequest{Code: "ilo1", Description: "Explain computing concepts"})
	require.NoError(t, err)
	assert.Equal(t, "ILO1", ilo1.Code)

	_, err = f.syllabusSvc.CreateILO(f.ctx, author, s.ID, &dto.ILORequest{Code: "ILO1", Description: "Duplicate"})
	assert.ErrorIs(t, err, apperrors.ErrILOCodeExists)
	_, err = f.syllabusSvc.CreateILO(f.ctx, other, s.ID, &dto.ILORequest{Code: "ILO2", Description: "Not mine"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	ilo2, err := f.syllabusSvc.CreateILO(f.ctx, author, s.ID, &dto.ILORequest{Code: "ILO2", Description: "Write programs"})
	require.NoError(t, err)

	_, err = f.syllabusSvc.UpdateILO(f.ctx, author, ilo2.ID, &dto.ILORequest{Code: "ILO1", Description: "clash"})
	assert.ErrorIs(t, err, apperrors.ErrILOCodeExists)

	updated, err := f.syllabusSvc.UpdateILO(f.ctx, author, ilo2.ID, &dto.ILORequest{Code: "ILO2", Description: "Write small programs"})
	require.NoError(t, err)
	assert.Equal(t, "Write small programs", updated.Description)

	withILOs, err := f.syllabusSvc.GetSyllabus(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, withILOs.ILOs, 2)

	require.NoError(t, f.syllabusSvc.DeleteILO(f.ctx, author, ilo1.ID))
	list, err := f.syllabusSvc.ListILOs(f.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ILO2", list[0].Code)

	require.NoError(t, f.syllabusSvc.DeleteSyllabus(f.ctx, author, s.ID))
	_, err = f.syllabusSvc.GetSyllabus(f.ctx, s.ID)
	assert.ErrorIs(t, err, apperrors.ErrSyllabusNotFound)
}
