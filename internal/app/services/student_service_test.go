package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

func TestStudentDirectory(t *testing.T) {
	f := newFixture(t)

	email := " MSantos@Student.School.EDU "
	s, err := f.studentSvc.CreateStudent(f.ctx, &dto.CreateStudentRequest{
		StudentNumber: "2025-00012", FirstName: "Maria", LastName: "Santos", Email: &email,
	})
	require.NoError(t, err)
	require.NotNil(t, s.Email)
	assert.Equal(t, "msantos@student.school.edu", *s.Email)

	_, err = f.studentSvc.CreateStudent(f.ctx, &dto.CreateStudentRequest{StudentNumber: "2025-00012", FirstName: "Ana", LastName: "Reyes"})
	assert.ErrorIs(t, err, apperrors.ErrStudentNumberExists)

	_, err = f.studentSvc.CreateStudent(f.ctx, &dto.CreateStudentRequest{StudentNumber: "2025 00013", FirstName: "Ana", LastName: "Reyes"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.studentSvc.CreateStudent(f.ctx, &dto.CreateStudentRequest{StudentNumber: "2025-00013", FirstName: "  ", LastName: "Reyes"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.studentSvc.CreateStudent(f.ctx, &dto.CreateStudentRequest{StudentNumber: "2025-00013", FirstName: "Ana", LastName: "Reyes"})
	require.NoError(t, err)

	list, err := f.studentSvc.ListStudents(f.ctx, "santos", 1, 20)
	require.NoError(t, err)
	require.Len(t, list.Students, 1)
	assert.Equal(t, "2025-00012", list.Students[0].StudentNumber)
	assert.Equal(t, int64(1), list.PaginationInfo.TotalItems)

	updated, err := f.studentSvc.UpdateStudent(f.ctx, s.ID, &dto.UpdateStudentRequest{StudentNumber: "2025-00012", FirstName: "Maria Clara", LastName: "Santos"})
	require.NoError(t, err)
	assert.Equal(t, "Maria Clara", updated.FirstName)
	assert.Nil(t, updated.Email)

	_, err = f.studentSvc.GetStudent(f.ctx, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	require.NoError(t, f.studentSvc.DeleteStudent(f.ctx, s.ID))
	_, err = f.studentSvc.GetStudent(f.ctx, s.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestEnrollmentLifecycle(t *testing.T) {
	f := newFixture(t)
	mine := f.user(t, models.RoleFaculty, "mine@school.edu")
	other := f.user(t, models.RoleFaculty, "other@school.edu")
	c := f.course(t, "IT101")
	sc := f.section(t, mine, c.ID, "BSIT-1A")

	e := f.enroll(t, mine, sc.ID, "2025-00001", "Juan", "Dela Cruz")
	assert.Equal(t, models.EnrollmentEnrolled, e.Status)

	_, err := f.studentSvc.Enroll(f.ctx, mine, &dto.EnrollRequest{StudentID: e.StudentID, SectionCourseID: sc.ID})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)

	_, err = f.studentSvc.Enroll(f.ctx, mine, &dto.EnrollRequest{StudentID: 9999, SectionCourseID: sc.ID})
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	_, err = f.studentSvc.Enroll(f.ctx, other, &dto.EnrollRequest{StudentID: e.StudentID, SectionCourseID: sc.ID})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.studentSvc.ListEnrollments(f.ctx, other, sc.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	roster, err := f.studentSvc.ListEnrollments(f.ctx, mine, sc.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 1)

	_, err = f.studentSvc.UpdateEnrollmentStatus(f.ctx, mine, e.ID, "graduated")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	dropped, err := f.studentSvc.UpdateEnrollmentStatus(f.ctx, mine, e.ID, models.EnrollmentDropped)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentDropped, dropped.Status)

	got, err := f.studentSvc.GetEnrollment(f.ctx, mine, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentDropped, got.Status)

	assert.ErrorIs(t, f.studentSvc.Unenroll(f.ctx, other, e.ID), apperrors.ErrPermissionDenied)
	require.NoError(t, f.studentSvc.Unenroll(f.ctx, mine, e.ID))
	_, err = f.studentSvc.GetEnrollment(f.ctx, mine, e.ID)
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)
}
