package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

func TestCourseCatalogue(t *testing.T) {
	f := newFixture(t)

	c, err := f.courseSvc.CreateCourse(f.ctx, &dto.CreateCourseRequest{Code: " it101 ", Title: "Introduction to Computing", Units: 3})
	require.NoError(t, err)
	assert.Equal(t, "IT101", c.Code)

	_, err = f.courseSvc.CreateCourse(f.ctx, &dto.CreateCourseRequest{Code: "IT101", Title: "Again", Units: 3})
	assert.ErrorIs(t, err, apperrors.ErrCourseCodeExists)

	_, err = f.courseSvc.CreateCourse(f.ctx, &dto.CreateCourseRequest{Code: "101-IT", Title: "Bad", Units: 3})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.courseSvc.CreateCourse(f.ctx, &dto.CreateCourseRequest{Code: "CS21A", Title: "Data Structures", Units: 0})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	f.course(t, "CS21A")
	list, err := f.courseSvc.ListCourses(f.ctx, "", 1, 1)
	require.NoError(t, err)
	require.Len(t, list.Courses, 1)
	assert.Equal(t, "CS21A", list.Courses[0].Code)
	assert.Equal(t, int64(2), list.PaginationInfo.TotalItems)
	assert.Equal(t, 2, list.PaginationInfo.TotalPages)

	updated, err := f.courseSvc.UpdateCourse(f.ctx, c.ID, &dto.UpdateCourseRequest{Code: "IT101", Title: "Computing I", Units: 4})
	require.NoError(t, err)
	assert.Equal(t, "Computing I", updated.Title)
	assert.Equal(t, 4, updated.Units)

	require.NoError(t, f.courseSvc.DeleteCourse(f.ctx, c.ID))
	_, err = f.courseSvc.GetCourse(f.ctx, c.ID)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestSectionOwnership(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, models.RoleAdmin, "admin@school.edu")
	dean := f.user(t, models.RoleDean, "dean@school.edu")
	mine := f.user(t, models.RoleFaculty, "mine@school.edu")
	other := f.user(t, models.RoleFaculty, "other@school.edu")
	c := f.course(t, "IT101")

	_, err := f.courseSvc.CreateSection(f.ctx, mine, &dto.CreateSectionCourseRequest{
		CourseID: c.ID, InstructorID: other.UserID, SectionCode: "A", Term: "1st", SchoolYear: "2025-2026",
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	sc := f.section(t, mine, c.ID, "bsit-1a")
	assert.Equal(t, "BSIT-1A", sc.SectionCode)
	assert.Equal(t, mine.UserID, sc.InstructorID)
	assert.Equal(t, "IT101", sc.CourseCode)

	_, err = f.courseSvc.CreateSection(f.ctx, mine, &dto.CreateSectionCourseRequest{
		CourseID: c.ID, SectionCode: "BSIT-1A", Term: "1st", SchoolYear: "2025-2026",
	})
	assert.ErrorIs(t, err, apperrors.ErrSectionOfferingExists)

	assigned, err := f.courseSvc.CreateSection(f.ctx, dean, &dto.CreateSectionCourseRequest{
		CourseID: c.ID, InstructorID: other.UserID, SectionCode: "BSIT-1B", Term: "1st", SchoolYear: "2025-2026",
	})
	require.NoError(t, err)
	assert.Equal(t, other.UserID, assigned.InstructorID)

	_, err = f.courseSvc.GetSection(f.ctx, other, sc.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.courseSvc.GetSection(f.ctx, dean, sc.ID)
	assert.NoError(t, err)

	own, err := f.courseSvc.ListSections(f.ctx, mine, &dto.SectionCourseFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, sc.ID, own[0].ID)

	all, err := f.courseSvc.ListSections(f.ctx, dean, &dto.SectionCourseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// deans read every section but only administrators write others' sections
	_, err = f.courseSvc.UpdateSection(f.ctx, dean, sc.ID, &dto.UpdateSectionCourseRequest{SectionCode: "X", Term: "1st", SchoolYear: "2025-2026"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.courseSvc.UpdateSection(f.ctx, mine, sc.ID, &dto.UpdateSectionCourseRequest{
		InstructorID: other.UserID, SectionCode: "BSIT-1A", Term: "1st", SchoolYear: "2025-2026",
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	moved, err := f.courseSvc.UpdateSection(f.ctx, admin, sc.ID, &dto.UpdateSectionCourseRequest{
		InstructorID: other.UserID, SectionCode: "BSIT-1C", Term: "2nd", SchoolYear: "2025-2026",
	})
	require.NoError(t, err)
	assert.Equal(t, other.UserID, moved.InstructorID)
	assert.Equal(t, "BSIT-1C", moved.SectionCode)

	assert.ErrorIs(t, f.courseSvc.DeleteSection(f.ctx, mine, sc.ID), apperrors.ErrPermissionDenied)
	require.NoError(t, f.courseSvc.DeleteSection(f.ctx, other, sc.ID))
	_, err = f.courseSvc.GetSection(f.ctx, admin, sc.ID)
	assert.ErrorIs(t, err, apperrors.ErrSectionCourseNotFound)
}

func TestSectionRequiresApprovedInstructor(t *testing.T) {
	f := newFixture(t)
	dean := f.user(t, models.RoleDean, "dean@school.edu")
	c := f.course(t, "IT101")
	pending := register(t, f, "pending@school.edu")

	_, err := f.courseSvc.CreateSection(f.ctx, dean, &dto.CreateSectionCourseRequest{
		CourseID: c.ID, InstructorID: pending.ID, SectionCode: "A", Term: "1st", SchoolYear: "2025-2026",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.courseSvc.CreateSection(f.ctx, dean, &dto.CreateSectionCourseRequest{
		CourseID: 999, InstructorID: dean.UserID, SectionCode: "A", Term: "1st", SchoolYear: "2025-2026",
	})
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestStudentsAndEnrollments(t *testing.T) {
	f := newFixture(t)
	mine := f.user(t, models.RoleFaculty, "mine@school.edu")
	other := f.user(t, models.RoleFaculty, "other@school.edu")
	sc := f.section(t, mine, f.course(t, "IT101").ID, "A")

	email := "  MSantos@Student.School.edu "
	st, err := f.studentSvc.CreateStudent(f.ctx, &dto.CreateStudentRequest{StudentNumber: "2025-00012", FirstName: "Maria", LastName: "Santos", Email: &email})
	require.NoError(t, err)
	require.NotNil(t, st.Email)
	assert.Equal(t, "msantos@student.school.edu", *st.Email)

	_, err = f.studentSvc.CreateStudent(f.ctx, &dto.CreateStudentRequest{StudentNumber: "2025-00012", FirstName: "X", LastName: "Y"})
	assert.ErrorIs(t, err, apperrors.ErrStudentNumberExists)
	_, err = f.studentSvc.CreateStudent(f.ctx, &dto.CreateStudentRequest{StudentNumber: "#1", FirstName: "X", LastName: "Y"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.studentSvc.Enroll(f.ctx, other, &dto.EnrollRequest{StudentID: st.ID, SectionCourseID: sc.ID})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	e, err := f.studentSvc.Enroll(f.ctx, mine, &dto.EnrollRequest{StudentID: st.ID, SectionCourseID: sc.ID})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentEnrolled, e.Status)
	assert.Equal(t, "Santos, Maria", e.StudentName)

	_, err = f.studentSvc.Enroll(f.ctx, mine, &dto.EnrollRequest{StudentID: st.ID, SectionCourseID: sc.ID})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)
	_, err = f.studentSvc.Enroll(f.ctx, mine, &dto.EnrollRequest{StudentID: 999, SectionCourseID: sc.ID})
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	dropped, err := f.studentSvc.UpdateEnrollmentStatus(f.ctx, mine, e.ID, models.EnrollmentDropped)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentDropped, dropped.Status)
	_, err = f.studentSvc.UpdateEnrollmentStatus(f.ctx, mine, e.ID, "graduated")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	roster, err := f.studentSvc.ListEnrollments(f.ctx, mine, sc.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 1)

	page, err := f.studentSvc.ListStudents(f.ctx, "santos", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Students, 1)

	require.NoError(t, f.studentSvc.Unenroll(f.ctx, mine, e.ID))
	_, err = f.studentSvc.GetEnrollment(f.ctx, mine, e.ID)
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)

	require.NoError(t, f.studentSvc.DeleteStudent(f.ctx, st.ID))
	_, err = f.studentSvc.GetStudent(f.ctx, st.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestSectionChangesRefreshFacultyDashboards(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, models.RoleAdmin, "admin@school.edu")
	mine := f.user(t, models.RoleFaculty, "mine@school.edu")
	other := f.user(t, models.RoleFaculty, "other@school.edu")
	c := f.course(t, "IT101")
	a := f.section(t, mine, c.ID, "A")
	b := f.section(t, mine, c.ID, "B")

	sectionsOf := func(facultyID int64) int {
		t.Helper()
		res, err := f.attendanceSvc.FacultyAnalytics(f.ctx, admin, facultyID)
		require.NoError(t, err)
		return len(res.Sections)
	}
	require.Equal(t, 2, sectionsOf(mine.UserID))
	require.Equal(t, 0, sectionsOf(other.UserID))

	_, err := f.courseSvc.UpdateSection(f.ctx, admin, b.ID, &dto.UpdateSectionCourseRequest{
		InstructorID: other.UserID, SectionCode: "B", Term: "1st", SchoolYear: "2025-2026",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sectionsOf(mine.UserID))
	assert.Equal(t, 1, sectionsOf(other.UserID))

	require.NoError(t, f.courseSvc.DeleteSection(f.ctx, mine, a.ID))
	assert.Equal(t, 0, sectionsOf(mine.UserID))

	f.section(t, mine, c.ID, "C")
	assert.Equal(t, 1, sectionsOf(mine.UserID))

	require.NoError(t, f.courseSvc.DeleteCourse(f.ctx, c.ID))
	assert.Equal(t, 0, sectionsOf(mine.UserID))
	assert.Equal(t, 0, sectionsOf(other.UserID))
}

func TestDeleteSectionCascades(t *testing.T) {
	f := newFixture(t)
	g := newGradeSetup(t, f)
	session := f.session(t, g.instructor, g.section.ID, "2025-08-18")

	_, err := f.attendanceSvc.MarkSession(f.ctx, g.instructor, session.ID, &dto.MarkAttendanceRequest{Records: []dto.AttendanceMark{
		{EnrollmentID: g.santos.ID, Status: "present"},
		{EnrollmentID: g.reyes.ID, Status: "absent"},
	}})
	require.NoError(t, err)
	_, err = f.gradeSvc.GradeSubmission(f.ctx, g.instructor, &dto.GradeSubmissionRequest{
		EnrollmentID: g.santos.ID, AssessmentID: g.midterm.ID, TotalScore: float(40),
	})
	require.NoError(t, err)
	_, err = f.gradeSvc.GradeSubSubmission(f.ctx, g.instructor, &dto.GradeSubSubmissionRequest{
		EnrollmentID: g.santos.ID, SubAssessmentID: g.rubric.ID, TotalScore: float(15),
	})
	require.NoError(t, err)

	require.NoError(t, f.courseSvc.DeleteSection(f.ctx, g.instructor, g.section.ID))

	_, err = f.courseSvc.GetSection(f.ctx, g.instructor, g.section.ID)
	assert.ErrorIs(t, err, apperrors.ErrSectionCourseNotFound)
	_, err = f.studentSvc.GetEnrollment(f.ctx, g.instructor, g.santos.ID)
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)
	_, err = f.attendanceSvc.StudentLogs(f.ctx, g.instructor, g.santos.ID)
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)
	_, err = f.gradeSvc.EnrollmentGrades(f.ctx, g.instructor, g.santos.ID)
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)
	_, err = f.attendanceSvc.SessionRoster(f.ctx, g.instructor, session.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	_, err = f.assessmentSvc.GetAssessment(f.ctx, g.instructor, g.midterm.ID)
	assert.ErrorIs(t, err, apperrors.ErrAssessmentNotFound)

	enrollments, err := f.enrollments.ListBySection(f.ctx, g.section.ID)
	require.NoError(t, err)
	assert.Empty(t, enrollments)
	sessions, err := f.sessions.ListBySection(f.ctx, g.section.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	for _, e := range []*models.Enrollment{g.santos, g.reyes} {
		logs, err := f.attendance.ListByEnrollment(f.ctx, e.ID)
		require.NoError(t, err)
		assert.Empty(t, logs)
	}
	scores, err := f.submissions.ScoresBySection(f.ctx, g.section.ID)
	require.NoError(t, err)
	assert.Empty(t, scores)
	highest, err := f.submissions.MaxSubScore(f.ctx, g.rubric.ID)
	require.NoError(t, err)
	assert.Nil(t, highest)

	// students outlive their enrollments
	_, err = f.studentSvc.GetStudent(f.ctx, g.santos.StudentID)
	assert.NoError(t, err)
}
