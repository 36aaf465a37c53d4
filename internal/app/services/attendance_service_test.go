package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/cache"
	"github.com/yigit/crms/internal/pkg/websocket"
)

func TestCreateSessionValidation(t *testing.T) {
	f := newFixture(t)
	mine := f.user(t, models.RoleFaculty, "mine@school.edu")
	other := f.user(t, models.RoleFaculty, "other@school.edu")
	sc := f.section(t, mine, f.course(t, "IT101").ID, "A")

	_, err := f.attendanceSvc.CreateSession(f.ctx, mine, &dto.CreateSessionRequest{SectionCourseID: sc.ID, SessionDate: "18/08/2025", SessionType: models.SessionLecture})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = f.attendanceSvc.CreateSession(f.ctx, mine, &dto.CreateSessionRequest{SectionCourseID: sc.ID, SessionDate: "2025-08-18", SessionType: "seminar"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = f.attendanceSvc.CreateSession(f.ctx, other, &dto.CreateSessionRequest{SectionCourseID: sc.ID, SessionDate: "2025-08-18", SessionType: models.SessionLecture})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	title := "  "
	s, err := f.attendanceSvc.CreateSession(f.ctx, mine, &dto.CreateSessionRequest{SectionCourseID: sc.ID, SessionDate: "2025-08-18", SessionType: models.SessionLecture, Title: &title})
	require.NoError(t, err)
	assert.Nil(t, s.Title)

	_, err = f.attendanceSvc.CreateSession(f.ctx, mine, &dto.CreateSessionRequest{SectionCourseID: sc.ID, SessionDate: "2025-08-18", SessionType: models.SessionLecture})
	assert.ErrorIs(t, err, apperrors.ErrSessionExists)

	// a laboratory meeting on the same day is a different session
	_, err = f.attendanceSvc.CreateSession(f.ctx, mine, &dto.CreateSessionRequest{SectionCourseID: sc.ID, SessionDate: "2025-08-18", SessionType: models.SessionLaboratory})
	require.NoError(t, err)
	f.session(t, mine, sc.ID, "2025-08-11")

	list, err := f.attendanceSvc.ListSessions(f.ctx, mine, sc.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2025-08-11", list[0].SessionDate.Format(dto.SessionDateLayout))

	require.NoError(t, f.attendanceSvc.DeleteSession(f.ctx, mine, s.ID))
	list, err = f.attendanceSvc.ListSessions(f.ctx, mine, sc.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMarkSession(t *testing.T) {
	f := newFixture(t)
	mine := f.user(t, models.RoleFaculty, "mine@school.edu")
	c := f.course(t, "IT101")
	sc := f.section(t, mine, c.ID, "A")
	otherSection := f.section(t, mine, c.ID, "B")
	santos := f.enroll(t, mine, sc.ID, "2025-0001", "Maria", "Santos")
	reyes := f.enroll(t, mine, sc.ID, "2025-0002", "Jose", "Reyes")
	cruz := f.enroll(t, mine, sc.ID, "2025-0003", "Ana", "Cruz")
	outsider := f.enroll(t, mine, otherSection.ID, "2025-0004", "Luis", "Garcia")
	s := f.session(t, mine, sc.ID, "2025-08-18")

	_, err := f.attendanceSvc.MarkSession(f.ctx, mine, s.ID, &dto.MarkAttendanceRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.attendanceSvc.MarkSession(f.ctx, mine, s.ID, &dto.MarkAttendanceRequest{Records: []dto.AttendanceMark{
		{EnrollmentID: santos.ID, Status: "asleep"},
	}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAttendanceState)

	_, err = f.attendanceSvc.MarkSession(f.ctx, mine, s.ID, &dto.MarkAttendanceRequest{Records: []dto.AttendanceMark{
		{EnrollmentID: santos.ID, Status: "present"},
		{EnrollmentID: outsider.ID, Status: "present"},
	}})
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotInSection)

	// nothing was written by the rejected request
	roster, err := f.attendanceSvc.SessionRoster(f.ctx, mine, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, roster.Summary.NotMarked)

	resp, err := f.attendanceSvc.MarkSession(f.ctx, mine, s.ID, &dto.MarkAttendanceRequest{Records: []dto.AttendanceMark{
		{EnrollmentID: santos.ID, Status: "absent"},
		{EnrollmentID: reyes.ID, Status: "LATE"},
		{EnrollmentID: santos.ID, Status: "present"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Recorded)
	assert.Equal(t, s.ID, resp.SessionID)

	roster, err = f.attendanceSvc.SessionRoster(f.ctx, mine, s.ID)
	require.NoError(t, err)
	require.Len(t, roster.Roster, 3)
	byEnrollment := map[int64]models.AttendanceStatus{}
	for _, l := range roster.Roster {
		byEnrollment[l.EnrollmentID] = l.Status
	}
	assert.Equal(t, models.AttendancePresent, byEnrollment[santos.ID])
	assert.Equal(t, models.AttendanceLate, byEnrollment[reyes.ID])
	assert.Equal(t, models.AttendanceNotMarked, byEnrollment[cruz.ID])
	assert.Equal(t, 33.3, roster.Summary.AttendanceRate)

	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	assert.Equal(t, websocket.EventAttendanceMarked, ev.Type)
	assert.Equal(t, sc.ID, ev.SectionCourseID)
	assert.Equal(t, int64(2), ev.Count)
	assert.Equal(t, fixedNow, ev.Timestamp)
}

func TestStudentAttendance(t *testing.T) {
	f := newFixture(t)
	mine := f.user(t, models.RoleFaculty, "mine@school.edu")
	other := f.user(t, models.RoleFaculty, "other@school.edu")
	sc := f.section(t, mine, f.course(t, "IT101").ID, "A")
	e := f.enroll(t, mine, sc.ID, "2025-0001", "Maria", "Santos")

	statuses := []string{"present", "present", "absent", "excused"}
	for i, st := range statuses {
		s := f.session(t, mine, sc.ID, []string{"2025-08-04", "2025-08-11", "2025-08-18", "2025-08-25"}[i])
		_, err := f.attendanceSvc.MarkSession(f.ctx, mine, s.ID, &dto.MarkAttendanceRequest{Records: []dto.AttendanceMark{{EnrollmentID: e.ID, Status: st}}})
		require.NoError(t, err)
	}

	logs, err := f.attendanceSvc.StudentLogs(f.ctx, mine, e.ID)
	require.NoError(t, err)
	require.Len(t, logs.Logs, 4)
	require.NotNil(t, logs.Logs[0].SessionDate)
	assert.Equal(t, "2025-08-04", logs.Logs[0].SessionDate.Format(dto.SessionDateLayout))
	assert.Equal(t, 50.0, logs.Summary.AttendanceRate)

	summary, err := f.attendanceSvc.StudentAnalytics(f.ctx, mine, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalSessions)
	assert.Equal(t, 2, summary.Present)
	assert.Equal(t, 1, summary.Excused)
	assert.Equal(t, 50.0, summary.AttendanceRate)
	assert.Equal(t, sc.ID, summary.SectionCourseID)

	_, err = f.attendanceSvc.StudentAnalytics(f.ctx, other, e.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestFacultyAnalyticsCache(t *testing.T) {
	f := newFixture(t)
	mine := f.user(t, models.RoleFaculty, "mine@school.edu")
	other := f.user(t, models.RoleFaculty, "other@school.edu")
	dean := f.user(t, models.RoleDean, "dean@school.edu")
	sc := f.section(t, mine, f.course(t, "IT101").ID, "A")
	e := f.enroll(t, mine, sc.ID, "2025-0001", "Maria", "Santos")
	s := f.session(t, mine, sc.ID, "2025-08-18")

	_, err := f.attendanceSvc.FacultyAnalytics(f.ctx, other, mine.UserID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.attendanceSvc.FacultyAnalytics(f.ctx, dean, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	first, err := f.attendanceSvc.FacultyAnalytics(f.ctx, mine, mine.UserID)
	require.NoError(t, err)
	require.Len(t, first.Sections, 1)
	assert.Equal(t, 1, first.Sections[0].EnrolledCount)
	assert.Equal(t, 1, first.Sections[0].SessionCount)
	assert.Equal(t, 0, first.Overall.TotalSessions)

	var cached struct{ FacultyID int64 }
	found, err := f.cache.GetJSON(f.ctx, cache.FacultyAttendanceKey(mine.UserID), &cached)
	require.NoError(t, err)
	assert.True(t, found)

	// marking invalidates the instructor's cached dashboard
	_, err = f.attendanceSvc.MarkSession(f.ctx, mine, s.ID, &dto.MarkAttendanceRequest{Records: []dto.AttendanceMark{{EnrollmentID: e.ID, Status: "present"}}})
	require.NoError(t, err)
	found, err = f.cache.GetJSON(f.ctx, cache.FacultyAttendanceKey(mine.UserID), &cached)
	require.NoError(t, err)
	assert.False(t, found)

	fresh, err := f.attendanceSvc.FacultyAnalytics(f.ctx, dean, mine.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Overall.Present)
	assert.Equal(t, 100.0, fresh.Overall.AttendanceRate)
}

func TestRepairNotMarked(t *testing.T) {
	f := newFixture(t)
	mine := f.user(t, models.RoleFaculty, "mine@school.edu")
	c := f.course(t, "IT101")
	a := f.section(t, mine, c.ID, "A")
	b := f.section(t, mine, c.ID, "B")
	ea := f.enroll(t, mine, a.ID, "2025-0001", "Maria", "Santos")
	eb := f.enroll(t, mine, b.ID, "2025-0002", "Jose", "Reyes")
	sa := f.session(t, mine, a.ID, "2025-08-18")
	sb := f.session(t, mine, b.ID, "2025-08-18")

	_, err := f.attendanceSvc.MarkSession(f.ctx, mine, sa.ID, &dto.MarkAttendanceRequest{Records: []dto.AttendanceMark{{EnrollmentID: ea.ID, Status: "not_marked"}}})
	require.NoError(t, err)
	// a legacy row without a status
	f.db.SeedLog(eb.ID, sb.ID, "")
	f.publisher.events = nil

	missing := int64(999)
	_, err = f.attendanceSvc.Repair(f.ctx, 1, &missing)
	assert.ErrorIs(t, err, apperrors.ErrSectionCourseNotFound)

	n, err := f.attendanceSvc.Repair(f.ctx, 1, &a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, websocket.EventAttendanceRepaired, f.publisher.events[0].Type)

	n, err = f.attendanceSvc.Repair(f.ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.attendanceSvc.Repair(f.ctx, 1, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	summary, err := f.attendanceSvc.StudentAnalytics(f.ctx, mine, eb.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Present)
	assert.Zero(t, summary.NotMarked)
}

func TestMarkSessionRejectsDroppedEnrollment(t *testing.T) {
	f := newFixture(t)
	mine := f.user(t, models.RoleFaculty, "mine@school.edu")
	sc := f.section(t, mine, f.course(t, "IT101").ID, "A")
	santos := f.enroll(t, mine, sc.ID, "2025-0001", "Maria", "Santos")
	reyes := f.enroll(t, mine, sc.ID, "2025-0002", "Jose", "Reyes")
	s := f.session(t, mine, sc.ID, "2025-08-18")

	_, err := f.studentSvc.UpdateEnrollmentStatus(f.ctx, mine, reyes.ID, models.EnrollmentDropped)
	require.NoError(t, err)

	_, err = f.attendanceSvc.MarkSession(f.ctx, mine, s.ID, &dto.MarkAttendanceRequest{Records: []dto.AttendanceMark{
		{EnrollmentID: santos.ID, Status: "present"},
		{EnrollmentID: reyes.ID, Status: "present"},
	}})
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotInSection)

	logs, err := f.attendance.ListByEnrollment(f.ctx, santos.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	roster, err := f.attendanceSvc.SessionRoster(f.ctx, mine, s.ID)
	require.NoError(t, err)
	require.Len(t, roster.Roster, 1)
	assert.Equal(t, santos.ID, roster.Roster[0].EnrollmentID)
}
