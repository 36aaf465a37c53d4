package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/pkg/export"
)

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterApproveLogin(t *testing.T) {
	f := newAPIFixture(t)
	_, adminToken := f.login(models.RoleAdmin, "admin@school.edu")

	w := f.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email": "JDelaCruz@School.edu", "password": "Secret123",
		"firstName": "Juan", "lastName": "Dela Cruz", "role": "faculty",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := data[dto.UserResponse](t, w)
	assert.Equal(t, "jdelacruz@school.edu", user.Email)

	credentials := map[string]any{"email": "jdelacruz@school.edu", "password": "Secret123"}

	w = f.do(http.MethodPost, "/api/v1/auth/login", "", credentials)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTH_004", errorCode(t, w))

	w = f.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/approve", user.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/api/v1/auth/login", "", credentials)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := data[dto.AuthResponse](t, w)
	assert.NotEmpty(t, session.Token.AccessToken)
	assert.NotEmpty(t, session.Token.RefreshToken)

	w = f.do(http.MethodGet, "/api/v1/auth/profile", session.Token.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID, data[dto.UserResponse](t, w).ID)

	w = f.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "jdelacruz@school.edu", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_001", errorCode(t, w))
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email": "root@school.edu", "password": "Secret123",
		"firstName": "Root", "lastName": "User", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsersAreAdminOnly(t *testing.T) {
	f := newAPIFixture(t)
	_, facultyToken := f.login(models.RoleFaculty, "faculty@school.edu")

	w := f.do(http.MethodGet, "/api/v1/users", facultyToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTH_009", errorCode(t, w))

	w = f.do(http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCourseRoleGuards(t *testing.T) {
	f := newAPIFixture(t)
	_, adminToken := f.login(models.RoleAdmin, "admin@school.edu")
	_, deanToken := f.login(models.RoleDean, "dean@school.edu")
	_, facultyToken := f.login(models.RoleFaculty, "faculty@school.edu")

	body := map[string]any{"courseCode": " it102", "title": "Programming 1", "units": 3}

	w := f.do(http.MethodPost, "/api/v1/courses", facultyToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodPost, "/api/v1/courses", deanToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	course := data[models.Course](t, w)
	assert.Equal(t, "IT102", course.Code)

	w = f.do(http.MethodPost, "/api/v1/courses", deanToken, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RES_002", errorCode(t, w))

	w = f.do(http.MethodGet, fmt.Sprintf("/api/v1/courses/%d", course.ID), facultyToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	path := fmt.Sprintf("/api/v1/courses/%d", course.ID)
	w = f.do(http.MethodDelete, path, deanToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(http.MethodGet, path, facultyToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RES_001", errorCode(t, w))
}

func TestBadIdentifiers(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.login(models.RoleAdmin, "admin@school.edu")

	for _, path := range []string{
		"/api/v1/courses/abc",
		"/api/v1/courses/0",
		"/api/v1/grades/section/-4",
		"/api/v1/attendance/session/x",
	} {
		t.Run(path, func(t *testing.T) {
			w := f.do(http.MethodGet, path, token, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestInvalidPayload(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.login(models.RoleAdmin, "admin@school.edu")

	w := f.do(http.MethodPost, "/api/v1/courses", token, map[string]any{"courseCode": "not a code", "title": "X", "units": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VAL_001", errorCode(t, w))
}

func TestOtherFacultyCannotReadSection(t *testing.T) {
	f := newAPIFixture(t)
	_, adminToken := f.login(models.RoleAdmin, "admin@school.edu")
	class := f.class(adminToken)
	_, otherToken := f.login(models.RoleFaculty, "other@school.edu")

	w := f.do(http.MethodGet, fmt.Sprintf("/api/v1/section-courses/%d", class.sectionID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodGet, fmt.Sprintf("/api/v1/section-courses/%d", class.sectionID), class.facultyToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BSIT-1A", data[models.SectionCourse](t, w).SectionCode)

	w = f.do(http.MethodGet, fmt.Sprintf("/api/v1/enrollments/section/%d", class.sectionID), class.facultyToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data[[]models.Enrollment](t, w), 2)
}

func TestGradingFlow(t *testing.T) {
	f := newAPIFixture(t)
	_, adminToken := f.login(models.RoleAdmin, "admin@school.edu")
	class := f.class(adminToken)

	w := f.do(http.MethodPost, "/api/v1/assessments", class.facultyToken, map[string]any{
		"sectionCourseId": class.sectionID, "title": "Quiz 1", "type": "quiz",
		"totalPoints": 20, "weightPercentage": 25, "isPublished": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	quiz := data[models.Assessment](t, w)

	w = f.do(http.MethodPut, "/api/v1/submissions", class.facultyToken, map[string]any{
		"enrollmentId": class.enrollments[0], "assessmentId": quiz.ID, "totalScore": 25,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VAL_001", errorCode(t, w))

	w = f.do(http.MethodPut, "/api/v1/submissions", class.facultyToken, map[string]any{
		"enrollmentId": class.enrollments[0], "assessmentId": quiz.ID, "totalScore": 15,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sub := data[models.Submission](t, w)
	require.NotNil(t, sub.PercentageScore)
	assert.Equal(t, 75.0, *sub.PercentageScore)

	w = f.do(http.MethodGet, fmt.Sprintf("/api/v1/grades/enrollment/%d", class.enrollments[0]), class.facultyToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	grade := data[dto.EnrollmentGradeResponse](t, w)
	assert.Equal(t, 1, grade.GradedCount)
	require.NotNil(t, grade.OverallGrade)
	assert.Equal(t, 75.0, *grade.OverallGrade)

	w = f.do(http.MethodGet, fmt.Sprintf("/api/v1/grades/section/%d", class.sectionID), class.facultyToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, data[dto.SectionGradesResponse](t, w).Rows, 2)

	_, otherToken := f.login(models.RoleFaculty, "other@school.edu")
	w = f.do(http.MethodPut, "/api/v1/submissions", otherToken, map[string]any{
		"enrollmentId": class.enrollments[1], "assessmentId": quiz.ID, "totalScore": 10,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExportClassRecord(t *testing.T) {
	f := newAPIFixture(t)
	_, adminToken := f.login(models.RoleAdmin, "admin@school.edu")
	class := f.class(adminToken)

	w := f.do(http.MethodGet, fmt.Sprintf("/api/v1/grades/section/%d/export", class.sectionID), class.facultyToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment;")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())

	// no report store is configured in this router
	w = f.do(http.MethodPost, fmt.Sprintf("/api/v1/grades/section/%d/export/archive", class.sectionID), class.facultyToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SRV_003", errorCode(t, w))

	w = f.do(http.MethodGet, fmt.Sprintf("/api/v1/grades/section/%d/export/archive", class.sectionID), class.facultyToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceFlow(t *testing.T) {
	f := newAPIFixture(t)
	_, adminToken := f.login(models.RoleAdmin, "admin@school.edu")
	class := f.class(adminToken)

	w := f.do(http.MethodPost, "/api/v1/sessions", class.facultyToken, map[string]any{
		"sectionCourseId": class.sectionID, "sessionDate": "2025-08-18", "sessionType": "lecture",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	session := data[models.Session](t, w)

	w = f.do(http.MethodPost, "/api/v1/sessions", class.facultyToken, map[string]any{
		"sectionCourseId": class.sectionID, "sessionDate": "2025-08-18", "sessionType": "lecture",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	markPath := fmt.Sprintf("/api/v1/attendance/session/%d", session.ID)
	w = f.do(http.MethodPost, markPath, class.facultyToken, map[string]any{
		"records": []map[string]any{{"enrollmentId": class.enrollments[0], "status": "teleported"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, markPath, class.facultyToken, map[string]any{
		"records": []map[string]any{
			{"enrollmentId": class.enrollments[0], "status": "present"},
			{"enrollmentId": class.enrollments[1], "status": "absent"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, data[dto.MarkAttendanceResponse](t, w).Recorded)

	w = f.do(http.MethodGet, markPath, class.facultyToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	roster := data[dto.SessionRosterResponse](t, w)
	require.Len(t, roster.Roster, 2)
	statuses := map[int64]models.AttendanceStatus{}
	for _, l := range roster.Roster {
		statuses[l.EnrollmentID] = l.Status
	}
	assert.Equal(t, models.AttendancePresent, statuses[class.enrollments[0]])
	assert.Equal(t, models.AttendanceAbsent, statuses[class.enrollments[1]])

	w = f.do(http.MethodPost, "/api/v1/attendance/repair", class.facultyToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodPost, "/api/v1/attendance/repair", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Zero(t, data[dto.RepairAttendanceResponse](t, w).Updated)
}

func TestAnalyticsRefresh(t *testing.T) {
	f := newAPIFixture(t)
	_, adminToken := f.login(models.RoleAdmin, "admin@school.edu")
	class := f.class(adminToken)

	w := f.do(http.MethodPost, "/api/v1/analytics/refresh", class.facultyToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodPost, fmt.Sprintf("/api/v1/analytics/refresh?sectionCourseId=%d", class.sectionID), class.facultyToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := data[services.RefreshSummary](t, w)
	assert.Equal(t, 1, summary.Sections)
	assert.Equal(t, 2, summary.Enrollments)

	w = f.do(http.MethodPost, "/api/v1/analytics/refresh", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, data[services.RefreshSummary](t, w).Sections)

	w = f.do(http.MethodGet, fmt.Sprintf("/api/v1/analytics/section/%d", class.sectionID), class.facultyToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, data[models.SectionAnalytics](t, w).Metrics, 2)
}
