package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	authz "github.com/yigit/crms/internal/app/auth"
	"github.com/yigit/crms/internal/app/controllers"
	"github.com/yigit/crms/internal/app/models"
	inmemdb "github.com/yigit/crms/internal/app/repositories/inmem"
	"github.com/yigit/crms/internal/app/routes"
	"github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/middleware"
	"github.com/yigit/crms/internal/pkg/auth"
	"github.com/yigit/crms/internal/pkg/cache"
	"github.com/yigit/crms/internal/pkg/grading"
	"github.com/yigit/crms/internal/pkg/validation"
	"github.com/yigit/crms/internal/pkg/websocket"
)

type discardPublisher struct{}

func (discardPublisher) Publish(*websocket.Event) {}

type discardMailer struct{}

func (discardMailer) SendAccountApprovedEmail(string, string) error { return nil }

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
	jwt    *auth.JWTService
	users  *inmemdb.UserRepository
}

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.RegisterGinValidators(); err != nil {
		panic(err)
	}
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db := inmemdb.New()
	log := zerolog.Nop()

	users := inmemdb.NewUserRepository(db)
	tokens := inmemdb.NewTokenRepository(db)
	courses := inmemdb.NewCourseRepository(db)
	sections := inmemdb.NewSectionCourseRepository(db)
	students := inmemdb.NewStudentRepository(db)
	enrollments := inmemdb.NewEnrollmentRepository(db)
	syllabi := inmemdb.NewSyllabusRepository(db)
	assessments := inmemdb.NewAssessmentRepository(db)
	submissions := inmemdb.NewSubmissionRepository(db)
	sessions := inmemdb.NewSessionRepository(db)
	attendance := inmemdb.NewAttendanceRepository(db)
	analytics := inmemdb.NewAnalyticsRepository(db)

	authzService := authz.NewAuthorizationService(sections, enrollments, assessments, sessions)
	dashboardCache := cache.NewDashboardCache(nil, inmemdb.NewCacheStore(db), time.Minute, log)

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "crms.test",
	})

	authService := services.NewAuthService(users, tokens, jwtService, log)
	userService := services.NewUserService(users, discardMailer{}, log)
	courseService := services.NewCourseService(courses, sections, users, authzService, dashboardCache, log)
	studentService := services.NewStudentService(students, enrollments, authzService, log)
	syllabusService := services.NewSyllabusService(syllabi, courses, authzService, log)
	assessmentService := services.NewAssessmentService(assessments, submissions, syllabi, authzService, log)
	gradeService := services.NewGradeService(assessments, submissions, enrollments, authzService, nil, log)
	attendanceService := services.NewAttendanceService(sessions, attendance, sections, authzService, dashboardCache, discardPublisher{}, log)
	analyticsService := services.NewAnalyticsService(services.AnalyticsRepos{
		Sections:    sections,
		Enrollments: enrollments,
		Assessments: assessments,
		Submissions: submissions,
		Attendance:  attendance,
		Analytics:   analytics,
	}, authzService, dashboardCache, grading.Thresholds{AtRiskBelow: 75, ExcelAtLeast: 90}, log)

	router := gin.New()
	routes.SetupRouter(router, &routes.Controllers{
		Auth:       controllers.NewAuthController(authService, log),
		User:       controllers.NewUserController(userService),
		Course:     controllers.NewCourseController(courseService, log),
		Student:    controllers.NewStudentController(studentService),
		Syllabus:   controllers.NewSyllabusController(syllabusService, log),
		Assessment: controllers.NewAssessmentController(assessmentService),
		Grade:      controllers.NewGradeController(gradeService, log),
		Attendance: controllers.NewAttendanceController(attendanceService, log),
		Analytics:  controllers.NewAnalyticsController(analyticsService),
	}, middleware.NewAuthMiddleware(jwtService))

	return &apiFixture{t: t, router: router, jwt: jwtService, users: users}
}

// login stores an approved account and returns a bearer token for it
func (f *apiFixture) login(role models.RoleType, email string) (int64, string) {
	f.t.Helper()
	hash, err := auth.HashPassword("Secret123")
	require.NoError(f.t, err)
	u := &models.User{Email: email, PasswordHash: hash, FirstName: "Test", LastName: string(role), Role: role, IsApproved: true}
	require.NoError(f.t, f.users.Create(context.Background(), u))

	pair, err := f.jwt.GenerateTokenPair(u)
	require.NoError(f.t, err)
	return u.ID, pair.AccessToken
}

func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// envelope decodes the success or error envelope of a response
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func data[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}

// classSetup is one section taught by a faculty member with two enrollments
type classSetup struct {
	facultyToken string
	facultyID    int64
	sectionID    int64
	enrollments  []int64
}

func (f *apiFixture) class(adminToken string) classSetup {
	f.t.Helper()
	t := f.t
	facultyID, facultyToken := f.login(models.RoleFaculty, "faculty@school.edu")

	w := f.do(http.MethodPost, "/api/v1/courses", adminToken, map[string]any{
		"courseCode": "IT101", "title": "Introduction to Computing", "units": 3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	course := data[models.Course](t, w)

	w = f.do(http.MethodPost, "/api/v1/section-courses", facultyToken, map[string]any{
		"courseId": course.ID, "sectionCode": "bsit-1a", "term": "1st", "schoolYear": "2025-2026",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	section := data[models.SectionCourse](t, w)

	setup := classSetup{facultyToken: facultyToken, facultyID: facultyID, sectionID: section.ID}
	for _, st := range []struct{ number, first, last string }{
		{"2025-0001", "Maria", "Santos"},
		{"2025-0002", "Jose", "Reyes"},
	} {
		w = f.do(http.MethodPost, "/api/v1/students", facultyToken, map[string]any{
			"studentNumber": st.number, "firstName": st.first, "lastName": st.last,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		student := data[models.Student](t, w)

		w = f.do(http.MethodPost, "/api/v1/enrollments", facultyToken, map[string]any{
			"studentId": student.ID, "sectionCourseId": section.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		setup.enrollments = append(setup.enrollments, data[models.Enrollment](t, w).ID)
	}
	return setup
}
