package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	authz "github.com/yigit/crms/internal/app/auth"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	inmemdb "github.com/yigit/crms/internal/app/repositories/inmem"
	"github.com/yigit/crms/internal/pkg/auth"
	"github.com/yigit/crms/internal/pkg/cache"
	"github.com/yigit/crms/internal/pkg/grading"
	"github.com/yigit/crms/internal/pkg/websocket"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*websocket.Event
}

func (p *recordingPublisher) Publish(e *websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

type recordingMailer struct {
	sent []string
	err  error
}

func (m *recordingMailer) SendAccountApprovedEmail(toEmail, _ string) error {
	m.sent = append(m.sent, toEmail)
	return m.err
}

type fixture struct {
	ctx context.Context
	db  *inmemdb.DB

	users       *inmemdb.UserRepository
	tokens      *inmemdb.TokenRepository
	courses     *inmemdb.CourseRepository
	sections    *inmemdb.SectionCourseRepository
	students    *inmemdb.StudentRepository
	enrollments *inmemdb.EnrollmentRepository
	syllabi     *inmemdb.SyllabusRepository
	assessments *inmemdb.AssessmentRepository
	submissions *inmemdb.SubmissionRepository
	sessions    *inmemdb.SessionRepository
	attendance  *inmemdb.AttendanceRepository
	analytics   *inmemdb.AnalyticsRepository

	authz     *authz.AuthorizationService
	cache     *cache.DashboardCache
	publisher *recordingPublisher
	mailer    *recordingMailer

	authSvc       *AuthService
	userSvc       UserService
	courseSvc     *CourseService
	studentSvc    *StudentService
	syllabusSvc   *SyllabusService
	assessmentSvc *AssessmentService
	gradeSvc      *GradeService
	attendanceSvc *AttendanceService
	analyticsSvc  *AnalyticsService
}

var fixedNow = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := inmemdb.New()
	db.Now = func() time.Time { return fixedNow }
	log := zerolog.Nop()

	f := &fixture{
		ctx:         context.Background(),
		db:          db,
		users:       inmemdb.NewUserRepository(db),
		tokens:      inmemdb.NewTokenRepository(db),
		courses:     inmemdb.NewCourseRepository(db),
		sections:    inmemdb.NewSectionCourseRepository(db),
		students:    inmemdb.NewStudentRepository(db),
		enrollments: inmemdb.NewEnrollmentRepository(db),
		syllabi:     inmemdb.NewSyllabusRepository(db),
		assessments: inmemdb.NewAssessmentRepository(db),
		submissions: inmemdb.NewSubmissionRepository(db),
		sessions:    inmemdb.NewSessionRepository(db),
		attendance:  inmemdb.NewAttendanceRepository(db),
		analytics:   inmemdb.NewAnalyticsRepository(db),
		publisher:   &recordingPublisher{},
		mailer:      &recordingMailer{},
	}
	f.authz = authz.NewAuthorizationService(f.sections, f.enrollments, f.assessments, f.sessions)
	f.cache = cache.NewDashboardCache(nil, inmemdb.NewCacheStore(db), time.Minute, log)

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "crms.test",
	})
	f.authSvc = NewAuthService(f.users, f.tokens, jwtService, log)
	f.userSvc = NewUserService(f.users, f.mailer, log)
	f.courseSvc = NewCourseService(f.courses, f.sections, f.users, f.authz, f.cache, log)
	f.studentSvc = NewStudentService(f.students, f.enrollments, f.authz, log)
	f.syllabusSvc = NewSyllabusService(f.syllabi, f.courses, f.authz, log)
	f.assessmentSvc = NewAssessmentService(f.assessments, f.submissions, f.syllabi, f.authz, log)
	f.gradeSvc = NewGradeService(f.assessments, f.submissions, f.enrollments, f.authz, nil, log)
	f.gradeSvc.now = func() time.Time { return fixedNow }
	f.attendanceSvc = NewAttendanceService(f.sessions, f.attendance, f.sections, f.authz, f.cache, f.publisher, log)
	f.attendanceSvc.now = func() time.Time { return fixedNow }
	f.analyticsSvc = NewAnalyticsService(AnalyticsRepos{
		Sections:    f.sections,
		Enrollments: f.enrollments,
		Assessments: f.assessments,
		Submissions: f.submissions,
		Attendance:  f.attendance,
		Analytics:   f.analytics,
	}, f.authz, f.cache, grading.Thresholds{AtRiskBelow: 75, ExcelAtLeast: 90}, log)
	f.analyticsSvc.now = func() time.Time { return fixedNow }
	return f
}

// user stores an approved account and returns it as an actor
func (f *fixture) user(t *testing.T, role models.RoleType, email string) authz.Actor {
	t.Helper()
	hash, err := auth.HashPassword("Secret123")
	require.NoError(t, err)
	u := &models.User{Email: email, PasswordHash: hash, FirstName: "Test", LastName: string(role), Role: role, IsApproved: true}
	require.NoError(t, f.users.Create(f.ctx, u))
	return authz.Actor{UserID: u.ID, Role: role}
}

func (f *fixture) course(t *testing.T, code string) *models.Course {
	t.Helper()
	c, err := f.courseSvc.CreateCourse(f.ctx, &dto.CreateCourseRequest{Code: code, Title: "Course " + code, Units: 3})
	require.NoError(t, err)
	return c
}

func (f *fixture) section(t *testing.T, instructor authz.Actor, courseID int64, code string) *models.SectionCourse {
	t.Helper()
	sc, err := f.courseSvc.CreateSection(f.ctx, instructor, &dto.CreateSectionCourseRequest{
		CourseID:    courseID,
		SectionCode: code,
		Term:        "1st",
		SchoolYear:  "2025-2026",
	})
	require.NoError(t, err)
	return sc
}

func (f *fixture) enroll(t *testing.T, instructor authz.Actor, sectionID int64, number, first, last string) *models.Enrollment {
	t.Helper()
	st, err := f.studentSvc.CreateStudent(f.ctx, &dto.CreateStudentRequest{StudentNumber: number, FirstName: first, LastName: last})
	require.NoError(t, err)
	e, err := f.studentSvc.Enroll(f.ctx, instructor, &dto.EnrollRequest{StudentID: st.ID, SectionCourseID: sectionID})
	require.NoError(t, err)
	return e
}

func (f *fixture) session(t *testing.T, instructor authz.Actor, sectionID int64, date string) *models.Session {
	t.Helper()
	s, err := f.attendanceSvc.CreateSession(f.ctx, instructor, &dto.CreateSessionRequest{
		SectionCourseID: sectionID,
		SessionDate:     date,
		SessionType:     models.SessionLecture,
	})
	require.NoError(t, err)
	return s
}

func float(v float64) *float64 { return &v }
