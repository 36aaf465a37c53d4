package repositories

import (
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository           *UserRepository
	TokenRepository          *TokenRepository
	CourseRepository         *CourseRepository
	SectionCourseRepository  *SectionCourseRepository
	StudentRepository        *StudentRepository
	EnrollmentRepository     *EnrollmentRepository
	SyllabusRepository       *SyllabusRepository
	AssessmentRepository     *AssessmentRepository
	SubmissionRepository     *SubmissionRepository
	SessionRepository        *SessionRepository
	AttendanceRepository     *AttendanceRepository
	AnalyticsRepository      *AnalyticsRepository
	DashboardCacheRepository *DashboardCacheRepository
	IntegrityRepository      *IntegrityRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:           NewUserRepository(db),
		TokenRepository:          NewTokenRepository(db),
		CourseRepository:         NewCourseRepository(db),
		SectionCourseRepository:  NewSectionCourseRepository(db),
		StudentRepository:        NewStudentRepository(db),
		EnrollmentRepository:     NewEnrollmentRepository(db),
		SyllabusRepository:       NewSyllabusRepository(db),
		AssessmentRepository:     NewAssessmentRepository(db),
		SubmissionRepository:     NewSubmissionRepository(db),
		SessionRepository:        NewSessionRepository(db),
		AttendanceRepository:     NewAttendanceRepository(db),
		AnalyticsRepository:      NewAnalyticsRepository(db),
		DashboardCacheRepository: NewDashboardCacheRepository(db),
		IntegrityRepository:      NewIntegrityRepository(db),
	}
}

// psql is the squirrel builder every repository uses
func psql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ilike matches any of columns case-insensitively against a search term
func ilike(term string, columns ...string) squirrel.Or {
	or := squirrel.Or{}
	for _, c := range columns {
		or = append(or, squirrel.ILike{c: "%" + term + "%"})
	}
	return or
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
