package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/crms/internal/app/auth"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/cache"
	"github.com/yigit/crms/internal/pkg/helpers"
	"github.com/yigit/crms/internal/pkg/websocket"
)

// EventPublisher delivers live attendance events to section subscribers
type EventPublisher interface {
	Publish(event *websocket.Event)
}

// AttendanceService handles sessions, attendance marking and attendance analytics
type AttendanceService struct {
	sessionRepo    repositories.ISessionRepository
	attendanceRepo repositories.IAttendanceRepository
	sectionRepo    repositories.ISectionCourseRepository
	authz          *authz.AuthorizationService
	cache          *cache.DashboardCache
	publisher      EventPublisher
	logger         zerolog.Logger
	now            func() time.Time
}

// NewAttendanceService creates a new AttendanceService. publisher may be nil.
func NewAttendanceService(
	sessionRepo repositories.ISessionRepository,
	attendanceRepo repositories.IAttendanceRepository,
	sectionRepo repositories.ISectionCourseRepository,
	authzService *authz.AuthorizationService,
	dashboardCache *cache.DashboardCache,
	publisher EventPublisher,
	logger zerolog.Logger,
) *AttendanceService {
	return &AttendanceService{
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		sectionRepo:    sectionRepo,
		authz:          authzService,
		cache:          dashboardCache,
		publisher:      publisher,
		logger:         logger,
		now:            time.Now,
	}
}

// CreateSession schedules a class meeting
func (s *AttendanceService) CreateSession(ctx context.Context, actor authz.Actor, req *dto.CreateSessionRequest) (*models.Session, error) {
	section, err := s.authz.ModifySection(ctx, actor, req.SectionCourseID)
	if err != nil {
		return nil, err
	}
	date, err := helpers.ParseDate(req.SessionDate)
	if err != nil {
		return nil, apperrors.NewValidationError("sessionDate must be formatted as " + dto.SessionDateLayout)
	}
	switch req.SessionType {
	case models.SessionLecture, models.SessionLaboratory, models.SessionExam, models.SessionOther:
	default:
		return nil, apperrors.NewValidationError("sessionType must be lecture, laboratory, exam or other")
	}

	session := &models.Session{
		SectionCourseID: section.ID,
		SessionDate:     date,
		SessionType:     req.SessionType,
		Title:           helpers.NullableString(req.Title),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.invalidateInstructor(ctx, section.InstructorID)
	return session, nil
}

// ListSessions lists a section's sessions by date
func (s *AttendanceService) ListSessions(ctx context.Context, actor authz.Actor, sectionCourseID int64) ([]*models.Session, error) {
	if _, err := s.authz.ViewSection(ctx, actor, sectionCourseID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListBySection(ctx, sectionCourseID)
}

// DeleteSession removes a session and its attendance logs
func (s *AttendanceService) DeleteSession(ctx context.Context, actor authz.Actor, sessionID int64) error {
	session, err := s.authz.ModifySession(ctx, actor, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.invalidateSection(ctx, session.SectionCourseID)
	return nil
}

// StudentLogs returns the attendance history of an enrollment
func (s *AttendanceService) StudentLogs(ctx context.Context, actor authz.Actor, enrollmentID int64) (*dto.StudentAttendanceResponse, error) {
	enrollment, err := s.authz.ViewEnrollment(ctx, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	logs, err := s.attendanceRepo.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	summary := summarizeLogs(logs)
	summary.EnrollmentID = enrollment.ID
	summary.SectionCourseID = enrollment.SectionCourseID
	return &dto.StudentAttendanceResponse{EnrollmentID: enrollment.ID, Logs: logs, Summary: &summary}, nil
}

// SessionRoster lists every enrolled student of the session's section with
// their status; students without a log are not-marked
func (s *AttendanceService) SessionRoster(ctx context.Context, actor authz.Actor, sessionID int64) (*dto.SessionRosterResponse, error) {
	session, err := s.authz.ViewSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	roster, err := s.attendanceRepo.Roster(ctx, session)
	if err != nil {
		return nil, err
	}
	summary := summarizeLogs(roster)
	summary.SectionCourseID = session.SectionCourseID
	return &dto.SessionRosterResponse{Session: session, Roster: roster, Summary: summary}, nil
}

// StudentAnalytics returns status counts and the attendance rate of an enrollment
func (s *AttendanceService) StudentAnalytics(ctx context.Context, actor authz.Actor, enrollmentID int64) (*models.AttendanceSummary, error) {
	enrollment, err := s.authz.ViewEnrollment(ctx, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	counts, err := s.attendanceRepo.CountsByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	summary := models.SummarizeAttendance(counts)
	summary.EnrollmentID = enrollment.ID
	summary.SectionCourseID = enrollment.SectionCourseID
	return &summary, nil
}

// FacultyAnalytics returns per-section attendance summaries for every section
// the faculty member teaches. Results are served from the dashboard cache.
func (s *AttendanceService) FacultyAnalytics(ctx context.Context, actor authz.Actor, facultyID int64) (*models.FacultyAttendanceAnalytics, error) {
	if err := requireID("faculty ID", facultyID); err != nil {
		return nil, err
	}
	if err := s.authz.ViewFaculty(actor, facultyID); err != nil {
		return nil, err
	}

	key := cache.FacultyAttendanceKey(facultyID)
	var cached models.FacultyAttendanceAnalytics
	if found, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Dashboard cache read failed")
	} else if found {
		return &cached, nil
	}

	sections, err := s.attendanceRepo.InstructorSections(ctx, facultyID)
	if err != nil {
		return nil, err
	}

	out := &models.FacultyAttendanceAnalytics{
		FacultyID:   facultyID,
		Sections:    sections,
		GeneratedAt: s.now().UTC(),
	}
	for _, sa := range sections {
		out.Overall.Present += sa.Summary.Present
		out.Overall.Absent += sa.Summary.Absent
		out.Overall.Late += sa.Summary.Late
		out.Overall.Excused += sa.Summary.Excused
		out.Overall.NotMarked += sa.Summary.NotMarked
		out.Overall.TotalSessions += sa.Summary.TotalSessions
	}
	out.Overall.Finalize()

	if err := s.cache.SetJSON(ctx, key, out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Dashboard cache write failed")
	}
	return out, nil
}

// MarkSession records the statuses of a session in one transaction. When an
// enrollment appears more than once the last mark wins.
func (s *AttendanceService) MarkSession(ctx context.Context, actor authz.Actor, sessionID int64, req *dto.MarkAttendanceRequest) (*dto.MarkAttendanceResponse, error) {
	session, err := s.authz.ModifySession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	marks, err := parseMarks(req.Records)
	if err != nil {
		return nil, err
	}

	written, err := s.attendanceRepo.MarkSession(ctx, session, marks)
	if err != nil {
		return nil, err
	}

	s.invalidateSection(ctx, session.SectionCourseID)
	s.publish(&websocket.Event{
		Type:            websocket.EventAttendanceMarked,
		SectionCourseID: session.SectionCourseID,
		SessionID:       session.ID,
		Count:           int64(written),
		ActorID:         actor.UserID,
	})

	s.logger.Info().Int64("sessionID", session.ID).Int("recorded", written).Int64("by", actor.UserID).Msg("Attendance marked")
	return &dto.MarkAttendanceResponse{SessionID: session.ID, Recorded: written, MarkedAt: s.now().UTC()}, nil
}

func parseMarks(records []dto.AttendanceMark) ([]models.AttendanceMark, error) {
	if len(records) == 0 {
		return nil, apperrors.NewValidationError("records cannot be empty")
	}

	index := make(map[int64]int, len(records))
	marks := make([]models.AttendanceMark, 0, len(records))
	for _, r := range records {
		if r.EnrollmentID <= 0 {
			return nil, apperrors.NewValidationError("enrollmentId must be a positive integer")
		}
		status, err := models.ParseAttendanceStatus(r.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidAttendanceState, err)
		}
		m := models.AttendanceMark{EnrollmentID: r.EnrollmentID, Status: status, Remarks: helpers.NullableString(r.Remarks)}
		if i, ok := index[r.EnrollmentID]; ok {
			marks[i] = m
			continue
		}
		index[r.EnrollmentID] = len(marks)
		marks = append(marks, m)
	}
	return marks, nil
}

// Repair sets not-marked attendance to present, for one section or for all
// of them, and returns the number of updated rows
func (s *AttendanceService) Repair(ctx context.Context, actorID int64, sectionCourseID *int64) (int64, error) {
	if sectionCourseID != nil {
		if _, err := s.sectionRepo.GetByID(ctx, *sectionCourseID); err != nil {
			return 0, err
		}
	}

	perSection, err := s.attendanceRepo.RepairNotMarked(ctx, sectionCourseID)
	if err != nil {
		return 0, err
	}

	ids := make([]int64, 0, len(perSection))
	for id := range perSection {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var total int64
	for _, id := range ids {
		n := perSection[id]
		total += n
		s.invalidateSection(ctx, id)
		s.publish(&websocket.Event{
			Type:            websocket.EventAttendanceRepaired,
			SectionCourseID: id,
			Count:           n,
			ActorID:         actorID,
		})
	}

	s.logger.Info().Int64("updated", total).Int("sections", len(ids)).Msg("Attendance repaired")
	return total, nil
}

func (s *AttendanceService) publish(event *websocket.Event) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	s.publisher.Publish(event)
}

// invalidateSection drops the cached dashboards of the section's instructor
func (s *AttendanceService) invalidateSection(ctx context.Context, sectionCourseID int64) {
	section, err := s.sectionRepo.GetByID(ctx, sectionCourseID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("sectionCourseID", sectionCourseID).Msg("Could not resolve section for cache invalidation")
		return
	}
	s.invalidateInstructor(ctx, section.InstructorID)
}

func (s *AttendanceService) invalidateInstructor(ctx context.Context, instructorID int64) {
	key := cache.FacultyAttendanceKey(instructorID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Dashboard cache invalidation failed")
	}
}

func summarizeLogs(logs []*models.AttendanceLog) models.AttendanceSummary {
	var summary models.AttendanceSummary
	for _, l := range logs {
		summary.Add(l.Status, 1)
	}
	summary.Finalize()
	return summary
}
