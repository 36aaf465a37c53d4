package inmemdb

import (
	"context"
	"sort"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

// SessionRepository implements repositories.ISessionRepository
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a SessionRepository on db
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(_ context.Context, s *models.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.sections[s.SectionCourseID]; !ok {
		return apperrors.ErrSectionCourseNotFound
	}
	for _, other := range r.db.sessions {
		if other.SectionCourseID == s.SectionCourseID && other.SessionDate.Equal(s.SessionDate) && other.SessionType == s.SessionType {
			return apperrors.ErrSessionExists
		}
	}
	s.ID = r.db.nextID()
	s.CreatedAt = r.db.Now()
	stored := *s
	r.db.sessions[s.ID] = &stored
	return nil
}

func (r *SessionRepository) GetByID(_ context.Context, id int64) (*models.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if s, ok := r.db.sessions[id]; ok {
		out := *s
		return &out, nil
	}
	return nil, apperrors.ErrSessionNotFound
}

func (r *SessionRepository) ListBySection(_ context.Context, sectionCourseID int64) ([]*models.Session, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*models.Session{}
	for _, id := range sortedKeys(r.db.sessions) {
		if s := r.db.sessions[id]; s.SectionCourseID == sectionCourseID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SessionDate.Before(out[j].SessionDate) })
	return out, nil
}

func (r *SessionRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.sessions[id]; !ok {
		return apperrors.ErrSessionNotFound
	}
	r.db.deleteSessionLocked(id)
	return nil
}

// AttendanceRepository implements repositories.IAttendanceRepository
type AttendanceRepository struct {
	db *DB
}

// NewAttendanceRepository creates an AttendanceRepository on db
func NewAttendanceRepository(db *DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// status reads an empty legacy status as not-marked
func status(l *models.AttendanceLog) models.AttendanceStatus {
	if l.Status == "" {
		return models.AttendanceNotMarked
	}
	return l.Status
}

func (r *AttendanceRepository) ListByEnrollment(_ context.Context, enrollmentID int64) ([]*models.AttendanceLog, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	logs := []*models.AttendanceLog{}
	for _, id := range sortedKeys(r.db.attendance) {
		l := r.db.attendance[id]
		if l.EnrollmentID != enrollmentID {
			continue
		}
		s, ok := r.db.sessions[l.SessionID]
		if !ok {
			continue
		}
		out := *l
		out.Status = status(l)
		out.SessionDate = ptr(s.SessionDate)
		out.SessionType = ptr(s.SessionType)
		logs = append(logs, &out)
	}
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].SessionDate.Equal(*logs[j].SessionDate) {
			return logs[i].SessionDate.Before(*logs[j].SessionDate)
		}
		return *logs[i].SessionType < *logs[j].SessionType
	})
	return logs, nil
}

func (r *AttendanceRepository) Roster(_ context.Context, session *models.Session) ([]*models.AttendanceLog, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	roster := []*models.AttendanceLog{}
	for _, id := range sortedKeys(r.db.enrollments) {
		e := r.db.enrollments[id]
		if e.SectionCourseID != session.SectionCourseID || e.Status != models.EnrollmentEnrolled {
			continue
		}
		entry := &models.AttendanceLog{EnrollmentID: e.ID, SessionID: session.ID, Status: models.AttendanceNotMarked}
		if l := r.logFor(e.ID, session.ID); l != nil {
			entry.ID = l.ID
			entry.Status = status(l)
			entry.Remarks = l.Remarks
			entry.RecordedAt = l.RecordedAt
		}
		entry.StudentNumber, entry.StudentName = r.db.studentName(e.StudentID)
		roster = append(roster, entry)
	}
	sort.SliceStable(roster, func(i, j int) bool { return roster[i].StudentName < roster[j].StudentName })
	return roster, nil
}

func (r *AttendanceRepository) logFor(enrollmentID, sessionID int64) *models.AttendanceLog {
	for _, l := range r.db.attendance {
		if l.EnrollmentID == enrollmentID && l.SessionID == sessionID {
			return l
		}
	}
	return nil
}

func (r *AttendanceRepository) CountsByEnrollment(_ context.Context, enrollmentID int64) (map[models.AttendanceStatus]int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[models.AttendanceStatus]int)
	for _, l := range r.db.attendance {
		if l.EnrollmentID == enrollmentID {
			counts[status(l)]++
		}
	}
	return counts, nil
}

func (r *AttendanceRepository) CountsBySection(_ context.Context, sectionCourseID int64) (map[int64]map[models.AttendanceStatus]int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make(map[int64]map[models.AttendanceStatus]int)
	for _, l := range r.db.attendance {
		e, ok := r.db.enrollments[l.EnrollmentID]
		if !ok || e.SectionCourseID != sectionCourseID {
			continue
		}
		if out[l.EnrollmentID] == nil {
			out[l.EnrollmentID] = make(map[models.AttendanceStatus]int)
		}
		out[l.EnrollmentID][status(l)]++
	}
	return out, nil
}

func (r *AttendanceRepository) InstructorSections(_ context.Context, instructorID int64) ([]*models.SectionAttendance, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	sections := []*models.SectionAttendance{}
	byID := make(map[int64]*models.SectionAttendance)
	for _, id := range sortedKeys(r.db.sections) {
		sc := r.db.sections[id]
		if sc.InstructorID != instructorID {
			continue
		}
		view := r.db.sectionView(sc)
		sa := &models.SectionAttendance{
			SectionCourseID: sc.ID,
			CourseCode:      view.CourseCode,
			CourseTitle:     view.CourseTitle,
			SectionCode:     sc.SectionCode,
		}
		sa.Summary.SectionCourseID = sc.ID
		for _, e := range r.db.enrollments {
			if e.SectionCourseID == sc.ID && e.Status == models.EnrollmentEnrolled {
				sa.EnrolledCount++
			}
		}
		for _, s := range r.db.sessions {
			if s.SectionCourseID == sc.ID {
				sa.SessionCount++
			}
		}
		sections = append(sections, sa)
		byID[sc.ID] = sa
	}

	for _, l := range r.db.attendance {
		s, ok := r.db.sessions[l.SessionID]
		if !ok {
			continue
		}
		if sa, ok := byID[s.SectionCourseID]; ok {
			sa.Summary.Add(status(l), 1)
		}
	}
	for _, sa := range sections {
		sa.Summary.Finalize()
	}
	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].CourseCode != sections[j].CourseCode {
			return sections[i].CourseCode < sections[j].CourseCode
		}
		return sections[i].SectionCode < sections[j].SectionCode
	})
	return sections, nil
}

func (r *AttendanceRepository) MarkSession(_ context.Context, session *models.Session, marks []models.AttendanceMark) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, m := range marks {
		e, ok := r.db.enrollments[m.EnrollmentID]
		if !ok || e.SectionCourseID != session.SectionCourseID || e.Status != models.EnrollmentEnrolled {
			return 0, apperrors.ErrEnrollmentNotInSection
		}
	}

	now := r.db.Now()
	for _, m := range marks {
		if l := r.logFor(m.EnrollmentID, session.ID); l != nil {
			l.Status = m.Status
			l.Remarks = m.Remarks
			l.RecordedAt = ptr(now)
			continue
		}
		id := r.db.nextID()
		r.db.attendance[id] = &models.AttendanceLog{
			ID:           id,
			EnrollmentID: m.EnrollmentID,
			SessionID:    session.ID,
			Status:       m.Status,
			Remarks:      m.Remarks,
			RecordedAt:   ptr(now),
		}
	}
	return len(marks), nil
}

func (r *AttendanceRepository) RepairNotMarked(_ context.Context, sectionCourseID *int64) (map[int64]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make(map[int64]int64)
	now := r.db.Now()
	for _, l := range r.db.attendance {
		if status(l) != models.AttendanceNotMarked {
			continue
		}
		s, ok := r.db.sessions[l.SessionID]
		if !ok || (sectionCourseID != nil && s.SectionCourseID != *sectionCourseID) {
			continue
		}
		l.Status = models.AttendancePresent
		l.RecordedAt = ptr(now)
		out[s.SectionCourseID]++
	}
	return out, nil
}

// SeedLog stores a raw attendance row, including legacy empty statuses
func (db *DB) SeedLog(enrollmentID, sessionID int64, s models.AttendanceStatus) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()

	id := db.nextID()
	db.attendance[id] = &models.AttendanceLog{ID: id, EnrollmentID: enrollmentID, SessionID: sessionID, Status: s}
	return id
}

var (
	_ repositories.ISessionRepository    = (*SessionRepository)(nil)
	_ repositories.IAttendanceRepository = (*AttendanceRepository)(nil)
)
