// Package inmemdb implements the repository interfaces on top of in-memory
// maps. It backs service and handler tests and mirrors the constraint errors
// of the Postgres repositories.
package inmemdb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yigit/crms/internal/app/models"
)

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// DB holds every table
type DB struct {
	mu  sync.RWMutex
	seq int64

	users       map[int64]*models.User
	tokens      map[string]*models.RefreshToken
	courses     map[int64]*models.Course
	sections    map[int64]*models.SectionCourse
	students    map[int64]*models.Student
	enrollments map[int64]*models.Enrollment
	syllabi     map[int64]*models.Syllabus
	ilos        map[int64]*models.ILO
	assessments map[int64]*models.Assessment
	subs        map[int64]*models.SubAssessment
	submissions map[int64]*models.Submission
	sessions    map[int64]*models.Session
	attendance  map[int64]*models.AttendanceLog
	metrics     map[int64][]*models.AnalyticsMetric
	insights    map[int64][]*models.AnalyticsInsight
	cache       map[string]cacheEntry

	// Now is the clock used for timestamps and cache expiry
	Now func() time.Time
}

// New creates an empty database
func New() *DB {
	return &DB{
		users:       make(map[int64]*models.User),
		tokens:      make(map[string]*models.RefreshToken),
		courses:     make(map[int64]*models.Course),
		sections:    make(map[int64]*models.SectionCourse),
		students:    make(map[int64]*models.Student),
		enrollments: make(map[int64]*models.Enrollment),
		syllabi:     make(map[int64]*models.Syllabus),
		ilos:        make(map[int64]*models.ILO),
		assessments: make(map[int64]*models.Assessment),
		subs:        make(map[int64]*models.SubAssessment),
		submissions: make(map[int64]*models.Submission),
		sessions:    make(map[int64]*models.Session),
		attendance:  make(map[int64]*models.AttendanceLog),
		metrics:     make(map[int64][]*models.AnalyticsMetric),
		insights:    make(map[int64][]*models.AnalyticsInsight),
		cache:       make(map[string]cacheEntry),
		Now:         time.Now,
	}
}

func (db *DB) nextID() int64 {
	db.seq++
	return db.seq
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}

func page[T any](list []T, offset, limit int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

func ptr[T any](v T) *T {
	return &v
}

// deleteEnrollmentLocked removes an enrollment with its scores and attendance
func (db *DB) deleteEnrollmentLocked(id int64) {
	delete(db.enrollments, id)
	for sid, s := range db.submissions {
		if s.EnrollmentID == id {
			delete(db.submissions, sid)
		}
	}
	for aid, a := range db.attendance {
		if a.EnrollmentID == id {
			delete(db.attendance, aid)
		}
	}
}

func (db *DB) deleteSessionLocked(id int64) {
	delete(db.sessions, id)
	for aid, a := range db.attendance {
		if a.SessionID == id {
			delete(db.attendance, aid)
		}
	}
}

func (db *DB) deleteSubLocked(id int64) {
	delete(db.subs, id)
	for sid, s := range db.submissions {
		if s.SubAssessmentID != nil && *s.SubAssessmentID == id {
			delete(db.submissions, sid)
		}
	}
}

func (db *DB) deleteAssessmentLocked(id int64) {
	delete(db.assessments, id)
	for sid, s := range db.subs {
		if s.AssessmentID == id {
			db.deleteSubLocked(sid)
		}
	}
	for sid, s := range db.submissions {
		if s.AssessmentID != nil && *s.AssessmentID == id {
			delete(db.submissions, sid)
		}
	}
}

func (db *DB) deleteSyllabusLocked(id int64) {
	delete(db.syllabi, id)
	for iid, ilo := range db.ilos {
		if ilo.SyllabusID == id {
			db.deleteILOLocked(iid)
		}
	}
	for _, a := range db.assessments {
		if a.SyllabusID != nil && *a.SyllabusID == id {
			a.SyllabusID = nil
		}
	}
}

func (db *DB) deleteILOLocked(id int64) {
	delete(db.ilos, id)
	for _, a := range db.assessments {
		kept := make([]int64, 0, len(a.ILOIDs))
		for _, iloID := range a.ILOIDs {
			if iloID != id {
				kept = append(kept, iloID)
			}
		}
		a.ILOIDs = kept
	}
}

// deleteSectionLocked cascades like the schema's ON DELETE CASCADE
func (db *DB) deleteSectionLocked(id int64) {
	delete(db.sections, id)
	for eid, e := range db.enrollments {
		if e.SectionCourseID == id {
			db.deleteEnrollmentLocked(eid)
		}
	}
	for sid, s := range db.sessions {
		if s.SectionCourseID == id {
			db.deleteSessionLocked(sid)
		}
	}
	for aid, a := range db.assessments {
		if a.SectionCourseID == id {
			db.deleteAssessmentLocked(aid)
		}
	}
	for sid, s := range db.syllabi {
		if s.SectionCourseID != nil && *s.SectionCourseID == id {
			db.deleteSyllabusLocked(sid)
		}
	}
	delete(db.metrics, id)
	delete(db.insights, id)
}

func (db *DB) studentName(studentID int64) (number, name string) {
	if st, ok := db.students[studentID]; ok {
		return st.StudentNumber, st.LastName + ", " + st.FirstName
	}
	return "", ""
}

func (db *DB) enrollmentView(e *models.Enrollment) *models.Enrollment {
	out := *e
	out.StudentNumber, out.StudentName = db.studentName(e.StudentID)
	return &out
}

func (db *DB) sectionView(sc *models.SectionCourse) *models.SectionCourse {
	out := *sc
	if c, ok := db.courses[sc.CourseID]; ok {
		out.CourseCode = c.Code
		out.CourseTitle = c.Title
	}
	if u, ok := db.users[sc.InstructorID]; ok {
		out.InstructorName = u.FullName()
	}
	return &out
}
