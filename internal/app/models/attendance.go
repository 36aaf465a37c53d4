package models

import (
	"fmt"
	"strings"
	"time"
)

// AttendanceStatus is the fixed enumeration of attendance_logs.status
type AttendanceStatus string

const (
	AttendancePresent   AttendanceStatus = "present"
	AttendanceAbsent    AttendanceStatus = "absent"
	AttendanceLate      AttendanceStatus = "late"
	AttendanceExcused   AttendanceStatus = "excused"
	AttendanceNotMarked AttendanceStatus = "not-marked"
)

// AttendanceStatuses lists every valid status
var AttendanceStatuses = []AttendanceStatus{
	AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused, AttendanceNotMarked,
}

// Valid reports whether s is one of the enumeration values
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused, AttendanceNotMarked:
		return true
	default:
		return false
	}
}

// ParseAttendanceStatus normalises user input. An empty value means not-marked.
func ParseAttendanceStatus(raw string) (AttendanceStatus, error) {
	s := AttendanceStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case "":
		return AttendanceNotMarked, nil
	case "not_marked", "notmarked", "unmarked":
		return AttendanceNotMarked, nil
	}
	if !s.Valid() {
		return "", fmt.Errorf("unknown attendance status %q", raw)
	}
	return s, nil
}

// SessionType classifies a class meeting
type SessionType string

const (
	SessionLecture    SessionType = "lecture"
	SessionLaboratory SessionType = "laboratory"
	SessionExam       SessionType = "exam"
	SessionOther      SessionType = "other"
)

// Session is one class meeting of a section course
type Session struct {
	ID              int64       `json:"id" example:"70"`
	SectionCourseID int64       `json:"sectionCourseId" example:"10"`
	SessionDate     time.Time   `json:"sessionDate" example:"2025-08-18T00:00:00Z"`
	SessionType     SessionType `json:"sessionType" example:"lecture"`
	Title           *string     `json:"title,omitempty" example:"Week 1"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// AttendanceLog is one student's status for one session
type AttendanceLog struct {
	ID           int64            `json:"id" example:"1200"`
	EnrollmentID int64            `json:"enrollmentId" example:"500"`
	SessionID    int64            `json:"sessionId" example:"70"`
	Status       AttendanceStatus `json:"status" example:"present"`
	Remarks      *string          `json:"remarks,omitempty"`
	RecordedAt   *time.Time       `json:"recordedAt,omitempty"`

	SessionDate   *time.Time   `json:"sessionDate,omitempty"`
	SessionType   *SessionType `json:"sessionType,omitempty"`
	StudentNumber string       `json:"studentNumber,omitempty"`
	StudentName   string       `json:"studentName,omitempty"`
}

// AttendanceSummary aggregates attendance rows by status
type AttendanceSummary struct {
	EnrollmentID    int64   `json:"enrollmentId,omitempty"`
	SectionCourseID int64   `json:"sectionCourseId,omitempty"`
	TotalSessions   int     `json:"totalSessions"`
	Present         int     `json:"present"`
	Absent          int     `json:"absent"`
	Late            int     `json:"late"`
	Excused         int     `json:"excused"`
	NotMarked       int     `json:"notMarked"`
	AttendanceRate  float64 `json:"attendanceRate"`
}

// Add counts n rows of status. Unknown statuses (legacy NULLs) count as not-marked.
func (a *AttendanceSummary) Add(status AttendanceStatus, n int) {
	switch status {
	case AttendancePresent:
		a.Present += n
	case AttendanceAbsent:
		a.Absent += n
	case AttendanceLate:
		a.Late += n
	case AttendanceExcused:
		a.Excused += n
	default:
		a.NotMarked += n
	}
	a.TotalSessions += n
}

// SummarizeAttendance builds a summary from per-status counts and computes the
// attendance rate as present / total × 100 rounded to one decimal. Late and
// excused are not counted as present.
func SummarizeAttendance(counts map[AttendanceStatus]int) AttendanceSummary {
	var s AttendanceSummary
	for status, n := range counts {
		s.Add(status, n)
	}
	s.Finalize()
	return s
}

// Finalize recomputes AttendanceRate from the counters
func (a *AttendanceSummary) Finalize() {
	if a.TotalSessions == 0 {
		a.AttendanceRate = 0
		return
	}
	a.AttendanceRate = roundTenth(float64(a.Present) * 100 / float64(a.TotalSessions))
}

// SectionAttendance is the per-section block of the faculty analytics view
type SectionAttendance struct {
	SectionCourseID int64             `json:"sectionCourseId"`
	CourseCode      string            `json:"courseCode"`
	CourseTitle     string            `json:"courseTitle"`
	SectionCode     string            `json:"sectionCode"`
	EnrolledCount   int               `json:"enrolledCount"`
	SessionCount    int               `json:"sessionCount"`
	Summary         AttendanceSummary `json:"summary"`
}

// FacultyAttendanceAnalytics is the payload of the faculty analytics endpoint
type FacultyAttendanceAnalytics struct {
	FacultyID   int64                `json:"facultyId"`
	Sections    []*SectionAttendance `json:"sections"`
	Overall     AttendanceSummary    `json:"overall"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

// AttendanceMark is one student's status in a bulk marking of a session
type AttendanceMark struct {
	EnrollmentID int64
	Status       AttendanceStatus
	Remarks      *string
}
