package dto

import (
	"time"

	"github.com/yigit/crms/internal/app/models"
)

// SessionDateLayout is the wire format of session dates
const SessionDateLayout = "2006-01-02"

// CreateSessionRequest schedules a class meeting
type CreateSessionRequest struct {
	SectionCourseID int64              `json:"sectionCourseId" binding:"required,min=1" example:"10"`
	SessionDate     string             `json:"sessionDate" binding:"required,datetime=2006-01-02" example:"2025-08-18"`
	SessionType     models.SessionType `json:"sessionType" binding:"required,oneof=lecture laboratory exam other" example:"lecture"`
	Title           *string            `json:"title" binding:"omitempty,max=200" example:"Week 1"`
}

// AttendanceMark is one student's status in a bulk marking request. The
// status is parsed leniently so "not_marked" and "" are accepted.
type AttendanceMark struct {
	EnrollmentID int64   `json:"enrollmentId" binding:"required,min=1" example:"500"`
	Status       string  `json:"status" example:"present"`
	Remarks      *string `json:"remarks" binding:"omitempty,max=500"`
}

// MarkAttendanceRequest records statuses for a session in one transaction
type MarkAttendanceRequest struct {
	Records []AttendanceMark `json:"records" binding:"required,min=1,dive"`
}

// StudentAttendanceResponse is the attendance history of an enrollment
type StudentAttendanceResponse struct {
	EnrollmentID int64                     `json:"enrollmentId"`
	Logs         []*models.AttendanceLog   `json:"logs"`
	Summary      *models.AttendanceSummary `json:"summary"`
}

// SessionRosterResponse lists every enrollment of a session's section
type SessionRosterResponse struct {
	Session *models.Session          `json:"session"`
	Roster  []*models.AttendanceLog  `json:"roster"`
	Summary models.AttendanceSummary `json:"summary"`
}

// MarkAttendanceResponse reports a bulk marking
type MarkAttendanceResponse struct {
	SessionID int64     `json:"sessionId"`
	Recorded  int       `json:"recorded"`
	MarkedAt  time.Time `json:"markedAt"`
}

// RepairAttendanceResponse reports how many rows were defaulted to present
type RepairAttendanceResponse struct {
	Updated int64 `json:"updated"`
}
