package models

import "time"

// Student is an enrollable learner; students do not log in
type Student struct {
	ID            int64     `json:"id" example:"100"`
	StudentNumber string    `json:"studentNumber" example:"2025-00012"`
	FirstName     string    `json:"firstName" example:"Maria"`
	LastName      string    `json:"lastName" example:"Santos"`
	Email         *string   `json:"email,omitempty" example:"msantos@student.school.edu"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EnrollmentStatus of a course_enrollments row
type EnrollmentStatus string

const (
	EnrollmentEnrolled EnrollmentStatus = "enrolled"
	EnrollmentDropped  EnrollmentStatus = "dropped"
)

// Enrollment links a student to a section course
type Enrollment struct {
	ID              int64            `json:"id" example:"500"`
	StudentID       int64            `json:"studentId" example:"100"`
	SectionCourseID int64            `json:"sectionCourseId" example:"10"`
	Status          EnrollmentStatus `json:"status" example:"enrolled"`
	EnrolledAt      time.Time        `json:"enrolledAt"`

	StudentNumber string `json:"studentNumber,omitempty"`
	StudentName   string `json:"studentName,omitempty"`
}
