package models

import "time"

// Course is a catalogue entry, e.g. "IT 101 Introduction to Computing"
type Course struct {
	ID        int64     `json:"id" example:"1"`
	Code      string    `json:"courseCode" example:"IT101"`
	Title     string    `json:"title" example:"Introduction to Computing"`
	Units     int       `json:"units" example:"3"`
	CreatedAt time.Time `json:"createdAt"`
}

// SectionCourse is one taught offering of a course
type SectionCourse struct {
	ID           int64     `json:"id" example:"10"`
	CourseID     int64     `json:"courseId" example:"1"`
	InstructorID int64     `json:"instructorId" example:"4"`
	SectionCode  string    `json:"sectionCode" example:"BSIT-1A"`
	Term         string    `json:"term" example:"1st"`
	SchoolYear   string    `json:"schoolYear" example:"2025-2026"`
	CreatedAt    time.Time `json:"createdAt"`

	CourseCode     string `json:"courseCode,omitempty"`
	CourseTitle    string `json:"courseTitle,omitempty"`
	InstructorName string `json:"instructorName,omitempty"`
}
