package models

import "time"

// SyllabusStatus is the review state of a syllabus
type SyllabusStatus string

const (
	SyllabusDraft    SyllabusStatus = "draft"
	SyllabusPending  SyllabusStatus = "pending"
	SyllabusApproved SyllabusStatus = "approved"
	SyllabusRejected SyllabusStatus = "rejected"
)

// Syllabus of a course, optionally bound to one section
type Syllabus struct {
	ID              int64          `json:"id" example:"7"`
	CourseID        int64          `json:"courseId" example:"1"`
	SectionCourseID *int64         `json:"sectionCourseId,omitempty" example:"10"`
	Title           string         `json:"title" example:"IT101 Syllabus AY 2025-2026"`
	Status          SyllabusStatus `json:"status" example:"draft"`
	CreatedBy       int64          `json:"createdBy" example:"4"`
	ReviewedBy      *int64         `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewedAt,omitempty"`
	ReviewRemarks   *string        `json:"reviewRemarks,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`

	ILOs []*ILO `json:"ilos,omitempty"`
}

// ILO is an intended learning outcome of a syllabus
type ILO struct {
	ID          int64  `json:"id" example:"3"`
	SyllabusID  int64  `json:"syllabusId" example:"7"`
	Code        string `json:"code" example:"ILO1"`
	Description string `json:"description" example:"Explain the parts of a computer system"`
}
