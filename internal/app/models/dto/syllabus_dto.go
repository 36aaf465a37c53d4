package dto

import "github.com/yigit/crms/internal/app/models"

// CreateSyllabusRequest drafts a syllabus
type CreateSyllabusRequest struct {
	CourseID        int64  `json:"courseId" binding:"required,min=1" example:"1"`
	SectionCourseID *int64 `json:"sectionCourseId" binding:"omitempty,min=1" example:"10"`
	Title           string `json:"title" binding:"required,max=200" example:"IT101 Syllabus AY 2025-2026"`
}

// UpdateSyllabusRequest edits a syllabus title or submits it for review
type UpdateSyllabusRequest struct {
	Title  string                `json:"title" binding:"required,max=200"`
	Status models.SyllabusStatus `json:"status" binding:"omitempty,oneof=draft pending" example:"pending"`
}

// ReviewSyllabusRequest approves or rejects a pending syllabus
type ReviewSyllabusRequest struct {
	Decision models.SyllabusStatus `json:"decision" binding:"required,oneof=approved rejected" example:"approved"`
	Remarks  *string               `json:"remarks" binding:"omitempty,max=1000"`
}

// ILORequest creates or updates an intended learning outcome
type ILORequest struct {
	Code        string `json:"code" binding:"required,max=20" example:"ILO1"`
	Description string `json:"description" binding:"required" example:"Explain the parts of a computer system"`
}
