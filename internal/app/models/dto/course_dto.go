package dto

import "github.com/yigit/crms/internal/app/models"

// CreateCourseRequest adds a course to the catalogue
type CreateCourseRequest struct {
	Code  string `json:"courseCode" binding:"required,coursecode" example:"IT101"`
	Title string `json:"title" binding:"required,max=200" example:"Introduction to Computing"`
	Units int    `json:"units" binding:"required,min=1,max=12" example:"3"`
}

// UpdateCourseRequest replaces a course's editable fields
type UpdateCourseRequest = CreateCourseRequest

// CourseListResponse is one page of courses
type CourseListResponse struct {
	Courses []*models.Course `json:"courses"`
	PaginationInfo
}

// CreateSectionCourseRequest opens a section of a course. Faculty callers
// always become the instructor; admins may assign anyone.
type CreateSectionCourseRequest struct {
	CourseID     int64  `json:"courseId" binding:"required,min=1" example:"1"`
	InstructorID int64  `json:"instructorId" binding:"omitempty,min=1" example:"4"`
	SectionCode  string `json:"sectionCode" binding:"required,max=30" example:"BSIT-1A"`
	Term         string `json:"term" binding:"required,max=20" example:"1st"`
	SchoolYear   string `json:"schoolYear" binding:"required,max=20" example:"2025-2026"`
}

// UpdateSectionCourseRequest edits a section
type UpdateSectionCourseRequest struct {
	InstructorID int64  `json:"instructorId" binding:"omitempty,min=1" example:"4"`
	SectionCode  string `json:"sectionCode" binding:"required,max=30" example:"BSIT-1A"`
	Term         string `json:"term" binding:"required,max=20" example:"1st"`
	SchoolYear   string `json:"schoolYear" binding:"required,max=20" example:"2025-2026"`
}

// SectionCourseFilter narrows section listings
type SectionCourseFilter struct {
	CourseID     int64  `form:"courseId" binding:"omitempty,min=1"`
	InstructorID int64  `form:"instructorId" binding:"omitempty,min=1"`
	SchoolYear   string `form:"schoolYear"`
	Term         string `form:"term"`
}
