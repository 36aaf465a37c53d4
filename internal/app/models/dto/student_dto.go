package dto

import "github.com/yigit/crms/internal/app/models"

// CreateStudentRequest registers a student record
type CreateStudentRequest struct {
	StudentNumber string  `json:"studentNumber" binding:"required,studentnumber" example:"2025-00012"`
	FirstName     string  `json:"firstName" binding:"required,max=100" example:"Maria"`
	LastName      string  `json:"lastName" binding:"required,max=100" example:"Santos"`
	Email         *string `json:"email" binding:"omitempty,email" example:"msantos@student.school.edu"`
}

// UpdateStudentRequest replaces a student's editable fields
type UpdateStudentRequest = CreateStudentRequest

// StudentListResponse is one page of students
type StudentListResponse struct {
	Students []*models.Student `json:"students"`
	PaginationInfo
}

// EnrollRequest enrolls a student in a section course
type EnrollRequest struct {
	StudentID       int64 `json:"studentId" binding:"required,min=1" example:"100"`
	SectionCourseID int64 `json:"sectionCourseId" binding:"required,min=1" example:"10"`
}

// UpdateEnrollmentStatusRequest drops or re-enrolls a student
type UpdateEnrollmentStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" binding:"required,oneof=enrolled dropped" example:"dropped"`
}
