package dto

import (
	"time"

	"github.com/yigit/crms/internal/app/models"
)

// AssessmentRequest creates or updates an assessment
type AssessmentRequest struct {
	SectionCourseID  int64                 `json:"sectionCourseId" binding:"required,min=1" example:"10"`
	SyllabusID       *int64                `json:"syllabusId" binding:"omitempty,min=1" example:"7"`
	Title            string                `json:"title" binding:"required,max=200" example:"Midterm Exam"`
	Type             models.AssessmentType `json:"type" binding:"required,oneof=quiz exam project assignment laboratory other" example:"exam"`
	TotalPoints      float64               `json:"totalPoints" binding:"required,gt=0" example:"50"`
	WeightPercentage float64               `json:"weightPercentage" binding:"gte=0,lte=100" example:"30"`
	DueDate          *time.Time            `json:"dueDate"`
	IsPublished      bool                  `json:"isPublished"`
	ILOIDs           []int64               `json:"iloIds" binding:"omitempty,dive,min=1"`
}

// SubAssessmentRequest creates or updates a sub-assessment
type SubAssessmentRequest struct {
	AssessmentID     int64                      `json:"assessmentId" binding:"required,min=1" example:"20"`
	Title            string                     `json:"title" binding:"required,max=200" example:"Rubric: Documentation"`
	TotalPoints      float64                    `json:"totalPoints" binding:"required,gt=0" example:"25"`
	WeightPercentage float64                    `json:"weightPercentage" binding:"gte=0,lte=100" example:"10"`
	Status           models.SubAssessmentStatus `json:"status" binding:"omitempty,oneof=draft published closed" example:"published"`
}

// GradeSubmissionRequest upserts a score for (enrollment, assessment)
type GradeSubmissionRequest struct {
	EnrollmentID int64                   `json:"enrollmentId" binding:"required,min=1" example:"500"`
	AssessmentID int64                   `json:"assessmentId" binding:"required,min=1" example:"20"`
	TotalScore   *float64                `json:"totalScore" example:"18.5"`
	Status       models.SubmissionStatus `json:"status" binding:"omitempty,oneof=pending submitted graded late missing" example:"graded"`
}

// GradeSubSubmissionRequest upserts a score for (enrollment, sub-assessment)
type GradeSubSubmissionRequest struct {
	EnrollmentID    int64                   `json:"enrollmentId" binding:"required,min=1" example:"500"`
	SubAssessmentID int64                   `json:"subAssessmentId" binding:"required,min=1" example:"31"`
	TotalScore      *float64                `json:"totalScore" example:"20"`
	Status          models.SubmissionStatus `json:"status" binding:"omitempty,oneof=pending submitted graded late missing" example:"graded"`
}
