package models

import "time"

// AssessmentType classifies an assessment
type AssessmentType string

const (
	AssessmentQuiz       AssessmentType = "quiz"
	AssessmentExam       AssessmentType = "exam"
	AssessmentProject    AssessmentType = "project"
	AssessmentAssignment AssessmentType = "assignment"
	AssessmentLab        AssessmentType = "laboratory"
	AssessmentOther      AssessmentType = "other"
)

// Assessment is a gradable item of a section course
type Assessment struct {
	ID               int64          `json:"id" example:"20"`
	SyllabusID       *int64         `json:"syllabusId,omitempty" example:"7"`
	SectionCourseID  int64          `json:"sectionCourseId" example:"10"`
	Title            string         `json:"title" example:"Midterm Exam"`
	Type             AssessmentType `json:"type" example:"exam"`
	TotalPoints      float64        `json:"totalPoints" example:"50"`
	WeightPercentage float64        `json:"weightPercentage" example:"30"`
	DueDate          *time.Time     `json:"dueDate,omitempty"`
	IsPublished      bool           `json:"isPublished"`
	CreatedBy        int64          `json:"createdBy" example:"4"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`

	ILOIDs         []int64          `json:"iloIds,omitempty"`
	SubAssessments []*SubAssessment `json:"subAssessments,omitempty"`
}

// SubAssessmentStatus is the lifecycle of a sub-assessment
type SubAssessmentStatus string

const (
	SubAssessmentDraft     SubAssessmentStatus = "draft"
	SubAssessmentPublished SubAssessmentStatus = "published"
	SubAssessmentClosed    SubAssessmentStatus = "closed"
)

// SubAssessment is a gradable component of an assessment
type SubAssessment struct {
	ID               int64               `json:"id" example:"31"`
	AssessmentID     int64               `json:"assessmentId" example:"20"`
	Title            string              `json:"title" example:"Rubric: Documentation"`
	TotalPoints      float64             `json:"totalPoints" example:"25"`
	WeightPercentage float64             `json:"weightPercentage" example:"10"`
	Status           SubAssessmentStatus `json:"status" example:"published"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// SubmissionStatus of a (sub-)assessment submission
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
	SubmissionLate      SubmissionStatus = "late"
	SubmissionMissing   SubmissionStatus = "missing"
)

// Submission is a student's result on an assessment or sub-assessment.
// Exactly one of AssessmentID and SubAssessmentID is set.
type Submission struct {
	ID              int64            `json:"id" example:"900"`
	EnrollmentID    int64            `json:"enrollmentId" example:"500"`
	AssessmentID    *int64           `json:"assessmentId,omitempty" example:"20"`
	SubAssessmentID *int64           `json:"subAssessmentId,omitempty"`
	TotalScore      *float64         `json:"totalScore,omitempty" example:"18.5"`
	Status          SubmissionStatus `json:"status" example:"graded"`
	GradedBy        *int64           `json:"gradedBy,omitempty"`
	GradedAt        *time.Time       `json:"gradedAt,omitempty"`

	TotalPoints     float64  `json:"totalPoints,omitempty" example:"25"`
	PercentageScore *float64 `json:"percentageScore,omitempty" example:"74"`
	StudentName     string   `json:"studentName,omitempty"`
}
