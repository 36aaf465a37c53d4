package dto

import (
	"github.com/yigit/crms/internal/pkg/grading"
)

// EnrollmentGradeResponse is the grade breakdown of one enrollment
type EnrollmentGradeResponse struct {
	EnrollmentID    int64  `json:"enrollmentId" example:"500"`
	SectionCourseID int64  `json:"sectionCourseId" example:"10"`
	StudentNumber   string `json:"studentNumber" example:"2025-00012"`
	StudentName     string `json:"studentName" example:"Maria Santos"`
	grading.Result
}

// SectionGradesResponse is the class record of a section course
type SectionGradesResponse struct {
	SectionCourseID int64                      `json:"sectionCourseId"`
	CourseCode      string                     `json:"courseCode"`
	CourseTitle     string                     `json:"courseTitle"`
	SectionCode     string                     `json:"sectionCode"`
	Columns         []grading.Item             `json:"columns"`
	Rows            []*EnrollmentGradeResponse `json:"rows"`
}

// ArchivedReportResponse tells where an exported class record was stored
type ArchivedReportResponse struct {
	Key      string `json:"key" example:"class-records/10/20250818T101500Z-3f1c.xlsx"`
	Location string `json:"location" example:"s3://crms-reports/class-records/10/20250818T101500Z-3f1c.xlsx"`
	Size     int64  `json:"size" example:"8421"`
}
