package controllers

import (
	"fmt"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/middleware"
	"github.com/yigit/crms/internal/pkg/export"
)

// GradeController handles scoring, grade aggregation and class record exports
type GradeController struct {
	gradeService *services.GradeService
	logger       zerolog.Logger
}

// NewGradeController creates a new GradeController
func NewGradeController(gradeService *services.GradeService, logger zerolog.Logger) *GradeController {
	return &GradeController{
		gradeService: gradeService,
		logger:       logger,
	}
}

// GradeSubmission records the score of an enrollment for an assessment
// @Summary Grade assessment submission
// @Description Upserts the submission of (enrollment, assessment). The score must lie between 0 and the assessment's total points.
// @Tags submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.GradeSubmissionRequest true "Score"
// @Success 200 {object} dto.APIResponse{data=models.Submission}
// @Failure 400 {object} dto.ErrorResponse "Score out of range or enrollment from another section"
// @Failure 403 {object} dto.ErrorResponse "Not the section's instructor"
// @Failure 404 {object} dto.ErrorResponse "Assessment or enrollment not found"
// @Router /submissions [put]
func (c *GradeController) GradeSubmission(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req dto.GradeSubmissionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	sub, err := c.gradeService.GradeSubmission(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, sub, "Submission graded")
}

// GradeSubSubmission records the score of an enrollment for a sub-assessment
// @Summary Grade sub-assessment submission
// @Tags submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.GradeSubSubmissionRequest true "Score"
// @Success 200 {object} dto.APIResponse{data=models.Submission}
// @Failure 400 {object} dto.ErrorResponse "Score out of range or enrollment from another section"
// @Failure 403 {object} dto.ErrorResponse "Not the section's instructor"
// @Failure 404 {object} dto.ErrorResponse "Sub-assessment or enrollment not found"
// @Router /sub-submissions [put]
func (c *GradeController) GradeSubSubmission(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req dto.GradeSubSubmissionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	sub, err := c.gradeService.GradeSubSubmission(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, sub, "Submission graded")
}

// ListSubmissions lists the submissions of an assessment with percentages
// @Summary List submissions of an assessment
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Param assessment_id path int true "Assessment ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Submission}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /submissions/assessment/{assessment_id} [get]
func (c *GradeController) ListSubmissions(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "assessment_id", "assessment ID")
	if !ok {
		return
	}
	subs, err := c.gradeService.ListSubmissions(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, subs, "")
}

// EnrollmentGrades returns the per-item breakdown and overall grade of an enrollment
// @Summary Grades of an enrollment
// @Tags grades
// @Produce json
// @Security BearerAuth
// @Param enrollment_id path int true "Enrollment ID"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentGradeResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /grades/enrollment/{enrollment_id} [get]
func (c *GradeController) EnrollmentGrades(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "enrollment_id", "enrollment ID")
	if !ok {
		return
	}
	grades, err := c.gradeService.EnrollmentGrades(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, grades, "")
}

// SectionGrades returns the class record of a section course
// @Summary Class record of a section
// @Tags grades
// @Produce json
// @Security BearerAuth
// @Param section_course_id path int true "Section course ID"
// @Success 200 {object} dto.APIResponse{data=dto.SectionGradesResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /grades/section/{section_course_id} [get]
func (c *GradeController) SectionGrades(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "section_course_id", "section course ID")
	if !ok {
		return
	}
	grades, err := c.gradeService.SectionGrades(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, grades, "")
}

// ExportSection downloads the class record as an Excel workbook
// @Summary Export class record
// @Tags grades
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param section_course_id path int true "Section course ID"
// @Success 200 {file} file "Class record workbook"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /grades/section/{section_course_id}/export [get]
func (c *GradeController) ExportSection(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "section_course_id", "section course ID")
	if !ok {
		return
	}
	data, name, err := c.gradeService.ExportSection(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	ctx.Data(http.StatusOK, export.ContentType, data)
}

// ArchiveSection stores the class record workbook in the report store
// @Summary Archive class record
// @Description Renders the class record and writes it to local disk or S3, depending on configuration
// @Tags grades
// @Produce json
// @Security BearerAuth
// @Param section_course_id path int true "Section course ID"
// @Success 201 {object} dto.APIResponse{data=dto.ArchivedReportResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Failure 503 {object} dto.ErrorResponse "Report storage is not configured"
// @Router /grades/section/{section_course_id}/export/archive [post]
func (c *GradeController) ArchiveSection(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "section_course_id", "section course ID")
	if !ok {
		return
	}
	report, err := c.gradeService.ArchiveSection(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, report, "Class record archived")
}

// DownloadArchive streams back an archived class record
// @Summary Download archived class record
// @Tags grades
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param section_course_id path int true "Section course ID"
// @Param key query string true "Report key returned by the archive call"
// @Success 200 {file} file "Class record workbook"
// @Failure 400 {object} dto.ErrorResponse "Missing key"
// @Failure 404 {object} dto.ErrorResponse "Report not found"
// @Failure 503 {object} dto.ErrorResponse "Report storage is not configured"
// @Router /grades/section/{section_course_id}/export/archive [get]
func (c *GradeController) DownloadArchive(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "section_course_id", "section course ID")
	if !ok {
		return
	}
	key := ctx.Query("key")
	if key == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Missing report key").WithField("key")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	data, err := c.gradeService.OpenArchive(ctx.Request.Context(), actor, id, key)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	ctx.Data(http.StatusOK, export.ContentType, data)
}
