package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/middleware"
)

// AssessmentController handles assessments and sub-assessments
type AssessmentController struct {
	assessmentService *services.AssessmentService
}

// NewAssessmentController creates a new AssessmentController
func NewAssessmentController(assessmentService *services.AssessmentService) *AssessmentController {
	return &AssessmentController{assessmentService: assessmentService}
}

// CreateAssessment adds a graded item to a section course
// @Summary Create assessment
// @Description Creates an assessment, optionally bound to a syllabus and tagged with its ILOs
// @Tags assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AssessmentRequest true "Assessment"
// @Success 201 {object} dto.APIResponse{data=models.Assessment}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or ILO from another syllabus"
// @Failure 403 {object} dto.ErrorResponse "Not the section's instructor"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /assessments [post]
func (c *AssessmentController) CreateAssessment(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req dto.AssessmentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	assessment, err := c.assessmentService.CreateAssessment(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, assessment, "Assessment created")
}

// ListSectionAssessments lists the assessments of a section course
// @Summary List assessments of a section
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param section_course_id path int true "Section course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Assessment}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /assessments/section/{section_course_id} [get]
func (c *AssessmentController) ListSectionAssessments(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	sectionID, ok := idParam(ctx, "section_course_id", "section course ID")
	if !ok {
		return
	}
	assessments, err := c.assessmentService.ListAssessments(ctx.Request.Context(), actor, sectionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, assessments, "")
}

// GetAssessment returns an assessment with its sub-assessments
// @Summary Get assessment
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 200 {object} dto.APIResponse{data=models.Assessment}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /assessments/{id} [get]
func (c *AssessmentController) GetAssessment(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "assessment ID")
	if !ok {
		return
	}
	assessment, err := c.assessmentService.GetAssessment(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, assessment, "")
}

// UpdateAssessment edits an assessment
// @Summary Update assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Param request body dto.AssessmentRequest true "Assessment"
// @Success 200 {object} dto.APIResponse{data=models.Assessment}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /assessments/{id} [put]
func (c *AssessmentController) UpdateAssessment(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "assessment ID")
	if !ok {
		return
	}
	var req dto.AssessmentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	assessment, err := c.assessmentService.UpdateAssessment(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, assessment, "Assessment updated")
}

// DeleteAssessment removes an assessment with its sub-assessments and scores
// @Summary Delete assessment
// @Tags assessments
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 204 "Assessment deleted"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /assessments/{id} [delete]
func (c *AssessmentController) DeleteAssessment(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "assessment ID")
	if !ok {
		return
	}
	if err := c.assessmentService.DeleteAssessment(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListSubAssessments lists the sub-assessments of an assessment
// @Summary List sub-assessments
// @Tags sub-assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 200 {object} dto.APIResponse{data=[]models.SubAssessment}
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /assessments/{id}/sub-assessments [get]
func (c *AssessmentController) ListSubAssessments(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "assessment ID")
	if !ok {
		return
	}
	subs, err := c.assessmentService.ListSubAssessments(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, subs, "")
}

// CreateSubAssessment adds a gradable component to an assessment
// @Summary Create sub-assessment
// @Tags sub-assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubAssessmentRequest true "Sub-assessment"
// @Success 201 {object} dto.APIResponse{data=models.SubAssessment}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /sub-assessments [post]
func (c *AssessmentController) CreateSubAssessment(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req dto.SubAssessmentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	sub, err := c.assessmentService.CreateSubAssessment(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, sub, "Sub-assessment created")
}

// GetSubAssessment returns one sub-assessment
// @Summary Get sub-assessment
// @Tags sub-assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Sub-assessment ID"
// @Success 200 {object} dto.APIResponse{data=models.SubAssessment}
// @Failure 404 {object} dto.ErrorResponse "Sub-assessment not found"
// @Router /sub-assessments/{id} [get]
func (c *AssessmentController) GetSubAssessment(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "sub-assessment ID")
	if !ok {
		return
	}
	sub, err := c.assessmentService.GetSubAssessment(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, sub, "")
}

// UpdateSubAssessment edits a sub-assessment
// @Summary Update sub-assessment
// @Tags sub-assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Sub-assessment ID"
// @Param request body dto.SubAssessmentRequest true "Sub-assessment"
// @Success 200 {object} dto.APIResponse{data=models.SubAssessment}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 404 {object} dto.ErrorResponse "Sub-assessment not found"
// @Router /sub-assessments/{id} [put]
func (c *AssessmentController) UpdateSubAssessment(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "sub-assessment ID")
	if !ok {
		return
	}
	var req dto.SubAssessmentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	sub, err := c.assessmentService.UpdateSubAssessment(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, sub, "Sub-assessment updated")
}

// DeleteSubAssessment removes a sub-assessment and its scores
// @Summary Delete sub-assessment
// @Tags sub-assessments
// @Security BearerAuth
// @Param id path int true "Sub-assessment ID"
// @Success 204 "Sub-assessment deleted"
// @Failure 404 {object} dto.ErrorResponse "Sub-assessment not found"
// @Router /sub-assessments/{id} [delete]
func (c *AssessmentController) DeleteSubAssessment(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "sub-assessment ID")
	if !ok {
		return
	}
	if err := c.assessmentService.DeleteSubAssessment(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
