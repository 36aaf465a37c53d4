package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/middleware"
)

// SyllabusController handles syllabi, their review and their ILOs
type SyllabusController struct {
	syllabusService *services.SyllabusService
	logger          zerolog.Logger
}

// NewSyllabusController creates a new SyllabusController
func NewSyllabusController(syllabusService *services.SyllabusService, logger zerolog.Logger) *SyllabusController {
	return &SyllabusController{
		syllabusService: syllabusService,
		logger:          logger,
	}
}

// ListSyllabi lists syllabi
// @Summary List syllabi
// @Tags syllabi
// @Produce json
// @Security BearerAuth
// @Param courseId query int false "Course ID"
// @Param sectionCourseId query int false "Section course ID"
// @Param status query string false "Status" Enums(draft, pending, approved, rejected)
// @Success 200 {object} dto.APIResponse{data=[]models.Syllabus}
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /syllabi [get]
func (c *SyllabusController) ListSyllabi(ctx *gin.Context) {
	courseID, ok := optionalIDQuery(ctx, "courseId")
	if !ok {
		return
	}
	sectionID, ok := optionalIDQuery(ctx, "sectionCourseId")
	if !ok {
		return
	}
	syllabi, err := c.syllabusService.ListSyllabi(ctx.Request.Context(), courseID, sectionID, ctx.Query("status"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, syllabi, "")
}

// GetSyllabus returns a syllabus with its ILOs
// @Summary Get syllabus
// @Tags syllabi
// @Produce json
// @Security BearerAuth
// @Param id path int true "Syllabus ID"
// @Success 200 {object} dto.APIResponse{data=models.Syllabus}
// @Failure 404 {object} dto.ErrorResponse "Syllabus not found"
// @Router /syllabi/{id} [get]
func (c *SyllabusController) GetSyllabus(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "syllabus ID")
	if !ok {
		return
	}
	syllabus, err := c.syllabusService.GetSyllabus(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, syllabus, "")
}

// CreateSyllabus drafts a syllabus
// @Summary Create syllabus
// @Tags syllabi
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSyllabusRequest true "Syllabus"
// @Success 201 {object} dto.APIResponse{data=models.Syllabus}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Not the section's instructor"
// @Failure 404 {object} dto.ErrorResponse "Course or section not found"
// @Router /syllabi [post]
func (c *SyllabusController) CreateSyllabus(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req dto.CreateSyllabusRequest
	if !bindJSON(ctx, &req) {
		return
	}
	syllabus, err := c.syllabusService.CreateSyllabus(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, syllabus, "Syllabus created")
}

// UpdateSyllabus edits a syllabus or submits it for review
// @Summary Update syllabus
// @Tags syllabi
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Syllabus ID"
// @Param request body dto.UpdateSyllabusRequest true "Syllabus"
// @Success 200 {object} dto.APIResponse{data=models.Syllabus}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Only the author may edit"
// @Failure 404 {object} dto.ErrorResponse "Syllabus not found"
// @Router /syllabi/{id} [put]
func (c *SyllabusController) UpdateSyllabus(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "syllabus ID")
	if !ok {
		return
	}
	var req dto.UpdateSyllabusRequest
	if !bindJSON(ctx, &req) {
		return
	}
	syllabus, err := c.syllabusService.UpdateSyllabus(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, syllabus, "Syllabus updated")
}

// ReviewSyllabus approves or rejects a pending syllabus
// @Summary Review syllabus
// @Description Deans and program chairs approve or reject a syllabus that is pending review
// @Tags syllabi
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Syllabus ID"
// @Param request body dto.ReviewSyllabusRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.Syllabus}
// @Failure 400 {object} dto.ErrorResponse "Invalid decision"
// @Failure 403 {object} dto.ErrorResponse "Reviewers only"
// @Failure 404 {object} dto.ErrorResponse "Syllabus not found"
// @Failure 409 {object} dto.ErrorResponse "Syllabus is not pending review"
// @Router /syllabi/{id}/review [post]
func (c *SyllabusController) ReviewSyllabus(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "syllabus ID")
	if !ok {
		return
	}
	var req dto.ReviewSyllabusRequest
	if !bindJSON(ctx, &req) {
		return
	}
	syllabus, err := c.syllabusService.ReviewSyllabus(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("syllabusID", id).Int64("reviewerID", actor.UserID).Msg("Syllabus review rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, syllabus, "Syllabus "+string(req.Decision))
}

// DeleteSyllabus removes a syllabus and its ILOs
// @Summary Delete syllabus
// @Tags syllabi
// @Security BearerAuth
// @Param id path int true "Syllabus ID"
// @Success 204 "Syllabus deleted"
// @Failure 403 {object} dto.ErrorResponse "Only the author may delete"
// @Failure 404 {object} dto.ErrorResponse "Syllabus not found"
// @Router /syllabi/{id} [delete]
func (c *SyllabusController) DeleteSyllabus(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "syllabus ID")
	if !ok {
		return
	}
	if err := c.syllabusService.DeleteSyllabus(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListILOs lists the ILOs of a syllabus
// @Summary List ILOs
// @Tags ilos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Syllabus ID"
// @Success 200 {object} dto.APIResponse{data=[]models.ILO}
// @Failure 404 {object} dto.ErrorResponse "Syllabus not found"
// @Router /syllabi/{id}/ilos [get]
func (c *SyllabusController) ListILOs(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "syllabus ID")
	if !ok {
		return
	}
	ilos, err := c.syllabusService.ListILOs(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, ilos, "")
}

// CreateILO adds an ILO to a syllabus
// @Summary Create ILO
// @Tags ilos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Syllabus ID"
// @Param request body dto.ILORequest true "ILO"
// @Success 201 {object} dto.APIResponse{data=models.ILO}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Only the author may edit"
// @Failure 409 {object} dto.ErrorResponse "ILO code already exists"
// @Router /syllabi/{id}/ilos [post]
func (c *SyllabusController) CreateILO(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "syllabus ID")
	if !ok {
		return
	}
	var req dto.ILORequest
	if !bindJSON(ctx, &req) {
		return
	}
	ilo, err := c.syllabusService.CreateILO(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, ilo, "ILO created")
}

// UpdateILO edits an ILO
// @Summary Update ILO
// @Tags ilos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ILO ID"
// @Param request body dto.ILORequest true "ILO"
// @Success 200 {object} dto.APIResponse{data=models.ILO}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 404 {object} dto.ErrorResponse "ILO not found"
// @Failure 409 {object} dto.ErrorResponse "ILO code already exists"
// @Router /ilos/{id} [put]
func (c *SyllabusController) UpdateILO(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "ILO ID")
	if !ok {
		return
	}
	var req dto.ILORequest
	if !bindJSON(ctx, &req) {
		return
	}
	ilo, err := c.syllabusService.UpdateILO(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, ilo, "ILO updated")
}

// DeleteILO removes an ILO and its assessment tags
// @Summary Delete ILO
// @Tags ilos
// @Security BearerAuth
// @Param id path int true "ILO ID"
// @Success 204 "ILO deleted"
// @Failure 404 {object} dto.ErrorResponse "ILO not found"
// @Router /ilos/{id} [delete]
func (c *SyllabusController) DeleteILO(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "ILO ID")
	if !ok {
		return
	}
	if err := c.syllabusService.DeleteILO(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
