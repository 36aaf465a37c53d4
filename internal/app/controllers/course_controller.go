package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/middleware"
	"github.com/yigit/crms/internal/pkg/helpers"
)

// CourseController handles the course catalogue and section courses
type CourseController struct {
	courseService *services.CourseService
	logger        zerolog.Logger
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService *services.CourseService, logger zerolog.Logger) *CourseController {
	return &CourseController{
		courseService: courseService,
		logger:        logger,
	}
}

// ListCourses returns one page of courses
// @Summary List courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches code or title"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.CourseListResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	courses, err := c.courseService.ListCourses(ctx.Request.Context(), ctx.Query("search"), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, courses, "")
}

// GetCourse returns one course
// @Summary Get course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=models.Course}
// @Failure 400 {object} dto.ErrorResponse "Invalid course ID"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "course ID")
	if !ok {
		return
	}
	course, err := c.courseService.GetCourse(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, course, "")
}

// CreateCourse adds a course to the catalogue
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCourseRequest true "Course"
// @Success 201 {object} dto.APIResponse{data=models.Course}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Course code already exists"
// @Router /courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindJSON(ctx, &req) {
		return
	}
	course, err := c.courseService.CreateCourse(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("courseCode", req.Code).Msg("Failed to create course")
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, course, "Course created")
}

// UpdateCourse replaces a course's editable fields
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.UpdateCourseRequest true "Course"
// @Success 200 {object} dto.APIResponse{data=models.Course}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 409 {object} dto.ErrorResponse "Course code already exists"
// @Router /courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "course ID")
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if !bindJSON(ctx, &req) {
		return
	}
	course, err := c.courseService.UpdateCourse(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, course, "Course updated")
}

// DeleteCourse removes a course and its sections
// @Summary Delete course
// @Tags courses
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 204 "Course deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid course ID"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "course ID")
	if !ok {
		return
	}
	if err := c.courseService.DeleteCourse(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListSections lists section courses. Faculty only see their own sections.
// @Summary List section courses
// @Tags section-courses
// @Produce json
// @Security BearerAuth
// @Param courseId query int false "Course ID"
// @Param instructorId query int false "Instructor ID"
// @Param schoolYear query string false "School year, e.g. 2025-2026"
// @Param term query string false "Term"
// @Success 200 {object} dto.APIResponse{data=[]models.SectionCourse}
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /section-courses [get]
func (c *CourseController) ListSections(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var filter dto.SectionCourseFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}
	sections, err := c.courseService.ListSections(ctx.Request.Context(), actor, &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, sections, "")
}

// GetSection returns one section course
// @Summary Get section course
// @Tags section-courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Section course ID"
// @Success 200 {object} dto.APIResponse{data=models.SectionCourse}
// @Failure 403 {object} dto.ErrorResponse "Not the section's instructor"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /section-courses/{id} [get]
func (c *CourseController) GetSection(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "section course ID")
	if !ok {
		return
	}
	section, err := c.courseService.GetSection(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, section, "")
}

// CreateSection opens a section of a course
// @Summary Create section course
// @Tags section-courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSectionCourseRequest true "Section course"
// @Success 201 {object} dto.APIResponse{data=models.SectionCourse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Faculty can only open their own sections"
// @Failure 404 {object} dto.ErrorResponse "Course or instructor not found"
// @Failure 409 {object} dto.ErrorResponse "Section already exists for the term"
// @Router /section-courses [post]
func (c *CourseController) CreateSection(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req dto.CreateSectionCourseRequest
	if !bindJSON(ctx, &req) {
		return
	}
	section, err := c.courseService.CreateSection(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, section, "Section course created")
}

// UpdateSection edits a section course
// @Summary Update section course
// @Tags section-courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Section course ID"
// @Param request body dto.UpdateSectionCourseRequest true "Section course"
// @Success 200 {object} dto.APIResponse{data=models.SectionCourse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /section-courses/{id} [put]
func (c *CourseController) UpdateSection(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "section course ID")
	if !ok {
		return
	}
	var req dto.UpdateSectionCourseRequest
	if !bindJSON(ctx, &req) {
		return
	}
	section, err := c.courseService.UpdateSection(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, section, "Section course updated")
}

// DeleteSection removes a section with its enrollments, sessions and attendance
// @Summary Delete section course
// @Tags section-courses
// @Security BearerAuth
// @Param id path int true "Section course ID"
// @Success 204 "Section course deleted"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /section-courses/{id} [delete]
func (c *CourseController) DeleteSection(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "section course ID")
	if !ok {
		return
	}
	if err := c.courseService.DeleteSection(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
