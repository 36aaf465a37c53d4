package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/middleware"
	"github.com/yigit/crms/internal/pkg/helpers"
)

// StudentController handles student records and enrollments
type StudentController struct {
	studentService *services.StudentService
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService *services.StudentService) *StudentController {
	return &StudentController{studentService: studentService}
}

// ListStudents returns one page of students
// @Summary List students
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches student number or name"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.StudentListResponse}
// @Router /students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	students, err := c.studentService.ListStudents(ctx.Request.Context(), ctx.Query("search"), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, students, "")
}

// GetStudent returns one student
// @Summary Get student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=models.Student}
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [get]
func (c *StudentController) GetStudent(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "student ID")
	if !ok {
		return
	}
	student, err := c.studentService.GetStudent(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, student, "")
}

// CreateStudent registers a student
// @Summary Create student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateStudentRequest true "Student"
// @Success 201 {object} dto.APIResponse{data=models.Student}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 409 {object} dto.ErrorResponse "Student number already exists"
// @Router /students [post]
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	student, err := c.studentService.CreateStudent(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, student, "Student created")
}

// UpdateStudent replaces a student's editable fields
// @Summary Update student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param request body dto.UpdateStudentRequest true "Student"
// @Success 200 {object} dto.APIResponse{data=models.Student}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Failure 409 {object} dto.ErrorResponse "Student number already exists"
// @Router /students/{id} [put]
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "student ID")
	if !ok {
		return
	}
	var req dto.UpdateStudentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	student, err := c.studentService.UpdateStudent(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, student, "Student updated")
}

// DeleteStudent removes a student and every enrollment of theirs
// @Summary Delete student
// @Tags students
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 204 "Student deleted"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [delete]
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "student ID")
	if !ok {
		return
	}
	if err := c.studentService.DeleteStudent(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Enroll adds a student to a section course
// @Summary Enroll student
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.EnrollRequest true "Enrollment"
// @Success 201 {object} dto.APIResponse{data=models.Enrollment}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Not the section's instructor"
// @Failure 404 {object} dto.ErrorResponse "Student or section not found"
// @Failure 409 {object} dto.ErrorResponse "Already enrolled"
// @Router /enrollments [post]
func (c *StudentController) Enroll(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req dto.EnrollRequest
	if !bindJSON(ctx, &req) {
		return
	}
	enrollment, err := c.studentService.Enroll(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, enrollment, "Student enrolled")
}

// ListSectionEnrollments returns the roster of a section course
// @Summary List enrollments of a section
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param section_course_id path int true "Section course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Enrollment}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /enrollments/section/{section_course_id} [get]
func (c *StudentController) ListSectionEnrollments(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	sectionID, ok := idParam(ctx, "section_course_id", "section course ID")
	if !ok {
		return
	}
	enrollments, err := c.studentService.ListEnrollments(ctx.Request.Context(), actor, sectionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, enrollments, "")
}

// GetEnrollment returns one enrollment
// @Summary Get enrollment
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} dto.APIResponse{data=models.Enrollment}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /enrollments/{id} [get]
func (c *StudentController) GetEnrollment(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "enrollment ID")
	if !ok {
		return
	}
	enrollment, err := c.studentService.GetEnrollment(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, enrollment, "")
}

// UpdateEnrollmentStatus drops or re-enrolls a student
// @Summary Update enrollment status
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Param request body dto.UpdateEnrollmentStatusRequest true "Status"
// @Success 200 {object} dto.APIResponse{data=models.Enrollment}
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /enrollments/{id}/status [patch]
func (c *StudentController) UpdateEnrollmentStatus(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "enrollment ID")
	if !ok {
		return
	}
	var req dto.UpdateEnrollmentStatusRequest
	if !bindJSON(ctx, &req) {
		return
	}
	enrollment, err := c.studentService.UpdateEnrollmentStatus(ctx.Request.Context(), actor, id, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, enrollment, "Enrollment updated")
}

// Unenroll deletes an enrollment with its grades and attendance
// @Summary Delete enrollment
// @Tags enrollments
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 204 "Enrollment deleted"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /enrollments/{id} [delete]
func (c *StudentController) Unenroll(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "enrollment ID")
	if !ok {
		return
	}
	if err := c.studentService.Unenroll(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
