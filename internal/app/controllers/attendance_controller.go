package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/middleware"
)

// AttendanceController handles class sessions and attendance
type AttendanceController struct {
	attendanceService *services.AttendanceService
	logger            zerolog.Logger
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService *services.AttendanceService, logger zerolog.Logger) *AttendanceController {
	return &AttendanceController{
		attendanceService: attendanceService,
		logger:            logger,
	}
}

// CreateSession schedules a class meeting
// @Summary Create session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSessionRequest true "Session"
// @Success 201 {object} dto.APIResponse{data=models.Session}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Not the section's instructor"
// @Failure 409 {object} dto.ErrorResponse "Session of this type already exists on that date"
// @Router /sessions [post]
func (c *AttendanceController) CreateSession(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req dto.CreateSessionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	session, err := c.attendanceService.CreateSession(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, session, "Session created")
}

// ListSessions lists the sessions of a section course by date
// @Summary List sessions of a section
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param section_course_id path int true "Section course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Session}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /sessions/section/{section_course_id} [get]
func (c *AttendanceController) ListSessions(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	sectionID, ok := idParam(ctx, "section_course_id", "section course ID")
	if !ok {
		return
	}
	sessions, err := c.attendanceService.ListSessions(ctx.Request.Context(), actor, sectionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, sessions, "")
}

// DeleteSession removes a session and its attendance
// @Summary Delete session
// @Tags sessions
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 204 "Session deleted"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{id} [delete]
func (c *AttendanceController) DeleteSession(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "session ID")
	if !ok {
		return
	}
	if err := c.attendanceService.DeleteSession(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// StudentLogs returns the attendance logs of one enrollment
// @Summary Attendance of an enrollment
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param enrollment_id path int true "Enrollment ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentAttendanceResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /attendance/student/{enrollment_id} [get]
func (c *AttendanceController) StudentLogs(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "enrollment_id", "enrollment ID")
	if !ok {
		return
	}
	logs, err := c.attendanceService.StudentLogs(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, logs, "")
}

// SessionRoster returns every enrollment of a session's section with its status
// @Summary Session roster
// @Description Students without a log for the session are listed as not-marked
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param session_id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=dto.SessionRosterResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /attendance/session/{session_id} [get]
func (c *AttendanceController) SessionRoster(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "session_id", "session ID")
	if !ok {
		return
	}
	roster, err := c.attendanceService.SessionRoster(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, roster, "")
}

// MarkSession records the attendance of a session in one transaction
// @Summary Mark attendance
// @Description Upserts one status per enrollment. Either every record is stored or none is.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param session_id path int true "Session ID"
// @Param request body dto.MarkAttendanceRequest true "Statuses"
// @Success 200 {object} dto.APIResponse{data=dto.MarkAttendanceResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid status or enrollment from another section"
// @Failure 403 {object} dto.ErrorResponse "Not the section's instructor"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /attendance/session/{session_id} [post]
func (c *AttendanceController) MarkSession(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "session_id", "session ID")
	if !ok {
		return
	}
	var req dto.MarkAttendanceRequest
	if !bindJSON(ctx, &req) {
		return
	}
	resp, err := c.attendanceService.MarkSession(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("sessionID", id).Msg("Attendance marking failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, resp, "Attendance recorded")
}

// FacultyAnalytics returns per-section attendance summaries of a faculty member
// @Summary Attendance analytics of a faculty member
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param faculty_id path int true "Faculty user ID"
// @Success 200 {object} dto.APIResponse{data=models.FacultyAttendanceAnalytics}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /attendance/analytics/faculty/{faculty_id} [get]
func (c *AttendanceController) FacultyAnalytics(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "faculty_id", "faculty ID")
	if !ok {
		return
	}
	analytics, err := c.attendanceService.FacultyAnalytics(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, analytics, "")
}

// StudentAnalytics returns the status counts and attendance rate of an enrollment
// @Summary Attendance analytics of an enrollment
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param enrollment_id path int true "Enrollment ID"
// @Success 200 {object} dto.APIResponse{data=models.AttendanceSummary}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /attendance/student-analytics/{enrollment_id} [get]
func (c *AttendanceController) StudentAnalytics(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "enrollment_id", "enrollment ID")
	if !ok {
		return
	}
	summary, err := c.attendanceService.StudentAnalytics(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, summary, "")
}

// Repair defaults not-marked attendance to present
// @Summary Repair not-marked attendance
// @Description Sets every not-marked attendance row to present, for one section or for all of them
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param sectionCourseId query int false "Limit the repair to one section course"
// @Success 200 {object} dto.APIResponse{data=dto.RepairAttendanceResponse}
// @Failure 403 {object} dto.ErrorResponse "Administrators only"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /attendance/repair [post]
func (c *AttendanceController) Repair(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	sectionID, ok := optionalIDQuery(ctx, "sectionCourseId")
	if !ok {
		return
	}
	var scope *int64
	if sectionID > 0 {
		scope = &sectionID
	}

	updated, err := c.attendanceService.Repair(ctx.Request.Context(), actor.UserID, scope)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("updated", updated).Int64("by", actor.UserID).Msg("Attendance repair requested")
	respondOK(ctx, dto.RepairAttendanceResponse{Updated: updated}, "")
}
