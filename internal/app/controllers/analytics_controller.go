package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/middleware"
)

// AnalyticsController serves the per-section analytics tables
type AnalyticsController struct {
	analyticsService *services.AnalyticsService
}

// NewAnalyticsController creates a new AnalyticsController
func NewAnalyticsController(analyticsService *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{analyticsService: analyticsService}
}

// Refresh recomputes analytics now instead of waiting for the schedule
// @Summary Refresh analytics
// @Description Without sectionCourseId every section is refreshed, which needs an overseeing role
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param sectionCourseId query int false "Section course ID"
// @Success 200 {object} dto.APIResponse{data=services.RefreshSummary}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /analytics/refresh [post]
func (c *AnalyticsController) Refresh(ctx *gin.Context) {
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

	summary, err := c.analyticsService.Refresh(ctx.Request.Context(), actor, scope)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, summary, "Analytics refreshed")
}

// GetSection returns the stored metrics, clusters and insights of a section
// @Summary Analytics of a section
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param section_course_id path int true "Section course ID"
// @Success 200 {object} dto.APIResponse{data=models.SectionAnalytics}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /analytics/section/{section_course_id} [get]
func (c *AnalyticsController) GetSection(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "section_course_id", "section course ID")
	if !ok {
		return
	}
	analytics, err := c.analyticsService.GetSection(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, analytics, "")
}
