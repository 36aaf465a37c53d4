package websocket

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

// SectionAccess decides whether a user may watch a section
type SectionAccess interface {
	CanViewSection(ctx context.Context, userID int64, role models.RoleType, sectionCourseID int64) error
}

// Handler for WebSocket connections
type Handler struct {
	hub    *Hub
	access SectionAccess
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, access SectionAccess, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		access: access,
		logger: logger,
	}
}

// HandleConnection godoc
// @Summary Subscribe to live attendance updates of a section
// @Description Upgrades the HTTP connection to a WebSocket. An event is pushed whenever attendance of the section is marked or repaired.
// @Tags attendance, websocket
// @Produce json
// @Security BearerAuth
// @Param section_course_id path int true "Section course ID"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 400 {object} dto.ErrorResponse "Invalid section course ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not allowed to view this section"
// @Failure 404 {object} dto.ErrorResponse "Section course not found"
// @Router /ws/sections/{section_course_id}/attendance [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	sectionID, err := strconv.ParseInt(c.Param("section_course_id"), 10, 64)
	if err != nil || sectionID <= 0 {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid section course ID").WithField("section_course_id")))
		return
	}

	userID, ok := c.Get("userID")
	uid, isInt := userID.(int64)
	if !ok || !isInt {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}
	role, _ := c.Get("role")
	roleType, _ := role.(models.RoleType)

	if err := h.access.CanViewSection(c.Request.Context(), uid, roleType, sectionID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPermissionDenied):
			c.JSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeForbidden, "You are not allowed to view this section")))
		case errors.Is(err, apperrors.ErrSectionCourseNotFound):
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Section course not found")))
		default:
			h.logger.Error().Err(err).Int64("sectionCourseID", sectionID).Int64("userID", uid).Msg("Failed to check section access")
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Failed to check section access")))
		}
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("sectionCourseID", sectionID).
			Int64("userID", uid).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:             h.hub,
		conn:            conn,
		send:            make(chan []byte, 256),
		userID:          uid,
		sectionCourseID: sectionID,
		remoteAddr:      conn.RemoteAddr().String(),
		logger:          h.logger,
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
