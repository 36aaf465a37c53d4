package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/middleware"
)

// UserController handles account administration
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// ListUsers lists accounts, typically the ones awaiting approval
// @Summary List users
// @Description Lists accounts filtered by role and approval state
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role" Enums(admin, dean, program_chair, faculty)
// @Param approved query bool false "Approval state"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.UserListResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 403 {object} dto.ErrorResponse "Administrators only"
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	var filter dto.UserFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}
	users, err := c.userService.ListUsers(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, users, "")
}

// GetUserByID retrieves user information by ID
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid user ID format"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUserByID(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "user ID")
	if !ok {
		return
	}
	user, err := c.userService.GetUser(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, user, "")
}

// ApproveUser approves a pending account and notifies its owner by email
// @Summary Approve account
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid user ID format"
// @Failure 403 {object} dto.ErrorResponse "Administrators only"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id}/approve [post]
func (c *UserController) ApproveUser(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "user ID")
	if !ok {
		return
	}
	user, err := c.userService.ApproveUser(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, user, "Account approved")
}
