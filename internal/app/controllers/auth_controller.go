package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService *services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Register handles user registration
// @Summary Register a new account
// @Description Creates a faculty, dean or program chair account. The account cannot sign in until an administrator approves it.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Account information"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse} "Account created, awaiting approval"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or weak password"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(ctx, &req) {
		c.logger.Warn().Msg("Invalid registration request payload")
		return
	}

	user, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondCreated(ctx, user, "Account created. An administrator must approve it before you can sign in.")
}

// Login handles user login
// @Summary User login
// @Description Authenticates an approved user and returns an access and refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponse "Account awaiting approval"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, resp, "")
}

// RefreshToken handles refresh token request
// @Summary Refresh access token
// @Description Exchanges a refresh token for a new token pair. The presented refresh token is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.TokenResponse} "Token refreshed successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid, expired or revoked refresh token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/refresh-token [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(ctx, &req) {
		return
	}

	tokens, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Refresh token failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, tokens, "")
}

// Logout revokes a refresh token
// @Summary Logout
// @Description Revokes the given refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 204 "Logged out"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unknown refresh token"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if err := c.authService.Logout(ctx.Request.Context(), req.RefreshToken); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GetProfile returns the signed-in user
// @Summary Get own profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	user, err := c.authService.GetProfile(ctx.Request.Context(), actor.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, user, "")
}

// UpdateProfile edits the signed-in user's name
// @Summary Update own profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/profile [put]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !bindJSON(ctx, &req) {
		return
	}
	user, err := c.authService.UpdateProfile(ctx.Request.Context(), actor.UserID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, user, "Profile updated")
}

// ChangePassword replaces the signed-in user's password and signs out every session
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "Passwords"
// @Success 204 "Password changed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or weak password"
// @Failure 401 {object} dto.ErrorResponse "Wrong current password"
// @Router /auth/password [put]
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	actor, ok := actorFrom(ctx)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if err := c.authService.ChangePassword(ctx.Request.Context(), actor.UserID, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("userID", actor.UserID).Msg("Password changed")
	ctx.Status(http.StatusNoContent)
}
