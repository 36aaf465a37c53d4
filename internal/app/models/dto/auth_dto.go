package dto

import (
	"time"

	"github.com/yigit/crms/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"jdelacruz@school.edu.ph"`
	Password string `json:"password" binding:"required" example:"Secret123"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RegisterRequest creates an account that stays unapproved until an
// administrator approves it. Administrators are seeded, never registered.
type RegisterRequest struct {
	Email     string          `json:"email" binding:"required,email" example:"jdelacruz@school.edu.ph"`
	Password  string          `json:"password" binding:"required,min=8" example:"Secret123"`
	FirstName string          `json:"firstName" binding:"required,max=100" example:"Juan"`
	LastName  string          `json:"lastName" binding:"required,max=100" example:"Dela Cruz"`
	Role      models.RoleType `json:"role" binding:"required,oneof=faculty dean program_chair" example:"faculty"`
}

// UpdateProfileRequest represents profile update data
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID          int64           `json:"id" example:"7"`
	Email       string          `json:"email" example:"jdelacruz@school.edu.ph"`
	FirstName   string          `json:"firstName" example:"Juan"`
	LastName    string          `json:"lastName" example:"Dela Cruz"`
	Role        models.RoleType `json:"role" example:"faculty"`
	IsApproved  bool            `json:"isApproved" example:"true"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastLoginAt *time.Time      `json:"lastLoginAt,omitempty"`
}

// NewUserResponse maps a user model to its public representation
func NewUserResponse(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		IsApproved:  u.IsApproved,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *UserResponse `json:"user"`
}

// UserFilterRequest represents user filtering parameters
type UserFilterRequest struct {
	Role     string `form:"role" binding:"omitempty,oneof=admin dean program_chair faculty"`
	Approved *bool  `form:"approved"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"size,default=20" binding:"min=1,max=100"`
}

// UserListResponse represents a list of users with pagination
type UserListResponse struct {
	Users []*UserResponse `json:"users"`
	PaginationInfo
}
