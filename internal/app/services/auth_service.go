package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/auth"
	"github.com/yigit/crms/internal/pkg/validation"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   repositories.IUserRepository
	tokenRepo  repositories.ITokenRepository
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.IUserRepository,
	tokenRepo repositories.ITokenRepository,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword checks if password meets requirements
func validatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters long")
	}

	var hasLetter, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if !hasLetter {
		return apperrors.NewValidationError("password must contain at least one letter")
	}
	if !hasDigit {
		return apperrors.NewValidationError("password must contain at least one digit")
	}
	return nil
}

// Register creates an account that cannot log in until an administrator approves it
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(req.Email)
	if !validation.IsEmail(email) {
		return nil, apperrors.NewValidationError("invalid email format")
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if req.Role == models.RoleAdmin || !req.Role.Valid() {
		return nil, apperrors.NewValidationError("role must be faculty, dean or program_chair")
	}
	firstName, err := requireText("first name", req.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := requireText("last name", req.LastName)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         req.Role,
		IsApproved:   false,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User registered, awaiting approval")
	return dto.NewUserResponse(user), nil
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsApproved {
		return nil, apperrors.ErrAccountNotApproved
	}

	token, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to record last login")
	}

	return &dto.AuthResponse{Token: *token, User: dto.NewUserResponse(user)}, nil
}

// RefreshToken exchanges a refresh token for a new pair. The presented token
// is revoked so it cannot be replayed.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	stored, err := s.tokenRepo.GetToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			_ = s.tokenRepo.RevokeToken(ctx, refreshToken)
		}
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsApproved {
		return nil, apperrors.ErrAccountNotApproved
	}

	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokenRepo.RevokeToken(ctx, refreshToken)
	if err != nil && !errors.Is(err, apperrors.ErrTokenNotFound) {
		return err
	}
	return nil
}

// GetProfile returns the caller's account
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

// UpdateProfile changes the caller's name
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	firstName, err := requireText("first name", req.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := requireText("last name", req.LastName)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, firstName, lastName); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// ChangePassword verifies the current password, stores the new one and
// signs the user out everywhere
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return apperrors.ErrInvalidCredentials
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.logger.Info().Int64("userID", userID).Msg("Password changed")
	return nil
}

// issueTokens creates and stores a token pair
func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		TokenType:             "Bearer",
		ExpiresIn:             pair.ExpiresIn,
		RefreshTokenExpiresIn: pair.RefreshExpiresIn,
	}, nil
}
