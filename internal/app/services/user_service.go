package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/email"
	"github.com/yigit/crms/internal/pkg/helpers"
)

// UserService defines the administrator's account operations
type UserService interface {
	ListUsers(ctx context.Context, filter *dto.UserFilterRequest) (*dto.UserListResponse, error)
	GetUser(ctx context.Context, id int64) (*dto.UserResponse, error)
	ApproveUser(ctx context.Context, id int64) (*dto.UserResponse, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo     repositories.IUserRepository
	emailService email.EmailService
	logger       zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.IUserRepository, emailService email.EmailService, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		userRepo:     userRepo,
		emailService: emailService,
		logger:       logger,
	}
}

// ListUsers returns one page of accounts, e.g. the pending ones with approved=false
func (s *userServiceImpl) ListUsers(ctx context.Context, filter *dto.UserFilterRequest) (*dto.UserListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PageSize)
	users, total, err := s.userRepo.List(ctx, repositories.UserFilter{
		Role:     models.RoleType(filter.Role),
		Approved: filter.Approved,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	out := &dto.UserListResponse{
		Users:          make([]*dto.UserResponse, 0, len(users)),
		PaginationInfo: helpers.NewPaginationInfo(total, filter.Page, limit),
	}
	for _, u := range users {
		out.Users = append(out.Users, dto.NewUserResponse(u))
	}
	return out, nil
}

// GetUser returns one account
func (s *userServiceImpl) GetUser(ctx context.Context, id int64) (*dto.UserResponse, error) {
	if err := requireID("user ID", id); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

// ApproveUser lets an account log in and notifies its owner. Approving an
// approved account is a no-op. A failed email does not undo the approval.
func (s *userServiceImpl) ApproveUser(ctx context.Context, id int64) (*dto.UserResponse, error) {
	if err := requireID("user ID", id); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsApproved {
		return dto.NewUserResponse(user), nil
	}

	if err := s.userRepo.Approve(ctx, id); err != nil {
		return nil, err
	}
	user.IsApproved = true
	s.logger.Info().Int64("userID", id).Msg("User approved")

	if err := s.emailService.SendAccountApprovedEmail(user.Email, user.FullName()); err != nil {
		s.logger.Error().Err(err).Int64("userID", id).Msg("Failed to send approval email")
	}
	return dto.NewUserResponse(user), nil
}
