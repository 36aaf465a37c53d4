// Package seed creates the data a fresh CRMS database needs before anyone can
// sign in, plus an optional demo catalogue.
package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/auth"
)

// Repos are the repositories seeding writes to
type Repos struct {
	Users   repositories.IUserRepository
	Courses repositories.ICourseRepository
}

// Options controls what gets seeded
type Options struct {
	AdminEmail    string
	AdminPassword string
	// Demo adds a small course catalogue
	Demo bool
}

// Result reports what seeding created
type Result struct {
	AdminCreated   bool
	CoursesCreated int
}

var demoCourses = []models.Course{
	{Code: "IT101", Title: "Introduction to Computing", Units: 3},
	{Code: "IT102", Title: "Computer Programming 1", Units: 3},
	{Code: "IT201", Title: "Data Structures and Algorithms", Units: 3},
	{Code: "GE104", Title: "Mathematics in the Modern World", Units: 3},
}

// CreateDefaultData creates the default administrator if it does not exist
// and, when asked, the demo catalogue. It is safe to run repeatedly.
func CreateDefaultData(ctx context.Context, repos Repos, opts Options, lgr zerolog.Logger) (*Result, error) {
	res := &Result{}
	var finalErr error

	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" || opts.AdminPassword == "" {
		return nil, apperrors.NewValidationError("admin email and password are required")
	}

	_, err := repos.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		lgr.Debug().Str("email", email).Msg("Default admin already exists")
	case errors.Is(err, apperrors.ErrUserNotFound):
		hash, hashErr := auth.HashPassword(opts.AdminPassword)
		if hashErr != nil {
			return nil, hashErr
		}
		admin := &models.User{
			Email:        email,
			PasswordHash: hash,
			FirstName:    "System",
			LastName:     "Administrator",
			Role:         models.RoleAdmin,
			IsApproved:   true,
		}
		if err := repos.Users.Create(ctx, admin); err != nil {
			lgr.Error().Err(err).Msg("Error creating default admin")
			finalErr = errors.Join(finalErr, err)
		} else {
			res.AdminCreated = true
			lgr.Info().Str("email", email).Msg("Default admin created")
		}
	default:
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		finalErr = errors.Join(finalErr, err)
	}

	if opts.Demo && repos.Courses != nil {
		for _, c := range demoCourses {
			course := c
			err := repos.Courses.Create(ctx, &course)
			switch {
			case err == nil:
				res.CoursesCreated++
			case errors.Is(err, apperrors.ErrCourseCodeExists):
			default:
				lgr.Error().Err(err).Str("code", c.Code).Msg("Error creating demo course")
				finalErr = errors.Join(finalErr, err)
			}
		}
		lgr.Info().Int("created", res.CoursesCreated).Msg("Demo catalogue seeded")
	}

	return res, finalErr
}
