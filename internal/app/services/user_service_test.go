package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/models/dto"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

func TestApproveUserSendsEmailOnce(t *testing.T) {
	f := newFixture(t)
	u := &models.User{Email: "new@school.edu", PasswordHash: "x", FirstName: "New", LastName: "Faculty", Role: models.RoleFaculty}
	require.NoError(t, f.users.Create(f.ctx, u))

	resp, err := f.userSvc.ApproveUser(f.ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, resp.IsApproved)
	assert.Equal(t, []string{"new@school.edu"}, f.mailer.sent)

	_, err = f.userSvc.ApproveUser(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, f.mailer.sent, 1)
}

func TestApproveUserKeepsApprovalWhenMailFails(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")
	u := &models.User{Email: "new@school.edu", PasswordHash: "x", FirstName: "New", LastName: "Faculty", Role: models.RoleFaculty}
	require.NoError(t, f.users.Create(f.ctx, u))

	resp, err := f.userSvc.ApproveUser(f.ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, resp.IsApproved)

	stored, err := f.users.GetByID(f.ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsApproved)
}

func TestUserLookupErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.userSvc.GetUser(f.ctx, -1)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.userSvc.ApproveUser(f.ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	f.user(t, models.RoleDean, "dean@school.edu")
	f.user(t, models.RoleFaculty, "fac@school.edu")
	list, err := f.userSvc.ListUsers(f.ctx, &dto.UserFilterRequest{Role: "dean", Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, "dean@school.edu", list.Users[0].Email)
}
