package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/crms/internal/app/models"
	inmemdb "github.com/yigit/crms/internal/app/repositories/inmem"
	"github.com/yigit/crms/internal/pkg/auth"
)

func TestCreateDefaultData(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.New()
	repos := Repos{Users: inmemdb.NewUserRepository(db), Courses: inmemdb.NewCourseRepository(db)}
	opts := Options{AdminEmail: " Admin@CRMS.local ", AdminPassword: "Admin123!", Demo: true}

	res, err := CreateDefaultData(ctx, repos, opts, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, res.AdminCreated)
	assert.Equal(t, len(demoCourses), res.CoursesCreated)

	admin, err := repos.Users.GetByEmail(ctx, "admin@crms.local")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsApproved)
	assert.True(t, auth.CheckPassword(admin.PasswordHash, "Admin123!"))

	// a second run changes nothing
	res, err = CreateDefaultData(ctx, repos, opts, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, res.AdminCreated)
	assert.Zero(t, res.CoursesCreated)
}

func TestCreateDefaultDataRequiresCredentials(t *testing.T) {
	db := inmemdb.New()
	repos := Repos{Users: inmemdb.NewUserRepository(db)}

	_, err := CreateDefaultData(context.Background(), repos, Options{AdminEmail: "admin@crms.local"}, zerolog.Nop())
	assert.Error(t, err)
}
