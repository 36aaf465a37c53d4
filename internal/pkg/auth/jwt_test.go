package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/pkg/apperrors"
)

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "crms.test",
	})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService()
	user := &models.User{ID: 4, Email: "faculty@school.edu", Role: models.RoleFaculty}

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(3600), pair.ExpiresIn)
	assert.Equal(t, int64(86400), pair.RefreshExpiresIn)

	claims, err := svc.ValidateAndExtractClaims(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(4), claims.UserID)
	assert.Equal(t, "faculty@school.edu", claims.Email)
	assert.Equal(t, models.RoleFaculty, claims.Role)
	assert.Equal(t, "4", claims.Subject)
}

func TestValidateExpired(t *testing.T) {
	svc := newTestService()
	past := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return past }

	pair, err := svc.GenerateTokenPair(&models.User{ID: 1, Email: "a@b.c", Role: models.RoleAdmin})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestValidateWrongSecret(t *testing.T) {
	pair, err := newTestService().GenerateTokenPair(&models.User{ID: 1, Email: "a@b.c", Role: models.RoleAdmin})
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "crms.test"})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	_, err = newTestService().ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer aaa.bbb.ccc")
	require.NoError(t, err)
	assert.Equal(t, "aaa.bbb.ccc", tok)

	tok, err = ExtractBearerToken(`"aaa.bbb.ccc"`)
	require.NoError(t, err)
	assert.Equal(t, "aaa.bbb.ccc", tok)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	_, err = ExtractBearerToken("Basic dXNlcjpwYXNz")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)
	assert.True(t, CheckPassword(hash, "Secret123"))
	assert.False(t, CheckPassword(hash, "secret123"))
}
