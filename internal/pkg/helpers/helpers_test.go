package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateOffsetLimit(t *testing.T) {
	tests := []struct {
		page, size, offset, limit int
	}{
		{1, 20, 0, 20},
		{3, 10, 20, 10},
		{0, 10, 0, 10},
		{2, 0, 20, 20},
		{2, 500, 20, 20},
	}
	for _, tt := range tests {
		offset, limit := CalculateOffsetLimit(tt.page, tt.size)
		assert.Equal(t, tt.offset, offset, "page=%d size=%d", tt.page, tt.size)
		assert.Equal(t, tt.limit, limit, "page=%d size=%d", tt.page, tt.size)
	}
}

func TestNewPaginationInfo(t *testing.T) {
	p := NewPaginationInfo(93, 2, 20)
	assert.Equal(t, 5, p.TotalPages)
	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, int64(93), p.TotalItems)

	empty := NewPaginationInfo(0, 1, 20)
	assert.Equal(t, 1, empty.TotalPages)

	clamped := NewPaginationInfo(5, 9, 20)
	assert.Equal(t, 1, clamped.CurrentPage)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/courses?page=3&size=50", nil)
	page, size := ParsePaginationParams(c)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/courses?page=-1&size=abc", nil)
	page, size = ParsePaginationParams(c)
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestNullableHelpers(t *testing.T) {
	blank := "   "
	title := " Week 1 "
	assert.Nil(t, NullableString(nil))
	assert.Nil(t, NullableString(&blank))
	require.NotNil(t, NullableString(&title))
	assert.Equal(t, "Week 1", *NullableString(&title))
}

func TestParseDurationAndDate(t *testing.T) {
	assert.Equal(t, 2*time.Minute, ParseDuration("2m", time.Second))
	assert.Equal(t, time.Second, ParseDuration("soon", time.Second))

	d, err := ParseDate("2025-08-18")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("18/08/2025")
	assert.Error(t, err)
}
