package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceStatusValid(t *testing.T) {
	for _, s := range AttendanceStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, AttendanceStatus("tardy").Valid())
	assert.False(t, AttendanceStatus("").Valid())
}

func TestParseAttendanceStatus(t *testing.T) {
	tests := map[string]AttendanceStatus{
		"present":    AttendancePresent,
		" LATE ":     AttendanceLate,
		"excused":    AttendanceExcused,
		"not-marked": AttendanceNotMarked,
		"not_marked": AttendanceNotMarked,
		"":           AttendanceNotMarked,
	}
	for in, want := range tests {
		got, err := ParseAttendanceStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseAttendanceStatus("sick")
	assert.Error(t, err)
}

func TestSummarizeAttendance(t *testing.T) {
	s := SummarizeAttendance(map[AttendanceStatus]int{
		AttendancePresent: 8,
		AttendanceLate:    1,
		AttendanceAbsent:  1,
	})

	assert.Equal(t, 10, s.TotalSessions)
	assert.Equal(t, 8, s.Present)
	assert.Equal(t, 1, s.Late)
	assert.Equal(t, 1, s.Absent)
	assert.Equal(t, 80.0, s.AttendanceRate)
}

func TestSummarizeAttendanceRoundingAndLegacyStatus(t *testing.T) {
	s := SummarizeAttendance(map[AttendanceStatus]int{
		AttendancePresent: 2,
		AttendanceExcused: 1,
		"":                1,
		"null":            2,
	})
	assert.Equal(t, 6, s.TotalSessions)
	assert.Equal(t, 3, s.NotMarked)
	assert.Equal(t, 33.3, s.AttendanceRate)

	empty := SummarizeAttendance(nil)
	assert.Zero(t, empty.AttendanceRate)
}

func TestRoleType(t *testing.T) {
	assert.True(t, RoleFaculty.Valid())
	assert.False(t, RoleType("student").Valid())
	assert.True(t, RoleDean.CanReviewSyllabi())
	assert.True(t, RoleProgramChair.CanReviewSyllabi())
	assert.False(t, RoleFaculty.CanReviewSyllabi())
}
