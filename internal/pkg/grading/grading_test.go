package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/crms/internal/app/models"
)

func ptr(v float64) *float64 { return &v }

func TestPercentage(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		total float64
		want  float64
	}{
		{name: "example from the record", score: 18.5, total: 25, want: 74.0},
		{name: "perfect", score: 50, total: 50, want: 100},
		{name: "rounds to one decimal", score: 1, total: 3, want: 33.3},
		{name: "rounds half up", score: 2, total: 3, want: 66.7},
		{name: "zero", score: 0, total: 10, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Percentage(tt.score, tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Percentage(5, 0)
	assert.ErrorIs(t, err, ErrNonPositiveTotal)
}

func TestValidateScore(t *testing.T) {
	assert.NoError(t, ValidateScore(0, 25))
	assert.NoError(t, ValidateScore(25, 25))
	assert.ErrorIs(t, ValidateScore(-0.5, 25), ErrNegativeScore)
	assert.ErrorIs(t, ValidateScore(25.5, 25), ErrScoreAboveTotal)
	assert.ErrorIs(t, ValidateScore(1, 0), ErrNonPositiveTotal)
}

func TestAggregate(t *testing.T) {
	items := []Item{
		{Kind: KindAssessment, ID: 1, Title: "Quiz 1", TotalPoints: 25, WeightPercentage: 20, Score: ptr(18.5)},
		{Kind: KindAssessment, ID: 2, Title: "Midterm", TotalPoints: 50, WeightPercentage: 30, Score: ptr(40)},
		{Kind: KindSubAssessment, ID: 3, Title: "Rubric A", TotalPoints: 10, Score: ptr(9)},
		{Kind: KindAssessment, ID: 4, Title: "Not yet graded", TotalPoints: 100, WeightPercentage: 50},
		{Kind: KindAssessment, ID: 5, Title: "Zero is skipped", TotalPoints: 10, WeightPercentage: 10, Score: ptr(0)},
	}

	res := Aggregate(items)

	require.Len(t, res.Items, 5)
	assert.Equal(t, 74.0, *res.Items[0].Percentage)
	assert.Equal(t, 80.0, *res.Items[1].Percentage)
	assert.Equal(t, 90.0, *res.Items[2].Percentage)
	assert.Nil(t, res.Items[3].Percentage)
	assert.Equal(t, 0.0, *res.Items[4].Percentage)

	assert.Equal(t, 3, res.GradedCount)
	// (74 + 80 + 90) / 3 = 81.33
	require.NotNil(t, res.OverallGrade)
	assert.Equal(t, 81.3, *res.OverallGrade)
	// (74*20 + 80*30) / 50 = 77.6
	require.NotNil(t, res.WeightedGrade)
	assert.Equal(t, 77.6, *res.WeightedGrade)

	// input is not mutated
	assert.Nil(t, items[0].Percentage)
}

func TestAggregateEmpty(t *testing.T) {
	res := Aggregate(nil)
	assert.Nil(t, res.OverallGrade)
	assert.Nil(t, res.WeightedGrade)
	assert.Zero(t, res.GradedCount)
}

func TestClassify(t *testing.T) {
	th := Thresholds{AtRiskBelow: 75, ExcelAtLeast: 90}

	assert.Equal(t, models.ClusterExcelling, Classify(ptr(95), 100, th))
	assert.Equal(t, models.ClusterOnTrack, Classify(ptr(95), 85, th))
	assert.Equal(t, models.ClusterAtRisk, Classify(ptr(70), 100, th))
	assert.Equal(t, models.ClusterAtRisk, Classify(ptr(95), 60, th))
	assert.Equal(t, models.ClusterOnTrack, Classify(nil, 95, th))
	assert.Equal(t, models.ClusterAtRisk, Classify(nil, 50, th))
}
