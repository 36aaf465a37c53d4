// Package grading holds the score arithmetic shared by the grade endpoints,
// the class-record export and the analytics refresh.
package grading

import (
	"errors"
	"math"

	"github.com/yigit/crms/internal/app/models"
)

// ItemKind tells assessments and sub-assessments apart in a breakdown
type ItemKind string

const (
	KindAssessment    ItemKind = "assessment"
	KindSubAssessment ItemKind = "sub_assessment"
)

var (
	ErrNonPositiveTotal = errors.New("total points must be greater than zero")
	ErrNegativeScore    = errors.New("score must not be negative")
	ErrScoreAboveTotal  = errors.New("score must not exceed total points")
)

// Item is one gradable entry of an enrollment's breakdown
type Item struct {
	Kind             ItemKind `json:"kind"`
	ID               int64    `json:"id"`
	ParentID         *int64   `json:"parentId,omitempty"`
	Title            string   `json:"title"`
	TotalPoints      float64  `json:"totalPoints"`
	WeightPercentage float64  `json:"weightPercentage"`
	Score            *float64 `json:"score"`
	Percentage       *float64 `json:"percentage"`
}

// Result is the aggregated grade of one enrollment
type Result struct {
	Items         []Item   `json:"items"`
	GradedCount   int      `json:"gradedCount"`
	OverallGrade  *float64 `json:"overallGrade"`
	WeightedGrade *float64 `json:"weightedGrade"`
}

// Round1 rounds half away from zero to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Percentage returns round(score × 100 / totalPoints, 1)
func Percentage(score, totalPoints float64) (float64, error) {
	if totalPoints <= 0 {
		return 0, ErrNonPositiveTotal
	}
	return Round1(score * 100 / totalPoints), nil
}

// ValidateScore enforces 0 ≤ score ≤ totalPoints
func ValidateScore(score, totalPoints float64) error {
	switch {
	case totalPoints <= 0:
		return ErrNonPositiveTotal
	case score < 0:
		return ErrNegativeScore
	case score > totalPoints:
		return ErrScoreAboveTotal
	}
	return nil
}

// Aggregate fills each item's percentage and computes the overall grade as
// the plain mean of every valid (non-null, > 0) percentage across
// assessments and sub-assessments. WeightedGrade is the weight_percentage
// weighted mean of the same percentages, over items with a positive weight.
func Aggregate(items []Item) Result {
	res := Result{Items: make([]Item, len(items))}

	var sum, weightedSum, weightTotal float64
	var valid int
	for i, it := range items {
		if it.Score != nil {
			if p, err := Percentage(*it.Score, it.TotalPoints); err == nil {
				p := p
				it.Percentage = &p
			}
		}
		res.Items[i] = it

		if it.Percentage == nil || *it.Percentage <= 0 {
			continue
		}
		valid++
		sum += *it.Percentage
		if it.WeightPercentage > 0 {
			weightedSum += *it.Percentage * it.WeightPercentage
			weightTotal += it.WeightPercentage
		}
	}

	res.GradedCount = valid
	if valid > 0 {
		overall := Round1(sum / float64(valid))
		res.OverallGrade = &overall
	}
	if weightTotal > 0 {
		weighted := Round1(weightedSum / weightTotal)
		res.WeightedGrade = &weighted
	}
	return res
}

// Thresholds configure Classify
type Thresholds struct {
	AtRiskBelow  float64
	ExcelAtLeast float64
}

// Classify assigns a performance cluster. An enrollment without any graded
// item is judged on attendance alone.
func Classify(grade *float64, attendanceRate float64, t Thresholds) models.ClusterLabel {
	if attendanceRate < t.AtRiskBelow || (grade != nil && *grade < t.AtRiskBelow) {
		return models.ClusterAtRisk
	}
	if grade != nil && *grade >= t.ExcelAtLeast && attendanceRate >= t.ExcelAtLeast {
		return models.ClusterExcelling
	}
	return models.ClusterOnTrack
}
