package models

import (
	"math"
	"time"
)

// ClusterLabel buckets an enrollment by performance
type ClusterLabel string

const (
	ClusterExcelling ClusterLabel = "excelling"
	ClusterOnTrack   ClusterLabel = "on-track"
	ClusterAtRisk    ClusterLabel = "at-risk"
)

// AnalyticsMetric is a row of analytics_metrics
type AnalyticsMetric struct {
	EnrollmentID    int64        `json:"enrollmentId"`
	SectionCourseID int64        `json:"sectionCourseId"`
	GradeAverage    *float64     `json:"gradeAverage,omitempty"`
	AttendanceRate  float64      `json:"attendanceRate"`
	Cluster         ClusterLabel `json:"cluster"`
	ComputedAt      time.Time    `json:"computedAt"`
}

// AnalyticsInsight is a row of analytics_insights
type AnalyticsInsight struct {
	ID              int64     `json:"id"`
	SectionCourseID int64     `json:"sectionCourseId"`
	Kind            string    `json:"kind"`
	Message         string    `json:"message"`
	ComputedAt      time.Time `json:"computedAt"`
}

// SectionAnalytics is the dashboard payload for a section
type SectionAnalytics struct {
	SectionCourseID int64               `json:"sectionCourseId"`
	Metrics         []*AnalyticsMetric  `json:"metrics"`
	Insights        []*AnalyticsInsight `json:"insights"`
	ClusterCounts   map[string]int      `json:"clusterCounts"`
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
