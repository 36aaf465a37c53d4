package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/crms/internal/app/auth"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/apperrors"
	"github.com/yigit/crms/internal/pkg/cache"
	"github.com/yigit/crms/internal/pkg/grading"
)

// Insight kinds written by a refresh
const (
	InsightAtRisk     = "at_risk"
	InsightExcelling  = "excelling"
	InsightAttendance = "attendance"
	InsightGrades     = "grades"
)

// AnalyticsRepos groups the repositories an analytics refresh reads
type AnalyticsRepos struct {
	Sections    repositories.ISectionCourseRepository
	Enrollments repositories.IEnrollmentRepository
	Assessments repositories.IAssessmentRepository
	Submissions repositories.ISubmissionRepository
	Attendance  repositories.IAttendanceRepository
	Analytics   repositories.IAnalyticsRepository
}

// RefreshSummary reports what a refresh wrote
type RefreshSummary struct {
	Sections    int `json:"sections"`
	Enrollments int `json:"enrollments"`
	AtRisk      int `json:"atRisk"`
}

// AnalyticsService computes per-enrollment metrics, clusters and section insights
type AnalyticsService struct {
	repos      AnalyticsRepos
	authz      *authz.AuthorizationService
	cache      *cache.DashboardCache
	thresholds grading.Thresholds
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(repos AnalyticsRepos, authzService *authz.AuthorizationService, dashboardCache *cache.DashboardCache, thresholds grading.Thresholds, logger zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		repos:      repos,
		authz:      authzService,
		cache:      dashboardCache,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// RefreshSection recomputes the analytics tables of one section and drops its cached payload
func (s *AnalyticsService) RefreshSection(ctx context.Context, sectionCourseID int64) (*RefreshSummary, error) {
	enrollments, err := s.repos.Enrollments.ListBySection(ctx, sectionCourseID)
	if err != nil {
		return nil, err
	}
	book, err := loadGradebook(ctx, s.repos.Assessments, s.repos.Submissions, sectionCourseID)
	if err != nil {
		return nil, err
	}
	counts, err := s.repos.Attendance.CountsBySection(ctx, sectionCourseID)
	if err != nil {
		return nil, err
	}

	computedAt := s.now().UTC()
	metrics := make([]*models.AnalyticsMetric, 0, len(enrollments))
	clusters := make(map[models.ClusterLabel]int)
	var gradeSum, rateSum float64
	var graded int
	for _, e := range enrollments {
		if e.Status != models.EnrollmentEnrolled {
			continue
		}
		result := book.result(e.ID)
		attendance := models.SummarizeAttendance(counts[e.ID])
		label := grading.Classify(result.OverallGrade, attendance.AttendanceRate, s.thresholds)

		metrics = append(metrics, &models.AnalyticsMetric{
			EnrollmentID:    e.ID,
			SectionCourseID: sectionCourseID,
			GradeAverage:    result.OverallGrade,
			AttendanceRate:  attendance.AttendanceRate,
			Cluster:         label,
			ComputedAt:      computedAt,
		})
		clusters[label]++
		rateSum += attendance.AttendanceRate
		if result.OverallGrade != nil {
			gradeSum += *result.OverallGrade
			graded++
		}
	}

	insights := s.insights(sectionCourseID, len(metrics), clusters, gradeSum, graded, rateSum, computedAt)
	if err := s.repos.Analytics.ReplaceSection(ctx, sectionCourseID, metrics, insights); err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, cache.SectionAnalyticsKey(sectionCourseID)); err != nil {
		s.logger.Warn().Err(err).Int64("sectionCourseID", sectionCourseID).Msg("Dashboard cache invalidation failed")
	}

	return &RefreshSummary{Sections: 1, Enrollments: len(metrics), AtRisk: clusters[models.ClusterAtRisk]}, nil
}

func (s *AnalyticsService) insights(sectionCourseID int64, enrolled int, clusters map[models.ClusterLabel]int,
	gradeSum float64, graded int, rateSum float64, at time.Time) []*models.AnalyticsInsight {
	if enrolled == 0 {
		return nil
	}

	add := func(kind, msg string) *models.AnalyticsInsight {
		return &models.AnalyticsInsight{SectionCourseID: sectionCourseID, Kind: kind, Message: msg, ComputedAt: at}
	}

	out := []*models.AnalyticsInsight{
		add(InsightAtRisk, fmt.Sprintf("%d of %d students are at risk (grade or attendance below %.0f%%)",
			clusters[models.ClusterAtRisk], enrolled, s.thresholds.AtRiskBelow)),
		add(InsightAttendance, fmt.Sprintf("Average attendance rate is %.1f%%", grading.Round1(rateSum/float64(enrolled)))),
	}
	if n := clusters[models.ClusterExcelling]; n > 0 {
		out = append(out, add(InsightExcelling, fmt.Sprintf("%d of %d students are excelling", n, enrolled)))
	}
	if graded > 0 {
		out = append(out, add(InsightGrades, fmt.Sprintf("Average overall grade is %.1f across %d graded students",
			grading.Round1(gradeSum/float64(graded)), graded)))
	}
	return out
}

// RefreshAll refreshes every section. A failing section does not stop the
// others; all failures are returned together.
func (s *AnalyticsService) RefreshAll(ctx context.Context) (*RefreshSummary, error) {
	ids, err := s.repos.Sections.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	total := &RefreshSummary{}
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		sum, err := s.RefreshSection(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).Int64("sectionCourseID", id).Msg("Analytics refresh failed")
			errs = append(errs, fmt.Errorf("section %d: %w", id, err))
			continue
		}
		total.Sections++
		total.Enrollments += sum.Enrollments
		total.AtRisk += sum.AtRisk
	}

	s.logger.Info().Int("sections", total.Sections).Int("enrollments", total.Enrollments).
		Int("failed", len(errs)).Msg("Analytics refreshed")
	return total, errors.Join(errs...)
}

// Refresh is the on-demand refresh: one section its instructor may modify, or
// every section for overseeing roles
func (s *AnalyticsService) Refresh(ctx context.Context, actor authz.Actor, sectionCourseID *int64) (*RefreshSummary, error) {
	if sectionCourseID == nil {
		if !actor.CanOverseeSections() {
			return nil, apperrors.NewForbiddenError("only administrators, deans and program chairs may refresh every section")
		}
		return s.RefreshAll(ctx)
	}
	if _, err := s.authz.ModifySection(ctx, actor, *sectionCourseID); err != nil {
		return nil, err
	}
	return s.RefreshSection(ctx, *sectionCourseID)
}

// GetSection returns the stored analytics of a section, through the dashboard cache
func (s *AnalyticsService) GetSection(ctx context.Context, actor authz.Actor, sectionCourseID int64) (*models.SectionAnalytics, error) {
	if _, err := s.authz.ViewSection(ctx, actor, sectionCourseID); err != nil {
		return nil, err
	}

	key := cache.SectionAnalyticsKey(sectionCourseID)
	var cached models.SectionAnalytics
	if found, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Dashboard cache read failed")
	} else if found {
		return &cached, nil
	}

	out, err := s.repos.Analytics.GetSection(ctx, sectionCourseID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Dashboard cache write failed")
	}
	return out, nil
}
