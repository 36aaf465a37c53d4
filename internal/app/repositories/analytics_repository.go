package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/db"
)

// IAnalyticsRepository stores computed analytics
type IAnalyticsRepository interface {
	ReplaceSection(ctx context.Context, sectionCourseID int64, metrics []*models.AnalyticsMetric, insights []*models.AnalyticsInsight) error
	GetSection(ctx context.Context, sectionCourseID int64) (*models.SectionAnalytics, error)
}

// AnalyticsRepository handles analytics_metrics, analytics_clusters and analytics_insights
type AnalyticsRepository struct {
	db *pgxpool.Pool
}

// NewAnalyticsRepository creates a new AnalyticsRepository
func NewAnalyticsRepository(db *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// ReplaceSection swaps a section's analytics for a fresh computation in one transaction
func (r *AnalyticsRepository) ReplaceSection(ctx context.Context, sectionCourseID int64, metrics []*models.AnalyticsMetric, insights []*models.AnalyticsInsight) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM analytics_metrics WHERE section_course_id = $1`,
			`DELETE FROM analytics_clusters WHERE section_course_id = $1`,
			`DELETE FROM analytics_insights WHERE section_course_id = $1`,
		} {
			if _, err := tx.Exec(ctx, stmt, sectionCourseID); err != nil {
				return fmt.Errorf("error clearing analytics: %w", err)
			}
		}

		batch := &pgx.Batch{}
		for _, m := range metrics {
			batch.Queue(`
				INSERT INTO analytics_metrics (enrollment_id, section_course_id, grade_average, attendance_rate, computed_at)
				VALUES ($1, $2, $3, $4, $5)`,
				m.EnrollmentID, sectionCourseID, m.GradeAverage, m.AttendanceRate, m.ComputedAt)
			batch.Queue(`
				INSERT INTO analytics_clusters (enrollment_id, section_course_id, cluster_label, computed_at)
				VALUES ($1, $2, $3, $4)`,
				m.EnrollmentID, sectionCourseID, m.Cluster, m.ComputedAt)
		}
		for _, in := range insights {
			batch.Queue(`
				INSERT INTO analytics_insights (section_course_id, kind, message, computed_at)
				VALUES ($1, $2, $3, $4)`,
				sectionCourseID, in.Kind, in.Message, in.ComputedAt)
		}
		if batch.Len() == 0 {
			return nil
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("error writing analytics: %w", err)
		}
		return nil
	})
}

// GetSection reads a section's stored analytics
func (r *AnalyticsRepository) GetSection(ctx context.Context, sectionCourseID int64) (*models.SectionAnalytics, error) {
	out := &models.SectionAnalytics{
		SectionCourseID: sectionCourseID,
		Metrics:         []*models.AnalyticsMetric{},
		Insights:        []*models.AnalyticsInsight{},
		ClusterCounts:   map[string]int{},
	}

	rows, err := r.db.Query(ctx, `
		SELECT m.enrollment_id, m.section_course_id, m.grade_average::float8, m.attendance_rate::float8,
		       COALESCE(c.cluster_label, 'on-track'), m.computed_at
		FROM analytics_metrics m
		LEFT JOIN analytics_clusters c ON c.enrollment_id = m.enrollment_id
		WHERE m.section_course_id = $1
		ORDER BY m.enrollment_id`, sectionCourseID)
	if err != nil {
		return nil, fmt.Errorf("error loading analytics metrics: %w", err)
	}
	for rows.Next() {
		m := &models.AnalyticsMetric{}
		if err := rows.Scan(&m.EnrollmentID, &m.SectionCourseID, &m.GradeAverage, &m.AttendanceRate, &m.Cluster, &m.ComputedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning analytics metric: %w", err)
		}
		out.Metrics = append(out.Metrics, m)
		out.ClusterCounts[string(m.Cluster)]++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Query(ctx, `
		SELECT insight_id, section_course_id, kind, message, computed_at
		FROM analytics_insights WHERE section_course_id = $1
		ORDER BY insight_id`, sectionCourseID)
	if err != nil {
		return nil, fmt.Errorf("error loading analytics insights: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		in := &models.AnalyticsInsight{}
		if err := rows.Scan(&in.ID, &in.SectionCourseID, &in.Kind, &in.Message, &in.ComputedAt); err != nil {
			return nil, fmt.Errorf("error scanning analytics insight: %w", err)
		}
		out.Insights = append(out.Insights, in)
	}
	return out, rows.Err()
}

// DashboardCacheRepository persists dashboard payloads in dashboards_data_cache.
// It backs the dashboard cache when Redis is not configured.
type DashboardCacheRepository struct {
	db *pgxpool.Pool
}

// NewDashboardCacheRepository creates a new DashboardCacheRepository
func NewDashboardCacheRepository(db *pgxpool.Pool) *DashboardCacheRepository {
	return &DashboardCacheRepository{db: db}
}

// Get returns an unexpired payload; found is false on a miss
func (r *DashboardCacheRepository) Get(ctx context.Context, key string) (payload []byte, found bool, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT payload FROM dashboards_data_cache
		WHERE cache_key = $1 AND expires_at > NOW()`, key).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading dashboard cache: %w", err)
	}
	return payload, true, nil
}

// Set stores payload under key until ttl elapses
func (r *DashboardCacheRepository) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO dashboards_data_cache (cache_key, payload, expires_at)
		VALUES ($1, $2, NOW() + $3::interval)
		ON CONFLICT (cache_key) DO UPDATE SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at`,
		key, string(payload), fmt.Sprintf("%d milliseconds", ttl.Milliseconds()))
	if err != nil {
		return fmt.Errorf("error writing dashboard cache: %w", err)
	}
	return nil
}

// Delete drops the given keys
func (r *DashboardCacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM dashboards_data_cache WHERE cache_key = ANY($1)`, keys); err != nil {
		return fmt.Errorf("error invalidating dashboard cache: %w", err)
	}
	return nil
}

// PurgeExpired removes expired rows and returns how many were deleted
func (r *DashboardCacheRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM dashboards_data_cache WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("error purging dashboard cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
