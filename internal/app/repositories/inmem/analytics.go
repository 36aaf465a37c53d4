package inmemdb

import (
	"context"
	"time"

	"github.com/yigit/crms/internal/app/models"
	"github.com/yigit/crms/internal/app/repositories"
	"github.com/yigit/crms/internal/pkg/cache"
)

// AnalyticsRepository implements repositories.IAnalyticsRepository
type AnalyticsRepository struct {
	db *DB
}

// NewAnalyticsRepository creates an AnalyticsRepository on db
func NewAnalyticsRepository(db *DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) ReplaceSection(_ context.Context, sectionCourseID int64, metrics []*models.AnalyticsMetric, insights []*models.AnalyticsInsight) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	storedMetrics := make([]*models.AnalyticsMetric, 0, len(metrics))
	for _, m := range metrics {
		cp := *m
		cp.SectionCourseID = sectionCourseID
		storedMetrics = append(storedMetrics, &cp)
	}
	storedInsights := make([]*models.AnalyticsInsight, 0, len(insights))
	for _, in := range insights {
		cp := *in
		cp.ID = r.db.nextID()
		cp.SectionCourseID = sectionCourseID
		storedInsights = append(storedInsights, &cp)
	}
	r.db.metrics[sectionCourseID] = storedMetrics
	r.db.insights[sectionCourseID] = storedInsights
	return nil
}

func (r *AnalyticsRepository) GetSection(_ context.Context, sectionCourseID int64) (*models.SectionAnalytics, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := &models.SectionAnalytics{
		SectionCourseID: sectionCourseID,
		Metrics:         []*models.AnalyticsMetric{},
		Insights:        []*models.AnalyticsInsight{},
		ClusterCounts:   map[string]int{},
	}
	for _, m := range r.db.metrics[sectionCourseID] {
		cp := *m
		out.Metrics = append(out.Metrics, &cp)
		out.ClusterCounts[string(m.Cluster)]++
	}
	for _, in := range r.db.insights[sectionCourseID] {
		cp := *in
		out.Insights = append(out.Insights, &cp)
	}
	return out, nil
}

// CacheStore implements cache.Store with expiring entries
type CacheStore struct {
	db *DB
}

// NewCacheStore creates a CacheStore on db
func NewCacheStore(db *DB) *CacheStore {
	return &CacheStore{db: db}
}

func (s *CacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	entry, ok := s.db.cache[key]
	if !ok || !entry.expiresAt.After(s.db.Now()) {
		return nil, false, nil
	}
	return append([]byte(nil), entry.payload...), true, nil
}

func (s *CacheStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	s.db.cache[key] = cacheEntry{payload: append([]byte(nil), payload...), expiresAt: s.db.Now().Add(ttl)}
	return nil
}

func (s *CacheStore) Delete(_ context.Context, keys ...string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, k := range keys {
		delete(s.db.cache, k)
	}
	return nil
}

// PurgeExpired drops expired entries and returns how many were removed
func (s *CacheStore) PurgeExpired(_ context.Context) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var n int64
	now := s.db.Now()
	for k, entry := range s.db.cache {
		if !entry.expiresAt.After(now) {
			delete(s.db.cache, k)
			n++
		}
	}
	return n, nil
}

var (
	_ repositories.IAnalyticsRepository = (*AnalyticsRepository)(nil)
	_ cache.Store                       = (*CacheStore)(nil)
)
