package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/crms/internal/app/services"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) RefreshAll(ctx context.Context) (*services.RefreshSummary, error) {
	f.calls++
	return &services.RefreshSummary{Sections: 3, Enrollments: 40, AtRisk: 5}, f.err
}

type fakePurger struct {
	calls int
	err   error
}

func (f *fakePurger) PurgeExpired(ctx context.Context) (int64, error) {
	f.calls++
	return 2, f.err
}

func TestNewSchedulerRegistersJobs(t *testing.T) {
	s, err := NewScheduler(Config{AnalyticsSchedule: "0 */6 * * *", CachePurgeSchedule: "@every 15m"},
		&fakeRefresher{}, &fakePurger{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Jobs())

	s, err = NewScheduler(Config{AnalyticsSchedule: "@hourly"}, &fakeRefresher{}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Jobs())
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewScheduler(Config{AnalyticsSchedule: "every now and then"}, &fakeRefresher{}, nil, zerolog.Nop())
	assert.ErrorContains(t, err, "invalid analytics schedule")
}

func TestJobsReportErrors(t *testing.T) {
	refresher := &fakeRefresher{}
	purger := &fakePurger{err: errors.New("db down")}
	s, err := NewScheduler(Config{}, refresher, purger, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, s.Jobs())

	require.NoError(t, s.RefreshAnalytics(context.Background()))
	assert.Equal(t, 1, refresher.calls)

	assert.EqualError(t, s.PurgeCache(context.Background()), "db down")
	assert.Equal(t, 1, purger.calls)

	refresher.err = errors.New("section 4: boom")
	assert.Error(t, s.RefreshAnalytics(context.Background()))
}

func TestStartStop(t *testing.T) {
	s, err := NewScheduler(Config{AnalyticsSchedule: "@daily"}, &fakeRefresher{}, nil, zerolog.Nop())
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
