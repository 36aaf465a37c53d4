package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.entries[key] = payload
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.entries, k)
	}
	return m.err
}

type payload struct {
	Rate  float64 `json:"rate"`
	Label string  `json:"label"`
}

func TestDashboardCacheFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	c := NewDashboardCache(nil, store, 5*time.Minute, zerolog.Nop())

	var got payload
	found, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetJSON(ctx, "k", payload{Rate: 80, Label: "on-track"}))
	assert.Equal(t, 5*time.Minute, store.ttls["k"])

	found, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Rate: 80, Label: "on-track"}, got)

	require.NoError(t, c.Invalidate(ctx, "k"))
	found, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDashboardCacheUndecodableEntryIsMiss(t *testing.T) {
	store := newMemoryStore()
	store.entries["k"] = []byte("not json")
	c := NewDashboardCache(nil, store, time.Minute, zerolog.Nop())

	var got payload
	found, err := c.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDashboardCacheStoreError(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("db down")
	c := NewDashboardCache(nil, store, time.Minute, zerolog.Nop())

	var got payload
	_, err := c.GetJSON(context.Background(), "k", &got)
	assert.Error(t, err)
	assert.Error(t, c.SetJSON(context.Background(), "k", payload{}))
}

func TestDashboardCacheWithoutAnyBackend(t *testing.T) {
	c := NewDashboardCache(nil, nil, time.Minute, zerolog.Nop())
	var got payload
	found, err := c.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.SetJSON(context.Background(), "k", payload{}))
	assert.NoError(t, c.Invalidate(context.Background()))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "dashboard:attendance:faculty:4", FacultyAttendanceKey(4))
	assert.Equal(t, "dashboard:analytics:section:10", SectionAnalyticsKey(10))
}
