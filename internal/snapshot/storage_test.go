package snapshot

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	s, err := NewStorage(ctx, filepath.Join(t.TempDir(), "fuel.db"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestStorageSaveAndLatest(t *testing.T) {
	ctx := context.Background()
	s := testStorage(t)

	_, err := s.LatestSnapshot(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, s.SaveSnapshot(ctx, date("2026-08-29"), []byte(`{"results": ["old"]}`)))
	require.NoError(t, s.SaveSnapshot(ctx, date("2026-08-30"), []byte(`{"results": ["new"]}`)))

	doc, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	results := doc.(map[string]any)["results"].([]any)
	assert.Equal(t, []any{"new"}, results)

	// Second read hits the cache and returns the same document.
	cached, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, cached)

	// Saving again invalidates the cached snapshot.
	require.NoError(t, s.SaveSnapshot(ctx, date("2026-08-31"), []byte(`{"results": ["newer"]}`)))
	doc, err = s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{"newer"}, doc.(map[string]any)["results"])
}

func TestStorageDates(t *testing.T) {
	ctx := context.Background()
	s := testStorage(t)

	latest, err := s.LatestDate(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, s.SaveSnapshot(ctx, date("2026-08-28"), []byte(`{}`)))
	require.NoError(t, s.SaveSnapshot(ctx, date("2026-08-30"), []byte(`{}`)))

	has, err := s.HasDate(ctx, date("2026-08-28"))
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.HasDate(ctx, date("2026-08-29"))
	require.NoError(t, err)
	assert.False(t, has)

	dates, err := s.AllDates(ctx)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, date("2026-08-28"), dates[0])
	assert.Equal(t, date("2026-08-30"), dates[1])

	latest, err = s.LatestDate(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, date("2026-08-30"), *latest)
}

func TestStorageDeleteOldSnapshots(t *testing.T) {
	ctx := context.Background()
	s := testStorage(t)

	old := time.Now().AddDate(0, 0, -30)
	require.NoError(t, s.SaveSnapshot(ctx, old, []byte(`{"results": ["old"]}`)))
	require.NoError(t, s.SaveSnapshot(ctx, time.Now(), []byte(`{"results": ["new"]}`)))

	deleted, err := s.DeleteOldSnapshots(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	dates, err := s.AllDates(ctx)
	require.NoError(t, err)
	assert.Len(t, dates, 1)
}

func TestStorageLogSearchLocation(t *testing.T) {
	ctx := context.Background()
	s := testStorage(t)

	// Nearby queries collapse into the same coarse bucket.
	require.NoError(t, s.LogSearchLocation(ctx, 51.5074, -0.1278))
	require.NoError(t, s.LogSearchLocation(ctx, 51.5081, -0.1251))
	require.NoError(t, s.LogSearchLocation(ctx, 40.4168, -3.7038))

	locations, err := s.PopularLocations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, locations, 2)

	assert.Equal(t, int64(2), locations[0].SearchCount)
	assert.Equal(t, 51.51, locations[0].Latitude)
	assert.Equal(t, -0.13, locations[0].Longitude)
	assert.Equal(t, int64(1), locations[1].SearchCount)
}
