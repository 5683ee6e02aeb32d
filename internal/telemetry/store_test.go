package telemetry

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestNewSQLiteStore_NilDB(t *testing.T) {
	_, err := NewSQLiteStore(nil)
	assert.Error(t, err)
}

func TestInitSchema_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, InitSchema(db))
	require.NoError(t, InitSchema(db))
}

func TestSQLiteStore_AddCountsAccumulates(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(setupTestDB(t))
	require.NoError(t, err)

	day := DailyCounts{
		Date:        "2026-05-01",
		Kind:        KindSearch,
		Queries:     4,
		ZeroResults: 1,
		Repeats:     2,
		Latency:     map[LatencyBucket]int64{BucketP10: 3, BucketP500: 1},
	}
	require.NoError(t, store.AddCounts(ctx, []DailyCounts{day}))
	require.NoError(t, store.AddCounts(ctx, []DailyCounts{day}))

	sum, err := store.Summary(ctx, "2026-05-01", "2026-05-01")
	require.NoError(t, err)

	assert.Equal(t, int64(8), sum.Queries)
	assert.Equal(t, int64(2), sum.ZeroResults)
	assert.Equal(t, int64(4), sum.Repeats)
	assert.Equal(t, int64(8), sum.ByKind[KindSearch])
	assert.Equal(t, int64(6), sum.Latency[BucketP10])
	assert.Equal(t, int64(2), sum.Latency[BucketP500])
}

func TestSQLiteStore_SummaryRange(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(setupTestDB(t))
	require.NoError(t, err)

	require.NoError(t, store.AddCounts(ctx, []DailyCounts{
		{Date: "2026-04-30", Kind: KindSearch, Queries: 10, Latency: map[LatencyBucket]int64{BucketP50: 10}},
		{Date: "2026-05-01", Kind: KindSearch, Queries: 2, Latency: map[LatencyBucket]int64{BucketP10: 2}},
		{Date: "2026-05-02", Kind: KindChat, Queries: 3, ZeroResults: 3, Latency: map[LatencyBucket]int64{BucketP100: 3}},
		{Date: "2026-05-03", Kind: KindChat, Queries: 7},
	}))

	sum, err := store.Summary(ctx, "2026-05-01", "2026-05-02")
	require.NoError(t, err)

	assert.Equal(t, "2026-05-01", sum.From)
	assert.Equal(t, "2026-05-02", sum.To)
	assert.Equal(t, int64(5), sum.Queries)
	assert.Equal(t, map[QueryKind]int64{KindSearch: 2, KindChat: 3}, sum.ByKind)
	assert.Equal(t, map[LatencyBucket]int64{BucketP10: 2, BucketP100: 3}, sum.Latency)
	assert.InDelta(t, 0.6, sum.ZeroResultRate(), 1e-9)
	assert.Equal(t, 0.0, sum.RepeatRate())
}

func TestSQLiteStore_SummaryEmpty(t *testing.T) {
	store, err := NewSQLiteStore(setupTestDB(t))
	require.NoError(t, err)

	sum, err := store.Summary(context.Background(), "2026-01-01", "2026-12-31")
	require.NoError(t, err)

	assert.Zero(t, sum.Queries)
	assert.Empty(t, sum.ByKind)
	assert.Empty(t, sum.Latency)
	assert.Equal(t, 0.0, sum.ZeroResultRate())
}
