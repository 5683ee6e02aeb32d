package telemetry

import (
	"context"
	"database/sql"
	"fmt"
)

// Summary aggregates stored counts over a date range (inclusive).
type Summary struct {
	From        string                  `json:"from"`
	To          string                  `json:"to"`
	Queries     int64                   `json:"queries"`
	ZeroResults int64                   `json:"zero_results"`
	Repeats     int64                   `json:"repeats"`
	ByKind      map[QueryKind]int64     `json:"by_kind"`
	Latency     map[LatencyBucket]int64 `json:"latency"`
}

// ZeroResultRate returns the share of queries that found nothing, in [0,1].
func (s *Summary) ZeroResultRate() float64 {
	if s.Queries == 0 {
		return 0
	}
	return float64(s.ZeroResults) / float64(s.Queries)
}

// RepeatRate returns the share of queries seen recently before, in [0,1].
func (s *Summary) RepeatRate() float64 {
	if s.Queries == 0 {
		return 0
	}
	return float64(s.Repeats) / float64(s.Queries)
}

// SQLiteStore persists daily counts in the vault database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates the telemetry tables on db if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := InitSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// InitSchema creates the telemetry tables if they don't exist.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS query_stats (
		date         TEXT NOT NULL,
		kind         TEXT NOT NULL,
		queries      INTEGER NOT NULL DEFAULT 0,
		zero_results INTEGER NOT NULL DEFAULT 0,
		repeats      INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, kind)
	);

	-- buckets: <10ms, 10-50ms, 50-100ms, 100-500ms, >=500ms
	CREATE TABLE IF NOT EXISTS query_latency_stats (
		date   TEXT NOT NULL,
		kind   TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, kind, bucket)
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create telemetry schema: %w", err)
	}
	return nil
}

// AddCounts adds counts to the stored totals in one transaction.
func (s *SQLiteStore) AddCounts(ctx context.Context, counts []DailyCounts) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO query_stats (date, kind, queries, zero_results, repeats)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date, kind) DO UPDATE SET
			queries = queries + excluded.queries,
			zero_results = zero_results + excluded.zero_results,
			repeats = repeats + excluded.repeats
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer statsStmt.Close()

	latencyStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO query_latency_stats (date, kind, bucket, count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date, kind, bucket) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer latencyStmt.Close()

	for _, c := range counts {
		if _, err := statsStmt.ExecContext(ctx, c.Date, string(c.Kind), c.Queries, c.ZeroResults, c.Repeats); err != nil {
			return fmt.Errorf("insert query stats: %w", err)
		}
		for bucket, n := range c.Latency {
			if _, err := latencyStmt.ExecContext(ctx, c.Date, string(c.Kind), string(bucket), n); err != nil {
				return fmt.Errorf("insert latency stats: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Summary totals the counts between from and to (YYYY-MM-DD, inclusive).
func (s *SQLiteStore) Summary(ctx context.Context, from, to string) (*Summary, error) {
	sum := &Summary{
		From:    from,
		To:      to,
		ByKind:  make(map[QueryKind]int64),
		Latency: make(map[LatencyBucket]int64),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, SUM(queries), SUM(zero_results), SUM(repeats)
		FROM query_stats
		WHERE date >= ? AND date <= ?
		GROUP BY kind
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	for rows.Next() {
		var kind string
		var queries, zero, repeats int64
		if err := rows.Scan(&kind, &queries, &zero, &repeats); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sum.ByKind[QueryKind(kind)] = queries
		sum.Queries += queries
		sum.ZeroResults += zero
		sum.Repeats += repeats
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT bucket, SUM(count)
		FROM query_latency_stats
		WHERE date >= ? AND date <= ?
		GROUP BY bucket
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query latency stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bucket string
		var n int64
		if err := rows.Scan(&bucket, &n); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sum.Latency[LatencyBucket(bucket)] = n
	}
	return sum, rows.Err()
}
