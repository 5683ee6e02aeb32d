// Package telemetry keeps local, aggregate statistics about vault queries.
// Only daily counters are persisted: query text is hashed in memory to
// detect repeats and is never written anywhere.
package telemetry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// QueryKind is the operation that produced a query.
type QueryKind string

const (
	KindSearch QueryKind = "search"
	KindChat   QueryKind = "chat"
)

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// Buckets lists the latency buckets in ascending order.
var Buckets = []LatencyBucket{BucketP10, BucketP50, BucketP100, BucketP500, BucketP1000}

// Label returns the bucket's range, e.g. "10-50ms".
func (b LatencyBucket) Label() string {
	switch b {
	case BucketP10:
		return "<10ms"
	case BucketP50:
		return "10-50ms"
	case BucketP100:
		return "50-100ms"
	case BucketP500:
		return "100-500ms"
	case BucketP1000:
		return ">=500ms"
	}
	return string(b)
}

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// QueryEvent is a single answered search or chat request.
// Query is used for repeat detection only.
type QueryEvent struct {
	Kind        QueryKind
	Query       string
	ResultCount int
	Latency     time.Duration
	Timestamp   time.Time
}

// DailyCounts is the persisted aggregate for one day and kind.
type DailyCounts struct {
	Date        string
	Kind        QueryKind
	Queries     int64
	ZeroResults int64
	Repeats     int64
	Latency     map[LatencyBucket]int64
}

func (d *DailyCounts) add(o *DailyCounts) {
	d.Queries += o.Queries
	d.ZeroResults += o.ZeroResults
	d.Repeats += o.Repeats
	for b, n := range o.Latency {
		d.Latency[b] += n
	}
}

// Store persists daily counts. AddCounts adds to whatever is stored.
type Store interface {
	AddCounts(ctx context.Context, counts []DailyCounts) error
	Summary(ctx context.Context, from, to string) (*Summary, error)
}

// Snapshot is the in-memory view of the current process.
type Snapshot struct {
	TotalQueries int64                   `json:"total_queries"`
	ZeroResults  int64                   `json:"zero_results"`
	Repeats      int64                   `json:"repeats"`
	UniqueRecent int                     `json:"unique_recent"`
	ByKind       map[QueryKind]int64     `json:"by_kind"`
	Latency      map[LatencyBucket]int64 `json:"latency"`
	Since        time.Time               `json:"since"`
}

// Config configures QueryMetrics.
type Config struct {
	// RecentQueries bounds the query hashes kept for repeat detection (default 500).
	RecentQueries int

	// FlushInterval is how often pending counts are written (0 = only on Flush/Close).
	FlushInterval time.Duration

	// Now overrides the clock (tests).
	Now func() time.Time
}

// DateLayout is the day key used in storage.
const DateLayout = "2006-01-02"

type pendingKey struct {
	date string
	kind QueryKind
}

// QueryMetrics aggregates query events and flushes them to a Store.
// It is safe for concurrent use.
type QueryMetrics struct {
	mu sync.Mutex

	pending map[pendingKey]*DailyCounts
	recent  *lru.Cache[string, struct{}]

	total       int64
	zeroResults int64
	repeats     int64
	byKind      map[QueryKind]int64
	latency     map[LatencyBucket]int64
	since       time.Time

	store  Store
	now    func() time.Time
	ticker *time.Ticker
	stopCh chan struct{}
	done   chan struct{} // closed when flushLoop exits
	closed bool
}

// NewQueryMetrics creates a collector. A nil store keeps counts in memory only.
func NewQueryMetrics(store Store, cfg Config) *QueryMetrics {
	if cfg.RecentQueries <= 0 {
		cfg.RecentQueries = 500
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	recent, _ := lru.New[string, struct{}](cfg.RecentQueries)

	m := &QueryMetrics{
		pending: make(map[pendingKey]*DailyCounts),
		recent:  recent,
		byKind:  make(map[QueryKind]int64),
		latency: make(map[LatencyBucket]int64),
		since:   cfg.Now(),
		store:   store,
		now:     cfg.Now,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}

	if cfg.FlushInterval > 0 && store != nil {
		m.ticker = time.NewTicker(cfg.FlushInterval)
		go m.flushLoop()
	}
	return m
}

func (m *QueryMetrics) flushLoop() {
	defer close(m.done)
	for {
		select {
		case <-m.ticker.C:
			if err := m.Flush(context.Background()); err != nil {
				slog.Warn("telemetry_flush_failed", slog.String("error", err.Error()))
			}
		case <-m.stopCh:
			return
		}
	}
}

// Record adds one event. Events after Close are ignored.
func (m *QueryMetrics) Record(event QueryEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = m.now()
	}
	bucket := LatencyToBucket(event.Latency)
	hash := hashQuery(event.Kind, event.Query)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	key := pendingKey{date: event.Timestamp.Format(DateLayout), kind: event.Kind}
	day, ok := m.pending[key]
	if !ok {
		day = &DailyCounts{Date: key.date, Kind: key.kind, Latency: make(map[LatencyBucket]int64)}
		m.pending[key] = day
	}

	day.Queries++
	day.Latency[bucket]++
	m.total++
	m.byKind[event.Kind]++
	m.latency[bucket]++

	if event.ResultCount == 0 {
		day.ZeroResults++
		m.zeroResults++
	}

	if _, seen := m.recent.Get(hash); seen {
		day.Repeats++
		m.repeats++
	}
	m.recent.Add(hash, struct{}{})
}

// hashQuery normalizes case and whitespace before hashing.
func hashQuery(kind QueryKind, query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + normalized))
	return hex.EncodeToString(sum[:16])
}

// Snapshot returns counters for the current process.
func (m *QueryMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	byKind := make(map[QueryKind]int64, len(m.byKind))
	for k, v := range m.byKind {
		byKind[k] = v
	}
	latency := make(map[LatencyBucket]int64, len(m.latency))
	for k, v := range m.latency {
		latency[k] = v
	}

	return Snapshot{
		TotalQueries: m.total,
		ZeroResults:  m.zeroResults,
		Repeats:      m.repeats,
		UniqueRecent: m.recent.Len(),
		ByKind:       byKind,
		Latency:      latency,
		Since:        m.since,
	}
}

// Flush writes pending counts to the store. On failure the counts are kept
// for the next attempt.
func (m *QueryMetrics) Flush(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	if len(m.pending) == 0 {
		m.mu.Unlock()
		return nil
	}
	batch := m.pending
	m.pending = make(map[pendingKey]*DailyCounts)
	m.mu.Unlock()

	counts := make([]DailyCounts, 0, len(batch))
	for _, d := range batch {
		counts = append(counts, *d)
	}

	if err := m.store.AddCounts(ctx, counts); err != nil {
		m.mu.Lock()
		for key, d := range batch {
			if cur, ok := m.pending[key]; ok {
				cur.add(d)
			} else {
				m.pending[key] = d
			}
		}
		m.mu.Unlock()
		return err
	}

	slog.Debug("telemetry_flushed", slog.Int("days", len(counts)))
	return nil
}

// Close stops the flush loop, waits for an in-flight periodic flush to
// finish, and writes what is pending.
func (m *QueryMetrics) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if m.ticker != nil {
		m.ticker.Stop()
		close(m.stopCh)
		<-m.done
	}
	return m.Flush(context.Background())
}
