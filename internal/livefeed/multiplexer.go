// Package livefeed merges the per-category live subscriptions into one
// de-duplicated report collection shared by every dashboard and chart
// consumer. One multiplexer instance serves the whole process, so all
// views observe the same snapshot sequence.
package livefeed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/aggregate"
	"github.com/crisp-platform/console-server/internal/docstore"
	"github.com/crisp-platform/console-server/internal/models"
)

// Subscriber receives the full merged collection after every change.
type Subscriber func(reports []models.Report)

// Source is the slice of the document store the multiplexer needs.
type Source interface {
	ListReports(ctx context.Context, category models.Category, since time.Time) ([]models.Report, error)
	Watch(ctx context.Context, category models.Category) (<-chan models.Report, func(), error)
}

var _ Source = (*docstore.Store)(nil)

// Multiplexer owns one live subscription per category partition and a
// running merge of everything they have delivered. Incoming documents
// whose (category, id) key is already present are ignored: documents
// are immutable after creation in the feed, so first-write-wins is the
// merge policy, applied deliberately rather than by accident.
type Multiplexer struct {
	source Source
	logger *zap.SugaredLogger
	now    func() time.Time

	// ctx is the multiplexer's own lifetime, captured at Start.
	// Partition subscriptions are opened under it, never under a
	// caller's request-scoped context.
	ctx context.Context

	mu          sync.Mutex
	generation  uint64
	period      aggregate.Period
	merged      map[models.ReportKey]models.Report
	stale       map[models.Category]bool
	cancels     []func()
	subscribers map[int]Subscriber
	nextSubID   int
	closed      bool
}

// New creates a multiplexer over the given source. Subscriptions open
// on the first SetPeriod (or Start) call.
func New(source Source, logger *zap.SugaredLogger) *Multiplexer {
	return &Multiplexer{
		source:      source,
		logger:      logger,
		now:         time.Now,
		ctx:         context.Background(),
		period:      aggregate.PeriodAll,
		merged:      make(map[models.ReportKey]models.Report),
		stale:       make(map[models.Category]bool),
		subscribers: make(map[int]Subscriber),
	}
}

// Start captures the process context and opens the initial
// subscriptions with the current period. Subscriptions live until the
// next re-scope, Close, or cancellation of ctx.
func (m *Multiplexer) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	p := m.period
	m.mu.Unlock()
	m.SetPeriod(p)
}

// Period returns the active time window.
func (m *Multiplexer) Period() aggregate.Period {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.period
}

// SetPeriod re-scopes every live subscription to the new time window.
// The previous generation's subscriptions are torn down first and the
// accumulated collection is discarded, then each partition is
// re-fetched under the new bound. Callbacks still in flight from an
// older generation are dropped, so a rapid sequence of period changes
// never interleaves stale data into the fresh collection. The new
// subscriptions are bound to the context captured at Start, so a
// re-scope triggered mid-request outlives that request.
func (m *Multiplexer) SetPeriod(p aggregate.Period) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.generation++
	gen := m.generation
	m.period = p
	cancels := m.cancels
	m.cancels = nil
	m.merged = make(map[models.ReportKey]models.Report)
	m.stale = make(map[models.Category]bool)
	bound := aggregate.StartOf(p, m.now())
	ctx := m.ctx
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	for _, category := range models.Categories {
		m.openPartition(ctx, category, gen, bound)
	}
	m.notify(gen)
}

// openPartition backfills a category under the bound and then tails
// its live channel. A failure marks the partition stale; there is no
// automatic retry until the next re-scope.
func (m *Multiplexer) openPartition(ctx context.Context, category models.Category, gen uint64, bound time.Time) {
	initial, err := m.source.ListReports(ctx, category, bound)
	if err != nil {
		m.logger.Errorw("Partition backfill failed",
			"category", category, "error", err)
		m.markStale(category, gen)
		return
	}

	ch, cancel, err := m.source.Watch(ctx, category)
	if err != nil {
		m.logger.Errorw("Partition subscription failed",
			"category", category, "error", err)
		m.markStale(category, gen)
		return
	}

	m.mu.Lock()
	if gen != m.generation || m.closed {
		m.mu.Unlock()
		cancel()
		return
	}
	m.cancels = append(m.cancels, cancel)
	for _, r := range initial {
		m.mergeLocked(r, bound)
	}
	m.mu.Unlock()

	go func() {
		for r := range ch {
			if !m.merge(r, gen, bound) {
				return
			}
			m.notify(gen)
		}
		// Channel closed without a re-scope: partition went quiet.
		m.markStale(category, gen)
	}()
}

// merge folds one document into the collection. Returns false once the
// document belongs to a superseded generation.
func (m *Multiplexer) merge(r models.Report, gen uint64, bound time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || m.closed {
		return false
	}
	m.mergeLocked(r, bound)
	return true
}

func (m *Multiplexer) mergeLocked(r models.Report, bound time.Time) {
	if !aggregate.InWindow(r.ReportDate, bound) {
		return
	}
	key := r.Key()
	if _, exists := m.merged[key]; exists {
		return // first-write-wins
	}
	m.merged[key] = r
}

func (m *Multiplexer) markStale(category models.Category, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	m.stale[category] = true
}

// Stale reports whether any partition has stopped updating under the
// current generation. Consumers surface this as a "data may be stale"
// indicator instead of silently serving a partial view.
func (m *Multiplexer) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stale) > 0
}

// Snapshot returns a copy of the merged collection.
func (m *Multiplexer) Snapshot() []models.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Multiplexer) snapshotLocked() []models.Report {
	out := make([]models.Report, 0, len(m.merged))
	for _, r := range m.merged {
		out = append(out, r)
	}
	return out
}

// Subscribe registers fn, invokes it once with the current snapshot,
// and returns a cancel func removing the registration.
func (m *Multiplexer) Subscribe(fn Subscriber) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	fn(snapshot)

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

func (m *Multiplexer) notify(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.closed {
		m.mu.Unlock()
		return
	}
	snapshot := m.snapshotLocked()
	fns := make([]Subscriber, 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// Close tears down every live subscription. The multiplexer cannot be
// restarted afterwards.
func (m *Multiplexer) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.generation++
	cancels := m.cancels
	m.cancels = nil
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
