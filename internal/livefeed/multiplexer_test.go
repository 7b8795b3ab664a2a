package livefeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/aggregate"
	"github.com/crisp-platform/console-server/internal/models"
)

// fakeSource is an in-memory Source with controllable partitions.
type fakeSource struct {
	mu        sync.Mutex
	docs      map[models.Category][]models.Report
	chans     map[models.Category]chan models.Report
	watchErr  map[models.Category]error
	watchCtxs []context.Context
	cancels   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		docs:     make(map[models.Category][]models.Report),
		chans:    make(map[models.Category]chan models.Report),
		watchErr: make(map[models.Category]error),
	}
}

func (f *fakeSource) ListReports(_ context.Context, category models.Category, since time.Time) ([]models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Report
	for _, r := range f.docs[category] {
		if !since.IsZero() && r.ReportDate.Before(since) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeSource) Watch(ctx context.Context, category models.Category) (<-chan models.Report, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.watchErr[category]; err != nil {
		return nil, nil, err
	}
	f.watchCtxs = append(f.watchCtxs, ctx)
	ch := make(chan models.Report, 16)
	f.chans[category] = ch
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			f.cancels++
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}

func (f *fakeSource) emit(r models.Report) {
	f.mu.Lock()
	ch := f.chans[r.Category]
	f.mu.Unlock()
	ch <- r
}

func (f *fakeSource) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}

func (f *fakeSource) watchContexts() []context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]context.Context(nil), f.watchCtxs...)
}

func testReport(id string, category models.Category, filed string) models.Report {
	ts, err := time.Parse(time.RFC3339, filed)
	if err != nil {
		panic(err)
	}
	return models.Report{ID: id, Category: category, ReportDate: ts, Status: models.StatusPending}
}

func newTestMux(t *testing.T, source Source) *Multiplexer {
	t.Helper()
	m := New(source, zap.NewNop().Sugar())
	t.Cleanup(m.Close)
	return m
}

func TestMultiplexerMergesAllPartitions(t *testing.T) {
	source := newFakeSource()
	source.docs[models.CategoryFires] = []models.Report{
		testReport("a", models.CategoryFires, "2024-01-01T10:00:00Z"),
	}
	source.docs[models.CategoryFloods] = []models.Report{
		testReport("b", models.CategoryFloods, "2024-01-02T10:00:00Z"),
	}

	m := newTestMux(t, source)
	m.Start(context.Background())

	assert.Len(t, m.Snapshot(), 2)
	assert.False(t, m.Stale())
}

func TestMultiplexerFirstWriteWins(t *testing.T) {
	source := newFakeSource()
	first := testReport("x", models.CategoryFires, "2024-01-01T10:00:00Z")
	first.Description = "original"
	source.docs[models.CategoryFires] = []models.Report{first}

	m := newTestMux(t, source)
	m.Start(context.Background())

	// The same id arriving in a later snapshot batch is ignored.
	replacement := testReport("x", models.CategoryFires, "2024-01-01T10:00:00Z")
	replacement.Description = "replacement"
	source.emit(replacement)
	source.emit(testReport("y", models.CategoryFires, "2024-01-03T10:00:00Z"))

	require.Eventually(t, func() bool {
		return len(m.Snapshot()) == 2
	}, time.Second, 5*time.Millisecond)

	for _, r := range m.Snapshot() {
		if r.ID == "x" {
			assert.Equal(t, "original", r.Description)
		}
	}
}

func TestMultiplexerKeysByCategoryAndID(t *testing.T) {
	// IDs are unique only within a partition; the same id in two
	// partitions is two distinct reports.
	source := newFakeSource()
	source.docs[models.CategoryFires] = []models.Report{
		testReport("dup", models.CategoryFires, "2024-01-01T10:00:00Z"),
	}
	source.docs[models.CategoryFloods] = []models.Report{
		testReport("dup", models.CategoryFloods, "2024-01-02T10:00:00Z"),
	}

	m := newTestMux(t, source)
	m.Start(context.Background())

	assert.Len(t, m.Snapshot(), 2)
}

func TestSetPeriodTearsDownAndRescopes(t *testing.T) {
	source := newFakeSource()
	source.docs[models.CategoryFires] = []models.Report{
		testReport("old", models.CategoryFires, "2020-01-01T10:00:00Z"),
		testReport("new", models.CategoryFires, time.Now().UTC().Format(time.RFC3339)),
	}

	m := newTestMux(t, source)
	m.Start(context.Background())
	require.Len(t, m.Snapshot(), 2)

	m.SetPeriod(aggregate.PeriodToday)

	// Previous generation's subscriptions are all closed.
	assert.Equal(t, len(models.Categories), source.cancelCount())

	// Accumulated state was discarded and re-fetched under the bound.
	snapshot := m.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "new", snapshot[0].ID)
	assert.Equal(t, aggregate.PeriodToday, m.Period())
}

func TestLiveEmissionsRespectWindow(t *testing.T) {
	source := newFakeSource()

	m := newTestMux(t, source)
	m.Start(context.Background())
	m.SetPeriod(aggregate.PeriodYear)

	source.emit(testReport("recent", models.CategoryFloods, time.Now().UTC().Format(time.RFC3339)))
	source.emit(testReport("ancient", models.CategoryFloods, "2019-06-01T10:00:00Z"))

	require.Eventually(t, func() bool {
		return len(m.Snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "recent", m.Snapshot()[0].ID)
}

func TestFailedPartitionMarksStale(t *testing.T) {
	source := newFakeSource()
	source.watchErr[models.CategoryPotholes] = assert.AnError

	m := newTestMux(t, source)
	m.Start(context.Background())

	assert.True(t, m.Stale())
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	source := newFakeSource()
	source.docs[models.CategoryFires] = []models.Report{
		testReport("a", models.CategoryFires, "2024-01-01T10:00:00Z"),
	}

	m := newTestMux(t, source)
	m.Start(context.Background())

	var mu sync.Mutex
	var latest []models.Report
	unsubscribe := m.Subscribe(func(reports []models.Report) {
		mu.Lock()
		latest = reports
		mu.Unlock()
	})

	// Invoked immediately with the current snapshot.
	mu.Lock()
	assert.Len(t, latest, 1)
	mu.Unlock()

	source.emit(testReport("b", models.CategoryFires, "2024-01-02T10:00:00Z"))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 2
	}, time.Second, 5*time.Millisecond)

	unsubscribe()
	source.emit(testReport("c", models.CategoryFires, "2024-01-03T10:00:00Z"))
	require.Eventually(t, func() bool {
		return len(m.Snapshot()) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Len(t, latest, 2, "unsubscribed callback must not fire again")
	mu.Unlock()
}

func TestPartitionsOutliveCallerContexts(t *testing.T) {
	source := newFakeSource()

	m := newTestMux(t, source)
	m.Start(context.Background())

	// A short-lived caller re-scopes the feed and then goes away, the
	// way an HTTP request's context is cancelled once the handler
	// returns. The new subscriptions must not die with it.
	reqCtx, reqCancel := context.WithCancel(context.Background())
	m.SetPeriod(aggregate.PeriodYear)
	reqCancel()
	<-reqCtx.Done()

	source.emit(testReport("after", models.CategoryFires, time.Now().UTC().Format(time.RFC3339)))
	require.Eventually(t, func() bool {
		return len(m.Snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.False(t, m.Stale())
	for _, ctx := range source.watchContexts() {
		assert.NoError(t, ctx.Err(), "partition subscriptions must run under the feed's own context")
	}
}

func TestCloseStopsEverything(t *testing.T) {
	source := newFakeSource()
	m := New(source, zap.NewNop().Sugar())
	m.Start(context.Background())

	m.Close()
	assert.Equal(t, len(models.Categories), source.cancelCount())

	// Close is terminal: re-scoping afterwards is a no-op.
	m.SetPeriod(aggregate.PeriodToday)
	assert.Equal(t, len(models.Categories), source.cancelCount())
}
