package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb, zap.NewNop().Sugar())
}

func storedReport(id string, category models.Category) models.Report {
	return models.Report{
		ID:         id,
		Category:   category,
		ReportDate: time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC),
		UpdateDate: time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC),
		Status:     models.StatusPending,
		Latitude:   14.5995,
		Longitude:  120.9842,
	}
}

func TestPutAndListReports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutReport(ctx, storedReport("r1", models.CategoryFires)))
	require.NoError(t, s.PutReport(ctx, storedReport("r2", models.CategoryFires)))
	require.NoError(t, s.PutReport(ctx, storedReport("r1", models.CategoryFloods)))

	fires, err := s.ListReports(ctx, models.CategoryFires, time.Time{})
	require.NoError(t, err)
	assert.Len(t, fires, 2)
	for _, r := range fires {
		assert.Equal(t, models.CategoryFires, r.Category)
	}

	floods, err := s.ListReports(ctx, models.CategoryFloods, time.Time{})
	require.NoError(t, err)
	assert.Len(t, floods, 1)
}

func TestListReportsSinceBound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := storedReport("old", models.CategoryPotholes)
	old.ReportDate = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutReport(ctx, old))
	require.NoError(t, s.PutReport(ctx, storedReport("recent", models.CategoryPotholes)))

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := s.ListReports(ctx, models.CategoryPotholes, since)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].ID)
}

func TestGetReportNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetReport(context.Background(), models.CategoryFires, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateTransitionsOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutReport(ctx, storedReport("r1", models.CategoryFires)))

	first, err := s.Validate(ctx, models.CategoryFires, "r1")
	require.NoError(t, err)
	assert.True(t, first.IsValidated)
	firstUpdate := first.UpdateDate

	// Second call is a no-op: update_date does not move again.
	second, err := s.Validate(ctx, models.CategoryFires, "r1")
	require.NoError(t, err)
	assert.True(t, second.IsValidated)
	assert.True(t, second.UpdateDate.Equal(firstUpdate))
}

func TestUpdateStatusTouchesUpdateDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	original := storedReport("r1", models.CategoryFloods)
	require.NoError(t, s.PutReport(ctx, original))

	updated, err := s.UpdateStatus(ctx, models.CategoryFloods, "r1", models.StatusOngoing)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, updated.Status)
	assert.True(t, updated.UpdateDate.After(original.UpdateDate))
	// report_date is immutable after creation.
	assert.True(t, updated.ReportDate.Equal(original.ReportDate))
}

func TestAssign(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutReport(ctx, storedReport("r1", models.CategoryOthers)))

	assigned, err := s.Assign(ctx, models.CategoryOthers, "r1", "worker-7")
	require.NoError(t, err)
	assert.Equal(t, "worker-7", assigned.AssignedToID)
}

func TestSoftDeleteArchives(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutReport(ctx, storedReport("r1", models.CategoryFires)))
	require.NoError(t, s.AppendFeedback(ctx, models.CategoryFires, "r1", "userFeedback",
		models.Feedback{Description: "still burning", SubmittedAt: time.Now().UTC()}))

	require.NoError(t, s.SoftDelete(ctx, models.CategoryFires, "r1"))

	// Original document and its sub-partitions are gone.
	_, err := s.GetReport(ctx, models.CategoryFires, "r1")
	assert.ErrorIs(t, err, ErrNotFound)
	fb, err := s.UserFeedback(ctx, models.CategoryFires, "r1")
	require.NoError(t, err)
	assert.Empty(t, fb)

	// Deleting again reports not found.
	assert.ErrorIs(t, s.SoftDelete(ctx, models.CategoryFires, "r1"), ErrNotFound)
}

func TestFeedbackRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutReport(ctx, storedReport("r1", models.CategoryRoadAccident)))
	entries := []models.Feedback{
		{Description: "first", SubmittedAt: time.Date(2024, 5, 11, 8, 0, 0, 0, time.UTC)},
		{Description: "second", Proof: "img-42", SubmittedAt: time.Date(2024, 5, 12, 8, 0, 0, 0, time.UTC)},
	}
	for _, f := range entries {
		require.NoError(t, s.AppendFeedback(ctx, models.CategoryRoadAccident, "r1", "workerFeedback", f))
	}

	got, err := s.WorkerFeedback(ctx, models.CategoryRoadAccident, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Description)
	assert.Equal(t, "img-42", got[1].Proof)
}

func TestNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	published, err := s.PublishNotification(ctx, models.Notification{
		Title:     "Typhoon warning",
		Body:      "Signal no. 3 raised",
		CreatedBy: "admin-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, published.ID)
	assert.False(t, published.CreatedAt.IsZero())

	list, err := s.ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Typhoon warning", list[0].Title)
}

func TestVerificationRequests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddVerificationRequest(ctx, models.VerificationRequest{UserID: "user-9"}))

	pending, err := s.VerificationRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "user-9", pending[0].UserID)

	require.NoError(t, s.ResolveVerification(ctx, "user-9"))
	assert.ErrorIs(t, s.ResolveVerification(ctx, "user-9"), ErrNotFound)
}

func TestWatchDeliversMutations(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, stop, err := s.Watch(ctx, models.CategoryFires)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, s.PutReport(ctx, storedReport("r1", models.CategoryFires)))

	select {
	case r := <-ch:
		assert.Equal(t, "r1", r.ID)
		assert.Equal(t, models.CategoryFires, r.Category)
	case <-time.After(time.Second):
		t.Fatal("no document delivered on watch channel")
	}
}
