package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/aggregate"
	"github.com/crisp-platform/console-server/internal/livefeed"
	"github.com/crisp-platform/console-server/internal/models"
)

// AnalyticsService turns the shared live collection into the view
// models the charts consume. The pipeline is always the same: narrow
// by time window, narrow by the principal's role, then reduce.
type AnalyticsService struct {
	feed   *livefeed.Multiplexer
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(feed *livefeed.Multiplexer, logger *zap.SugaredLogger) *AnalyticsService {
	return &AnalyticsService{feed: feed, logger: logger, now: time.Now}
}

// view applies the window and role scope to the current snapshot. The
// shared feed always holds the full collection; narrowing is done here
// per request, so one caller's window never changes what another
// caller (or the dashboard summary) observes.
func (s *AnalyticsService) view(principal *models.Principal, period aggregate.Period) []models.Report {
	reports := aggregate.Filter(s.feed.Snapshot(), aggregate.StartOf(period, s.now()))
	return aggregate.Scope(reports, principal)
}

// CategoryDistribution returns the pie-chart counts, zero-filled over
// the fixed categories, plus the unclassified tally.
func (s *AnalyticsService) CategoryDistribution(ctx context.Context, principal *models.Principal, period aggregate.Period) ([]models.CategoryCount, int) {
	counts := aggregate.ByCategory(s.view(principal, period))
	out := make([]models.CategoryCount, 0, len(models.Categories))
	for _, c := range models.Categories {
		out = append(out, models.CategoryCount{Category: c, Count: counts.Counts[c]})
	}
	return out, counts.Unclassified
}

// DateTrends returns the chronological date series for the line chart.
func (s *AnalyticsService) DateTrends(ctx context.Context, principal *models.Principal, period aggregate.Period) []models.DateCount {
	return aggregate.ByDate(s.view(principal, period))
}

// DateTrendsPerCategory returns one series per category over a shared
// date axis.
func (s *AnalyticsService) DateTrendsPerCategory(ctx context.Context, principal *models.Principal, period aggregate.Period) (dates []string, series map[models.Category][]int) {
	return aggregate.ByDatePerCategory(s.view(principal, period))
}

// HourTrends returns the 24-bucket hour-of-day histogram.
func (s *AnalyticsService) HourTrends(ctx context.Context, principal *models.Principal, period aggregate.Period) [24]int {
	return aggregate.ByHour(s.view(principal, period))
}

// HourTrendsPerCategory returns one 24-bucket row per category.
func (s *AnalyticsService) HourTrendsPerCategory(ctx context.Context, principal *models.Principal, period aggregate.Period) (map[models.Category][24]int, int) {
	return aggregate.ByHourPerCategory(s.view(principal, period))
}

// Summary builds the dashboard headline numbers: total and not-done
// counts over the full collection, the weekly count role-scoped.
func (s *AnalyticsService) Summary(ctx context.Context, principal *models.Principal) models.DashboardSummary {
	all := aggregate.Scope(s.feed.Snapshot(), principal)

	notDone := 0
	unclassified := 0
	for _, r := range all {
		if r.Status != models.StatusDone {
			notDone++
		}
		if !r.Category.Valid() {
			unclassified++
		}
	}

	weekly := aggregate.Filter(all, s.now().UTC().AddDate(0, 0, -7))

	return models.DashboardSummary{
		TotalReports:   len(all),
		NotDoneReports: notDone,
		WeeklyReports:  len(weekly),
		Unclassified:   unclassified,
		Stale:          s.feed.Stale(),
	}
}
