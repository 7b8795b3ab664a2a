package aggregate

import (
	"sort"
	"time"

	"github.com/crisp-platform/console-server/internal/models"
)

// CategoryCounts holds one count per fixed category plus a counter for
// reports whose category falls outside the fixed set. The invariant is
// conservation: the sum of Counts plus Unclassified equals the number
// of reports reduced.
type CategoryCounts struct {
	Counts       map[models.Category]int
	Unclassified int
}

// Total returns the number of reports the reduction consumed.
func (c CategoryCounts) Total() int {
	n := c.Unclassified
	for _, v := range c.Counts {
		n += v
	}
	return n
}

// ByCategory counts reports per fixed category. Missing categories
// yield 0; unknown categories are tallied separately rather than
// silently dropped.
func ByCategory(reports []models.Report) CategoryCounts {
	counts := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = 0
	}

	unclassified := 0
	for _, r := range reports {
		if !r.Category.Valid() {
			unclassified++
			continue
		}
		counts[r.Category]++
	}
	return CategoryCounts{Counts: counts, Unclassified: unclassified}
}

// ByDate groups reports by their UTC calendar date and returns the
// series in chronological order. Sorting the YYYY-MM-DD keys
// lexicographically is chronological by construction.
func ByDate(reports []models.Report) []models.DateCount {
	counts := make(map[string]int)
	for _, r := range reports {
		counts[r.ReportDate.UTC().Format("2006-01-02")]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := make([]models.DateCount, 0, len(keys))
	for _, k := range keys {
		series = append(series, models.DateCount{Date: k, Count: counts[k]})
	}
	return series
}

// ByDatePerCategory produces one chronological series per category that
// actually appears in the collection, all sharing the same date axis.
func ByDatePerCategory(reports []models.Report) (dates []string, series map[models.Category][]int) {
	counts := make(map[string]map[models.Category]int)
	seen := make(map[models.Category]bool)
	for _, r := range reports {
		day := r.ReportDate.UTC().Format("2006-01-02")
		if counts[day] == nil {
			counts[day] = make(map[models.Category]int)
		}
		counts[day][r.Category]++
		seen[r.Category] = true
	}

	for day := range counts {
		dates = append(dates, day)
	}
	sort.Strings(dates)

	series = make(map[models.Category][]int, len(seen))
	for cat := range seen {
		row := make([]int, len(dates))
		for i, day := range dates {
			row[i] = counts[day][cat]
		}
		series[cat] = row
	}
	return dates, series
}

// ByHour buckets reports into the 24 hours of the day (UTC). The sum
// of the buckets always equals the number of reports.
func ByHour(reports []models.Report) [24]int {
	var buckets [24]int
	for _, r := range reports {
		buckets[r.ReportDate.UTC().Hour()]++
	}
	return buckets
}

// ByHourPerCategory produces one 24-bucket row per fixed category.
// Unclassified reports are excluded from the rows and returned as a
// separate count.
func ByHourPerCategory(reports []models.Report) (rows map[models.Category][24]int, unclassified int) {
	rows = make(map[models.Category][24]int, len(models.Categories))
	for _, c := range models.Categories {
		rows[c] = [24]int{}
	}
	for _, r := range reports {
		if !r.Category.Valid() {
			unclassified++
			continue
		}
		row := rows[r.Category]
		row[r.ReportDate.UTC().Hour()]++
		rows[r.Category] = row
	}
	return rows, unclassified
}

// Filter retains reports filed at or after the bound. The operation is
// idempotent: applying the same bound twice yields the same set.
func Filter(reports []models.Report, bound time.Time) []models.Report {
	if bound.IsZero() {
		return reports
	}
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if InWindow(r.ReportDate, bound) {
			out = append(out, r)
		}
	}
	return out
}
