package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisp-platform/console-server/internal/models"
)

func TestByCategoryZeroFillsFixedSet(t *testing.T) {
	reports := []models.Report{
		report("a", models.CategoryFires, "2024-01-01T10:00:00Z"),
		report("b", models.CategoryFloods, "2024-01-02T10:00:00Z"),
	}

	counts := ByCategory(reports)

	assert.Equal(t, map[models.Category]int{
		models.CategoryFires:        1,
		models.CategoryFloods:       1,
		models.CategoryPotholes:     0,
		models.CategoryStreetLights: 0,
		models.CategoryOthers:       0,
		models.CategoryRoadAccident: 0,
	}, counts.Counts)
	assert.Equal(t, 0, counts.Unclassified)
}

func TestByCategoryConservation(t *testing.T) {
	reports := []models.Report{
		report("a", models.CategoryFires, "2024-01-01T10:00:00Z"),
		report("b", models.CategoryFires, "2024-01-02T10:00:00Z"),
		report("c", models.CategoryRoadAccident, "2024-01-03T10:00:00Z"),
		report("d", models.Category("earthquake"), "2024-01-04T10:00:00Z"),
		report("e", models.Category(""), "2024-01-05T10:00:00Z"),
	}

	counts := ByCategory(reports)

	// Nothing is silently dropped: out-of-set categories land in the
	// unclassified tally instead.
	assert.Equal(t, len(reports), counts.Total())
	assert.Equal(t, 2, counts.Unclassified)
	assert.Equal(t, 2, counts.Counts[models.CategoryFires])
}

func TestByDateChronological(t *testing.T) {
	reports := []models.Report{
		report("a", models.CategoryFires, "2024-02-01T10:00:00Z"),
		report("b", models.CategoryFires, "2024-01-09T10:00:00Z"),
		report("c", models.CategoryFloods, "2024-01-10T10:00:00Z"),
		report("d", models.CategoryFloods, "2024-01-09T18:00:00Z"),
	}

	series := ByDate(reports)

	require.Len(t, series, 3)
	assert.Equal(t, []models.DateCount{
		{Date: "2024-01-09", Count: 2},
		{Date: "2024-01-10", Count: 1},
		{Date: "2024-02-01", Count: 1},
	}, series)
}

func TestByDateTruncatesInUTC(t *testing.T) {
	// 23:30 UTC-5 is 04:30 UTC the next day; the bucket follows UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	r := models.Report{
		ID:         "a",
		Category:   models.CategoryFires,
		ReportDate: time.Date(2024, 3, 1, 23, 30, 0, 0, loc),
	}

	series := ByDate([]models.Report{r})
	require.Len(t, series, 1)
	assert.Equal(t, "2024-03-02", series[0].Date)
}

func TestByDatePerCategorySharedAxis(t *testing.T) {
	reports := []models.Report{
		report("a", models.CategoryFires, "2024-01-01T10:00:00Z"),
		report("b", models.CategoryFloods, "2024-01-02T10:00:00Z"),
		report("c", models.CategoryFires, "2024-01-02T11:00:00Z"),
	}

	dates, series := ByDatePerCategory(reports)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, dates)
	assert.Equal(t, []int{1, 1}, series[models.CategoryFires])
	assert.Equal(t, []int{0, 1}, series[models.CategoryFloods])
	// Only categories actually present get a row.
	_, ok := series[models.CategoryPotholes]
	assert.False(t, ok)
}

func TestByHourConservation(t *testing.T) {
	reports := []models.Report{
		report("a", models.CategoryFires, "2024-01-01T00:15:00Z"),
		report("b", models.CategoryFires, "2024-01-01T00:45:00Z"),
		report("c", models.CategoryFloods, "2024-01-02T13:00:00Z"),
		report("d", models.Category("earthquake"), "2024-01-03T23:59:59Z"),
	}

	buckets := ByHour(reports)

	assert.Len(t, buckets, 24)
	sum := 0
	for _, n := range buckets {
		sum += n
	}
	assert.Equal(t, len(reports), sum)
	assert.Equal(t, 2, buckets[0])
	assert.Equal(t, 1, buckets[13])
	assert.Equal(t, 1, buckets[23])
}

func TestByHourPerCategory(t *testing.T) {
	reports := []models.Report{
		report("a", models.CategoryFires, "2024-01-01T07:10:00Z"),
		report("b", models.CategoryFires, "2024-01-02T07:50:00Z"),
		report("c", models.CategoryFloods, "2024-01-02T13:00:00Z"),
		report("d", models.Category("earthquake"), "2024-01-03T02:00:00Z"),
	}

	rows, unclassified := ByHourPerCategory(reports)

	assert.Len(t, rows, len(models.Categories))
	assert.Equal(t, 2, rows[models.CategoryFires][7])
	assert.Equal(t, 1, rows[models.CategoryFloods][13])
	assert.Equal(t, 1, unclassified)

	total := unclassified
	for _, row := range rows {
		for _, n := range row {
			total += n
		}
	}
	assert.Equal(t, len(reports), total)
}
