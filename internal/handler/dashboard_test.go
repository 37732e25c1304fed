package handler

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdghub/backend/dao/model"
)

var bangkok = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		panic(err)
	}
	return loc
}()

func TestMonthRange(t *testing.T) {
	now := time.Date(2026, 8, 31, 23, 30, 0, 0, bangkok)

	t.Run("explicit month", func(t *testing.T) {
		start, end, err := monthRange("2026-02", now, bangkok)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, bangkok), start)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, bangkok), end)
	})

	t.Run("defaults to current month", func(t *testing.T) {
		start, end, err := monthRange("", now, bangkok)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, bangkok), start)
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, bangkok), end)
	})

	t.Run("timezone decides the month", func(t *testing.T) {
		// 2026-08-31 23:30 UTC is already September in Bangkok (UTC+7).
		utcLate := time.Date(2026, 8, 31, 23, 30, 0, 0, time.UTC)
		start, _, err := monthRange("", utcLate, bangkok)
		require.NoError(t, err)
		assert.Equal(t, time.September, start.Month())
	})

	t.Run("bad format", func(t *testing.T) {
		_, _, err := monthRange("2026/02", now, bangkok)
		assert.Error(t, err)
	})
}

func TestBucketPerDay(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, bangkok)
	times := []time.Time{
		time.Date(2026, 2, 1, 9, 0, 0, 0, bangkok),
		time.Date(2026, 2, 1, 18, 0, 0, 0, bangkok),
		time.Date(2026, 2, 28, 12, 0, 0, 0, bangkok),
		// 23:30 UTC on the 14th is 06:30 on the 15th in Bangkok.
		time.Date(2026, 2, 14, 23, 30, 0, 0, time.UTC),
	}

	buckets := bucketPerDay(times, start, bangkok)
	require.Len(t, buckets, 28)
	assert.Equal(t, 2, buckets[0])
	assert.Equal(t, 1, buckets[14])
	assert.Equal(t, 1, buckets[27])
}

func TestCountByCategory(t *testing.T) {
	contents := []model.Content{
		{Category: "language"},
		{Category: "food"},
		{Category: "language"},
		{Category: "language"},
	}
	counts := countByCategory(contents)
	require.Len(t, counts, 2)
	assert.Equal(t, model.ContentCategory("language"), counts[0].Category)
	assert.Equal(t, 3, counts[0].Count)
	assert.Equal(t, 1, counts[1].Count)
}

func TestPopularContents(t *testing.T) {
	popularID, nicheID := uuid.New(), uuid.New()
	popular := &model.Content{ID: popularID, Name: "Thai 101", Category: "language"}
	niche := &model.Content{ID: nicheID, Name: "Street Food", Category: "food"}

	var enrollments []model.Enrollment
	for range 3 {
		enrollments = append(enrollments, model.Enrollment{ContentID: popularID, Content: popular})
	}
	enrollments = append(enrollments, model.Enrollment{ContentID: nicheID, Content: niche})

	t.Run("ranked by enrollment", func(t *testing.T) {
		top := popularContents(enrollments, 20)
		require.Len(t, top, 2)
		assert.Equal(t, "Thai 101", top[0].Name)
		assert.Equal(t, 3, top[0].Enrollments)
	})

	t.Run("limit applies", func(t *testing.T) {
		top := popularContents(enrollments, 1)
		require.Len(t, top, 1)
		assert.Equal(t, popularID.String(), top[0].ContentID)
	})
}

func TestProjectsDashboard(t *testing.T) {
	monthStart := time.Date(2026, 8, 1, 0, 0, 0, 0, bangkok)
	now := monthStart.AddDate(0, 0, 10)
	lastMonth := monthStart.AddDate(0, 0, -10)
	parent := uuid.New()

	projects := []model.Project{
		{SubmittedAt: now, SDGType: "SDG4", ProjectType: "human_resource_development"},
		{SubmittedAt: now, SDGType: "SDG4", ProjectType: "society_and_community", RejectedAt: &now},
		{SubmittedAt: lastMonth, SDGType: "SDG13", ProjectType: "human_resource_development",
			FirstApprovedAt: &now, SecondApprovedAt: &now, ThirdApprovedAt: &now},
		{SubmittedAt: lastMonth, SDGType: "SDG4", ProjectType: "human_resource_development",
			ParentProjectID: &parent},
	}

	resp := projectsDashboard(projects, monthStart)

	assert.Equal(t, int64(2), resp.Total.ThisMonth)
	assert.Equal(t, int64(2), resp.Total.LastMonth)
	assert.Equal(t, int64(1), resp.Pending.ThisMonth)
	assert.Equal(t, int64(1), resp.Pending.LastMonth)
	assert.Equal(t, int64(1), resp.Rejected.ThisMonth)
	assert.Equal(t, int64(0), resp.Rejected.LastMonth)

	assert.Equal(t, 3, resp.NormalProjects)
	assert.Equal(t, 1, resp.ChildProjects)

	assert.Equal(t, "human_resource_development", resp.PopularTypes[0].Type)
	assert.Equal(t, 3, resp.PopularTypes[0].Count)
	assert.Equal(t, "SDG4", resp.PopularSDGs[0].Type)

	assert.Equal(t, 1, resp.StatusCounts["rejected"])
	assert.Equal(t, 1, resp.StatusCounts["fully_approved"])
	assert.Equal(t, 2, resp.StatusCounts["pending_first_approval"])
}

func TestContentReportCompletionEquivalence(t *testing.T) {
	id := uuid.New()
	content := []model.Content{{ID: id, Name: "Thai 101", Category: "language"}}
	done := time.Now()
	enrollments := []model.Enrollment{
		{ContentID: id, Progress: 100},                   // progress marker only
		{ContentID: id, Progress: 40, CompleteAt: &done}, // timestamp marker only
		{ContentID: id, Progress: 50},
	}

	rows := contentReport(content, enrollments)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].Enrolled)
	assert.Equal(t, 2, rows[0].Completed)
}
