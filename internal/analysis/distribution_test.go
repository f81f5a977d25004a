package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmorales/jiratools/internal/models"
)

func agedIssue(key string, ageDays int, now time.Time) models.Issue {
	return models.Issue{
		Key:     key,
		Summary: "issue " + key,
		Status:  "To Do",
		Type:    "Story",
		Created: now.AddDate(0, 0, -ageDays),
	}
}

func TestAnalyzeAgeDistribution_BucketCountsSumToTotal(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ages []int
	}{
		{"empty", nil},
		{"single", []int{5}},
		{"spread", []int{0, 7, 8, 30, 31, 90, 91, 180, 181, 400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := make([]models.Issue, 0, len(tt.ages))
			for i, age := range tt.ages {
				issues = append(issues, agedIssue(keyN(i), age, now))
			}

			stats := AnalyzeAgeDistribution(issues, now)

			sum := 0
			for _, b := range AgeBuckets {
				sum += stats.Distribution[b]
			}
			assert.Equal(t, len(issues), sum)
		})
	}
}

func keyN(i int) string {
	return "PROJ-" + string(rune('A'+i))
}

func TestAnalyzeAgeDistribution_MedianTakesUpperMiddle(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	// Even length: median is index n/2 of the ascending sort (the upper
	// middle), not the mean of the two middle elements.
	issues := []models.Issue{
		agedIssue("PROJ-1", 10, now),
		agedIssue("PROJ-2", 20, now),
		agedIssue("PROJ-3", 30, now),
		agedIssue("PROJ-4", 40, now),
	}
	stats := AnalyzeAgeDistribution(issues, now)
	assert.Equal(t, 30, stats.MedianAgeDays)
	assert.InDelta(t, 25.0, stats.AverageAgeDays, 0.01)
	assert.Equal(t, 40, stats.OldestIssueDays)
	assert.Equal(t, 10, stats.NewestIssueDays)

	// Odd length: plain middle element.
	stats = AnalyzeAgeDistribution(issues[:3], now)
	assert.Equal(t, 20, stats.MedianAgeDays)
}

func TestAnalyzeCompleteness_EmptyPopulation(t *testing.T) {
	stats := AnalyzeCompleteness(nil)
	assert.Equal(t, 0, stats.TotalIssues)
	assert.Equal(t, 0.0, stats.FullyCompletePct)
	assert.Equal(t, 0.0, stats.HasDescriptionPct)
}

func TestAnalyzeCompleteness_FullyCompleteIsConjunction(t *testing.T) {
	issues := []models.Issue{
		issueWith(nil), // fully complete
		issueWith(func(i *models.Issue) { i.Description = nil }),
		issueWith(func(i *models.Issue) { i.Priority = nil }),
	}

	stats := AnalyzeCompleteness(issues)
	require.Equal(t, 3, stats.TotalIssues)
	assert.Equal(t, 1, stats.Counts.FullyComplete)

	// fully_complete is a conjunction, so its percentage can never exceed
	// any individual field percentage.
	assert.LessOrEqual(t, stats.FullyCompletePct, stats.HasDescriptionPct)
	assert.LessOrEqual(t, stats.FullyCompletePct, stats.HasEpicPct)
	assert.LessOrEqual(t, stats.FullyCompletePct, stats.HasPriorityPct)
	assert.LessOrEqual(t, stats.FullyCompletePct, stats.HasEstimatePct)
}

func TestAnalyzePriorityDistribution(t *testing.T) {
	issues := []models.Issue{
		issueWith(func(i *models.Issue) { i.Priority = strptr("High") }),
		issueWith(func(i *models.Issue) { i.Priority = strptr("High") }),
		issueWith(func(i *models.Issue) { i.Priority = strptr("Low") }),
		issueWith(func(i *models.Issue) { i.Priority = nil }),
	}

	stats := AnalyzePriorityDistribution(issues)
	assert.Equal(t, 4, stats.TotalIssues)
	assert.Equal(t, 2, stats.Distribution["High"])
	assert.Equal(t, 1, stats.Distribution["Low"])
	assert.Equal(t, 1, stats.Distribution["None"], "nil priority counts under the literal category None")
	assert.Equal(t, 1, stats.WithoutPriority)
	assert.Equal(t, "High", stats.MostCommon)
	assert.Equal(t, 2, stats.MostCommonCount)
}

func TestAnalyzePriorityDistribution_Empty(t *testing.T) {
	stats := AnalyzePriorityDistribution(nil)
	assert.Equal(t, 0, stats.TotalIssues)
	assert.Equal(t, 0, stats.WithoutPriority)
}

func TestAnalyzeEpicAssignment(t *testing.T) {
	epic := func(key string) func(*models.Issue) {
		return func(i *models.Issue) { i.EpicLink = strptr(key) }
	}
	noEpic := func(i *models.Issue) {
		i.EpicLink = nil
		i.EpicFields = nil
	}

	issues := []models.Issue{
		issueWith(epic("PROJ-100")),
		issueWith(epic("PROJ-100")),
		issueWith(epic("PROJ-200")),
		issueWith(noEpic),
	}

	stats := AnalyzeEpicAssignment(issues)
	assert.Equal(t, 3, stats.WithEpics)
	assert.Equal(t, 1, stats.WithoutEpics)
	assert.Equal(t, 1, stats.Orphaned)
	assert.Equal(t, 2, stats.UniqueEpics)
	assert.InDelta(t, 75.0, stats.AssignmentPct, 0.01)
	require.Len(t, stats.TopEpics, 2)
	assert.Equal(t, EpicCount{Key: "PROJ-100", Count: 2}, stats.TopEpics[0])
}

func TestAnalyzeEpicAssignment_Top10TiesKeepFirstEncounteredOrder(t *testing.T) {
	issues := make([]models.Issue, 0, 12)
	for i := 0; i < 12; i++ {
		key := "EPIC-" + string(rune('A'+i))
		issues = append(issues, issueWith(func(is *models.Issue) { is.EpicLink = strptr(key) }))
	}

	stats := AnalyzeEpicAssignment(issues)
	require.Len(t, stats.TopEpics, 10)
	assert.Equal(t, 12, stats.UniqueEpics)
	// All counts tie at 1, so the top-10 are the first ten encountered.
	assert.Equal(t, "EPIC-A", stats.TopEpics[0].Key)
	assert.Equal(t, "EPIC-J", stats.TopEpics[9].Key)
}

func TestAnalyzeStatusDistribution(t *testing.T) {
	issues := []models.Issue{
		issueWith(func(i *models.Issue) { i.Status = "To Do" }),
		issueWith(func(i *models.Issue) { i.Status = "To Do" }),
		issueWith(func(i *models.Issue) { i.Status = "In Review" }),
	}

	stats := AnalyzeStatusDistribution(issues)
	assert.Equal(t, 2, stats.UniqueStatuses)
	assert.Equal(t, "To Do", stats.MostCommon)
	assert.Equal(t, 2, stats.MostCommonCount)
}
