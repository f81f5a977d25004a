package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmorales/jiratools/internal/models"
)

func TestHygieneScore_LiteralWeights(t *testing.T) {
	completeness := CompletenessStats{FullyCompletePct: 50, TotalIssues: 10}
	age := AgeStats{AverageAgeDays: 45} // age score = 100 - 45/90*100 = 50
	priority := PriorityStats{TotalIssues: 10, WithoutPriority: 5}
	epics := EpicStats{AssignmentPct: 50}

	// 0.40*50 + 0.30*50 + 0.20*50 + 0.10*50 = 50.0; the weights are
	// 40/30/20/10 by design and must not drift.
	assert.Equal(t, 50.0, HygieneScore(completeness, age, priority, epics))

	// Isolate each weight with a 100-point component.
	assert.Equal(t, 40.0, HygieneScore(
		CompletenessStats{FullyCompletePct: 100},
		AgeStats{AverageAgeDays: 90},
		PriorityStats{},
		EpicStats{},
	))
	assert.Equal(t, 30.0, HygieneScore(
		CompletenessStats{},
		AgeStats{AverageAgeDays: 0},
		PriorityStats{},
		EpicStats{},
	))
	assert.Equal(t, 20.0, HygieneScore(
		CompletenessStats{},
		AgeStats{AverageAgeDays: 90},
		PriorityStats{},
		EpicStats{AssignmentPct: 100},
	))
	assert.Equal(t, 10.0, HygieneScore(
		CompletenessStats{},
		AgeStats{AverageAgeDays: 90},
		PriorityStats{TotalIssues: 5, WithoutPriority: 0},
		EpicStats{},
	))
}

func TestHygieneScore_AgePenaltyFlooredAtZero(t *testing.T) {
	// An average age far beyond the 90-day baseline contributes exactly
	// zero, never a negative term.
	score := HygieneScore(
		CompletenessStats{FullyCompletePct: 100},
		AgeStats{AverageAgeDays: 900},
		PriorityStats{TotalIssues: 10, WithoutPriority: 0},
		EpicStats{AssignmentPct: 100},
	)
	assert.Equal(t, 70.0, score)
}

func TestHygieneScore_PriorityTermFullWhenNoneMissing(t *testing.T) {
	score := HygieneScore(
		CompletenessStats{},
		AgeStats{AverageAgeDays: 900},
		PriorityStats{TotalIssues: 7, WithoutPriority: 0},
		EpicStats{},
	)
	assert.Equal(t, 10.0, score, "priority component at 100 contributes its full 10-point weight")
}

func TestHygieneScore_Bounds(t *testing.T) {
	worst := HygieneScore(CompletenessStats{}, AgeStats{AverageAgeDays: 10000}, PriorityStats{}, EpicStats{})
	best := HygieneScore(
		CompletenessStats{FullyCompletePct: 100},
		AgeStats{AverageAgeDays: 0},
		PriorityStats{TotalIssues: 1, WithoutPriority: 0},
		EpicStats{AssignmentPct: 100},
	)
	assert.Equal(t, 0.0, worst)
	assert.Equal(t, 100.0, best)
}

func TestAnalyzeBacklog_EmptyBacklog(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	report := AnalyzeBacklog(nil, now)
	assert.Equal(t, 0, report.TotalIssues)
	assert.Equal(t, 0.0, report.HygieneScore)
	assert.Empty(t, report.Recommendations)
	assert.NotNil(t, report.Recommendations)
}

func TestAnalyzeBacklog_ScoreInRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	issues := []models.Issue{
		issueWith(func(i *models.Issue) { i.Created = now.AddDate(0, 0, -5) }),
		issueWith(func(i *models.Issue) {
			i.Key = "PROJ-2"
			i.Created = now.AddDate(0, 0, -200)
			i.Description = nil
			i.Priority = nil
		}),
		issueWith(func(i *models.Issue) {
			i.Key = "PROJ-3"
			i.Created = now.AddDate(0, 0, -45)
			i.EpicLink = nil
		}),
	}

	report := AnalyzeBacklog(issues, now)
	assert.GreaterOrEqual(t, report.HygieneScore, 0.0)
	assert.LessOrEqual(t, report.HygieneScore, 100.0)
	assert.Equal(t, 3, report.TotalIssues)
}

func TestAnalyzeBacklog_AgedStoryScenario(t *testing.T) {
	// Issue created 95 days ago, no description, no epic, priority High,
	// estimate present, type Story: bucket 91-180_days, not fully complete
	// even though epic/priority/estimate checks individually pass or fail
	// independently of the description.
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	issue := models.Issue{
		Key:            "PROJ-95",
		Summary:        "Aged story",
		Status:         "To Do",
		Priority:       strptr("High"),
		Type:           "Story",
		Created:        now.AddDate(0, 0, -95),
		EstimateFields: map[string]float64{"customfield_10016": 5},
	}

	report := AnalyzeBacklog([]models.Issue{issue}, now)
	assert.Equal(t, 1, report.Age.Distribution[Bucket91To180])

	c := EvaluateCompleteness(issue)
	assert.False(t, c.HasDescription)
	assert.True(t, c.HasPriority)
	assert.True(t, c.HasEstimate)
	assert.False(t, c.FullyComplete, "missing description alone blocks full completeness")
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	issues := []models.Issue{
		issueWith(func(i *models.Issue) { i.Created = now }),
		issueWith(func(i *models.Issue) {
			i.Key = "PROJ-2"
			i.Created = now
			i.Description = nil
			i.EpicLink = nil
			i.EpicFields = nil
		}),
	}

	summary := Summarize(issues, now)
	assert.Equal(t, 2, summary.TotalIssues)
	assert.Equal(t, 1, summary.WithDescriptions)
	assert.Equal(t, 1, summary.WithEpics)
	assert.Equal(t, 0.0, summary.AverageAgeDays)
	// (50 + 50 + 100) / 3
	assert.InDelta(t, 66.7, summary.HygieneScore, 0.01)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil, time.Now())
	assert.Equal(t, 0.0, summary.HygieneScore)
	assert.Equal(t, "No backlog issues found", summary.Message)
}

func TestRecommendations_ThresholdsAndOrder(t *testing.T) {
	completeness := CompletenessStats{
		HasDescriptionPct: 50, // < 80: triggers
		HasEstimatePct:    40, // < 60: triggers
	}
	age := AgeStats{AverageAgeDays: 75.5}                       // > 60: triggers
	priority := PriorityStats{TotalIssues: 10, WithoutPriority: 3} // > 0: triggers
	epics := EpicStats{AssignmentPct: 50, Orphaned: 5}          // < 70: triggers

	recs := Recommendations(completeness, age, priority, epics)
	require.Len(t, recs, 5)

	// The emission order is a contract, not a severity ranking.
	assert.Equal(t, "Add meaningful descriptions to issues missing descriptions", recs[0])
	assert.Equal(t, "Assign 5 orphaned issues to appropriate epics", recs[1])
	assert.Equal(t, "Review and prioritize old issues (average age: 75.5 days)", recs[2])
	assert.Equal(t, "Set priorities for 3 issues without priority", recs[3])
	assert.Equal(t, "Estimate story points for unestimated stories and tasks", recs[4])
}

func TestRecommendations_NoneTriggered(t *testing.T) {
	completeness := CompletenessStats{HasDescriptionPct: 95, HasEstimatePct: 90}
	age := AgeStats{AverageAgeDays: 20}
	priority := PriorityStats{TotalIssues: 10, WithoutPriority: 0}
	epics := EpicStats{AssignmentPct: 85}

	recs := Recommendations(completeness, age, priority, epics)
	assert.Empty(t, recs)
	assert.NotNil(t, recs)
}

func TestRecommendations_BoundaryValuesDoNotTrigger(t *testing.T) {
	// Thresholds are strict comparisons: exactly-at-threshold metrics stay quiet.
	completeness := CompletenessStats{HasDescriptionPct: 80, HasEstimatePct: 60}
	age := AgeStats{AverageAgeDays: 60}
	priority := PriorityStats{TotalIssues: 10, WithoutPriority: 0}
	epics := EpicStats{AssignmentPct: 70}

	assert.Empty(t, Recommendations(completeness, age, priority, epics))
}
