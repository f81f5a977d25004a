package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pmorales/jiratools/internal/analysis"
	"github.com/pmorales/jiratools/internal/models"
)

func timeptr(t time.Time) *time.Time { return &t }

func sampleSprintResult() analysis.SprintResult {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 14, 23, 59, 59, 0, time.UTC)
	done := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	return analysis.SprintResult{
		SprintID:              7,
		SprintName:            "Sprint 42",
		State:                 models.SprintStateClosed,
		StartDate:             &start,
		EndDate:               &end,
		TotalTasks:            2,
		CompletedWithinSprint: 1,
		CompletionRate:        50,
		Tasks: []analysis.TaskDetail{
			{Key: "PROJ-1", Summary: "Ship login flow", CurrentStatus: "Done", CompletionDate: &done, CompletedWithinSprint: true},
			{Key: "PROJ-2", Summary: "Fix <script> injection in search results rendering which has a very long summary", CurrentStatus: "In Progress"},
		},
	}
}

func TestSprintReportSections(t *testing.T) {
	r := Renderer{JiraBaseURL: "https://jira.example.com/"}
	html := r.SprintReport(sampleSprintResult(), "Great sprint overall.", 62.5, true)

	assert.Contains(t, html, "<h1>🏃 Sprint Analysis Report</h1>")
	assert.Contains(t, html, "<strong>Sprint:</strong> Sprint 42")
	assert.Contains(t, html, "<strong>Sprint State:</strong> closed")
	assert.Contains(t, html, "<strong>Start Date:</strong> 2024-06-01")
	assert.Contains(t, html, "<tr><td><strong>Completion Rate</strong></td><td>50.0%</td></tr>")
	assert.Contains(t, html, "Great sprint overall.")
	assert.Contains(t, html, "border-left: 4px solid #007bff")
}

func TestSprintReportTicketLinks(t *testing.T) {
	r := Renderer{JiraBaseURL: "https://jira.example.com/"}
	html := r.SprintReport(sampleSprintResult(), "ok", 0, false)

	// Trailing slash on the base URL must not produce a double slash.
	assert.Contains(t, html, `<a href="https://jira.example.com/browse/PROJ-1" target="_blank"><strong>PROJ-1</strong></a>`)
}

func TestSprintReportEscapesAndTruncatesSummaries(t *testing.T) {
	r := Renderer{}
	html := r.SprintReport(sampleSprintResult(), "ok", 0, false)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "Fix &lt;script&gt;")
	assert.Contains(t, html, "...")
}

func TestSprintReportTaskRows(t *testing.T) {
	r := Renderer{}
	html := r.SprintReport(sampleSprintResult(), "ok", 0, false)

	assert.Contains(t, html, "✅")
	assert.Contains(t, html, "2024-06-10")
	assert.Contains(t, html, "❌")
	assert.Contains(t, html, "Not completed")
}

func TestSprintReportPerformanceContext(t *testing.T) {
	r := Renderer{}

	above := sampleSprintResult()
	above.CompletionRate = 75
	html := r.SprintReport(above, "ok", 62.5, true)
	assert.Contains(t, html, "🟢 Above Average")
	assert.Contains(t, html, "12.5% better than the team average")

	below := sampleSprintResult()
	below.CompletionRate = 50
	html = r.SprintReport(below, "ok", 62.5, true)
	assert.Contains(t, html, "🔴 Below Average")
	assert.Contains(t, html, "12.5% below the team average")

	at := sampleSprintResult()
	at.CompletionRate = 62.5
	html = r.SprintReport(at, "ok", 62.5, true)
	assert.Contains(t, html, "🟡 At Average")
}

func TestSprintReportWithoutAverageOmitsContext(t *testing.T) {
	r := Renderer{}
	html := r.SprintReport(sampleSprintResult(), "ok", 0, false)
	assert.NotContains(t, html, "Team Performance Context")
}

func TestSprintReportEmptyTasks(t *testing.T) {
	r := Renderer{}
	result := sampleSprintResult()
	result.Tasks = nil
	html := r.SprintReport(result, "ok", 0, false)
	assert.Contains(t, html, "No tasks found in this sprint.")
}

func TestSprintNotFound(t *testing.T) {
	r := Renderer{}
	html := r.SprintNotFound("Sprint <99>")
	assert.Contains(t, html, "❌ Sprint Not Found")
	assert.Contains(t, html, "Sprint &lt;99&gt;")
}

func TestMultiSprintReport(t *testing.T) {
	r := Renderer{}
	end := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	result := analysis.MultiSprintResult{
		AnalysisType: "monthly",
		SprintResults: []analysis.SprintResult{
			{SprintName: "Sprint 41", EndDate: &end, TotalTasks: 10, CompletedWithinSprint: 9, CompletionRate: 90},
			{SprintName: "Sprint 42", TotalTasks: 1, CompletedWithinSprint: 0, CompletionRate: 0},
		},
		TotalTasks:            11,
		TotalCompleted:        9,
		AverageCompletionRate: 81.818,
		BestSprintRate:        90,
		WorstSprintRate:       0,
	}
	html := r.MultiSprintReport(result, "Two sprints analyzed.")

	assert.Contains(t, html, "Multi-Sprint Analysis Report")
	assert.Contains(t, html, "<tr><td><strong>Sprints Analyzed</strong></td><td>2</td></tr>")
	assert.Contains(t, html, "<tr><td><strong>Overall Completion Rate</strong></td><td>81.8%</td></tr>")
	assert.Contains(t, html, "<tr><td>Sprint 41</td><td>2024-06-14</td><td>10</td><td>9</td><td>90.0%</td></tr>")
	assert.Contains(t, html, "<tr><td>Sprint 42</td><td>N/A</td><td>1</td><td>0</td><td>0.0%</td></tr>")
	assert.Contains(t, html, "Two sprints analyzed.")
}

func sampleHygieneReport(score float64) analysis.HygieneReport {
	return analysis.HygieneReport{
		TotalIssues:  40,
		HygieneScore: score,
		Completeness: analysis.CompletenessStats{
			Counts: analysis.CompletenessCounts{
				HasDescription: 30, HasEpic: 24, HasPriority: 36, HasEstimate: 10, FullyComplete: 8,
			},
			HasDescriptionPct: 75, HasEpicPct: 60, HasPriorityPct: 90,
			HasEstimatePct: 25, FullyCompletePct: 20, TotalIssues: 40,
		},
		Age: analysis.AgeStats{
			Distribution: map[analysis.AgeBucket]int{
				analysis.Bucket0To7:    3,
				analysis.Bucket8To30:   7,
				analysis.Bucket31To90:  12,
				analysis.Bucket91To180: 10,
				analysis.BucketOver180: 8,
			},
			AverageAgeDays: 130.4, MedianAgeDays: 95, OldestIssueDays: 410,
		},
		Priority: analysis.PriorityStats{WithoutPriority: 4, MostCommon: "Medium"},
		Epics:    analysis.EpicStats{AssignmentPct: 60, Orphaned: 16, UniqueEpics: 5},
		Recommendations: []string{
			"Add descriptions to issues missing them",
			"Review issues older than 180 days",
		},
	}
}

func TestHygieneReportSections(t *testing.T) {
	r := Renderer{}
	html := r.HygieneReport(sampleHygieneReport(55.5), "Clean up the backlog.")

	assert.Contains(t, html, "<h1>🧹 Backlog Hygiene Report</h1>")
	assert.Contains(t, html, "55.5%")
	assert.Contains(t, html, "<tr><td><strong>Descriptions</strong></td><td>30</td><td>75.0%</td></tr>")
	assert.Contains(t, html, "<strong>Average Age:</strong> 130.4 days")
	assert.Contains(t, html, "<tr><td>180+_days</td><td>8</td></tr>")
	assert.Contains(t, html, "<tr><td><strong>Orphaned Issues</strong></td><td>16</td></tr>")
	assert.Contains(t, html, "Clean up the backlog.")
	assert.Contains(t, html, "<li>Add descriptions to issues missing them</li>")
}

func TestHygieneReportScoreBadges(t *testing.T) {
	r := Renderer{}

	html := r.HygieneReport(sampleHygieneReport(85), "ok")
	assert.Contains(t, html, "🟢 Excellent")
	assert.Contains(t, html, "#28a745")

	html = r.HygieneReport(sampleHygieneReport(65), "ok")
	assert.Contains(t, html, "🟡 Good")
	assert.Contains(t, html, "#ffc107")

	html = r.HygieneReport(sampleHygieneReport(40), "ok")
	assert.Contains(t, html, "🔴 Needs Improvement")
	assert.Contains(t, html, "#dc3545")
}

func TestHygieneReportAgeBucketsInOrder(t *testing.T) {
	r := Renderer{}
	html := r.HygieneReport(sampleHygieneReport(55.5), "ok")

	first := strings.Index(html, "<tr><td>0-7_days</td>")
	last := strings.Index(html, "<tr><td>180+_days</td>")
	assert.Greater(t, first, -1)
	assert.Less(t, first, last)
}
