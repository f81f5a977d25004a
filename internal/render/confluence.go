// Package render produces Confluence storage-format HTML for analysis
// reports. Output is deterministic for a given input so republished pages
// only change when the data does.
package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/pmorales/jiratools/internal/analysis"
)

const dateOnly = "2006-01-02"

// Renderer builds report pages. JiraBaseURL, when set, turns issue keys into
// browse links.
type Renderer struct {
	JiraBaseURL string
}

func (r Renderer) ticketLink(key string) string {
	if key == "" {
		return "N/A"
	}
	if r.JiraBaseURL == "" {
		return fmt.Sprintf("<strong>%s</strong>", html.EscapeString(key))
	}
	base := strings.TrimRight(r.JiraBaseURL, "/")
	return fmt.Sprintf(`<a href="%s/browse/%s" target="_blank"><strong>%s</strong></a>`,
		base, html.EscapeString(key), html.EscapeString(key))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format(dateOnly)
}

func narrativeBlock(text string) string {
	paragraphs := strings.Split(html.EscapeString(text), "\n")
	var sb strings.Builder
	sb.WriteString(`<div style="background-color: #f8f9fa; padding: 15px; border-left: 4px solid #007bff; margin: 10px 0;">`)
	for _, p := range paragraphs {
		fmt.Fprintf(&sb, "<p>%s</p>", p)
	}
	sb.WriteString("</div>")
	return sb.String()
}

func metricRow(sb *strings.Builder, label, value string) {
	fmt.Fprintf(sb, "<tr><td><strong>%s</strong></td><td>%s</td></tr>", label, value)
}

// SprintReport renders a single-sprint analysis page. teamAverage is the
// unweighted recent-sprint rate used for context; pass hasAverage false when
// it could not be computed.
func (r Renderer) SprintReport(result analysis.SprintResult, aiSummary string, teamAverage float64, hasAverage bool) string {
	var sb strings.Builder
	sb.WriteString("<h1>🏃 Sprint Analysis Report</h1>")

	sb.WriteString("<h2>📊 Sprint Summary</h2>")
	fmt.Fprintf(&sb, "<p><strong>Sprint:</strong> %s</p>", html.EscapeString(result.SprintName))
	fmt.Fprintf(&sb, "<p><strong>Sprint State:</strong> %s</p>", html.EscapeString(string(result.State)))
	fmt.Fprintf(&sb, "<p><strong>Start Date:</strong> %s</p>", formatDate(result.StartDate))
	fmt.Fprintf(&sb, "<p><strong>End Date:</strong> %s</p>", formatDate(result.EndDate))

	sb.WriteString(`<table class="wrapped"><tr><th>Metric</th><th>Value</th></tr>`)
	metricRow(&sb, "Total Tasks", fmt.Sprint(result.TotalTasks))
	metricRow(&sb, "Completed Within Sprint", fmt.Sprint(result.CompletedWithinSprint))
	metricRow(&sb, "Completion Rate", fmt.Sprintf("%.1f%%", result.CompletionRate))
	sb.WriteString("</table>")

	sb.WriteString("<h2>🤖 AI Sprint Achievement Summary</h2>")
	sb.WriteString(narrativeBlock(aiSummary))

	if hasAverage {
		sb.WriteString(r.performanceContext(result.CompletionRate, teamAverage))
	}

	sb.WriteString(r.taskTable(result.Tasks))
	return sb.String()
}

// SprintNotFound renders the page body for a by-name lookup miss.
func (r Renderer) SprintNotFound(sprintName string) string {
	var sb strings.Builder
	sb.WriteString("<h1>🏃 Sprint Analysis Report</h1>")
	sb.WriteString("<h2>❌ Sprint Not Found</h2>")
	fmt.Fprintf(&sb, "<p><strong>Searched for:</strong> %s</p>", html.EscapeString(sprintName))
	sb.WriteString("<p>Check the sprint name and try again. Names are matched case-insensitively across active, closed and future sprints.</p>")
	return sb.String()
}

func (r Renderer) performanceContext(current, average float64) string {
	var indicator, comparison string
	switch {
	case current > average:
		indicator = "🟢 Above Average"
		comparison = fmt.Sprintf("This sprint performed %.1f%% better than the team average.", current-average)
	case current < average:
		indicator = "🔴 Below Average"
		comparison = fmt.Sprintf("This sprint performed %.1f%% below the team average.", average-current)
	default:
		indicator = "🟡 At Average"
		comparison = "This sprint performed at the team average."
	}

	var sb strings.Builder
	sb.WriteString("<h2>📈 Team Performance Context</h2>")
	sb.WriteString(`<table class="wrapped"><tr><th>Metric</th><th>Value</th></tr>`)
	metricRow(&sb, "Current Sprint Rate", fmt.Sprintf("%.1f%%", current))
	metricRow(&sb, "Team Average (Last 4 Sprints)", fmt.Sprintf("%.1f%%", average))
	metricRow(&sb, "Performance", indicator)
	sb.WriteString("</table>")
	fmt.Fprintf(&sb, "<p><strong>Analysis:</strong> %s</p>", comparison)
	return sb.String()
}

func (r Renderer) taskTable(tasks []analysis.TaskDetail) string {
	if len(tasks) == 0 {
		return "<h2>📋 Task Details</h2><p>No tasks found in this sprint.</p>"
	}

	var sb strings.Builder
	sb.WriteString("<h2>📋 Task Details</h2>")
	sb.WriteString(`<table class="wrapped"><tr><th>Task Key</th><th>Summary</th><th>Status</th><th>Completed in Sprint</th><th>Done Date</th></tr>`)
	for _, task := range tasks {
		mark := "❌"
		if task.CompletedWithinSprint {
			mark = "✅"
		}
		doneDate := "Not completed"
		if task.CompletionDate != nil {
			doneDate = task.CompletionDate.Format(dateOnly)
		}
		fmt.Fprintf(&sb, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			r.ticketLink(task.Key),
			html.EscapeString(truncate(task.Summary, 60)),
			html.EscapeString(task.CurrentStatus),
			mark,
			doneDate)
	}
	sb.WriteString("</table>")
	return sb.String()
}

// MultiSprintReport renders the aggregate page for a month or last-N
// analysis.
func (r Renderer) MultiSprintReport(result analysis.MultiSprintResult, aiSummary string) string {
	var sb strings.Builder
	sb.WriteString("<h1>🏃 Multi-Sprint Analysis Report</h1>")

	sb.WriteString("<h2>📊 Overall Performance</h2>")
	sb.WriteString(`<table class="wrapped"><tr><th>Metric</th><th>Value</th></tr>`)
	metricRow(&sb, "Analysis Type", html.EscapeString(result.AnalysisType))
	metricRow(&sb, "Sprints Analyzed", fmt.Sprint(len(result.SprintResults)))
	metricRow(&sb, "Total Tasks", fmt.Sprint(result.TotalTasks))
	metricRow(&sb, "Completed On Time", fmt.Sprint(result.TotalCompleted))
	metricRow(&sb, "Overall Completion Rate", fmt.Sprintf("%.1f%%", result.AverageCompletionRate))
	metricRow(&sb, "Best Sprint Rate", fmt.Sprintf("%.1f%%", result.BestSprintRate))
	metricRow(&sb, "Worst Sprint Rate", fmt.Sprintf("%.1f%%", result.WorstSprintRate))
	sb.WriteString("</table>")

	sb.WriteString("<h2>🤖 AI Performance Summary</h2>")
	sb.WriteString(narrativeBlock(aiSummary))

	sb.WriteString("<h2>📋 Per-Sprint Breakdown</h2>")
	sb.WriteString(`<table class="wrapped"><tr><th>Sprint</th><th>End Date</th><th>Tasks</th><th>Completed</th><th>Rate</th></tr>`)
	for _, sprint := range result.SprintResults {
		fmt.Fprintf(&sb, "<tr><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%.1f%%</td></tr>",
			html.EscapeString(sprint.SprintName),
			formatDate(sprint.EndDate),
			sprint.TotalTasks,
			sprint.CompletedWithinSprint,
			sprint.CompletionRate)
	}
	sb.WriteString("</table>")
	return sb.String()
}

// HygieneReport renders the backlog-hygiene page.
func (r Renderer) HygieneReport(report analysis.HygieneReport, aiRecommendations string) string {
	var sb strings.Builder
	sb.WriteString("<h1>🧹 Backlog Hygiene Report</h1>")

	emoji, status, color := scoreBadge(report.HygieneScore)
	sb.WriteString("<h2>📊 Overall Hygiene Summary</h2>")
	sb.WriteString(`<table class="wrapped"><tr><th>Metric</th><th>Value</th></tr>`)
	metricRow(&sb, "Total Backlog Issues", fmt.Sprint(report.TotalIssues))
	metricRow(&sb, "Hygiene Score",
		fmt.Sprintf(`<span style="color: %s; font-weight: bold;">%.1f%%</span>`, color, report.HygieneScore))
	metricRow(&sb, "Status", emoji+" "+status)
	sb.WriteString("</table>")

	sb.WriteString("<h2>📝 Completeness Analysis</h2>")
	sb.WriteString(`<table class="wrapped"><tr><th>Field</th><th>Issues with Field</th><th>Percentage</th></tr>`)
	completenessRow(&sb, "Descriptions", report.Completeness.Counts.HasDescription, report.Completeness.HasDescriptionPct)
	completenessRow(&sb, "Epics", report.Completeness.Counts.HasEpic, report.Completeness.HasEpicPct)
	completenessRow(&sb, "Priorities", report.Completeness.Counts.HasPriority, report.Completeness.HasPriorityPct)
	completenessRow(&sb, "Story Points", report.Completeness.Counts.HasEstimate, report.Completeness.HasEstimatePct)
	completenessRow(&sb, "Fully Complete", report.Completeness.Counts.FullyComplete, report.Completeness.FullyCompletePct)
	sb.WriteString("</table>")

	sb.WriteString("<h2>📅 Age Distribution</h2>")
	fmt.Fprintf(&sb, "<p><strong>Average Age:</strong> %.1f days | <strong>Median:</strong> %d days | <strong>Oldest:</strong> %d days</p>",
		report.Age.AverageAgeDays, report.Age.MedianAgeDays, report.Age.OldestIssueDays)
	sb.WriteString(`<table class="wrapped"><tr><th>Age Bucket</th><th>Issues</th></tr>`)
	for _, bucket := range analysis.AgeBuckets {
		fmt.Fprintf(&sb, "<tr><td>%s</td><td>%d</td></tr>", bucket, report.Age.Distribution[bucket])
	}
	sb.WriteString("</table>")

	sb.WriteString("<h2>🎯 Priority & Epic Assignment</h2>")
	sb.WriteString(`<table class="wrapped"><tr><th>Metric</th><th>Value</th></tr>`)
	metricRow(&sb, "Issues Without Priority", fmt.Sprint(report.Priority.WithoutPriority))
	metricRow(&sb, "Most Common Priority", html.EscapeString(report.Priority.MostCommon))
	metricRow(&sb, "Epic Assignment Rate", fmt.Sprintf("%.1f%%", report.Epics.AssignmentPct))
	metricRow(&sb, "Orphaned Issues", fmt.Sprint(report.Epics.Orphaned))
	metricRow(&sb, "Unique Epics", fmt.Sprint(report.Epics.UniqueEpics))
	sb.WriteString("</table>")

	sb.WriteString("<h2>🤖 AI Recommendations</h2>")
	sb.WriteString(narrativeBlock(aiRecommendations))

	if len(report.Recommendations) > 0 {
		sb.WriteString("<h2>✅ Action Items</h2><ul>")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(rec))
		}
		sb.WriteString("</ul>")
	}
	return sb.String()
}

func scoreBadge(score float64) (emoji, status, color string) {
	switch {
	case score >= 80:
		return "🟢", "Excellent", "#28a745"
	case score >= 60:
		return "🟡", "Good", "#ffc107"
	default:
		return "🔴", "Needs Improvement", "#dc3545"
	}
}

func completenessRow(sb *strings.Builder, field string, count int, pct float64) {
	fmt.Fprintf(sb, "<tr><td><strong>%s</strong></td><td>%d</td><td>%.1f%%</td></tr>", field, count, pct)
}
